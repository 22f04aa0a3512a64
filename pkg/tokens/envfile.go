package tokens

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Keys used in the environment file.
const (
	TokensKey   = "API_TOKENS"
	UpstreamKey = "OLLAMA_API_BASE"
)

// ReadEnvFile parses an environment file into a key/value map. A missing
// file yields an empty map and no error.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return env, nil
}

// LoadFile reads the token set stored under API_TOKENS in the environment
// file at path. A missing file or key yields an empty set.
func LoadFile(path string) (Set, error) {
	env, err := ReadEnvFile(path)
	if err != nil {
		return Set{}, err
	}
	return Parse(env[TokensKey]), nil
}

// UpdateEnvFile reads the environment file at path (or starts from an empty
// map when it does not exist), applies mutate, and writes the result back.
// Keys not touched by mutate are preserved; comments are not.
func UpdateEnvFile(path string, mutate func(env map[string]string)) error {
	env, err := ReadEnvFile(path)
	if err != nil {
		return err
	}

	mutate(env)

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("writing env file %s: %w", path, err)
	}
	return nil
}

// AddToken appends token to the API_TOKENS list in the environment file at
// path, creating the file if needed. It reports whether the token was newly
// added; adding a token that is already present leaves the file untouched.
func AddToken(path, token string) (bool, error) {
	if err := Validate(token); err != nil {
		return false, err
	}

	current, err := LoadFile(path)
	if err != nil {
		return false, err
	}

	next, added := current.With(token)
	if !added {
		return false, nil
	}

	err = UpdateEnvFile(path, func(env map[string]string) {
		env[TokensKey] = next.String()
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetUpstream records the inference server base URL in the environment file.
func SetUpstream(path, baseURL string) error {
	return UpdateEnvFile(path, func(env map[string]string) {
		env[UpstreamKey] = baseURL
	})
}
