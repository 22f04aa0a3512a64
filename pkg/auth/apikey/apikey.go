// Package apikey provides a bearer-token authenticator that checks tokens
// against a fixed set using SHA-256 hashing and constant-time comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rhuss/ollagate/pkg/auth"
	"github.com/rhuss/ollagate/pkg/tokens"
)

// Method is the Identity.Method value set for accepted callers.
const Method = "bearer"

type keyEntry struct {
	hash        [32]byte
	fingerprint string
}

// Authenticator validates bearer tokens against a static token set.
type Authenticator struct {
	keys []keyEntry
}

// New creates an authenticator for the given token set. Tokens are hashed
// immediately; plaintext tokens are not retained.
func New(set tokens.Set) *Authenticator {
	a := &Authenticator{}
	for _, tok := range set.Tokens() {
		a.keys = append(a.keys, keyEntry{
			hash:        sha256.Sum256([]byte(tok)),
			fingerprint: tokens.Fingerprint(tok),
		})
	}
	return a
}

// Len returns the number of accepted tokens.
func (a *Authenticator) Len() int {
	return len(a.keys)
}

// Authenticate extracts the bearer token and validates it.
// Returns Yes if valid, No if a bearer token is present but unknown, and
// Abstain if there is no Authorization header or it uses another scheme.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}

	tokenHash := sha256.Sum256([]byte(token))

	// Every entry is compared so timing does not reveal the match position.
	match := -1
	for i, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.hash[:]) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: a.keys[match].fingerprint, Method: Method},
	}
}

// bearerToken splits an Authorization header value. The scheme match is
// case-insensitive. ok is false when the header is absent or not Bearer.
func bearerToken(header string) (token string, ok bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		if strings.EqualFold(scheme, "Bearer") {
			return "", true
		}
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
