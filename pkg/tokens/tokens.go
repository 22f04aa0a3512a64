// Package tokens manages the set of bearer tokens accepted by the gateway.
//
// Tokens live in an environment file as the comma-separated API_TOKENS key.
// The server reads them once at start-up into an immutable Set. Adding a
// token is an offline administrative step that rewrites the file; a running
// server never writes it.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidToken is returned for tokens that cannot be stored in the
// comma-separated list: empty values, or values containing commas,
// whitespace, or quotes.
var ErrInvalidToken = errors.New("token must be non-empty and must not contain commas, quotes, or whitespace")

// Set is an ordered, duplicate-free collection of tokens. The zero value is
// an empty set. A Set is never mutated in place, so it is safe to share
// between goroutines.
type Set struct {
	tokens []string
}

// New builds a Set from the given tokens, dropping empty entries and
// duplicates while keeping first-seen order.
func New(tokens ...string) Set {
	var s Set
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		s.tokens = append(s.tokens, t)
	}
	return s
}

// Parse builds a Set from a comma-separated list such as "a,b,c".
func Parse(list string) Set {
	return New(strings.Split(list, ",")...)
}

// Contains reports whether token is a member of the set.
func (s Set) Contains(token string) bool {
	for _, t := range s.tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Len returns the number of tokens in the set.
func (s Set) Len() int {
	return len(s.tokens)
}

// Tokens returns a copy of the tokens in insertion order.
func (s Set) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// String renders the set in its persisted comma-separated form.
func (s Set) String() string {
	return strings.Join(s.tokens, ",")
}

// With returns a new set that also contains token. The boolean is false
// when the token was already present.
func (s Set) With(token string) (Set, bool) {
	if s.Contains(token) {
		return s, false
	}
	return New(append(s.Tokens(), token)...), true
}

// Validate checks that token can be stored in the comma-separated list.
func Validate(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	for _, r := range token {
		if r == ',' || r == '"' || r == '\'' || unicode.IsSpace(r) {
			return ErrInvalidToken
		}
	}
	return nil
}

// Fingerprint returns a short, non-reversible identifier for token that is
// safe to print in logs and CLI output.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "tok_" + hex.EncodeToString(sum[:4])
}
