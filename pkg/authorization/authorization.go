package authorization

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidAuthorization is wrapped by every parse failure in this package.
var ErrInvalidAuthorization = errors.New("authorization provided is invalid")

var tokenizationKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]+_[a-zA-Z0-9]+_[a-zA-Z0-9_]+$`)

// Authorization is a credential able to produce the bearer value sent in the
// Authorization header.
type Authorization interface {
	// Bearer returns the secret placed after "Bearer " in the header.
	Bearer() string
	// ConfigURL returns the client configuration URL bound to the credential.
	ConfigURL() string
	String() string
}

// FromString parses raw as a tokenization key when it has the key shape and as
// a client token otherwise.
func FromString(raw string) (Authorization, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Join(ErrInvalidAuthorization, errors.New("authorization is empty"))
	}
	if IsTokenizationKey(raw) {
		return ParseTokenizationKey(raw)
	}
	return ParseClientToken(raw)
}

// IsTokenizationKey reports whether raw has the environment_merchant_id shape.
func IsTokenizationKey(raw string) bool {
	return tokenizationKeyPattern.MatchString(raw)
}

// HeaderValue builds the Authorization header value for a credential.
func HeaderValue(auth Authorization) string {
	if auth == nil {
		return ""
	}
	return "Bearer " + auth.Bearer()
}
