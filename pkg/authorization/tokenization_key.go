package authorization

import (
	"fmt"
	"strings"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentSandbox     = "sandbox"
	EnvironmentProduction  = "production"

	configPathFormat = "merchants/%s/client_api/v1/configuration"
)

var environmentBaseURLs = map[string]string{
	EnvironmentDevelopment: "http://10.0.2.2:3000/",
	EnvironmentSandbox:     "https://api.sandbox.braintreegateway.com/",
	EnvironmentProduction:  "https://api.braintreegateway.com/",
}

// TokenizationKey is a long-lived, publicly shareable merchant credential.
type TokenizationKey struct {
	raw         string
	environment string
	merchantID  string
	configURL   string
}

// ParseTokenizationKey validates raw and derives its environment and merchant id.
func ParseTokenizationKey(raw string) (TokenizationKey, error) {
	raw = strings.TrimSpace(raw)
	if !IsTokenizationKey(raw) {
		return TokenizationKey{}, fmt.Errorf("%w: malformed tokenization key", ErrInvalidAuthorization)
	}

	parts := strings.SplitN(raw, "_", 3)
	env, merchantID := parts[0], parts[1]
	base, ok := environmentBaseURLs[env]
	if !ok {
		return TokenizationKey{}, fmt.Errorf("%w: tokenization key contained invalid environment %q", ErrInvalidAuthorization, env)
	}

	return TokenizationKey{
		raw:         raw,
		environment: env,
		merchantID:  merchantID,
		configURL:   base + fmt.Sprintf(configPathFormat, merchantID),
	}, nil
}

func (k TokenizationKey) Bearer() string      { return k.raw }
func (k TokenizationKey) ConfigURL() string   { return k.configURL }
func (k TokenizationKey) String() string      { return k.raw }
func (k TokenizationKey) Environment() string { return k.environment }
func (k TokenizationKey) MerchantID() string  { return k.merchantID }
