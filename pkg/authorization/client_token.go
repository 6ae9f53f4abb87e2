package authorization

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ClientToken is a session-scoped credential. Only its authorization
// fingerprint is sent on the wire.
type ClientToken struct {
	raw                      string
	configURL                string
	authorizationFingerprint string
}

type clientTokenPayload struct {
	ConfigURL                string `json:"configUrl"`
	AuthorizationFingerprint string `json:"authorizationFingerprint"`
}

// ParseClientToken accepts the token either as JSON or as base64 encoded JSON.
func ParseClientToken(raw string) (ClientToken, error) {
	raw = strings.TrimSpace(raw)
	data, err := decodeClientToken(raw)
	if err != nil {
		return ClientToken{}, err
	}

	var payload clientTokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ClientToken{}, fmt.Errorf("%w: decode client token: %v", ErrInvalidAuthorization, err)
	}

	fingerprint := strings.TrimSpace(payload.AuthorizationFingerprint)
	if fingerprint == "" {
		return ClientToken{}, fmt.Errorf("%w: client token has no authorization fingerprint", ErrInvalidAuthorization)
	}

	return ClientToken{
		raw:                      raw,
		configURL:                strings.TrimSpace(payload.ConfigURL),
		authorizationFingerprint: fingerprint,
	}, nil
}

func decodeClientToken(raw string) ([]byte, error) {
	if strings.HasPrefix(raw, "{") {
		return []byte(raw), nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		if data, err := enc.DecodeString(raw); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: client token is neither JSON nor base64", ErrInvalidAuthorization)
}

func (c ClientToken) Bearer() string                   { return c.authorizationFingerprint }
func (c ClientToken) ConfigURL() string                { return c.configURL }
func (c ClientToken) String() string                   { return c.raw }
func (c ClientToken) AuthorizationFingerprint() string { return c.authorizationFingerprint }
