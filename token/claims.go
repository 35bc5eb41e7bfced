// Package token decodes the payload of a bearer token issued by the
// ctrlX identity manager. The device signs its tokens with a key the
// client never holds, so the payload is parsed without signature
// verification; the claims are only used to schedule proactive renewal,
// never to make an authorization decision locally.
package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is the decoded view of a device token payload. Iat and Exp are
// always present on tokens the identity manager issues; the remaining
// fields depend on the device configuration.
type Claims struct {
	ID        string   `json:"id,omitempty"`    // User's unique ID on the device
	Name      string   `json:"name,omitempty"`  // Username the token was issued to
	Iat       int64    `json:"iat"`             // Issued at (unix seconds)
	Exp       int64    `json:"exp"`             // Expiration (unix seconds)
	Scope     []string `json:"scope,omitempty"` // Granted permission scopes
	PlcHandle int64    `json:"plchandle,omitempty"`
	Remote    string   `json:"remoteauth,omitempty"`
}

// Decode parses the claims of a raw compact JWT without verifying its
// signature. It fails on a malformed token (wrong segment count, invalid
// encoding, invalid JSON payload) or when either time claim is missing.
func Decode(raw string) (*Claims, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "token.Decode")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("token.Decode: unexpected claims type")
	}

	claims := &Claims{}
	iat, err := mapClaims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, errors.New("token.Decode: missing iat claim")
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("token.Decode: missing exp claim")
	}
	claims.Iat = iat.Unix()
	claims.Exp = exp.Unix()

	if id, ok := mapClaims["id"].(string); ok {
		claims.ID = id
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if remote, ok := mapClaims["remoteauth"].(string); ok {
		claims.Remote = remote
	}
	if handle, ok := mapClaims["plchandle"].(float64); ok {
		claims.PlcHandle = int64(handle)
	}
	if scopes, ok := mapClaims["scope"].([]any); ok {
		for _, s := range scopes {
			if scope, ok := s.(string); ok {
				claims.Scope = append(claims.Scope, scope)
			}
		}
	}
	return claims, nil
}

// IssuedAt returns the iat claim as a time.
func (c *Claims) IssuedAt() time.Time {
	return time.Unix(c.Iat, 0)
}

// ExpiresAt returns the exp claim as a time.
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// RenewAt computes the instant at which the token should be renewed:
// the full issued lifetime shortened by margin, anchored at iat, so the
// client re-authenticates before the device starts rejecting the token.
func (c *Claims) RenewAt(margin time.Duration) time.Time {
	lifetime := c.ExpiresAt().Sub(c.IssuedAt())
	return c.IssuedAt().Add(lifetime - margin)
}
