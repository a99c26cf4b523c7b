// Package identity issues and verifies governance role session tokens.
// A role token binds an operator identity to one governance role for a
// bounded period; handlers consult the role when gating privileged
// operations such as attestation revocation.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleTokenClaims are the JWT claims for a governance role session token.
type RoleTokenClaims struct {
	jwt.RegisteredClaims
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
	Type       string `json:"type"` // always "role-session"
}

// RoleTokenIssuer issues and verifies role session JWTs with an HMAC key.
// The key is the server-held signing secret; tokens are symmetric and never
// handed to federation peers.
type RoleTokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewRoleTokenIssuer creates a RoleTokenIssuer.
//
//	issuerURL — The "iss" claim value; matches the server's base URL.
//	ttl       — Token lifetime (default: 8 hours).
func NewRoleTokenIssuer(key []byte, issuerURL string, ttl time.Duration) *RoleTokenIssuer {
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	return &RoleTokenIssuer{key: key, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed role session token for an operator.
func (i *RoleTokenIssuer) Issue(operatorID, role string) (string, error) {
	if operatorID == "" || role == "" {
		return "", fmt.Errorf("operator id and role required")
	}
	now := time.Now().UTC()
	claims := RoleTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
		OperatorID: operatorID,
		Role:       role,
		Type:       "role-session",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign role token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a role session token, returning its claims.
func (i *RoleTokenIssuer) Verify(tokenStr string) (*RoleTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&RoleTokenClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return i.key, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify role token: %w", err)
	}
	claims, ok := token.Claims.(*RoleTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid role token claims")
	}
	if claims.Type != "role-session" {
		return nil, fmt.Errorf("not a role session token")
	}
	return claims, nil
}
