// Package identity implements the identity collaborator: it mints and
// validates the JWTs a connecting user presents to authenticate a
// websocket session against an account id.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tournament-core/internal/ids"
)

// Claims is the JWT payload identifying a connecting account.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Identity validates and mints tokens against a shared secret.
type Identity struct {
	secret     []byte
	expiration time.Duration
}

// New builds an identity collaborator. secret is the HMAC signing key;
// expiration is how long minted tokens remain valid.
func New(secret string, expiration time.Duration) *Identity {
	return &Identity{secret: []byte(secret), expiration: expiration}
}

// Mint produces a signed token for the given account id.
func (id *Identity) Mint(accountID ids.AccountID) (string, error) {
	claims := Claims{
		AccountID: accountID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(id.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(id.secret)
}

// Validate parses and verifies a token, returning the account id it
// identifies.
func (id *Identity) Validate(token string) (ids.AccountID, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return id.secret, nil
	})
	if err != nil {
		return ids.AccountID{}, fmt.Errorf("identity: invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ids.AccountID{}, fmt.Errorf("identity: invalid token")
	}
	return ids.ParseAccountID(claims.AccountID)
}
