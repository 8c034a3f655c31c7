// Package identity wraps the federated sign-in provider: it verifies
// provider-issued ID tokens and tracks the attached session identity.
package identity

import (
	"context"
	"errors"
	"fmt"

	"leaflog/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the stable result of a federated sign-in.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Verifier validates a provider-issued ID token and returns the
// identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// providerClaims is the claim set the identity provider places in its
// ID tokens.
type providerClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies HMAC-signed provider ID tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates the ID token, returning the asserted
// identity or an invalid-token error.
func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		idToken,
		&providerClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid identity token", err)
	}

	claims, ok := token.Claims.(*providerClaims)
	if !ok || !token.Valid {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid identity token", errors.New("claims rejected"))
	}
	if claims.Subject == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Identity token missing subject", nil)
	}

	return &Identity{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}, nil
}
