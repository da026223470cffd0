// Package auth verifies access tokens minted by the identity provider that
// shares the HS256 secret. This service never issues tokens.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

var (
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidTokenType        = errors.New("invalid token type")
	ErrMissingSubject          = errors.New("missing subject")
)

type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
	}
}

func (v *Verifier) parseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyAccessToken checks signature, expiry and token type.
func (v *Verifier) VerifyAccessToken(tokenStr string) (*Claims, error) {
	claims, err := v.parseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != accessTokenType {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
