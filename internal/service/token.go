package service

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

// Claims is the signed payload embedded in both access and refresh tokens.
// The permissions slice is a point-in-time snapshot taken at issuance; the
// admission guard re-reads grants from the store instead of trusting it.
type Claims struct {
	Sub         uint     `json:"sub"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// VerifyToken checks signature and expiry against the given secret and
// returns the decoded claims.
func VerifyToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.AccessDenied("errors.invalid_token").WithCause(err)
	}
	return claims, nil
}
