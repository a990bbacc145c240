package lib

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"ktx/src/config"
)

const sessionSubject = "korail-session"

// NewSessionToken mints the opaque bearer token handed out on login. The
// token is generated locally; the upstream never sees it. Expiry inside the
// token mirrors the session manager's own expiry tracking.
func NewSessionToken(expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.GetJWTSecret())
}

// VerifySessionToken checks signature, expiry and subject of a bearer token.
func VerifySessionToken(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid || claims.Subject != sessionSubject {
		return errors.New("invalid session token")
	}
	return nil
}
