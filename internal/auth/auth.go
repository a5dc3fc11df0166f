// Package auth turns verified bearer tokens into principals. The core
// never inspects credentials; everything downstream of this package works
// with a plain domain.Principal value.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// Config holds token verification parameters.
type Config struct {
	Secret string
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Parse validates a JWT and returns the principal it identifies. Tokens
// carry the user id and username issued by the auth collaborator at login.
func Parse(token string, cfg Config) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{ID: int64(id), Username: username}, nil
}

// Sign issues a token for the given principal. It exists for the auth
// collaborator and for tests; the core itself only parses.
func Sign(principal domain.Principal, cfg Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       principal.ID,
		"username": principal.Username,
	})
	return token.SignedString([]byte(cfg.Secret))
}
