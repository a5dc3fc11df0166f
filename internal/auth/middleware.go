package auth

import (
	"net/http"
	"strings"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	cfg Config
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(cfg Config) Middleware {
	return Middleware{cfg: cfg}
}

// Require rejects requests without a valid bearer token and stores the
// principal on the context otherwise.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.parseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Optional stores the principal when a valid bearer token is present,
// passes anonymous requests through, and still rejects tokens that are
// present but malformed.
func (m Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.parseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (domain.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return domain.Principal{}, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return domain.Principal{}, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return Parse(token, m.cfg)
}
