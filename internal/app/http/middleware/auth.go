package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"reseller-ops/go_backend/internal/app/http/httpx"
)

type ctxKey int

const userIDKey ctxKey = 1

// UserID returns the authenticated user id placed by Auth.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Claims is the subset of a Supabase access token we rely on.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// VerifyToken checks an HS256 Supabase access token and returns its claims.
func VerifyToken(secret []byte, token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return *c, nil
}

// Auth admits a request carrying either a Supabase bearer token, whose sub
// becomes the user id, or the internal token plus X-User-ID.
func Auth(jwtSecret, internalToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := r.Header.Get("X-Internal-Token"); tok != "" {
				if internalToken == "" || subtle.ConstantTimeCompare([]byte(tok), []byte(internalToken)) != 1 {
					httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
				if uid == "" {
					httpx.WriteError(w, http.StatusUnauthorized, "missing X-User-ID")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
				return
			}

			tok := bearerToken(r.Header.Get("Authorization"))
			if tok == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if jwtSecret == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "bearer tokens are not accepted")
				return
			}
			claims, err := VerifyToken([]byte(jwtSecret), tok)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
