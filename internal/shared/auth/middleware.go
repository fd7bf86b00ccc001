package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/previmed/registro/internal/shared/config"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	// EmailHeader identifies the reporting center in development and for
	// clients that do not carry a bearer token
	EmailHeader = "X-User-Email"
)

// User represents the authenticated caller from JWT claims
type User struct {
	Email      string   `json:"email"`
	CenterName string   `json:"center_name"`
	Roles      []string `json:"roles"`
}

// Claims extends JWT claims with registry-specific data
type Claims struct {
	jwt.RegisteredClaims
	Email      string   `json:"email"`
	CenterName string   `json:"center_name,omitempty"`
	Roles      []string `json:"roles"`
}

// Middleware creates JWT authentication middleware
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			user := &User{
				Email:      claims.Email,
				CenterName: claims.CenterName,
				Roles:      claims.Roles,
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the user from request context
func GetUser(ctx context.Context) *User {
	user, ok := ctx.Value(UserContextKey).(*User)
	if !ok {
		return nil
	}
	return user
}

// ResolveEmail resolves the caller's email for entitlement checks.
// Precedence: authenticated user, identity header, payload field.
// Returns "" when no identity is present.
func ResolveEmail(r *http.Request, payloadEmail string) string {
	if user := GetUser(r.Context()); user != nil && user.Email != "" {
		return user.Email
	}
	if email := r.Header.Get(EmailHeader); email != "" {
		return email
	}
	return payloadEmail
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
