package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
)

var errInvalidToken = errors.New("invalid token")

type principalKey struct{}

// Claims is the access token payload
type Claims struct {
	Sub   string `json:"sub"`
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// CreateAccessToken signs an HS256 token for a user
func CreateAccessToken(secret string, userID uuid.UUID, role models.Role, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub:   userID.String(),
		Role:  string(role),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenStr and returns the caller it identifies
func ParseToken(secret, tokenStr string) (models.Actor, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return models.Actor{}, errInvalidToken
	}

	id, err := uuid.Parse(c.Sub)
	if err != nil {
		return models.Actor{}, errInvalidToken
	}
	role := models.Role(c.Role)
	if role != models.RoleAdmin {
		role = models.RoleCustomer
	}
	return models.Actor{UserID: id, Role: role}, nil
}

// WithPrincipal stores the authenticated caller in ctx
func WithPrincipal(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, principalKey{}, actor)
}

// PrincipalFrom returns the caller stored by Authenticate
func PrincipalFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(principalKey{}).(models.Actor)
	return actor, ok
}

// Authenticate requires a valid bearer token
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			actor, err := ParseToken(secret, tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), actor)))
		})
	}
}

// RequireRole rejects callers without role. It must run after Authenticate.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			if actor.Role != role {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
