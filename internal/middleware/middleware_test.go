package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func principalEcho(t *testing.T, got *models.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := PrincipalFrom(r.Context())
		if ok {
			*got = actor
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	valid, err := CreateAccessToken(testSecret, userID, models.RoleAdmin, "admin@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := CreateAccessToken(testSecret, userID, models.RoleCustomer, "a@example.com", -time.Minute)
	require.NoError(t, err)
	otherKey, err := CreateAccessToken("other-secret", userID, models.RoleCustomer, "a@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong signing key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.Actor
			h := Authenticate(testSecret)(principalEcho(t, &got))

			req := httptest.NewRequest(http.MethodGet, "/api/bookings/my", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Equal(t, userID, got.UserID)
				assert.Equal(t, models.RoleAdmin, got.Role)
			}
		})
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Sub: uuid.NewString(), Role: "ADMIN"})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(testSecret, signed)
	assert.Error(t, err)
}

func TestParseToken_UnknownRoleIsCustomer(t *testing.T) {
	userID := uuid.New()
	signed, err := CreateAccessToken(testSecret, userID, models.Role("SUPERUSER"), "", time.Hour)
	require.NoError(t, err)

	actor, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, actor.Role)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(models.RoleAdmin)(ok)

	tests := []struct {
		name           string
		actor          *models.Actor
		expectedStatus int
	}{
		{"admin", &models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}, http.StatusOK},
		{"customer", &models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/courts", nil)
			if tt.actor != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(0.001, 2, zerolog.Nop())
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/courts", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000"), "limits are per client")
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	panics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := Logger(log)(Recovery(log)(panics))

	req := httptest.NewRequest(http.MethodGet, "/api/courts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"panic":"boom"`)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"path":"/api/courts"`)
}
