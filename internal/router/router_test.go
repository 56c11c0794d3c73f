package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/handlers"
	"github.com/longtrq26/court-booking-system/internal/middleware"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/service/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "router-secret"

type testDeps struct {
	bookings *mocks.MockBookingService
	courts   *mocks.MockCourtService
	payments *mocks.MockPaymentService
	router   http.Handler
}

func setup(t *testing.T) *testDeps {
	t.Helper()
	d := &testDeps{
		bookings: new(mocks.MockBookingService),
		courts:   new(mocks.MockCourtService),
		payments: new(mocks.MockPaymentService),
	}
	h := handlers.NewHandler(d.bookings, d.courts, d.payments, nil, zerolog.Nop())
	d.router = SetupRouter(h, Options{JWTSecret: secret, Logger: zerolog.Nop()})
	return d
}

func token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, err := middleware.CreateAccessToken(secret, uuid.New(), role, "u@example.com", time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(d *testDeps, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	d := setup(t)
	rec := serve(d, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestPublicRoutes(t *testing.T) {
	d := setup(t)
	d.courts.On("ListCourts", mock.Anything, mock.Anything).Return(&models.CourtPage{Page: 1, Limit: 10}, nil)

	rec := serve(d, http.MethodGet, "/api/courts", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	d.courts.AssertExpectations(t)
}

func TestAdminRoutes(t *testing.T) {
	courtID := uuid.New()

	tests := []struct {
		name           string
		auth           string
		expectedStatus int
		expectCall     bool
	}{
		{"anonymous", "", http.StatusUnauthorized, false},
		{"customer", "customer", http.StatusForbidden, false},
		{"admin", "admin", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			if tt.expectCall {
				d.courts.On("DeleteCourt", mock.Anything, courtID).Return(nil)
			}

			var auth string
			switch tt.auth {
			case "customer":
				auth = token(t, models.RoleCustomer)
			case "admin":
				auth = token(t, models.RoleAdmin)
			}

			rec := serve(d, http.MethodDelete, "/api/courts/"+courtID.String(), auth, "")
			assert.Equal(t, tt.expectedStatus, rec.Code)
			d.courts.AssertExpectations(t)
		})
	}
}

func TestUserRoutes(t *testing.T) {
	d := setup(t)
	d.bookings.On("GetMyBookings", mock.Anything, mock.MatchedBy(func(a models.Actor) bool {
		return a.Role == models.RoleCustomer
	})).Return([]models.Booking{}, nil)

	rec := serve(d, http.MethodGet, "/api/bookings/my", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(d, http.MethodGet, "/api/bookings/my", token(t, models.RoleCustomer), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	d.bookings.AssertExpectations(t)
}

func TestPreflightSkipsAuth(t *testing.T) {
	d := setup(t)
	rec := serve(d, http.MethodOptions, "/api/bookings", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestWebhookIsPublic(t *testing.T) {
	d := setup(t)
	d.payments.On("HandleWebhook", mock.Anything, []byte(`{}`), "t=1,v1=abc").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	d.payments.AssertExpectations(t)
}
