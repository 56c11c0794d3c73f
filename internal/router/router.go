package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/longtrq26/court-booking-system/internal/handlers"
	"github.com/longtrq26/court-booking-system/internal/middleware"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/rs/zerolog"
)

// Options configures the cross-cutting middleware of the router
type Options struct {
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
	Logger      zerolog.Logger
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, opts Options) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.CORS)
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	authenticate := middleware.Authenticate(opts.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.PathPrefix("/api").Subrouter()

	// Public
	api.HandleFunc("/courts", h.GetCourts).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/courts/{id}", h.GetCourt).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/courts/{id}/schedule", h.GetCourtSchedule).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/payments/status/{orderCode}", h.GetPaymentStatus).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/payments/webhook", h.PaymentWebhook).Methods(http.MethodPost)

	// WebSocket for real-time slot updates
	api.HandleFunc("/courts/{id}/ws", h.WatchCourt)

	// Admin
	admin := api.NewRoute().Subrouter()
	admin.Use(authenticate, adminOnly)
	admin.HandleFunc("/courts", h.CreateCourt).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/courts/{id}", h.UpdateCourt).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/courts/{id}", h.DeleteCourt).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/bookings/{id}/status", h.UpdateBookingStatus).Methods(http.MethodPut, http.MethodOptions)

	// Signed-in users
	user := api.NewRoute().Subrouter()
	user.Use(authenticate)
	user.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost, http.MethodOptions)
	user.HandleFunc("/bookings/my", h.GetMyBookings).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/bookings/court/{courtId}", h.GetCourtBookings).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/bookings/{id}", h.CancelBooking).Methods(http.MethodDelete, http.MethodOptions)
	user.HandleFunc("/bookings/{id}/payment-status", h.UpdatePaymentStatus).Methods(http.MethodPut, http.MethodOptions)
	user.HandleFunc("/payments/cancel/{orderCode}", h.CancelPayment).Methods(http.MethodDelete, http.MethodOptions)

	// Health check
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
