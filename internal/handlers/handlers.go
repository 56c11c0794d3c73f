package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/middleware"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/service"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 64 << 10

// SlotWatcher subscribes websocket clients to a court's slot changes
type SlotWatcher interface {
	ServeWS(w http.ResponseWriter, r *http.Request, courtID uuid.UUID) error
}

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	courtService   service.CourtService
	paymentService service.PaymentService
	watcher        SlotWatcher
	log            zerolog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(bookings service.BookingService, courts service.CourtService, payments service.PaymentService, watcher SlotWatcher, log zerolog.Logger) *Handler {
	return &Handler{
		bookingService: bookings,
		courtService:   courts,
		paymentService: payments,
		watcher:        watcher,
		log:            log.With().Str("component", "http").Logger(),
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps an error category to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPricing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrPayment):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, status, "Internal server error")
		return
	}

	var busy *apperr.SlotBusyError
	if errors.As(err, &busy) {
		respondJSON(w, status, map[string]interface{}{
			"error":     err.Error(),
			"courtId":   busy.CourtID,
			"startTime": busy.Start,
			"endTime":   busy.End,
		})
		return
	}
	respondError(w, status, err.Error())
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

func pathOrderCode(r *http.Request) (int64, error) {
	code, err := strconv.ParseInt(mux.Vars(r)["orderCode"], 10, 64)
	if err != nil || code <= 0 {
		return 0, apperr.Validation("invalid order code")
	}
	return code, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be a number", name)
	}
	return n, nil
}

func queryDate(r *http.Request, name string) (*calendar.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("%s: %v", name, err)
	}
	return &d, nil
}

func actorFrom(r *http.Request) (models.Actor, bool) {
	return middleware.PrincipalFrom(r.Context())
}

// --- Courts ---

// GetCourts handles GET /api/courts
func (h *Handler) GetCourts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	q := models.CourtQuery{Page: page, Limit: limit, Search: r.URL.Query().Get("search")}
	if t := r.URL.Query().Get("type"); t != "" {
		ct := models.CourtType(strings.ToUpper(t))
		q.Type = &ct
	}

	result, err := h.courtService.ListCourts(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetCourt handles GET /api/courts/{id}
func (h *Handler) GetCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	court, err := h.courtService.GetCourt(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, court)
}

// CreateCourt handles POST /api/courts
func (h *Handler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourtRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	court, err := h.courtService.CreateCourt(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, court)
}

// UpdateCourt handles PUT /api/courts/{id}
func (h *Handler) UpdateCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	var req models.UpdateCourtRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	court, err := h.courtService.UpdateCourt(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, court)
}

// DeleteCourt handles DELETE /api/courts/{id}
func (h *Handler) DeleteCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.courtService.DeleteCourt(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Court deleted"})
}

// GetCourtSchedule handles GET /api/courts/{id}/schedule
func (h *Handler) GetCourtSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var q models.ScheduleQuery
	start, err := queryDate(r, "startDate")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if start != nil {
		q.StartDate = *start
	}
	if q.EndDate, err = queryDate(r, "endDate"); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if q.SlotDuration, err = queryInt(r, "slotDuration"); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	q.ViewType = models.ScheduleViewType(strings.ToUpper(r.URL.Query().Get("viewType")))

	schedule, err := h.courtService.GetSchedule(r.Context(), id, q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// WatchCourt handles GET /api/courts/{id}/ws
func (h *Handler) WatchCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.watcher.ServeWS(w, r, id); err != nil {
		// the upgrader has already written the failure response
		h.log.Debug().Err(err).Str("courtId", id.String()).Msg("websocket upgrade failed")
	}
}

// --- Bookings ---

// CreateBooking handles POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req models.CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if req.CourtID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "Court ID is required")
		return
	}

	resp, err := h.bookingService.CreateBooking(r.Context(), actor, &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// GetMyBookings handles GET /api/bookings/my
func (h *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	bookings, err := h.bookingService.GetMyBookings(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

// GetCourtBookings handles GET /api/bookings/court/{courtId}
func (h *Handler) GetCourtBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	courtID, err := pathUUID(r, "courtId")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	q := models.BookingQuery{CourtID: courtID}
	if q.Date, err = queryDate(r, "date"); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.BookingStatus(strings.ToUpper(s))
		q.Status = &status
	}

	bookings, err := h.bookingService.ListCourtBookings(r.Context(), actor, q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

// GetBooking handles GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	booking, err := h.bookingService.GetBooking(r.Context(), actor, id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	// the body is optional
	var req models.CancelBookingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.respondServiceError(w, r, apperr.Validation("invalid request body: %v", err))
			return
		}
	}

	booking, err := h.bookingService.CancelBooking(r.Context(), actor, id, req.Reason)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// UpdateBookingStatus handles PUT /api/bookings/{id}/status
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	var req models.UpdateBookingStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	booking, err := h.bookingService.UpdateBookingStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// UpdatePaymentStatus handles PUT /api/bookings/{id}/payment-status
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	var req models.UpdatePaymentStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	booking, err := h.bookingService.UpdatePaymentStatus(r.Context(), &actor, id, req.PaymentStatus)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// --- Payments ---

// GetPaymentStatus handles GET /api/payments/status/{orderCode}
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	code, err := pathOrderCode(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	status, err := h.paymentService.GetPaymentStatus(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// CancelPayment handles DELETE /api/payments/cancel/{orderCode}
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	code, err := pathOrderCode(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var req models.CancelPaymentRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.respondServiceError(w, r, apperr.Validation("invalid request body: %v", err))
			return
		}
	}

	if err := h.paymentService.CancelPayment(r.Context(), actor, code, req.Reason); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Payment cancelled"})
}

// PaymentWebhook handles POST /api/payments/webhook
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unable to read body")
		return
	}
	if err := h.paymentService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
