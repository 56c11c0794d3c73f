package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/database"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
)

// BookingService defines the booking operations exposed to transports
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, req *models.CreateBookingRequest) (*models.BookingResponse, error)
	GetMyBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Booking, error)
	ListCourtBookings(ctx context.Context, actor models.Actor, q models.BookingQuery) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, actor *models.Actor, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error)
}

// CourtService defines court management and schedule operations
type CourtService interface {
	CreateCourt(ctx context.Context, req *models.CreateCourtRequest) (*models.Court, error)
	GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error)
	ListCourts(ctx context.Context, q models.CourtQuery) (*models.CourtPage, error)
	UpdateCourt(ctx context.Context, id uuid.UUID, req *models.UpdateCourtRequest) (*models.Court, error)
	DeleteCourt(ctx context.Context, id uuid.UUID) error
	GetSchedule(ctx context.Context, courtID uuid.UUID, q models.ScheduleQuery) (*models.CourtSchedule, error)
}

// PaymentService defines payment lookups and webhook handling
type PaymentService interface {
	GetPaymentStatus(ctx context.Context, orderCode int64) (*models.PaymentStatusResponse, error)
	CancelPayment(ctx context.Context, actor models.Actor, orderCode int64, reason string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// --- Collaborators ---

// CourtCatalog looks up courts with their price rules
type CourtCatalog interface {
	GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error)
}

// CourtStore persists courts
type CourtStore interface {
	CourtCatalog
	ListCourts(ctx context.Context, q models.CourtQuery) ([]models.Court, int, error)
	CreateCourt(ctx context.Context, c *models.Court) error
	UpdateCourt(ctx context.Context, c *models.Court, replacePrices bool) error
	DeleteCourt(ctx context.Context, id uuid.UUID) error
}

// OccupancyReader lists active reservations of a court
type OccupancyReader interface {
	ListOccupancy(ctx context.Context, courtID uuid.UUID, from, to calendar.Date) ([]models.Occupancy, error)
}

// BookingStore persists bookings
type BookingStore interface {
	OccupancyReader
	InTx(ctx context.Context, fn func(database.Tx) error) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListBookings(ctx context.Context, q models.BookingQuery) ([]models.Booking, error)
}

// PaymentStore persists payment records
type PaymentStore interface {
	SavePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
}

// UserDirectory resolves users owned by the identity service
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PaymentGateway creates and manages checkout links with the payment provider
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (*payment.Link, error)
	GetStatus(ctx context.Context, providerRef string) (*payment.Status, error)
	Cancel(ctx context.Context, providerRef, reason string) error
	VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

// NotificationSink delivers fire-and-forget notifications
type NotificationSink interface {
	NotifyAdmins(ctx context.Context, n models.Notification) error
	NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error
}

// HoldScheduler runs the unpaid-booking expiry timer
type HoldScheduler interface {
	StartHold(ctx context.Context, bookingID uuid.UUID, orderCode int64) error
	SettleHold(ctx context.Context, bookingID uuid.UUID, outcome string) error
}

// SlotBroadcaster pushes slot changes to live schedule subscribers
type SlotBroadcaster interface {
	BroadcastSlotsBooked(courtID, bookingID uuid.UUID, items []models.BookingItem)
	BroadcastSlotsReleased(courtID, bookingID uuid.UUID, items []models.BookingItem)
}

// WebhookDeduper guards against processing the same provider event twice
type WebhookDeduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
