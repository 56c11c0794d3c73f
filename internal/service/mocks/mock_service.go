package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, actor models.Actor, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResponse), args.Error(1)
}

func (m *MockBookingService) GetMyBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	args := m.Called(ctx, actor, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) ListCourtBookings(ctx context.Context, actor models.Actor, q models.BookingQuery) ([]models.Booking, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdatePaymentStatus(ctx context.Context, actor *models.Actor, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

// MockCourtService is a mock implementation of CourtService
type MockCourtService struct {
	mock.Mock
}

func (m *MockCourtService) CreateCourt(ctx context.Context, req *models.CreateCourtRequest) (*models.Court, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Court), args.Error(1)
}

func (m *MockCourtService) GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Court), args.Error(1)
}

func (m *MockCourtService) ListCourts(ctx context.Context, q models.CourtQuery) (*models.CourtPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourtPage), args.Error(1)
}

func (m *MockCourtService) UpdateCourt(ctx context.Context, id uuid.UUID, req *models.UpdateCourtRequest) (*models.Court, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Court), args.Error(1)
}

func (m *MockCourtService) DeleteCourt(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourtService) GetSchedule(ctx context.Context, courtID uuid.UUID, q models.ScheduleQuery) (*models.CourtSchedule, error) {
	args := m.Called(ctx, courtID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourtSchedule), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) GetPaymentStatus(ctx context.Context, orderCode int64) (*models.PaymentStatusResponse, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentStatusResponse), args.Error(1)
}

func (m *MockPaymentService) CancelPayment(ctx context.Context, actor models.Actor, orderCode int64, reason string) error {
	args := m.Called(ctx, actor, orderCode, reason)
	return args.Error(0)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}
