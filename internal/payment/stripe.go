package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrGatewayInitFailed = errors.New("failed to initialize payment gateway")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
)

// zero-decimal currencies are charged in whole units
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// StripeConfig configures the Stripe Checkout gateway
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	ClientURL     string
	// Backends overrides the API endpoint, used by tests.
	Backends *stripe.Backends
}

// StripeGateway creates Stripe Checkout sessions for bookings
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	currency      string
	clientURL     string
	log           zerolog.Logger
}

// NewStripeGateway creates a new StripeGateway
func NewStripeGateway(cfg StripeConfig, log zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key not set", ErrGatewayInitFailed)
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "vnd"
	}

	sc := client.New(cfg.SecretKey, cfg.Backends)
	if sc == nil {
		return nil, ErrGatewayInitFailed
	}

	log.Info().Str("currency", currency).Msg("stripe client initialized")
	return &StripeGateway{
		client:        sc,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		clientURL:     strings.TrimRight(cfg.ClientURL, "/"),
		log:           log.With().Str("component", "stripe").Logger(),
	}, nil
}

// CreatePaymentLink opens a checkout session and renders its URL as a QR code
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error) {
	amount, err := ToMinorUnits(req.Amount, g.currency)
	if err != nil {
		return nil, err
	}

	code := strconv.FormatInt(req.OrderCode, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		SuccessURL:        stripe.String(g.clientURL + "/booking/payment/success?orderCode=" + code),
		CancelURL:         stripe.String(g.clientURL + "/booking/payment/cancel?orderCode=" + code),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.OrderID)
	params.AddMetadata("order_code", code)

	s, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("orderId", req.OrderID).Msg("checkout session creation failed")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	qr, err := QRDataURI(s.URL)
	if err != nil {
		g.log.Warn().Err(err).Str("sessionId", s.ID).Msg("qr code generation failed")
	}

	g.log.Info().Str("sessionId", s.ID).Int64("orderCode", req.OrderCode).Int64("amount", amount).
		Msg("checkout session created")
	return &Link{
		CheckoutURL: s.URL,
		QRCode:      qr,
		OrderCode:   req.OrderCode,
		ProviderRef: s.ID,
	}, nil
}

// GetStatus fetches the checkout session state
func (g *StripeGateway) GetStatus(ctx context.Context, providerRef string) (*Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.client.CheckoutSessions.Get(providerRef, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session %s: %w", providerRef, err)
	}
	return sessionStatus(s), nil
}

// Cancel expires an open checkout session
func (g *StripeGateway) Cancel(ctx context.Context, providerRef, reason string) error {
	if providerRef == "" {
		return nil
	}
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.client.CheckoutSessions.Expire(providerRef, params); err != nil {
		return fmt.Errorf("failed to expire checkout session %s: %w", providerRef, err)
	}
	g.log.Info().Str("sessionId", providerRef).Str("reason", reason).Msg("checkout session expired")
	return nil
}

// VerifyWebhook checks the Stripe-Signature header and maps checkout events.
// Events that do not settle a payment are returned with an empty Status.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}
	return parseEvent(event)
}

func parseEvent(event stripe.Event) (*WebhookEvent, error) {
	ev := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
	default:
		return ev, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	ev.ProviderRef = s.ID
	if id, err := uuid.Parse(s.Metadata["booking_id"]); err == nil {
		ev.BookingID = id
	} else if id, err := uuid.Parse(s.ClientReferenceID); err == nil {
		ev.BookingID = id
	}
	if code, err := strconv.ParseInt(s.Metadata["order_code"], 10, 64); err == nil {
		ev.OrderCode = code
	} else if ev.BookingID != uuid.Nil {
		ev.OrderCode = OrderCodeFor(ev.BookingID)
	}
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		txn := s.PaymentIntent.ID
		ev.TransactionID = &txn
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			ev.Status = models.PaymentStatusPaid
		}
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		ev.Status = models.PaymentStatusFailed
	}
	return ev, nil
}

func sessionStatus(s *stripe.CheckoutSession) *Status {
	st := &Status{Status: models.PaymentStatusPending, ProviderState: string(s.Status)}
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		st.Status = models.PaymentStatusPaid
	case s.Status == stripe.CheckoutSessionStatusExpired:
		st.Status = models.PaymentStatusFailed
	}
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		txn := s.PaymentIntent.ID
		st.TransactionID = &txn
	}
	return st
}

// ToMinorUnits converts an amount to the smallest currency unit Stripe expects
func ToMinorUnits(amount float64, currency string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return int64(math.Round(amount)), nil
	}
	return int64(math.Round(amount * 100)), nil
}

// QRDataURI renders content as a PNG data URI
func QRDataURI(content string) (string, error) {
	if content == "" {
		return "", nil
	}
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
