package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// CheckoutRequest describes a checkout to open with the payment gateway
type CheckoutRequest struct {
	BookingID     string
	CustomerEmail string
	ItemName      string
	Amount        float64
	Currency      string
}

// CheckoutHandle is the gateway's answer to a new checkout
type CheckoutHandle struct {
	SessionID   string
	RedirectURL string
}

// SessionResult is the gateway's view of a checkout session
type SessionResult struct {
	SessionID     string
	Paid          bool
	PaymentStatus string
	TransactionID string
	Amount        float64
	Currency      string
	CustomerEmail string
	Raw           []byte
}

// PaymentGateway opens and inspects hosted checkout sessions
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutHandle, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error)
}

// StripeGateway implements PaymentGateway with Stripe Checkout
type StripeGateway struct {
	client     session.Client
	successURL string
	cancelURL  string
}

// NewStripeGateway creates a gateway that redirects back to frontendBaseURL
func NewStripeGateway(secretKey, frontendBaseURL string) *StripeGateway {
	base := strings.TrimSuffix(frontendBaseURL, "/")
	return &StripeGateway{
		client:     session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		successURL: base + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  base + "/dashboard/payment-cancelled",
	}
}

// toMinorUnits converts an amount to the currency's smallest unit
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutHandle, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ItemName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("bookingId", req.BookingID)

	s, err := g.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CheckoutHandle{SessionID: s.ID, RedirectURL: s.URL}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.client.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve checkout session: %w", err)
	}

	result := &SessionResult{
		SessionID:     s.ID,
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PaymentStatus: string(s.PaymentStatus),
		Amount:        fromMinorUnits(s.AmountTotal),
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
	}
	if s.PaymentIntent != nil {
		result.TransactionID = s.PaymentIntent.ID
	}
	if raw, err := json.Marshal(s); err == nil {
		result.Raw = raw
	}

	return result, nil
}
