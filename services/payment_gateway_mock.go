package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockPaymentGateway is an in-memory PaymentGateway for tests and local development
type MockPaymentGateway struct {
	mu       sync.Mutex
	sessions map[string]*SessionResult

	// AutoPay marks new sessions paid immediately
	AutoPay bool
	// Fail makes every call fail as if the gateway were unreachable
	Fail bool

	RetrieveCalls int
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{sessions: make(map[string]*SessionResult)}
}

func (m *MockPaymentGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, errors.New("mock gateway unavailable")
	}

	id := "cs_test_" + uuid.NewString()
	m.sessions[id] = &SessionResult{
		SessionID:     id,
		Paid:          m.AutoPay,
		PaymentStatus: paymentStatusFor(m.AutoPay),
		TransactionID: "pi_test_" + uuid.NewString()[:8],
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		Raw:           []byte(fmt.Sprintf(`{"id":%q,"bookingId":%q}`, id, req.BookingID)),
	}

	return &CheckoutHandle{
		SessionID:   id,
		RedirectURL: "https://checkout.test/pay/" + id,
	}, nil
}

func (m *MockPaymentGateway) RetrieveSession(_ context.Context, sessionID string) (*SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RetrieveCalls++
	if m.Fail {
		return nil, errors.New("mock gateway unavailable")
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	copied := *s
	return &copied, nil
}

// MarkPaid simulates the customer completing payment
func (m *MockPaymentGateway) MarkPaid(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Paid = true
		s.PaymentStatus = paymentStatusFor(true)
	}
}

func paymentStatusFor(paid bool) string {
	if paid {
		return "paid"
	}
	return "unpaid"
}
