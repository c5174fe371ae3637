package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRouter(user *models.User) *gin.Engine {
	router := setupTestRouter()
	auth := mockAuthMiddleware(user)
	router.POST("/create-checkout-session", auth, CreateCheckoutSession)
	router.PATCH("/payment-success", auth, PaymentSuccess)
	router.GET("/payments", auth, ListPayments)
	return router
}

type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type paymentSuccessResponse struct {
	Duplicate     bool            `json:"duplicate"`
	TransactionID string          `json:"transactionId"`
	TrackingID    string          `json:"trackingId"`
	Payment       models.Payment  `json:"payment"`
	Booking       *models.Booking `json:"booking"`
}

func TestCheckoutAndPaymentSuccess(t *testing.T) {
	env := setupTestEnv(t)
	customer := env.user(t, "rina@example.com", models.RoleUser)
	svc := env.service(t, "Garden Wedding", 450)
	booking := env.booking(t, "rina@example.com", svc.ID)

	router := paymentRouter(customer)

	w, resp := doJSON(t, router, http.MethodPost, "/create-checkout-session", map[string]string{"bookingId": booking.ID})
	assertStatus(t, w, http.StatusCreated)
	var checkout checkoutResponse
	decodeData(t, resp, &checkout)
	require.NotEmpty(t, checkout.SessionID)
	assert.Contains(t, checkout.URL, checkout.SessionID)

	// the customer has not completed the gateway checkout yet
	w, resp = doJSON(t, router, http.MethodPatch, "/payment-success?session_id="+checkout.SessionID, nil)
	assertStatus(t, w, http.StatusConflict)
	assert.Equal(t, "PAYMENT_INCOMPLETE", resp.Error.Code)

	env.gateway.MarkPaid(checkout.SessionID)

	w, resp = doJSON(t, router, http.MethodPatch, "/payment-success?session_id="+checkout.SessionID, nil)
	assertStatus(t, w, http.StatusOK)
	var first paymentSuccessResponse
	decodeData(t, resp, &first)
	assert.False(t, first.Duplicate)
	assert.NotEmpty(t, first.TransactionID)
	assert.NotEmpty(t, first.TrackingID)
	assert.Equal(t, float64(450), first.Payment.Amount)
	require.NotNil(t, first.Booking)
	assert.Equal(t, models.PaymentPaid, first.Booking.Status)

	w, resp = doJSON(t, router, http.MethodPatch, "/payment-success?session_id="+checkout.SessionID, nil)
	assertStatus(t, w, http.StatusOK)
	var second paymentSuccessResponse
	decodeData(t, resp, &second)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.TrackingID, second.TrackingID)

	var count int64
	require.NoError(t, env.db.Model(&models.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w, resp = doJSON(t, router, http.MethodPost, "/create-checkout-session", map[string]string{"bookingId": booking.ID})
	assertStatus(t, w, http.StatusConflict)
	assert.Equal(t, "BOOKING_ALREADY_PAID", resp.Error.Code)
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	env := setupTestEnv(t)
	customer := env.user(t, "rina@example.com", models.RoleUser)
	stranger := env.user(t, "joy@example.com", models.RoleUser)
	svc := env.service(t, "Garden Wedding", 450)
	booking := env.booking(t, "rina@example.com", svc.ID)

	t.Run("missing booking id", func(t *testing.T) {
		w, resp := doJSON(t, paymentRouter(customer), http.MethodPost, "/create-checkout-session", map[string]string{})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("not the owner", func(t *testing.T) {
		w, resp := doJSON(t, paymentRouter(stranger), http.MethodPost, "/create-checkout-session",
			map[string]string{"bookingId": booking.ID})
		assertStatus(t, w, http.StatusForbidden)
		assert.Equal(t, "NOT_BOOKING_OWNER", resp.Error.Code)
	})

	t.Run("gateway down", func(t *testing.T) {
		env.gateway.Fail = true
		defer func() { env.gateway.Fail = false }()

		w, resp := doJSON(t, paymentRouter(customer), http.MethodPost, "/create-checkout-session",
			map[string]string{"bookingId": booking.ID})
		assertStatus(t, w, http.StatusBadGateway)
		assert.Equal(t, "PAYMENT_GATEWAY_ERROR", resp.Error.Code)
	})

	t.Run("missing session id", func(t *testing.T) {
		w, resp := doJSON(t, paymentRouter(customer), http.MethodPatch, "/payment-success", nil)
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "MISSING_SESSION_ID", resp.Error.Code)
	})

	t.Run("unknown session id", func(t *testing.T) {
		w, resp := doJSON(t, paymentRouter(customer), http.MethodPatch, "/payment-success?session_id=cs_nope", nil)
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "CHECKOUT_SESSION_NOT_FOUND", resp.Error.Code)
	})
}

func TestListPayments(t *testing.T) {
	env := setupTestEnv(t)
	rina := env.user(t, "rina@example.com", models.RoleUser)
	joy := env.user(t, "joy@example.com", models.RoleUser)
	admin := env.user(t, "boss@example.com", models.RoleAdmin)
	svc := env.service(t, "Garden Wedding", 450)
	env.gateway.AutoPay = true

	for _, user := range []*models.User{rina, joy} {
		booking := env.booking(t, user.Email, svc.ID)
		checkout, err := env.reg.Payments.InitiateCheckout(t.Context(), booking.ID, services.ActorFromUser(user))
		require.NoError(t, err)
		_, err = env.reg.Payments.FinalizeCheckout(t.Context(), checkout.SessionID)
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		user       *models.User
		query      string
		wantStatus int
		wantCount  int
	}{
		{"admin sees all", admin, "", http.StatusOK, 2},
		{"admin filters", admin, "?customerEmail=joy@example.com", http.StatusOK, 1},
		{"user defaults to own", rina, "", http.StatusOK, 1},
		{"user asks for someone else", rina, "?customerEmail=joy@example.com", http.StatusForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, paymentRouter(tt.user), http.MethodGet, "/payments"+tt.query, nil)
			assertStatus(t, w, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				var list []models.Payment
				decodeData(t, resp, &list)
				assert.Len(t, list, tt.wantCount)
			}
		})
	}
}
