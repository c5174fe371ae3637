package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// testEnv is a registry over a fresh database installed as the global registry
type testEnv struct {
	db      *gorm.DB
	reg     *services.Registry
	gateway *services.MockPaymentGateway
	images  *services.MockImageService
}

func setupTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)
	gateway := services.NewMockPaymentGateway()
	images := services.NewMockImageService()

	reg := services.NewRegistry(services.Dependencies{
		DB:        db,
		Publisher: events.NewMemoryPublisher(),
		Gateway:   gateway,
		Images:    images,
	})
	services.SetRegistry(reg)
	t.Cleanup(func() { services.SetRegistry(nil) })

	return &testEnv{db: db, reg: reg, gateway: gateway, images: images}
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) *models.User {
	user := &models.User{UID: "uid-" + email, Email: email, DisplayName: strings.Split(email, "@")[0], Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) service(t *testing.T, name string, price float64) *models.Service {
	svc, err := e.reg.Catalog.Create(t.Context(), services.ServiceInput{ServiceName: name, ServiceType: "Wedding", Price: price})
	require.NoError(t, err)
	return svc
}

func (e *testEnv) approvedDecorator(t *testing.T, name, email string) *models.Decorator {
	dec, err := e.reg.Decorators.Apply(t.Context(), services.ApplyInput{Name: name, Email: email})
	require.NoError(t, err)
	dec, err = e.reg.Decorators.SetStatus(t.Context(), dec.ID, string(models.DecoratorApproved))
	require.NoError(t, err)
	return dec
}

func (e *testEnv) booking(t *testing.T, email, serviceID string) *models.Booking {
	booking, err := e.reg.Bookings.CreateBooking(t.Context(), services.CreateBookingInput{
		UserName:    "Customer",
		UserEmail:   email,
		ServiceID:   serviceID,
		BookingDate: "2026-12-01",
		Location:    "Dhaka",
	})
	require.NoError(t, err)
	return booking
}

// mockAuthMiddleware simulates EnsureValidToken followed by RequireUser for user.
// A nil user leaves the request unauthenticated.
func mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set("user_id", user.UID)
			c.Set("identity", middleware.Identity{UID: user.UID, Email: user.Email})
			c.Set("access_token", "test-token")
			c.Set("current_user", user)
		}
		c.Next()
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v), string(resp.Data))
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
