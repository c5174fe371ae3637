package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/config"
	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/routes"
	"github.com/kendall-kelly/xdecor-api/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App is a fully wired API backed by an in-memory database and in-process collaborators
type App struct {
	Router    *gin.Engine
	DB        *gorm.DB
	Registry  *services.Registry
	Gateway   *services.MockPaymentGateway
	Images    *services.MockImageService
	Publisher *events.MemoryPublisher
}

// SetupTestDB opens a private in-memory SQLite database with every model migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// NewApp builds the API with authMiddleware in place of the real token check
// and installs its database and registry as the package globals.
func NewApp(t *testing.T, authMiddleware gin.HandlerFunc) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := SetupTestDB(t)
	gateway := services.NewMockPaymentGateway()
	images := services.NewMockImageService()
	publisher := events.NewMemoryPublisher()

	reg := services.NewRegistry(services.Dependencies{
		DB:        db,
		Publisher: publisher,
		Gateway:   gateway,
		Images:    images,
	})
	config.SetDB(db)
	services.SetRegistry(reg)

	router := gin.New()
	routes.Setup(router.Group("/api/v1"), authMiddleware, reg.Users)

	return &App{
		Router:    router,
		DB:        db,
		Registry:  reg,
		Gateway:   gateway,
		Images:    images,
		Publisher: publisher,
	}
}

// SeedUser stores a user directly, bypassing registration
func (a *App) SeedUser(t *testing.T, uid, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{UID: uid, Email: email, DisplayName: strings.Split(email, "@")[0], Role: role}
	if err := a.DB.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// Envelope is the JSON response shape of every endpoint
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorCode returns the error code of a failed response, or ""
func (e Envelope) ErrorCode() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

// Decode unmarshals the data field into v
func (e Envelope) Decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("Failed to decode response data %s: %v", string(e.Data), err)
	}
}

// Do sends a JSON request through handler. headers are name/value pairs.
func Do(t *testing.T, handler http.Handler, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, DecodeEnvelope(t, w)
}

// DecodeEnvelope parses a recorded JSON response. Non-JSON responses yield an empty Envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Response is not valid JSON: %s", w.Body.String())
		}
	}
	return env
}

// As returns the header pairs that make HeaderAuth authenticate user
func As(user *models.User) []string {
	return []string{UIDHeader, user.UID, EmailHeader, user.Email}
}
