package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")
	return db
}

type fixture struct {
	db        *gorm.DB
	reg       *Registry
	publisher *events.MemoryPublisher
	gateway   *MockPaymentGateway
	images    *MockImageService
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	publisher := events.NewMemoryPublisher()
	gateway := NewMockPaymentGateway()
	images := NewMockImageService()

	reg := NewRegistry(Dependencies{
		DB:        db,
		Locker:    NewLocalLocker(),
		Publisher: publisher,
		Gateway:   gateway,
		Images:    images,
		Currency:  "usd",
	})

	return &fixture{
		db:        db,
		reg:       reg,
		publisher: publisher,
		gateway:   gateway,
		images:    images,
		ctx:       context.Background(),
	}
}

func (f *fixture) service(t *testing.T, name string, price float64) *models.Service {
	t.Helper()
	svc, err := f.reg.Catalog.Create(f.ctx, ServiceInput{
		ServiceName: name,
		ServiceType: "Wedding",
		Price:       price,
		Description: name + " package",
	})
	require.NoError(t, err)
	return svc
}

func (f *fixture) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u := models.User{UID: "uid-" + email, Email: email, DisplayName: email, Role: role}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) approvedDecorator(t *testing.T, name, email string) *models.Decorator {
	t.Helper()
	d, err := f.reg.Decorators.Apply(f.ctx, ApplyInput{Name: name, Email: email, District: "Dhaka"})
	require.NoError(t, err)
	d, err = f.reg.Decorators.SetStatus(f.ctx, d.ID, "approved")
	require.NoError(t, err)
	return d
}

func (f *fixture) booking(t *testing.T, email string, serviceID string) *models.Booking {
	t.Helper()
	b, err := f.reg.Bookings.CreateBooking(f.ctx, CreateBookingInput{
		UserName:    "Customer",
		UserEmail:   email,
		ServiceID:   serviceID,
		BookingDate: "2025-06-01",
		Location:    "Gulshan 2, Dhaka",
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) reload(t *testing.T, id string) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, "id = ?", id).Error)
	return &b
}

var admin = Actor{UID: "uid-admin", Email: "admin@xdecor.test", Role: models.RoleAdmin}

func decoratorActor(d *models.Decorator) Actor {
	return Actor{UID: "uid-" + d.Email, Email: d.Email, Role: models.RoleDecorator}
}

// assertKind fails the test unless err is a service error of kind with code
func assertKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*Error)
	require.True(t, ok, "expected *services.Error, got %T: %v", err, err)
	require.Equal(t, kind, svcErr.Kind, svcErr.Message)
	if code != "" {
		require.Equal(t, code, svcErr.Code)
	}
}

// fileHeader builds a multipart file header with the given name and content
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	require.Len(t, form.File["image"], 1)
	return form.File["image"][0]
}
