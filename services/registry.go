package services

import (
	"github.com/kendall-kelly/xdecor-api/events"
	"gorm.io/gorm"
)

// Dependencies are the collaborators shared by the domain services
type Dependencies struct {
	DB        *gorm.DB
	Locker    Locker
	Publisher events.Publisher
	Gateway   PaymentGateway
	Images    ImageService // optional
	Identity  *IdentityService
	Currency  string
}

// Registry holds one instance of every domain service
type Registry struct {
	Bookings   *BookingService
	Decorators *DecoratorService
	Payments   *PaymentService
	Analytics  *AnalyticsService
	Catalog    *CatalogService
	Users      *UserService
	Export     *ExportService
	Identity   *IdentityService
}

var registryInstance *Registry

// NewRegistry builds the domain services. A nil Locker or Publisher is
// replaced by the in-process locker and the no-op publisher.
func NewRegistry(deps Dependencies) *Registry {
	if deps.Locker == nil {
		deps.Locker = NewLocalLocker()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Currency == "" {
		deps.Currency = "usd"
	}

	return &Registry{
		Bookings:   NewBookingService(deps.DB, deps.Locker, deps.Publisher),
		Decorators: NewDecoratorService(deps.DB, deps.Publisher),
		Payments:   NewPaymentService(deps.DB, deps.Gateway, deps.Locker, deps.Publisher, deps.Currency),
		Analytics:  NewAnalyticsService(deps.DB),
		Catalog:    NewCatalogService(deps.DB, deps.Images),
		Users:      NewUserService(deps.DB),
		Export:     NewExportService(deps.DB),
		Identity:   deps.Identity,
	}
}

// InitRegistry builds the domain services and makes them the global instance
func InitRegistry(deps Dependencies) *Registry {
	registryInstance = NewRegistry(deps)
	return registryInstance
}

// GetRegistry returns the initialized registry
func GetRegistry() *Registry {
	return registryInstance
}

// SetRegistry sets the registry instance (primarily for testing)
func SetRegistry(r *Registry) {
	registryInstance = r
}
