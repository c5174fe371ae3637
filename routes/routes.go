package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/controllers"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/models"
)

// Setup registers the marketplace API on v1.
// authMiddleware verifies the bearer token; users resolves the caller's account.
func Setup(v1 *gin.RouterGroup, authMiddleware gin.HandlerFunc, users middleware.UserLookup) {
	admin := middleware.RequireRole(models.RoleAdmin)

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	v1.GET("/services", controllers.ListServices)
	v1.GET("/services/:id", controllers.GetService)
	v1.GET("/uploads/*key", controllers.GetUploadedImage)

	// Registration only needs a verified token, the account does not exist yet
	v1.POST("/users", authMiddleware, controllers.CreateUser)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	protected := v1.Group("")
	protected.Use(authMiddleware, middleware.RequireUser(users))

	// Catalog
	protected.POST("/services", admin, controllers.CreateService)
	protected.PUT("/services/:id", admin, controllers.UpdateService)
	protected.DELETE("/services/:id", admin, controllers.DeleteService)
	protected.POST("/services/:id/image", admin, controllers.UploadServiceImage)

	// Decorators
	protected.GET("/decorators", controllers.ListDecorators)
	protected.POST("/decorators", controllers.ApplyDecorator)
	protected.PATCH("/decorators/:id", admin, controllers.UpdateDecorator)
	protected.DELETE("/decorators/:id", admin, controllers.RemoveDecorator)

	// Bookings
	protected.GET("/bookings", controllers.ListBookings)
	protected.GET("/bookings/export", admin, controllers.ExportBookings)
	protected.GET("/bookings/decorator/:id", controllers.ListDecoratorBookings)
	protected.GET("/bookings/decorator/:id/today", controllers.ListTodaysDecoratorBookings)
	protected.GET("/bookings/:id", controllers.GetBooking)
	protected.POST("/bookings", controllers.CreateBooking)
	protected.PATCH("/bookings/:id/assign-decorator", admin, controllers.AssignDecorator)
	protected.PATCH("/bookings/:id/status",
		middleware.RequireRole(models.RoleAdmin, models.RoleDecorator), controllers.UpdateBookingStatus)
	protected.DELETE("/bookings/:id", controllers.RemoveBooking)

	// Payments
	protected.POST("/create-checkout-session", controllers.CreateCheckoutSession)
	protected.PATCH("/payment-success", controllers.PaymentSuccess)
	protected.GET("/payments", controllers.ListPayments)

	// Analytics
	protected.GET("/analytics/service-demand", admin, controllers.ServiceDemand)
	protected.GET("/analytics/revenue", controllers.RevenueSummary)
	protected.GET("/analytics/revenue/monthly", admin, controllers.MonthlyRevenue)

	// Users
	protected.GET("/users", admin, controllers.ListUsers)
	protected.GET("/users/me", controllers.GetMyProfile)
	protected.GET("/users/:email", controllers.GetUser)
	protected.GET("/users/:email/role", controllers.GetUserRole)
	protected.PUT("/users/:email", controllers.UpdateUser)
	protected.PATCH("/users/:email/role", admin, controllers.SetUserRole)
}
