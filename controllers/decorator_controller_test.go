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

func decoratorRouter(user *models.User) *gin.Engine {
	router := setupTestRouter()
	auth := mockAuthMiddleware(user)
	router.GET("/decorators", auth, ListDecorators)
	router.POST("/decorators", auth, ApplyDecorator)
	router.PATCH("/decorators/:id", auth, UpdateDecorator)
	router.DELETE("/decorators/:id", auth, RemoveDecorator)
	return router
}

func TestApplyDecorator(t *testing.T) {
	env := setupTestEnv(t)
	applicant := env.user(t, "sadia@example.com", models.RoleUser)
	admin := env.user(t, "boss@example.com", models.RoleAdmin)

	t.Run("defaults to the caller's email", func(t *testing.T) {
		w, resp := doJSON(t, decoratorRouter(applicant), http.MethodPost, "/decorators",
			map[string]string{"name": "Sadia", "district": "Sylhet"})
		assertStatus(t, w, http.StatusCreated)

		var dec models.Decorator
		decodeData(t, resp, &dec)
		assert.Equal(t, "sadia@example.com", dec.Email)
		assert.Equal(t, models.DecoratorPending, dec.Status)
		assert.Equal(t, "Sylhet", dec.District)
	})

	t.Run("second application conflicts", func(t *testing.T) {
		w, resp := doJSON(t, decoratorRouter(applicant), http.MethodPost, "/decorators",
			map[string]string{"name": "Sadia"})
		assertStatus(t, w, http.StatusConflict)
		assert.Equal(t, "DECORATOR_EXISTS", resp.Error.Code)
	})

	t.Run("user cannot apply for someone else", func(t *testing.T) {
		w, resp := doJSON(t, decoratorRouter(applicant), http.MethodPost, "/decorators",
			map[string]string{"name": "Mitu", "email": "mitu@example.com"})
		assertStatus(t, w, http.StatusForbidden)
		assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	})

	t.Run("admin can register anyone", func(t *testing.T) {
		w, _ := doJSON(t, decoratorRouter(admin), http.MethodPost, "/decorators",
			map[string]string{"name": "Mitu", "email": "mitu@example.com"})
		assertStatus(t, w, http.StatusCreated)
	})

	t.Run("name is required", func(t *testing.T) {
		w, resp := doJSON(t, decoratorRouter(admin), http.MethodPost, "/decorators",
			map[string]string{"email": "nameless@example.com"})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})
}

func TestListDecorators(t *testing.T) {
	env := setupTestEnv(t)
	sadia := env.user(t, "sadia@example.com", models.RoleUser)
	admin := env.user(t, "boss@example.com", models.RoleAdmin)
	env.approvedDecorator(t, "Mitu", "mitu@example.com")
	_, err := env.reg.Decorators.Apply(t.Context(), services.ApplyInput{Name: "Sadia", Email: "sadia@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		user       *models.User
		query      string
		wantStatus int
		wantCount  int
	}{
		{"admin lists all", admin, "", http.StatusOK, 2},
		{"admin filters approved", admin, "?status=approved", http.StatusOK, 1},
		{"admin bad status", admin, "?status=sleeping", http.StatusBadRequest, 0},
		{"user looks up own application", sadia, "?email=sadia@example.com", http.StatusOK, 1},
		{"user without email", sadia, "", http.StatusForbidden, 0},
		{"user looks up another", sadia, "?email=mitu@example.com", http.StatusForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, decoratorRouter(tt.user), http.MethodGet, "/decorators"+tt.query, nil)
			assertStatus(t, w, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				var list []models.Decorator
				decodeData(t, resp, &list)
				assert.Len(t, list, tt.wantCount)
			}
		})
	}
}

func TestUpdateDecorator(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.user(t, "boss@example.com", models.RoleAdmin)
	applicant := env.user(t, "sadia@example.com", models.RoleUser)
	dec, err := env.reg.Decorators.Apply(t.Context(), services.ApplyInput{Name: "Sadia", Email: "sadia@example.com"})
	require.NoError(t, err)

	router := decoratorRouter(admin)

	t.Run("no changes", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPatch, "/decorators/"+dec.ID, map[string]string{})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "NO_CHANGES", resp.Error.Code)
	})

	t.Run("approval promotes the user", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPatch, "/decorators/"+dec.ID, map[string]interface{}{
			"status":   "approved",
			"earnings": 120.5,
		})
		assertStatus(t, w, http.StatusOK)

		var updated models.Decorator
		decodeData(t, resp, &updated)
		assert.Equal(t, models.DecoratorApproved, updated.Status)
		assert.Equal(t, 120.5, updated.Earnings)

		var user models.User
		require.NoError(t, env.db.First(&user, applicant.ID).Error)
		assert.Equal(t, models.RoleDecorator, user.Role)
	})

	t.Run("back to pending is rejected", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPatch, "/decorators/"+dec.ID, map[string]string{"status": "pending"})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
	})

	t.Run("negative earnings", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPatch, "/decorators/"+dec.ID, map[string]interface{}{"earnings": -1})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "INVALID_EARNINGS", resp.Error.Code)
	})

	t.Run("unknown decorator", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPatch, "/decorators/missing", map[string]string{"status": "approved"})
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "DECORATOR_NOT_FOUND", resp.Error.Code)
	})
}

func TestRemoveDecorator(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.user(t, "boss@example.com", models.RoleAdmin)
	env.user(t, "sadia@example.com", models.RoleDecorator)
	svc := env.service(t, "Garden Wedding", 450)
	dec := env.approvedDecorator(t, "Sadia", "sadia@example.com")
	booking := env.booking(t, "rina@example.com", svc.ID)
	_, err := env.reg.Bookings.AssignDecorator(t.Context(), booking.ID, dec.ID)
	require.NoError(t, err)

	w, resp := doJSON(t, decoratorRouter(admin), http.MethodDelete, "/decorators/"+dec.ID, nil)
	assertStatus(t, w, http.StatusOK)

	var result struct {
		Deleted            bool  `json:"deleted"`
		UnassignedBookings int64 `json:"unassignedBookings"`
	}
	decodeData(t, resp, &result)
	assert.True(t, result.Deleted)
	assert.Equal(t, int64(1), result.UnassignedBookings)

	reloaded, err := env.reg.Bookings.GetBooking(t.Context(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Unassigned, reloaded.AssignedTo)
	assert.Equal(t, models.BookingPending, reloaded.BookingStatus)

	w, resp = doJSON(t, decoratorRouter(admin), http.MethodDelete, "/decorators/"+dec.ID, nil)
	assertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "DECORATOR_NOT_FOUND", resp.Error.Code)
}
