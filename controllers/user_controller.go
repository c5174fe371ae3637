package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	DisplayName string `json:"displayName" binding:"omitempty,max=100"`
	PhotoURL    string `json:"photoURL" binding:"omitempty,url"`
}

// SetRoleRequest represents the request body for changing a user's role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateUser handles POST /api/v1/users - registers the caller from their verified token.
// When the token carries no email the profile is fetched from the issuer's /userinfo endpoint.
func CreateUser(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	profile := services.IdentityProfile{
		Sub:     identity.UID,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
	}

	if profile.Email == "" && registry().Identity != nil {
		accessToken, err := middleware.GetAccessToken(c)
		if err != nil {
			respondErrorCode(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
			return
		}

		info, err := registry().Identity.GetUserInfo(c.Request.Context(), accessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		profile.Email = info.Email
		if profile.Name == "" {
			profile.Name = info.Name
		}
		if profile.Picture == "" {
			profile.Picture = info.Picture
		}
	}

	user, err := registry().Users.Register(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}
	respondOK(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users (admins only)
func ListUsers(c *gin.Context) {
	users, err := registry().Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// GetUser handles GET /api/v1/users/:email (self or admin)
func GetUser(c *gin.Context) {
	if !authorizeSelf(c, c.Param("email")) {
		return
	}

	user, err := registry().Users.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// GetUserRole handles GET /api/v1/users/:email/role (self or admin)
func GetUserRole(c *gin.Context) {
	email := c.Param("email")
	if !authorizeSelf(c, email) {
		return
	}

	role, err := registry().Users.Role(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"email": email, "role": role})
}

// UpdateUser handles PUT /api/v1/users/:email - users may only edit their own profile
func UpdateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	email := c.Param("email")
	if !actor.Owns(email) {
		respondForbidden(c, "You can only update your own profile")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := registry().Users.UpdateProfile(c.Request.Context(), email, req.DisplayName, req.PhotoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// SetUserRole handles PATCH /api/v1/users/:email/role (admins only)
func SetUserRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := registry().Users.SetRole(c.Request.Context(), c.Param("email"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

func authorizeSelf(c *gin.Context, email string) bool {
	actor, ok := currentActor(c)
	if !ok {
		return false
	}
	if !actor.IsAdmin() && !actor.Owns(email) {
		respondForbidden(c, "You can only view your own profile")
		return false
	}
	return true
}
