package services

import (
	"strings"

	"github.com/kendall-kelly/xdecor-api/models"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UID   string
	Email string
	Role  models.Role
}

// ActorFromUser builds an Actor from a stored user
func ActorFromUser(u *models.User) Actor {
	return Actor{UID: u.UID, Email: u.Email, Role: u.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether email belongs to the actor
func (a Actor) Owns(email string) bool {
	return a.Email != "" && strings.EqualFold(a.Email, email)
}
