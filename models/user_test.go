package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserDefaultValues(t *testing.T) {
	user := User{
		Email: "new@example.com",
	}

	assert.Equal(t, "new@example.com", user.Email, "Email should be set")
	assert.Equal(t, Role(""), user.Role, "Role should be empty in the Go struct until the database default applies")
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Role
		wantErr bool
	}{
		{"user role", "user", RoleUser, false},
		{"admin role", "admin", RoleAdmin, false},
		{"decorator role", "decorator", RoleDecorator, false},
		{"unknown role", "technician", "", true},
		{"case sensitive", "Admin", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}
