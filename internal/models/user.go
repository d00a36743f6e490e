package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a user is allowed to see and do.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleEditor       Role = "editor"
	RoleClient       Role = "client"
	RoleSalesRep     Role = "sales_rep"
	RoleSalesManager Role = "sales_manager"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEditor, RoleClient, RoleSalesRep, RoleSalesManager:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
