package models

import "strings"

// Role is the sole authorization signal for a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// ParseRole lowercases, trims and validates a role string.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	return role, role.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRider, RoleDriver:
		return true
	default:
		return false
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Role      Role   `gorm:"size:50;not null" json:"role"`
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:15" json:"phone"`
}
