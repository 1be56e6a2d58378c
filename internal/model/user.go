package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Role describes which side of the marketplace a user belongs to.
type Role string

const (
	// RoleUnset means the user has not chosen a role yet.
	RoleUnset Role = ""
	// RoleClient marks a user who posts shipment requests.
	RoleClient Role = "client"
	// RoleDriver marks a user who claims shipment requests.
	RoleDriver Role = "driver"
)

// ParseRole maps a stored role value to a known Role, rejecting anything else.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUnset, RoleClient, RoleDriver:
		return Role(raw), true
	}
	return RoleUnset, false
}

// User is the durable per-user record and the ground truth for what has
// actually been collected during registration. Optional fields are pointers:
// nil means the dialogue has not collected the value yet.
type User struct {
	ID   int64  `db:"id"`
	Role string `db:"role"`

	FirstName *string `db:"first_name"`
	LastName  *string `db:"last_name"`
	BirthYear *int    `db:"birth_year"`
	Phone     *string `db:"phone"`

	// Driver-only fields.
	VehicleModel    *string `db:"vehicle_model"`
	VehicleCategory *string `db:"vehicle_category"`
	CurrentLocation *string `db:"current_location"`

	RegistrationCompleted bool `db:"registration_completed"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsDriver reports whether the user registered as a driver.
func (u *User) IsDriver() bool {
	return u != nil && Role(u.Role) == RoleDriver
}
