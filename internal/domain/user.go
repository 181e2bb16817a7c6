package domain

import "time"

// User is the identity record owned by the user service.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Roles        []Role
	Addresses    []Address
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address is a delivery address attached to a user profile.
type Address struct {
	ID      int64
	Street  string
	City    string
	Zip     string
	State   string
	Country string
}

// HasRole reports whether the user currently holds role.
func (u *User) HasRole(role Role) bool {
	return NewRoleSet(u.Roles...).Has(role)
}
