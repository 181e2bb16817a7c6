package dto

import (
	"time"

	"github.com/spec-kit/delivery-platform/internal/auth"
	"github.com/spec-kit/delivery-platform/internal/domain"
)

// AddressPayload is the wire shape of a delivery address.
type AddressPayload struct {
	ID      int64  `json:"id,omitempty"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	FullName  string           `json:"full_name"`
	Addresses []AddressPayload `json:"addresses"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for PUT /users/me. Omitting addresses keeps the current list.
type UpdateProfileRequest struct {
	FullName  string            `json:"full_name"`
	Addresses *[]AddressPayload `json:"addresses"`
}

// GrantRoleRequest payload for POST /users/:id/roles.
type GrantRoleRequest struct {
	Role string `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	FullName  string           `json:"full_name"`
	Roles     []domain.Role    `json:"roles"`
	Addresses []AddressPayload `json:"addresses,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewAuthResponse maps a token pair.
func NewAuthResponse(pair auth.TokenPair) AuthResponse {
	return AuthResponse{
		AccessToken:      pair.AccessToken,
		TokenType:        "Bearer",
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// NewUserResponse maps a domain user, never exposing the password hash.
func NewUserResponse(user *domain.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []domain.Role{}
	}
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
	}
	for _, a := range user.Addresses {
		resp.Addresses = append(resp.Addresses, AddressPayload{
			ID: a.ID, Street: a.Street, City: a.City, Zip: a.Zip, State: a.State, Country: a.Country,
		})
	}
	return resp
}

// ToAddresses converts payloads into domain addresses.
func ToAddresses(payloads []AddressPayload) []domain.Address {
	addresses := make([]domain.Address, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, domain.Address{
			Street: p.Street, City: p.City, Zip: p.Zip, State: p.State, Country: p.Country,
		})
	}
	return addresses
}
