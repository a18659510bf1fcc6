package domain

import "time"

// User is an ExoTrack account: either an accountant (admin) or a customer.
// The documentNumber is the national ID the customer logs in with; it is
// unique across the system.
type User struct {
	ID             string    `json:"id"`
	DocumentNumber string    `json:"documentNumber"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Credentials is the login request payload.
type Credentials struct {
	DocumentNumber string `json:"documentNumber"`
	Password       string `json:"password"`
}

// RegisterRequest creates a new customer account.
type RegisterRequest struct {
	FullName       string `json:"fullName"`
	DocumentNumber string `json:"documentNumber"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Password       string `json:"password"`
}

// CreateUserRequest is the admin-side create payload.
type CreateUserRequest struct {
	DocumentNumber string `json:"documentNumber"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Password       string `json:"password"`
	Role           Role   `json:"role"`
}

// AuthResult is what a successful login yields: the full user record plus
// the bearer token for subsequent calls.
type AuthResult struct {
	User  *User
	Token string
}
