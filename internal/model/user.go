package model

import "github.com/shopspring/decimal"

// User is the profile the REST service returns for the signed-in account.
type User struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

// Credentials are sent on sign-in and sign-up. Name is only used for sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthResponse is returned by sign-in and sign-up.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Session is the persisted bearer credential and the user it belongs to.
type Session struct {
	User  *User
	Token string
}
