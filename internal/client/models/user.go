// Package models defines the client-side shapes of backend payloads.
//
// Feedback and user records are owned by the backend; the client only
// caches them for display.
package models

import "time"

// User is the record returned by GET /auth/me.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials is the POST /auth/login body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup is the POST /auth/signup body.
type Signup struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Token is the POST /auth/login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
