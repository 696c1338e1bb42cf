package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered candidate.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PasswordHash   string    `json:"-"`
	CompletedExams []string  `json:"completed_exams"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasCompleted reports whether examID is in the completed list.
func (u *User) HasCompleted(examID string) bool {
	for _, id := range u.CompletedExams {
		if id == examID {
			return true
		}
	}
	return false
}

// PublicUser mirrors the user's public fields (no credential).
type PublicUser struct {
	ID             uuid.UUID `json:"id" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	FirstName      string    `json:"first_name" validate:"required"`
	LastName       string    `json:"last_name"`
	CompletedExams []string  `json:"completed_exams"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	completed := make([]string, len(u.CompletedExams))
	copy(completed, u.CompletedExams)
	return PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		CompletedExams: completed,
	}
}

// SessionMarker is the current-session record of a logged-in user.
type SessionMarker struct {
	User      PublicUser `json:"user" validate:"required"`
	TokenID   string     `json:"token_id" validate:"required"`
	CreatedAt time.Time  `json:"created_at" validate:"required"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
