package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID              uuid.UUID `db:"id"                json:"id"`
	Name            string    `db:"name"              json:"name"`
	FullNameArabic  *string   `db:"full_name_arabic"  json:"full_name_arabic"`
	FullNameEnglish *string   `db:"full_name_english" json:"full_name_english"`
	Email           string    `db:"email"             json:"email"`
	Password        string    `db:"password"          json:"-"` // never expose hash
	Role            Role      `db:"role"              json:"role"`
	IsActive        bool      `db:"is_active"         json:"is_active"`
	CreatedAt       time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"        json:"updated_at"`
}

// DTO untuk response login
type UserResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	FullNameArabic  *string   `json:"full_name_arabic,omitempty"`
	FullNameEnglish *string   `json:"full_name_english,omitempty"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		FullNameArabic:  u.FullNameArabic,
		FullNameEnglish: u.FullNameEnglish,
		Email:           u.Email,
		Role:            u.Role,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
	}
}

// JWT Claims custom
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}