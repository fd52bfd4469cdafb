package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleGuest   UserRole = "guest"
	RoleStudent UserRole = "student"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the closed set of platform roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleGuest, RoleStudent, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;default:guest;index"`

	// Profile info
	FirstName       string     `json:"first_name" gorm:"not null;size:100"`
	LastName        string     `json:"last_name" gorm:"not null;size:100"`
	Phone           string     `json:"phone" gorm:"size:30"`
	Address         string     `json:"address" gorm:"size:255"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Gender          string     `json:"gender" gorm:"size:20"`
	State           string     `json:"state" gorm:"size:100"`
	ProfilePhotoRef *string    `json:"profile_photo_ref,omitempty" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name the way review queues display students.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
