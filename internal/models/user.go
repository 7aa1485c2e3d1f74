// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Email is the login identifier;
// the handle, when set, is unique and must start with '@'.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"size:150;not null;index" json:"username"`
	Email          string         `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string         `gorm:"not null" json:"-"`
	Name           string         `gorm:"size:255" json:"name"`
	Handle         *string        `gorm:"size:50;uniqueIndex" json:"handle"`
	Bio            string         `gorm:"type:text" json:"bio"`
	Institution    string         `gorm:"size:255" json:"institution"`
	Title          string         `gorm:"size:50" json:"title"`
	Expertise      string         `gorm:"size:255" json:"expertise"`
	Certifications string         `gorm:"type:text" json:"certifications"`
	DOB            *time.Time     `json:"dob"`
	Interests      string         `gorm:"type:text" json:"interests"`
	ProfilePicture string         `gorm:"size:500" json:"profile_picture"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// HandlePrefix is the sentinel every handle must start with.
const HandlePrefix = "@"

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Handle != nil && *u.Handle != "" {
		return *u.Handle
	}
	return u.Email
}

// ValidateHandle reports whether a handle carries the required '@' prefix.
// An empty handle is valid (the field is optional).
func ValidateHandle(handle string) bool {
	return handle == "" || strings.HasPrefix(handle, HandlePrefix)
}

// PasswordResetToken stores a single-use reset token with a 24h expiry.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Token     string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// Expired reports whether the token is past its expiry.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
