package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that owns images and reading sessions. Accounts created
// through the external provider exchange have no password hash; local accounts
// registered with a password do.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PublicID  string    `gorm:"uniqueIndex;column:user_id" json:"user_id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// Always false for provider accounts, which have no hash.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserSession is a server-side bearer credential. The token travels in the
// Authorization header (or a cookie) and expires after the configured TTL.
type UserSession struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"index" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Token     string    `gorm:"uniqueIndex;column:session_token" json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session token is past its expiry.
func (s *UserSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
