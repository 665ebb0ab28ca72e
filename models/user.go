package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Model holds the timestamps shared by every persisted entity.
type Model struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User represents a registered citizen
type User struct {
	ID             string `json:"_id" gorm:"type:varchar(36);primaryKey"`
	Username       string `json:"username" gorm:"uniqueIndex;not null"`
	Email          string `json:"-" gorm:"uniqueIndex;not null"`
	HashedPassword string `json:"-" gorm:"not null"`
	Model
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// VerifyPassword compares password against the stored hash in constant time.
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

// Public is the only user shape that leaves the server.
func (u *User) Public() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}
