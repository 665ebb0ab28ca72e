package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusSubmitted is the status every new incident starts with.
const StatusSubmitted = "Enviado"

// Incident is a geotagged report submitted by a user.
type Incident struct {
	ID           string       `gorm:"type:varchar(36);primaryKey"`
	Description  string       `gorm:"type:text;not null"`
	Type         IncidentType `gorm:"type:varchar(64);index;not null"`
	Longitude    float64      `gorm:"not null"`
	Latitude     float64      `gorm:"not null"`
	Status       string       `gorm:"type:varchar(32);not null;default:Enviado"`
	ImageURL     string
	ThumbnailURL string
	AuthorID     string `gorm:"type:varchar(36);index;not null"`
	Author       *User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	Model

	// Likes holds liker ids, oldest like first.
	Likes []string `gorm:"-"`
	// CommentIDs holds comment ids, oldest comment first.
	CommentIDs []string `gorm:"-"`
}

func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusSubmitted
	}
	return nil
}

// LikedBy reports whether userID is in the likes set.
func (i *Incident) LikedBy(userID string) bool {
	for _, id := range i.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// IncidentLike is one membership of the likes set. The composite primary key
// keeps a user from appearing twice.
type IncidentLike struct {
	IncidentID string    `gorm:"type:varchar(36);primaryKey"`
	UserID     string    `gorm:"type:varchar(36);primaryKey"`
	CreatedAt  time.Time `gorm:"index"`
	Incident   *Incident `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// IncidentFilter narrows ListIncidents. Zero fields match everything.
type IncidentFilter struct {
	Type     IncidentType
	AuthorID string
}
