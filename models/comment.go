package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment represents a user's comment on an incident
type Comment struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	Text       string    `gorm:"type:text;not null"`
	IncidentID string    `gorm:"type:varchar(36);index;not null"`
	AuthorID   string    `gorm:"type:varchar(36);index;not null"`
	Incident   *Incident `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE"`
	Author     *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	Model
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
