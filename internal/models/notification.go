package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model

	IncidentID       *uint  `gorm:"index"`
	ExecutionLogID   *uint  `gorm:"index"`
	EscalationRuleID *uint  `gorm:"index"`
	UserID           uint   `gorm:"not null;index"`
	Channel          string `gorm:"not null"`
	Status           string `gorm:"not null"` // "sent", "failed", "recorded"
	Message          string
	SentAt           *time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
