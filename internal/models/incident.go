package models

import (
	"time"

	"gorm.io/gorm"
)

type Incident struct {
	gorm.Model

	MonitorID      *uint  `gorm:"index"` // nil for manually raised incidents
	ProjectID      uint   `gorm:"not null;index"`
	Status         string `gorm:"not null"` // "open", "acknowledged", "resolved"
	Severity       string `gorm:"not null"`
	Title          string `gorm:"not null"`
	Description    string
	StartedAt      *time.Time
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time

	// Relationships
	Project       Project              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification       `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Executions    []PolicyExecutionLog `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

const (
	IncidentOpen         = "open"
	IncidentAcknowledged = "acknowledged"
	IncidentResolved     = "resolved"
)
