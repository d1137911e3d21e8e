package models

import "gorm.io/gorm"

// PolicyExecutionLog is the incident-level record of one run of an on-call
// policy. Rule-level steps hang off it as timeline entries.
type PolicyExecutionLog struct {
	gorm.Model

	ProjectID     uint   `gorm:"not null;index"`
	PolicyID      uint   `gorm:"not null;index"`
	IncidentID    *uint  `gorm:"index"`
	CorrelationID string `gorm:"uniqueIndex;not null"`
	Status        string `gorm:"not null"` // "started", "completed", "failed"

	// Relationships
	Project  Project                  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Policy   OnCallPolicy             `gorm:"foreignKey:PolicyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Timeline []ExecutionTimelineEntry `gorm:"foreignKey:ExecutionLogID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// ExecutionTimelineEntry is append-only: rows are created and never updated.
type ExecutionTimelineEntry struct {
	gorm.Model

	ProjectID             uint   `gorm:"not null;index"`
	ExecutionLogID        uint   `gorm:"not null;index"`
	PolicyID              uint   `gorm:"not null;index"`
	RuleID                uint   `gorm:"not null;index"`
	TriggeredByIncidentID *uint  `gorm:"index"`
	StatusMessage         string `gorm:"not null"`

	// Relationships
	ExecutionLog PolicyExecutionLog `gorm:"foreignKey:ExecutionLogID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Rule         EscalationRule     `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
