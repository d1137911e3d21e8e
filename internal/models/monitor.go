package models

import (
	"gorm.io/datatypes"
)

type Monitor struct {
	BaseModel

	ProjectID      uint           `gorm:"not null;index"` // Foreign key to the Project
	OnCallPolicyID *uint          `gorm:"index"`          // Policy paged when this monitor fails
	Name           string         `gorm:"not null"`
	Type           string         `gorm:"not null"` // "http", "dns", "database"
	Status         string         `gorm:"not null"` // "active", "inactive"
	Interval       int            `gorm:"not null"` // Interval in seconds for the monitor to run
	Config         datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project       Project        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	OnCallPolicy  *OnCallPolicy  `gorm:"foreignKey:OnCallPolicyID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	MonitorChecks []MonitorCheck `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Incidents     []Incident     `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
