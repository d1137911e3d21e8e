package models

import "gorm.io/gorm"

type OnCallPolicy struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string

	// Relationships
	Project Project          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Rules   []EscalationRule `gorm:"foreignKey:PolicyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
