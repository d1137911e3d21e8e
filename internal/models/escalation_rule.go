package models

import "gorm.io/gorm"

// EscalationRule is one step of an on-call policy. Order is 1-based and kept
// dense and unique within a policy by the escalation order maintainer.
type EscalationRule struct {
	gorm.Model

	PolicyID  uint `gorm:"not null;index:idx_policy_order"`
	ProjectID uint `gorm:"not null;index"`
	Name      string
	Order     int `gorm:"column:rule_order;not null;index:idx_policy_order"`

	// Relationships
	Policy  OnCallPolicy         `gorm:"foreignKey:PolicyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Users   []EscalationRuleUser `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Teams   []EscalationRuleTeam `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type EscalationRuleUser struct {
	gorm.Model

	PolicyID  uint `gorm:"not null;index"`
	RuleID    uint `gorm:"not null;uniqueIndex:idx_rule_user"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_rule_user"`
	ProjectID uint `gorm:"not null;index"`

	// Relationships
	Rule EscalationRule `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User           `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type EscalationRuleTeam struct {
	gorm.Model

	PolicyID  uint `gorm:"not null;index"`
	RuleID    uint `gorm:"not null;uniqueIndex:idx_rule_team"`
	TeamID    uint `gorm:"not null;uniqueIndex:idx_rule_team"`
	ProjectID uint `gorm:"not null;index"`

	// Relationships
	Rule EscalationRule `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Team Team           `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
