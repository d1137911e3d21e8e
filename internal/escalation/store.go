package escalation

import (
	"context"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
)

// RuleStore is the engine's view of escalation rule persistence. The gorm
// implementation lives in this package; tests substitute an in-memory fake.
type RuleStore interface {
	Rule(ctx context.Context, ruleID uint) (models.EscalationRule, error)
	FirstRule(ctx context.Context, policyID uint) (models.EscalationRule, error)
	CountByPolicy(ctx context.Context, policyID uint) (int64, error)

	// RulesFrom returns the policy's rules with order >= pivot, ascending.
	RulesFrom(ctx context.Context, policyID uint, pivot int) ([]models.EscalationRule, error)
	// RulesInRange returns the policy's rules with lo <= order <= hi, ascending.
	RulesInRange(ctx context.Context, policyID uint, lo, hi int) ([]models.EscalationRule, error)

	CreateRule(ctx context.Context, rule *models.EscalationRule) error
	UpdateRuleOrder(ctx context.Context, ruleID uint, order int) error
	DeleteRule(ctx context.Context, ruleID uint) error

	RuleUsers(ctx context.Context, ruleID uint) ([]models.EscalationRuleUser, error)
	RuleTeams(ctx context.Context, ruleID uint) ([]models.EscalationRuleTeam, error)
	AttachUsersAndTeams(ctx context.Context, projectID, policyID, ruleID uint, userIDs, teamIDs []uint) error
}

// TeamDirectory resolves current team membership.
type TeamDirectory interface {
	UsersInTeam(ctx context.Context, teamID uint) ([]uint, error)
}

// TimelineWriter appends to the immutable execution audit trail. Writes go
// through the system-internal path and bypass per-request permission checks.
type TimelineWriter interface {
	AppendTimeline(ctx context.Context, entry *models.ExecutionTimelineEntry) error
}

// ExecutionLogStore persists incident-level execution logs.
type ExecutionLogStore interface {
	CreateExecutionLog(ctx context.Context, log *models.PolicyExecutionLog) error
	UpdateExecutionStatus(ctx context.Context, logID uint, status string) error
}

// UserNotification is the payload handed to the per-user notification
// subsystem for every resolved user of an executed rule.
type UserNotification struct {
	ProjectID             uint
	PolicyID              uint
	RuleID                uint
	ExecutionLogID        uint
	EventType             string
	TriggeredByIncidentID *uint
}

// UserNotifier runs a single user's notification rules for one event.
type UserNotifier interface {
	StartUserNotificationRules(ctx context.Context, userID uint, n UserNotification) error
}
