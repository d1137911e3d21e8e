package escalation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/types"
)

const defaultUserDispatchTimeout = 15 * time.Second

// StartOptions carries the context of one rule execution.
type StartOptions struct {
	ProjectID             uint
	PolicyID              uint
	ExecutionLogID        uint
	EventType             string
	TriggeredByIncidentID *uint
}

// Dispatcher executes escalation rules: it records the attempt on the
// timeline, validates the trigger contract, resolves the target users and
// fans out one notification-rule execution per user.
type Dispatcher struct {
	rules    RuleStore
	resolver *MembershipResolver
	timeline TimelineWriter
	logs     ExecutionLogStore
	notifier UserNotifier

	// userTimeout bounds each user's dispatch so one hung channel cannot
	// starve the users after it.
	userTimeout time.Duration
}

func NewDispatcher(rules RuleStore, resolver *MembershipResolver, timeline TimelineWriter, logs ExecutionLogStore, notifier UserNotifier) *Dispatcher {
	return &Dispatcher{
		rules:       rules,
		resolver:    resolver,
		timeline:    timeline,
		logs:        logs,
		notifier:    notifier,
		userTimeout: defaultUserDispatchTimeout,
	}
}

// StartRuleExecution executes one escalation rule for one triggering event.
//
// The timeline entry is written before anything else, including trigger
// validation: an attempt must be auditable even when it is then rejected.
// Re-running the same execution writes a second entry and dispatches again;
// executions are deliberately not idempotent and retries are the caller's
// decision.
func (d *Dispatcher) StartRuleExecution(ctx context.Context, ruleID uint, opts StartOptions) error {
	entry := models.ExecutionTimelineEntry{
		ProjectID:             opts.ProjectID,
		ExecutionLogID:        opts.ExecutionLogID,
		PolicyID:              opts.PolicyID,
		RuleID:                ruleID,
		TriggeredByIncidentID: opts.TriggeredByIncidentID,
		StatusMessage:         "Executing escalation rule.",
	}

	if err := d.timeline.AppendTimeline(ctx, &entry); err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}

	if opts.EventType == types.EventIncidentCreated && opts.TriggeredByIncidentID == nil {
		return fmt.Errorf("%w: incident-created trigger requires a triggering incident id", ErrBadData)
	}

	membership, err := d.resolver.ResolveMembers(ctx, ruleID)

	if err != nil {
		return fmt.Errorf("resolve members: %w", err)
	}

	notification := UserNotification{
		ProjectID:             opts.ProjectID,
		PolicyID:              opts.PolicyID,
		RuleID:                ruleID,
		ExecutionLogID:        opts.ExecutionLogID,
		EventType:             opts.EventType,
		TriggeredByIncidentID: opts.TriggeredByIncidentID,
	}

	var dispatchErrs []error

	for _, userID := range membership.UserIDs {
		userCtx, cancel := context.WithTimeout(ctx, d.userTimeout)
		err := d.notifier.StartUserNotificationRules(userCtx, userID, notification)
		cancel()

		if err != nil {
			log.Printf("Escalation rule %d: dispatch to user %d failed: %v", ruleID, userID, err)
			dispatchErrs = append(dispatchErrs, fmt.Errorf("user %d: %w", userID, err))
		}
	}

	return errors.Join(dispatchErrs...)
}

// StartPolicyExecution opens an incident-level execution log for a policy and
// runs its first rule. Escalation past the first rule is driven by whoever
// owns the escalation timer, not by this call.
func (d *Dispatcher) StartPolicyExecution(ctx context.Context, projectID, policyID uint, incidentID *uint) (models.PolicyExecutionLog, error) {
	execution := models.PolicyExecutionLog{
		ProjectID:     projectID,
		PolicyID:      policyID,
		IncidentID:    incidentID,
		CorrelationID: uuid.NewString(),
		Status:        "started",
	}

	if err := d.logs.CreateExecutionLog(ctx, &execution); err != nil {
		return models.PolicyExecutionLog{}, fmt.Errorf("create execution log: %w", err)
	}

	first, err := d.rules.FirstRule(ctx, policyID)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A policy with no rules executes as a no-op, mirroring a rule
			// with no members.
			d.finishExecution(ctx, &execution, nil)
			return execution, nil
		}
		d.finishExecution(ctx, &execution, err)
		return execution, err
	}

	eventType := types.EventIncidentCreated

	if incidentID == nil {
		eventType = types.EventManualPage
	}

	err = d.StartRuleExecution(ctx, first.ID, StartOptions{
		ProjectID:             projectID,
		PolicyID:              policyID,
		ExecutionLogID:        execution.ID,
		EventType:             eventType,
		TriggeredByIncidentID: incidentID,
	})

	d.finishExecution(ctx, &execution, err)
	return execution, err
}

// finishExecution moves the log from "started" to its terminal status. A
// failed status write is logged but does not mask the execution's own result.
func (d *Dispatcher) finishExecution(ctx context.Context, execution *models.PolicyExecutionLog, execErr error) {
	status := "completed"

	if execErr != nil {
		status = "failed"
	}

	if err := d.logs.UpdateExecutionStatus(ctx, execution.ID, status); err != nil {
		log.Printf("Execution log %d: status update to %q failed: %v", execution.ID, status, err)
		return
	}

	execution.Status = status
}
