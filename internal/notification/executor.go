package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/internal/escalation"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/services"
	"gorm.io/gorm"
)

// ChannelConfig is the jsonb payload of a NotificationRule for webhook-backed
// channels.
type ChannelConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// Executor runs one user's notification rules for an escalation event. It is
// the engine's UserNotifier.
type Executor struct {
	db *gorm.DB
}

func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

// StartUserNotificationRules loads the user's active rules matching the event
// type, records a Notification row per rule and delivers on webhook channels.
// A user with no matching rules still gets a recorded (undelivered)
// notification so the page attempt is visible.
func (e *Executor) StartUserNotificationRules(ctx context.Context, userID uint, n escalation.UserNotification) error {
	var user models.User

	if err := e.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", escalation.ErrNotFound, userID)
		}
		return err
	}

	message := e.pageMessage(ctx, n)

	var rules []models.NotificationRule

	err := e.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND trigger_type = ? AND is_active = ?",
			userID, n.ProjectID, n.EventType, true).
		Order("id ASC").
		Find(&rules).Error

	if err != nil {
		return err
	}

	if len(rules) == 0 {
		return e.record(ctx, userID, n, "none", "recorded", message, nil)
	}

	var deliveryErrs []error

	for _, rule := range rules {
		status := "recorded"
		var sentAt *time.Time

		switch rule.Channel {
		case "discord", "slack":
			var cfg ChannelConfig

			if err := json.Unmarshal(rule.Config, &cfg); err != nil || cfg.WebhookURL == "" {
				status = "failed"
				deliveryErrs = append(deliveryErrs, fmt.Errorf("rule %d: missing webhook_url", rule.ID))
				break
			}

			if err := services.SendEscalationPage(ctx, rule.Channel, cfg.WebhookURL, user.Name, message); err != nil {
				status = "failed"
				deliveryErrs = append(deliveryErrs, fmt.Errorf("rule %d: %w", rule.ID, err))
				break
			}

			now := time.Now()
			status = "sent"
			sentAt = &now
		default:
			// Email and SMS channels are recorded only; delivery for them is
			// handled out of band.
		}

		if err := e.record(ctx, userID, n, rule.Channel, status, message, sentAt); err != nil {
			deliveryErrs = append(deliveryErrs, err)
		}
	}

	return errors.Join(deliveryErrs...)
}

func (e *Executor) record(ctx context.Context, userID uint, n escalation.UserNotification, channel, status, message string, sentAt *time.Time) error {
	executionLogID := n.ExecutionLogID
	ruleID := n.RuleID

	row := models.Notification{
		IncidentID:       n.TriggeredByIncidentID,
		ExecutionLogID:   &executionLogID,
		EscalationRuleID: &ruleID,
		UserID:           userID,
		Channel:          channel,
		Status:           status,
		Message:          message,
		SentAt:           sentAt,
	}

	if err := e.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("Failed to record notification for user %d: %v", userID, err)
		return err
	}

	return nil
}

func (e *Executor) pageMessage(ctx context.Context, n escalation.UserNotification) string {
	var parts []string

	if n.TriggeredByIncidentID != nil {
		var incident models.Incident

		if err := e.db.WithContext(ctx).First(&incident, *n.TriggeredByIncidentID).Error; err == nil {
			parts = append(parts, fmt.Sprintf("Incident: %s (severity %s)", incident.Title, incident.Severity))
		}
	}

	parts = append(parts, fmt.Sprintf("Event: %s", n.EventType))
	parts = append(parts, fmt.Sprintf("Escalation rule %d of policy %d", n.RuleID, n.PolicyID))

	return strings.Join(parts, " | ")
}
