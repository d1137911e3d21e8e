package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - Incident created
	ColorGreen  = 65280    // #00FF00 - Incident resolved
	ColorOrange = 16753920 // #FFA500 - Paging

	Username = "Pulsedeck"
)

// SendIncidentCreatedNotification posts the project-level incident alert to
// every webhook the project has configured.
func SendIncidentCreatedNotification(project models.Project, incident models.Incident) error {
	if project.DiscordWebhook != "" {
		if err := sendDiscordIncident(project.DiscordWebhook, project, incident, false); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := sendSlackIncident(project.SlackWebhook, project, incident, false); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func SendIncidentResolvedNotification(project models.Project, incident models.Incident) error {
	if project.DiscordWebhook != "" {
		if err := sendDiscordIncident(project.DiscordWebhook, project, incident, true); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := sendSlackIncident(project.SlackWebhook, project, incident, true); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

// SendEscalationPage delivers a per-user page produced by an escalation rule
// execution to the user's configured channel webhook.
func SendEscalationPage(ctx context.Context, channel, webhookURL, userName, message string) error {
	switch channel {
	case "discord":
		payload := DiscordWebhookRequest{
			Username: Username,
			Embeds: []DiscordEmbed{
				{
					Title:       "On-call page",
					Description: message,
					Color:       ColorOrange,
					Fields: []DiscordWebhookField{
						{Name: "Paged user", Value: userName, Inline: true},
					},
					Timestamp: time.Now().Format(time.RFC3339),
				},
			},
		}
		return sendDiscordWebhook(ctx, webhookURL, payload)
	case "slack":
		payload := SlackWebhookRequest{
			Username:  Username,
			IconEmoji: ":pager:",
			Text:      ":pager: *ON-CALL PAGE*",
			Attachments: []SlackAttachment{
				{
					Color:     "warning",
					Title:     fmt.Sprintf("Paging %s", userName),
					Text:      message,
					Timestamp: time.Now().Unix(),
				},
			},
		}
		return sendSlackWebhook(ctx, webhookURL, payload)
	default:
		return fmt.Errorf("unsupported page channel: %s", channel)
	}
}

func sendDiscordIncident(webhookURL string, project models.Project, incident models.Incident, resolved bool) error {
	startedAt := "Unknown"
	if incident.StartedAt != nil {
		startedAt = incident.StartedAt.Format("2006-01-02 15:04:05 UTC")
	}

	title := "🚨 **INCIDENT DETECTED**"
	color := ColorRed
	description := fmt.Sprintf("**%s** requires attention.", incident.Title)

	fields := []DiscordWebhookField{
		{Name: "⚠️ Status", Value: "**" + incident.Status + "**", Inline: true},
		{Name: "🔥 Severity", Value: incident.Severity, Inline: true},
		{Name: "📝 Incident Title", Value: incident.Title, Inline: false},
		{Name: "📋 Description", Value: incident.Description, Inline: false},
		{Name: "⏰ Started At", Value: startedAt, Inline: true},
	}

	if resolved {
		title = "✅ **INCIDENT RESOLVED**"
		color = ColorGreen
		description = fmt.Sprintf("**%s** is back to normal.", incident.Title)

		resolvedAt := "Unknown"
		duration := "Unknown"

		if incident.ResolvedAt != nil {
			resolvedAt = incident.ResolvedAt.Format("2006-01-02 15:04:05 UTC")
			if incident.StartedAt != nil {
				duration = incident.ResolvedAt.Sub(*incident.StartedAt).Round(time.Second).String()
			}
		}

		fields = append(fields,
			DiscordWebhookField{Name: "🏁 Resolved At", Value: resolvedAt, Inline: true},
			DiscordWebhookField{Name: "⏱️ Duration", Value: duration, Inline: true},
		)
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
				Fields:      fields,
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Project: %s | Pulsedeck Monitoring", project.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(context.Background(), webhookURL, payload)
}

func sendSlackIncident(webhookURL string, project models.Project, incident models.Incident, resolved bool) error {
	startedAt := "Unknown"
	if incident.StartedAt != nil {
		startedAt = incident.StartedAt.Format("2006-01-02 15:04:05 UTC")
	}

	text := ":rotating_light: *INCIDENT DETECTED*"
	color := "danger"
	title := fmt.Sprintf("Incident '%s' needs attention", incident.Title)
	icon := ":rotating_light:"

	fields := []SlackField{
		{Title: "Status", Value: incident.Status, Short: true},
		{Title: "Severity", Value: incident.Severity, Short: true},
		{Title: "Started At", Value: startedAt, Short: false},
	}

	if resolved {
		text = ":white_check_mark: *INCIDENT RESOLVED*"
		color = "good"
		title = fmt.Sprintf("Incident '%s' has been resolved", incident.Title)
		icon = ":white_check_mark:"

		if incident.ResolvedAt != nil {
			fields = append(fields, SlackField{
				Title: "Resolved At",
				Value: incident.ResolvedAt.Format("2006-01-02 15:04:05 UTC"),
				Short: true,
			})
		}
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: icon,
		Text:      text,
		Attachments: []SlackAttachment{
			{
				Color:     color,
				Title:     title,
				Text:      incident.Description,
				Fields:    fields,
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(context.Background(), webhookURL, payload)
}

func sendDiscordWebhook(ctx context.Context, webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	return postJSON(ctx, webhookURL, body, "Discord")
}

func sendSlackWebhook(ctx context.Context, webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	return postJSON(ctx, webhookURL, body, "Slack")
}

func postJSON(ctx context.Context, webhookURL string, body []byte, kind string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build %s webhook request: %w", kind, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s webhook: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s webhook returned status %d", kind, resp.StatusCode)
	}

	return nil
}
