package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
)

type ExecutionSummary struct {
	ID            uint      `json:"id"`
	PolicyID      uint      `json:"policy_id"`
	IncidentID    *uint     `json:"incident_id"`
	CorrelationID string    `json:"correlation_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type TimelineEntryResponse struct {
	ID                    uint      `json:"id"`
	RuleID                uint      `json:"rule_id"`
	TriggeredByIncidentID *uint     `json:"triggered_by_incident_id"`
	StatusMessage         string    `json:"status_message"`
	CreatedAt             time.Time `json:"created_at"`
}

// ListExecutions returns the policy execution logs of a project, newest first.
func ListExecutions(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var executions []models.PolicyExecutionLog

	err := db.DB.Where("project_id = ?", project.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&executions).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve executions"})
		return
	}

	summaries := make([]ExecutionSummary, 0, len(executions))

	for _, execution := range executions {
		summaries = append(summaries, ExecutionSummary{
			ID:            execution.ID,
			PolicyID:      execution.PolicyID,
			IncidentID:    execution.IncidentID,
			CorrelationID: execution.CorrelationID,
			Status:        execution.Status,
			CreatedAt:     execution.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, summaries)
}

// ListExecutionTimeline returns the append-only audit trail of one execution.
func ListExecutionTimeline(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	executionID, err := utils.GetExecutionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var execution models.PolicyExecutionLog

	if err := db.DB.Where("id = ? AND project_id = ?", executionID, project.ID).First(&execution).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
		return
	}

	var entries []models.ExecutionTimelineEntry

	err = db.DB.Where("execution_log_id = ?", execution.ID).
		Order("created_at ASC").
		Find(&entries).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve timeline"})
		return
	}

	responses := make([]TimelineEntryResponse, 0, len(entries))

	for _, entry := range entries {
		responses = append(responses, TimelineEntryResponse{
			ID:                    entry.ID,
			RuleID:                entry.RuleID,
			TriggeredByIncidentID: entry.TriggeredByIncidentID,
			StatusMessage:         entry.StatusMessage,
			CreatedAt:             entry.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, responses)
}
