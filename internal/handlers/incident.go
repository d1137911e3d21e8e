package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/services"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
	"gorm.io/gorm"
)

type CreateIncidentRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity" binding:"required"`
	PolicyID    *uint  `json:"policy_id"` // on-call policy to page, optional
}

type IncidentResponse struct {
	ID             uint       `json:"id"`
	Status         string     `json:"status"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartedAt      *time.Time `json:"started_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`
}

func incidentResponse(incident models.Incident) IncidentResponse {
	return IncidentResponse{
		ID:             incident.ID,
		Status:         incident.Status,
		Severity:       incident.Severity,
		Title:          incident.Title,
		Description:    incident.Description,
		StartedAt:      incident.StartedAt,
		AcknowledgedAt: incident.AcknowledgedAt,
		ResolvedAt:     incident.ResolvedAt,
	}
}

func loadOwnedIncident(ctx *gin.Context) (models.Project, models.Incident, bool) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return models.Project{}, models.Incident{}, false
	}

	incidentID, err := utils.GetIncidentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Project{}, models.Incident{}, false
	}

	var incident models.Incident

	if err := db.DB.Where("id = ? AND project_id = ?", incidentID, project.ID).First(&incident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incident"})
		}
		return models.Project{}, models.Incident{}, false
	}

	return project, incident, true
}

// CreateIncident raises an incident by hand and, when a policy is given,
// starts its escalation the same way a failed monitor check does.
func CreateIncident(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var req CreateIncidentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PolicyID != nil {
		var policy models.OnCallPolicy

		if err := db.DB.Where("id = ? AND project_id = ?", *req.PolicyID, project.ID).First(&policy).Error; err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
			return
		}
	}

	now := time.Now()

	incident := models.Incident{
		ProjectID:   project.ID,
		Status:      models.IncidentOpen,
		Severity:    req.Severity,
		Title:       req.Title,
		Description: req.Description,
		StartedAt:   &now,
	}

	if err := db.DB.Create(&incident).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create incident"})
		return
	}

	if err := services.SendIncidentCreatedNotification(project, incident); err != nil {
		log.Printf("Failed to send incident webhook for project %d: %v", project.ID, err)
	}

	BroadcastIncident(fmt.Sprintf("%d", project.ID), incident.Status, incident.Title)

	if req.PolicyID != nil {
		incidentID := incident.ID

		if _, err := dispatcher.StartPolicyExecution(ctx.Request.Context(), project.ID, *req.PolicyID, &incidentID); err != nil {
			log.Printf("Escalation for incident %d failed: %v", incident.ID, err)
		}
	}

	ctx.JSON(http.StatusCreated, incidentResponse(incident))
}

func ListIncidents(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var incidents []models.Incident

	err := db.DB.Where("project_id = ?", project.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&incidents).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	responses := make([]IncidentResponse, 0, len(incidents))

	for _, incident := range incidents {
		responses = append(responses, incidentResponse(incident))
	}

	ctx.JSON(http.StatusOK, responses)
}

func AcknowledgeIncident(ctx *gin.Context) {
	_, incident, ok := loadOwnedIncident(ctx)

	if !ok {
		return
	}

	if incident.Status != models.IncidentOpen {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only open incidents can be acknowledged"})
		return
	}

	now := time.Now()
	incident.Status = models.IncidentAcknowledged
	incident.AcknowledgedAt = &now

	if err := db.DB.Save(&incident).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to acknowledge incident"})
		return
	}

	ctx.JSON(http.StatusOK, incidentResponse(incident))
}

func ResolveIncident(ctx *gin.Context) {
	project, incident, ok := loadOwnedIncident(ctx)

	if !ok {
		return
	}

	if incident.Status == models.IncidentResolved {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incident is already resolved"})
		return
	}

	now := time.Now()
	incident.Status = models.IncidentResolved
	incident.ResolvedAt = &now

	if err := db.DB.Save(&incident).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve incident"})
		return
	}

	if err := services.SendIncidentResolvedNotification(project, incident); err != nil {
		log.Printf("Failed to send resolution webhook for project %d: %v", project.ID, err)
	}

	BroadcastIncident(fmt.Sprintf("%d", project.ID), incident.Status, incident.Title)

	ctx.JSON(http.StatusOK, incidentResponse(incident))
}
