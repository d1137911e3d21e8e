package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/escalation"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
	"gorm.io/gorm"
)

// Engine wiring, set once from main before the router starts serving.
var (
	escalationStore *escalation.GormStore
	ruleOrder       *escalation.OrderMaintainer
	dispatcher      *escalation.Dispatcher
)

func InitEscalation(store *escalation.GormStore, maintainer *escalation.OrderMaintainer, d *escalation.Dispatcher) {
	escalationStore = store
	ruleOrder = maintainer
	dispatcher = d
}

// loadOwnedProject resolves :project_id and checks the requester owns it.
// On failure it writes the response and returns false.
func loadOwnedProject(ctx *gin.Context) (models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Project{}, false
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Project{}, false
	}

	var project models.Project

	if err := db.DB.Where("id = ? AND owner_id = ?", projectID, userID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return models.Project{}, false
	}

	return project, true
}

// writeEscalationError maps engine errors onto HTTP statuses.
func writeEscalationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, escalation.ErrBadData):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, escalation.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
