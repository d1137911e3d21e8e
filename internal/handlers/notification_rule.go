package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
	"gorm.io/gorm"
)

type CreateNotificationRuleRequest struct {
	TriggerType string                 `json:"trigger_type" binding:"required"`
	Channel     string                 `json:"channel" binding:"required"`
	Config      map[string]interface{} `json:"config"`
}

type NotificationRuleResponse struct {
	ID          uint                   `json:"id"`
	TriggerType string                 `json:"trigger_type"`
	Channel     string                 `json:"channel"`
	IsActive    bool                   `json:"is_active"`
	Config      map[string]interface{} `json:"config"`
}

// CreateNotificationRule registers how the current user wants to be paged for
// an event type within a project.
func CreateNotificationRule(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateNotificationRuleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	configJSON, err := json.Marshal(req.Config)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config format"})
		return
	}

	rule := models.NotificationRule{
		ProjectID:   project.ID,
		UserID:      userID,
		TriggerType: req.TriggerType,
		Channel:     req.Channel,
		IsActive:    true,
		Config:      configJSON,
	}

	if err := db.DB.Create(&rule).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification rule"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Notification rule created successfully", "rule_id": rule.ID})
}

func ListNotificationRules(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var rules []models.NotificationRule

	err = db.DB.Where("project_id = ? AND user_id = ?", project.ID, userID).
		Order("id ASC").
		Find(&rules).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notification rules"})
		return
	}

	responses := make([]NotificationRuleResponse, 0, len(rules))

	for _, rule := range rules {
		var config map[string]interface{}

		if err := json.Unmarshal(rule.Config, &config); err != nil {
			config = make(map[string]interface{})
		}

		responses = append(responses, NotificationRuleResponse{
			ID:          rule.ID,
			TriggerType: rule.TriggerType,
			Channel:     rule.Channel,
			IsActive:    rule.IsActive,
			Config:      config,
		})
	}

	ctx.JSON(http.StatusOK, responses)
}

func DeleteNotificationRule(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ruleID := ctx.Param("rule_id")

	var rule models.NotificationRule

	if err := db.DB.Where("id = ? AND project_id = ? AND user_id = ?", ruleID, project.ID, userID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification rule not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notification rule"})
		}
		return
	}

	if err := db.DB.Delete(&rule).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification rule"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
