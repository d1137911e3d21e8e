package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
	"gorm.io/gorm"
)

type CreatePolicyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdatePolicyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type PolicySummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RuleCount   int64  `json:"rule_count"`
}

func CreatePolicy(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var req CreatePolicyRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := models.OnCallPolicy{
		ProjectID:   project.ID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := db.DB.Create(&policy).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create policy"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Policy created successfully", "policy_id": policy.ID})
}

func ListPolicies(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var policies []models.OnCallPolicy

	if err := db.DB.Where("project_id = ?", project.ID).Find(&policies).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve policies"})
		return
	}

	summaries := make([]PolicySummary, 0, len(policies))

	for _, policy := range policies {
		var ruleCount int64

		db.DB.Model(&models.EscalationRule{}).Where("policy_id = ?", policy.ID).Count(&ruleCount)

		summaries = append(summaries, PolicySummary{
			ID:          policy.ID,
			Name:        policy.Name,
			Description: policy.Description,
			RuleCount:   ruleCount,
		})
	}

	ctx.JSON(http.StatusOK, summaries)
}

func UpdatePolicy(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	policyID, err := utils.GetPolicyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdatePolicyRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var policy models.OnCallPolicy

	if err := db.DB.Where("id = ? AND project_id = ?", policyID, project.ID).First(&policy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve policy"})
		}
		return
	}

	policy.Name = req.Name
	policy.Description = req.Description

	if err := db.DB.Save(&policy).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update policy"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Policy updated successfully", "policy_id": policy.ID})
}

func DeletePolicy(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	policyID, err := utils.GetPolicyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var policy models.OnCallPolicy

	if err := db.DB.Where("id = ? AND project_id = ?", policyID, project.ID).First(&policy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve policy"})
		}
		return
	}

	if err := db.DB.Delete(&policy).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete policy"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ExecutePolicy manually runs a policy's first escalation rule, the same path
// an incident trigger takes.
func ExecutePolicy(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	policyID, err := utils.GetPolicyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var policy models.OnCallPolicy

	if err := db.DB.Where("id = ? AND project_id = ?", policyID, project.ID).First(&policy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve policy"})
		}
		return
	}

	execution, err := dispatcher.StartPolicyExecution(ctx.Request.Context(), project.ID, policy.ID, nil)

	if err != nil {
		writeEscalationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"message":        "Policy execution started",
		"execution_id":   execution.ID,
		"correlation_id": execution.CorrelationID,
	})
}
