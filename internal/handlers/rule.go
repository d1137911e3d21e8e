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

type CreateRuleRequest struct {
	Name    string `json:"name"`
	Order   int    `json:"order"` // 0 means append
	UserIDs []uint `json:"user_ids"`
	TeamIDs []uint `json:"team_ids"`
}

type ReorderRuleRequest struct {
	Order int `json:"order" binding:"required"`
}

type RuleSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	UserIDs []uint `json:"user_ids"`
	TeamIDs []uint `json:"team_ids"`
}

func loadOwnedPolicy(ctx *gin.Context) (models.Project, models.OnCallPolicy, bool) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return models.Project{}, models.OnCallPolicy{}, false
	}

	policyID, err := utils.GetPolicyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Project{}, models.OnCallPolicy{}, false
	}

	var policy models.OnCallPolicy

	if err := db.DB.Where("id = ? AND project_id = ?", policyID, project.ID).First(&policy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve policy"})
		}
		return models.Project{}, models.OnCallPolicy{}, false
	}

	return project, policy, true
}

// CreateRule appends or inserts an escalation rule and bulk-attaches its
// direct users and teams.
func CreateRule(ctx *gin.Context) {
	project, policy, ok := loadOwnedPolicy(ctx)

	if !ok {
		return
	}

	var req CreateRuleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := models.EscalationRule{
		PolicyID:  policy.ID,
		ProjectID: project.ID,
		Name:      req.Name,
		Order:     req.Order,
	}

	if err := ruleOrder.CreateRule(ctx.Request.Context(), &rule); err != nil {
		writeEscalationError(ctx, err)
		return
	}

	if len(req.UserIDs) > 0 || len(req.TeamIDs) > 0 {
		err := escalationStore.AttachUsersAndTeams(ctx.Request.Context(), project.ID, policy.ID, rule.ID, req.UserIDs, req.TeamIDs)

		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach users and teams"})
			return
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Rule created successfully", "rule_id": rule.ID, "order": rule.Order})
}

func ListRules(ctx *gin.Context) {
	_, policy, ok := loadOwnedPolicy(ctx)

	if !ok {
		return
	}

	var rules []models.EscalationRule

	err := db.DB.Where("policy_id = ?", policy.ID).
		Order("rule_order ASC").
		Preload("Users").
		Preload("Teams").
		Find(&rules).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rules"})
		return
	}

	summaries := make([]RuleSummary, 0, len(rules))

	for _, rule := range rules {
		summary := RuleSummary{
			ID:      rule.ID,
			Name:    rule.Name,
			Order:   rule.Order,
			UserIDs: make([]uint, 0, len(rule.Users)),
			TeamIDs: make([]uint, 0, len(rule.Teams)),
		}

		for _, ruleUser := range rule.Users {
			summary.UserIDs = append(summary.UserIDs, ruleUser.UserID)
		}

		for _, ruleTeam := range rule.Teams {
			summary.TeamIDs = append(summary.TeamIDs, ruleTeam.TeamID)
		}

		summaries = append(summaries, summary)
	}

	ctx.JSON(http.StatusOK, summaries)
}

type UpdateRuleRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateRule renames a rule. Position changes go through ReorderRule so the
// order maintainer sees them.
func UpdateRule(ctx *gin.Context) {
	_, policy, ok := loadOwnedPolicy(ctx)

	if !ok {
		return
	}

	ruleID, err := utils.GetRuleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateRuleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rule models.EscalationRule

	if err := db.DB.Where("id = ? AND policy_id = ?", ruleID, policy.ID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rule"})
		}
		return
	}

	rule.Name = req.Name

	if err := db.DB.Save(&rule).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rule"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Rule updated successfully", "rule_id": rule.ID})
}

// ReorderRule moves a rule to a new position; siblings shift to keep the
// policy's order dense.
func ReorderRule(ctx *gin.Context) {
	_, policy, ok := loadOwnedPolicy(ctx)

	if !ok {
		return
	}

	ruleID, err := utils.GetRuleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ReorderRuleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rule models.EscalationRule

	if err := db.DB.Where("id = ? AND policy_id = ?", ruleID, policy.ID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rule"})
		}
		return
	}

	if err := ruleOrder.ReorderRule(ctx.Request.Context(), rule.ID, req.Order); err != nil {
		writeEscalationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Rule reordered successfully", "rule_id": rule.ID, "order": req.Order})
}

// DeleteRule removes a rule; siblings after it compact down by one.
func DeleteRule(ctx *gin.Context) {
	_, policy, ok := loadOwnedPolicy(ctx)

	if !ok {
		return
	}

	ruleID, err := utils.GetRuleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rule models.EscalationRule

	if err := db.DB.Where("id = ? AND policy_id = ?", ruleID, policy.ID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rule"})
		}
		return
	}

	if err := ruleOrder.DeleteRule(ctx.Request.Context(), rule.ID); err != nil {
		writeEscalationError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
