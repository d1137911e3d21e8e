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

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AddTeamMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type TeamSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberIDs   []uint `json:"member_ids"`
}

func loadOwnedTeam(ctx *gin.Context) (models.Team, bool) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return models.Team{}, false
	}

	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Team{}, false
	}

	var team models.Team

	if err := db.DB.Where("id = ? AND project_id = ?", teamID, project.ID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return models.Team{}, false
	}

	return team, true
}

func CreateTeam(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var req CreateTeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team := models.Team{
		ProjectID:   project.ID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := db.DB.Create(&team).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Team created successfully", "team_id": team.ID})
}

func ListTeams(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var teams []models.Team

	if err := db.DB.Where("project_id = ?", project.ID).Preload("Members").Find(&teams).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	summaries := make([]TeamSummary, 0, len(teams))

	for _, team := range teams {
		summary := TeamSummary{
			ID:          team.ID,
			Name:        team.Name,
			Description: team.Description,
			MemberIDs:   make([]uint, 0, len(team.Members)),
		}

		for _, member := range team.Members {
			summary.MemberIDs = append(summary.MemberIDs, member.UserID)
		}

		summaries = append(summaries, summary)
	}

	ctx.JSON(http.StatusOK, summaries)
}

func DeleteTeam(ctx *gin.Context) {
	team, ok := loadOwnedTeam(ctx)

	if !ok {
		return
	}

	if err := db.DB.Delete(&team).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func AddTeamMember(ctx *gin.Context) {
	team, ok := loadOwnedTeam(ctx)

	if !ok {
		return
	}

	var req AddTeamMemberRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User

	if err := db.DB.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	member := models.TeamMember{
		TeamID: team.ID,
		UserID: user.ID,
	}

	if err := db.DB.Create(&member).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add team member"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Team member added successfully"})
}

func RemoveTeamMember(ctx *gin.Context) {
	team, ok := loadOwnedTeam(ctx)

	if !ok {
		return
	}

	userID := ctx.Param("user_id")

	result := db.DB.Where("team_id = ? AND user_id = ?", team.ID, userID).Delete(&models.TeamMember{})

	if result.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove team member"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Team member not found"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
