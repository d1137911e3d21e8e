package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/scheduler"
	"github.com/pulsedeck-dev/pulsedeck/internal/utils"
	"gorm.io/gorm"
)

type CreateMonitorRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Type           string                 `json:"type" binding:"required"`     // "http", "dns", "database"
	Interval       int                    `json:"interval" binding:"required"` // Interval in seconds
	OnCallPolicyID *uint                  `json:"on_call_policy_id"`           // policy paged when the monitor fails
	Config         map[string]interface{} `json:"config" binding:"required"`
}

type MonitorSummary struct {
	ID             uint                   `json:"id"`
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	Status         string                 `json:"status"`
	Interval       int                    `json:"interval"`
	OnCallPolicyID *uint                  `json:"on_call_policy_id"`
	Config         map[string]interface{} `json:"config"`
	LastCheck      *MonitorCheckSummary   `json:"last_check"`
	Uptime         float64                `json:"uptime_percentage"`
	ResponseTime   float64                `json:"avg_response_time"`
}

type MonitorCheckSummary struct {
	ID           uint      `json:"id"`
	Status       string    `json:"status"`
	ResponseTime int       `json:"response_time"`
	Message      string    `json:"message"`
	CheckedAt    time.Time `json:"checked_at"`
}

type DashboardResponse struct {
	Project         ProjectSummary     `json:"project"`
	MonitorsSummary MonitorsSummary    `json:"monitors_summary"`
	Monitors        []MonitorSummary   `json:"monitors"`
	RecentIncidents []IncidentResponse `json:"recent_incidents"`
}

type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MonitorsSummary struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Down    int `json:"down"`
	Warning int `json:"warning"`
}

// normalizeMonitorConfig validates the config payload; DNS configs get their
// domain stripped down to a bare hostname.
func normalizeMonitorConfig(monitorType string, config map[string]interface{}) ([]byte, error) {
	if monitorType == "dns" {
		if domainValue, exists := config["domain"]; exists {
			if domainStr, ok := domainValue.(string); ok {
				cleanDomain, err := utils.ExtractRawDomain(domainStr)

				if err != nil {
					return nil, errors.New("invalid domain: " + err.Error())
				}

				config["domain"] = cleanDomain
			}
		}
	}

	return json.Marshal(config)
}

func loadOwnedMonitor(ctx *gin.Context) (models.Monitor, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Monitor{}, false
	}

	projectID, monitorID, err := utils.GetProjectMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Monitor{}, false
	}

	var monitor models.Monitor

	err = db.DB.Joins("JOIN projects ON projects.id = monitors.project_id").
		Where("monitors.id = ? AND monitors.project_id = ? AND projects.owner_id = ?", monitorID, projectID, userID).
		First(&monitor).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		}
		return models.Monitor{}, false
	}

	return monitor, true
}

func CreateMonitor(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var req CreateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.OnCallPolicyID != nil {
		var policy models.OnCallPolicy

		if err := db.DB.Where("id = ? AND project_id = ?", *req.OnCallPolicyID, project.ID).First(&policy).Error; err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
			return
		}
	}

	configJSON, err := normalizeMonitorConfig(req.Type, req.Config)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitor := models.Monitor{
		ProjectID:      project.ID,
		OnCallPolicyID: req.OnCallPolicyID,
		Name:           req.Name,
		Type:           req.Type,
		Status:         "active",
		Interval:       req.Interval,
		Config:         configJSON,
	}

	if err := db.DB.Create(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
		return
	}

	scheduler.AddMonitor(monitor)
	ctx.JSON(http.StatusCreated, gin.H{"message": "Monitor created successfully", "monitor_id": monitor.ID})
}

func UpdateMonitor(ctx *gin.Context) {
	monitor, ok := loadOwnedMonitor(ctx)

	if !ok {
		return
	}

	var req CreateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.OnCallPolicyID != nil {
		var policy models.OnCallPolicy

		if err := db.DB.Where("id = ? AND project_id = ?", *req.OnCallPolicyID, monitor.ProjectID).First(&policy).Error; err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
			return
		}
	}

	configJSON, err := normalizeMonitorConfig(req.Type, req.Config)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitor.Name = req.Name
	monitor.Type = req.Type
	monitor.Interval = req.Interval
	monitor.OnCallPolicyID = req.OnCallPolicyID
	monitor.Config = configJSON

	if err := db.DB.Save(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update monitor"})
		return
	}

	scheduler.UpdateMonitor(monitor)

	ctx.JSON(http.StatusOK, gin.H{"message": "Monitor updated successfully", "monitor_id": monitor.ID})
}

func DeleteMonitor(ctx *gin.Context) {
	monitor, ok := loadOwnedMonitor(ctx)

	if !ok {
		return
	}

	if err := db.DB.Delete(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete monitor"})
		return
	}

	scheduler.RemoveMonitor(monitor.ID)

	ctx.Status(http.StatusNoContent)
}

func GetMonitors(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var monitors []models.Monitor

	if err := db.DB.Where("project_id = ?", project.ID).Find(&monitors).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	var monitorSummaries []MonitorSummary

	for _, monitor := range monitors {
		summary, err := buildMonitorSummary(monitor)

		if err != nil {
			log.Printf("Failed to build summary for monitor %d: %v", monitor.ID, err)
			continue
		}

		monitorSummaries = append(monitorSummaries, summary)
	}

	ctx.JSON(http.StatusOK, monitorSummaries)
}

func GetMonitorChecks(ctx *gin.Context) {
	monitor, ok := loadOwnedMonitor(ctx)

	if !ok {
		return
	}

	var checks []models.MonitorCheck

	err := db.DB.Select("id, monitor_id, status, response_time, message, checked_at, created_at").
		Where("monitor_id = ?", monitor.ID).
		Order("checked_at DESC").
		Limit(50).
		Find(&checks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get checks"})
		return
	}

	ctx.JSON(http.StatusOK, checks)
}

func buildMonitorSummary(monitor models.Monitor) (MonitorSummary, error) {
	var lastCheck models.MonitorCheck
	lastCheckFound := true

	if err := db.DB.Where("monitor_id = ?", monitor.ID).
		Order("checked_at DESC").
		First(&lastCheck).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return MonitorSummary{}, err
		}
		lastCheckFound = false
	}

	var config map[string]interface{}

	if err := json.Unmarshal(monitor.Config, &config); err != nil {
		config = make(map[string]interface{})
	}

	summary := MonitorSummary{
		ID:             monitor.ID,
		Name:           monitor.Name,
		Type:           monitor.Type,
		Status:         monitor.Status,
		Interval:       monitor.Interval,
		OnCallPolicyID: monitor.OnCallPolicyID,
		Config:         config,
		Uptime:         calculateUptime(monitor.ID),
		ResponseTime:   calculateAverageResponseTime(monitor.ID),
	}

	if lastCheckFound {
		summary.LastCheck = &MonitorCheckSummary{
			ID:           lastCheck.ID,
			Status:       lastCheck.Status,
			ResponseTime: lastCheck.ResponseTime,
			Message:      lastCheck.Message,
			CheckedAt:    lastCheck.CheckedAt,
		}
	}

	return summary, nil
}

func calculateUptime(monitorID uint) float64 {
	var total, successful int64

	since := time.Now().Add(-24 * time.Hour)

	db.DB.Model(&models.MonitorCheck{}).
		Where("monitor_id = ? AND checked_at > ?", monitorID, since).
		Count(&total)

	db.DB.Model(&models.MonitorCheck{}).
		Where("monitor_id = ? AND status = 'success' AND checked_at > ?", monitorID, since).
		Count(&successful)

	if total == 0 {
		return 100.0
	}

	return float64(successful) / float64(total) * 100
}

func calculateAverageResponseTime(monitorID uint) float64 {
	var avg sql.NullFloat64

	db.DB.Model(&models.MonitorCheck{}).
		Select("AVG(response_time)").
		Where("monitor_id = ? AND status = 'success' AND checked_at > ?", monitorID, time.Now().Add(-24*time.Hour)).
		Scan(&avg)

	if avg.Valid {
		return avg.Float64
	}

	return 0
}

func GetDashboard(ctx *gin.Context) {
	project, ok := loadOwnedProject(ctx)

	if !ok {
		return
	}

	var monitors []models.Monitor

	if err := db.DB.Where("project_id = ?", project.ID).Find(&monitors).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	var monitorSummaries []MonitorSummary
	var totalMonitors, activeMonitors, downMonitors, warningMonitors int

	for _, monitor := range monitors {
		summary, err := buildMonitorSummary(monitor)

		if err != nil {
			continue
		}

		monitorSummaries = append(monitorSummaries, summary)
		totalMonitors++

		if monitor.Status == "active" {
			if summary.LastCheck != nil {
				switch summary.LastCheck.Status {
				case "success":
					activeMonitors++
				case "failure":
					downMonitors++
				default:
					warningMonitors++
				}
			} else {
				warningMonitors++
			}
		}
	}

	var incidents []models.Incident

	db.DB.Where("project_id = ? AND created_at > ?", project.ID, time.Now().Add(-7*24*time.Hour)).
		Order("created_at DESC").
		Limit(10).
		Find(&incidents)

	incidentResponses := make([]IncidentResponse, 0, len(incidents))

	for _, incident := range incidents {
		incidentResponses = append(incidentResponses, incidentResponse(incident))
	}

	response := DashboardResponse{
		Project: ProjectSummary{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
		},
		MonitorsSummary: MonitorsSummary{
			Total:   totalMonitors,
			Active:  activeMonitors,
			Down:    downMonitors,
			Warning: warningMonitors,
		},
		Monitors:        monitorSummaries,
		RecentIncidents: incidentResponses,
	}

	ctx.JSON(http.StatusOK, response)
}
