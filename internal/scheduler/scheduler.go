package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/escalation"
	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/pulsedeck-dev/pulsedeck/internal/monitors"
	"github.com/pulsedeck-dev/pulsedeck/internal/services"
	"github.com/pulsedeck-dev/pulsedeck/internal/types"
	"gorm.io/gorm"
)

type Scheduler struct {
	monitors   map[uint]*MonitorJob // monitor ID -> job
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	dispatcher *escalation.Dispatcher
	onRefresh  func(projectID string)
}

type MonitorJob struct {
	monitor models.Monitor
	ticker  *time.Ticker
	cancel  context.CancelFunc
}

// NewScheduler initializes a new Scheduler instance. The dispatcher pages
// the monitor's on-call policy when a check opens an incident; onRefresh
// nudges connected dashboards and may be nil.
func NewScheduler(dispatcher *escalation.Dispatcher, onRefresh func(projectID string)) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		monitors:   make(map[uint]*MonitorJob),
		ctx:        ctx,
		cancel:     cancel,
		dispatcher: dispatcher,
		onRefresh:  onRefresh,
	}
}

// Start loads all active monitors and begins scheduling
func (s *Scheduler) Start() error {
	log.Println("Starting scheduler...")

	var monitorsList []models.Monitor
	if err := db.DB.Where("status = ?", "active").Find(&monitorsList).Error; err != nil {
		return err
	}

	for _, monitor := range monitorsList {
		s.AddMonitor(monitor)
	}

	log.Printf("Scheduler started with %d monitors", len(monitorsList))
	return nil
}

// Stop gracefully shuts down all monitor jobs
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.monitors {
		job.ticker.Stop()
		job.cancel()
	}

	s.monitors = make(map[uint]*MonitorJob)
	log.Println("Scheduler stopped")
}

// AddMonitor starts monitoring for a specific monitor
func (s *Scheduler) AddMonitor(monitor models.Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingJob, exists := s.monitors[monitor.ID]; exists {
		existingJob.ticker.Stop()
		existingJob.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	ticker := time.NewTicker(time.Duration(monitor.Interval) * time.Second)

	job := &MonitorJob{
		monitor: monitor,
		ticker:  ticker,
		cancel:  jobCancel,
	}

	s.monitors[monitor.ID] = job

	go func() {
		monitorCopy := monitor
		s.executeCheck(monitorCopy)
		s.runMonitor(jobCtx, job)
	}()

	log.Printf("Added monitor %d (%s) with immediate check", monitor.ID, monitor.Name)
}

// RemoveMonitor stops monitoring for a specific monitor
func (s *Scheduler) RemoveMonitor(monitorID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.monitors[monitorID]; exists {
		job.ticker.Stop()
		job.cancel()
		delete(s.monitors, monitorID)
		log.Printf("Removed monitor %d", monitorID)
	}
}

// UpdateMonitor updates an existing monitor (stops old, starts new)
func (s *Scheduler) UpdateMonitor(monitor models.Monitor) {
	s.AddMonitor(monitor) // AddMonitor handles stopping existing job
}

func (s *Scheduler) runMonitor(ctx context.Context, job *MonitorJob) {
	defer job.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.C:
			s.mu.RLock()
			monitorCopy := job.monitor
			s.mu.RUnlock()

			s.executeCheck(monitorCopy)
		}
	}
}

// executeCheck runs a single monitor check and feeds the result through incident
// handling.
func (s *Scheduler) executeCheck(monitor models.Monitor) {
	start := time.Now()
	var err error

	switch monitor.Type {
	case "http":
		var cfg types.HttpConfig
		if unmarshalErr := json.Unmarshal(monitor.Config, &cfg); unmarshalErr != nil {
			log.Printf("Invalid HTTP config for monitor %d: %v", monitor.ID, unmarshalErr)
			return
		}
		err = monitors.GetHTTP(&cfg)
	case "dns":
		var cfg types.DNSConfig

		if unmarshalErr := json.Unmarshal(monitor.Config, &cfg); unmarshalErr != nil {
			log.Printf("Invalid DNS config for monitor %d: %v", monitor.ID, unmarshalErr)
			return
		}

		err = monitors.CheckDNS(&cfg)
	case "database":
		var cfg types.DatabaseConfig

		if unmarshalErr := json.Unmarshal(monitor.Config, &cfg); unmarshalErr != nil {
			log.Printf("Invalid Database config for monitor %d: %v", monitor.ID, unmarshalErr)
			return
		}

		err = monitors.CheckDatabase(&cfg)
	default:
		log.Printf("Unsupported monitor type: %s", monitor.Type)
		return
	}

	responseTime := time.Since(start)
	s.storeCheckResult(monitor.ID, err, responseTime)

	if err != nil {
		log.Printf("Monitor %d failed: %v", monitor.ID, err)
		s.handleFailure(monitor, err)
	} else {
		log.Printf("Monitor %d succeeded in %v", monitor.ID, responseTime)
		s.handleRecovery(monitor)
	}

	if s.onRefresh != nil {
		s.onRefresh(fmt.Sprintf("%d", monitor.ProjectID))
	}
}

// storeCheckResult saves the check result to database
func (s *Scheduler) storeCheckResult(monitorID uint, err error, responseTime time.Duration) {
	status := "success"
	message := ""

	if err != nil {
		status = "failure"
		message = err.Error()
	}

	check := models.MonitorCheck{
		MonitorID:    monitorID,
		Status:       status,
		ResponseTime: int(responseTime.Milliseconds()),
		Message:      message,
		CheckedAt:    time.Now(),
	}

	if dbErr := db.DB.Create(&check).Error; dbErr != nil {
		log.Printf("Failed to store check result for monitor %d: %v", monitorID, dbErr)
	}
}

// handleFailure opens an incident for the monitor unless one is already
// open, notifies the project's webhooks and pages the on-call policy.
// Repeated failures while an incident stays open do not page again.
func (s *Scheduler) handleFailure(monitor models.Monitor, checkErr error) {
	var existing models.Incident

	err := db.DB.Where("monitor_id = ? AND status IN ?", monitor.ID,
		[]string{models.IncidentOpen, models.IncidentAcknowledged}).
		First(&existing).Error

	if err == nil {
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to look up open incident for monitor %d: %v", monitor.ID, err)
		return
	}

	now := time.Now()
	incident := models.Incident{
		ProjectID:   monitor.ProjectID,
		MonitorID:   &monitor.ID,
		Status:      models.IncidentOpen,
		Severity:    "critical",
		Title:       fmt.Sprintf("Monitor %s is down", monitor.Name),
		Description: checkErr.Error(),
		StartedAt:   &now,
	}

	if err := db.DB.Create(&incident).Error; err != nil {
		log.Printf("Failed to create incident for monitor %d: %v", monitor.ID, err)
		return
	}

	var project models.Project

	if err := db.DB.First(&project, monitor.ProjectID).Error; err != nil {
		log.Printf("Failed to load project %d for incident notification: %v", monitor.ProjectID, err)
		return
	}

	if err := services.SendIncidentCreatedNotification(project, incident); err != nil {
		log.Printf("Failed to send incident notifications for project %d: %v", project.ID, err)
	}

	if s.dispatcher != nil && monitor.OnCallPolicyID != nil {
		if _, err := s.dispatcher.StartPolicyExecution(s.ctx, project.ID, *monitor.OnCallPolicyID, &incident.ID); err != nil {
			log.Printf("On-call paging failed for incident %d: %v", incident.ID, err)
		}
	}
}

// handleRecovery resolves the monitor's open incident, if any.
func (s *Scheduler) handleRecovery(monitor models.Monitor) {
	var incident models.Incident

	err := db.DB.Where("monitor_id = ? AND status IN ?", monitor.ID,
		[]string{models.IncidentOpen, models.IncidentAcknowledged}).
		First(&incident).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to look up open incident for monitor %d: %v", monitor.ID, err)
		}
		return
	}

	now := time.Now()
	incident.Status = models.IncidentResolved
	incident.ResolvedAt = &now

	if err := db.DB.Save(&incident).Error; err != nil {
		log.Printf("Failed to resolve incident %d: %v", incident.ID, err)
		return
	}

	var project models.Project

	if err := db.DB.First(&project, monitor.ProjectID).Error; err != nil {
		log.Printf("Failed to load project %d for incident notification: %v", monitor.ProjectID, err)
		return
	}

	if err := services.SendIncidentResolvedNotification(project, incident); err != nil {
		log.Printf("Failed to send recovery notifications for project %d: %v", project.ID, err)
	}
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_monitors": len(s.monitors),
		"running":         s.ctx.Err() == nil,
	}
}

// Global scheduler instance
var globalScheduler *Scheduler

// Initialize creates and starts the global scheduler
func Initialize(dispatcher *escalation.Dispatcher, onRefresh func(projectID string)) error {
	globalScheduler = NewScheduler(dispatcher, onRefresh)
	return globalScheduler.Start()
}

// Shutdown stops the global scheduler
func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}

// AddMonitor adds a monitor to the global scheduler
func AddMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.AddMonitor(monitor)
	}
}

// RemoveMonitor removes a monitor from the global scheduler
func RemoveMonitor(monitorID uint) {
	if globalScheduler != nil {
		globalScheduler.RemoveMonitor(monitorID)
	}
}

// UpdateMonitor updates a monitor in the global scheduler
func UpdateMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.UpdateMonitor(monitor)
	}
}
