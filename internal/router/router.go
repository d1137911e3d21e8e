package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/internal/handlers"
	"github.com/pulsedeck-dev/pulsedeck/internal/middleware"
	"github.com/pulsedeck-dev/pulsedeck/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/me", middleware.AuthMiddleware(), handlers.UpdateUser)
			auth.DELETE("/me", middleware.AuthMiddleware(), handlers.DeleteUser)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)

			projects.GET("/:project_id/dashboard", handlers.GetDashboard)

			projects.POST("/:project_id/monitors", handlers.CreateMonitor)
			projects.GET("/:project_id/monitors", handlers.GetMonitors)
			projects.PUT("/:project_id/monitors/:monitor_id", handlers.UpdateMonitor)
			projects.GET("/:project_id/monitors/:monitor_id/checks", handlers.GetMonitorChecks)
			projects.DELETE("/:project_id/monitors/:monitor_id", handlers.DeleteMonitor)

			projects.POST("/:project_id/teams", handlers.CreateTeam)
			projects.GET("/:project_id/teams", handlers.ListTeams)
			projects.DELETE("/:project_id/teams/:team_id", handlers.DeleteTeam)
			projects.POST("/:project_id/teams/:team_id/members", handlers.AddTeamMember)
			projects.DELETE("/:project_id/teams/:team_id/members/:user_id", handlers.RemoveTeamMember)

			projects.POST("/:project_id/policies", handlers.CreatePolicy)
			projects.GET("/:project_id/policies", handlers.ListPolicies)
			projects.PATCH("/:project_id/policies/:policy_id", handlers.UpdatePolicy)
			projects.DELETE("/:project_id/policies/:policy_id", handlers.DeletePolicy)
			projects.POST("/:project_id/policies/:policy_id/execute", handlers.ExecutePolicy)

			projects.POST("/:project_id/policies/:policy_id/rules", handlers.CreateRule)
			projects.GET("/:project_id/policies/:policy_id/rules", handlers.ListRules)
			projects.PATCH("/:project_id/policies/:policy_id/rules/:rule_id", handlers.UpdateRule)
			projects.PATCH("/:project_id/policies/:policy_id/rules/:rule_id/order", handlers.ReorderRule)
			projects.DELETE("/:project_id/policies/:policy_id/rules/:rule_id", handlers.DeleteRule)

			projects.POST("/:project_id/incidents", handlers.CreateIncident)
			projects.GET("/:project_id/incidents", handlers.ListIncidents)
			projects.POST("/:project_id/incidents/:incident_id/acknowledge", handlers.AcknowledgeIncident)
			projects.POST("/:project_id/incidents/:incident_id/resolve", handlers.ResolveIncident)

			projects.GET("/:project_id/executions", handlers.ListExecutions)
			projects.GET("/:project_id/executions/:execution_id/timeline", handlers.ListExecutionTimeline)

			projects.POST("/:project_id/notification-rules", handlers.CreateNotificationRule)
			projects.GET("/:project_id/notification-rules", handlers.ListNotificationRules)
			projects.DELETE("/:project_id/notification-rules/:rule_id", handlers.DeleteNotificationRule)
		}
	}

	return r
}
