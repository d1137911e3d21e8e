package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pulsedeck-dev/pulsedeck/db"
	"github.com/pulsedeck-dev/pulsedeck/internal/auth"
	"github.com/pulsedeck-dev/pulsedeck/internal/escalation"
	"github.com/pulsedeck-dev/pulsedeck/internal/handlers"
	"github.com/pulsedeck-dev/pulsedeck/internal/notification"
	"github.com/pulsedeck-dev/pulsedeck/internal/router"
	"github.com/pulsedeck-dev/pulsedeck/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store := escalation.NewGormStore(db.DB)
	resolver := escalation.NewMembershipResolver(store, store)
	maintainer := escalation.NewOrderMaintainer(store)
	notifier := notification.NewExecutor(db.DB)
	dispatcher := escalation.NewDispatcher(store, resolver, store, store, notifier)

	handlers.InitEscalation(store, maintainer, dispatcher)

	if err := scheduler.Initialize(dispatcher, handlers.BroadCastRefresh); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
