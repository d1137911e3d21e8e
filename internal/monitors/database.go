package monitors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pulsedeck-dev/pulsedeck/internal/types"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// CheckDatabase opens a connection with the configured credentials and pings
// it. Queries are out of scope; a reachable, authenticating server passes.
func CheckDatabase(config *types.DatabaseConfig) error {
	timeout := config.Timeout

	if timeout == 0 {
		timeout = 10 // 10 seconds timeout by default
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	driverName, dsn, err := buildDSN(config)

	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)

	if err != nil {
		return fmt.Errorf("failed to open a database connection: %w", err)
	}

	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// buildDSN maps the monitor config onto the driver name and DSN sql.Open
// expects. "postgresql" is accepted as an alias for "postgres".
func buildDSN(config *types.DatabaseConfig) (string, string, error) {
	switch config.Type {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)
		return "postgres", dsn, nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			config.Username, config.Password, config.Host, config.Port, config.Database)
		return "mysql", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %s", config.Type)
	}
}
