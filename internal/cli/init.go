// Package cli provides common CLI initialization utilities shared by
// cmd/shelterstats and cmd/adoptions-report.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shelterstats/internal/config"
	applog "shelterstats/internal/log"
	"shelterstats/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitJournal opens the refresh journal at dbPath. An empty path disables the
// journal and returns nil. A journal that cannot be opened is logged and
// skipped: refreshes keep working without history.
func InitJournal(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	if dbPath == "" {
		logger.Info("Refresh journal disabled")
		return nil
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Warn("Failed to open refresh journal, continuing without it", "error", err, "path", dbPath)
		return nil
	}
	logger.Info("Refresh journal ready", "path", dbPath)
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM; stop
// releases the signal handler.
func SignalContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Close runs a cleanup func and logs its failure.
func Close(logger *applog.Logger, resource string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("Cleanup failed", "resource", resource, "error", err)
	}
}
