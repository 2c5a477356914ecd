package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"tunebridge/internal/common"
	"tunebridge/internal/config"
	"tunebridge/internal/service"
	"tunebridge/internal/storage"
)

// defaultDatabasePath returns the platform-default ledger location.
func defaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tunebridge", "tunebridge.db"), nil
}

// buildCatalogs resolves the configured source and target catalog clients.
// Streaming-service protocol clients plug in through configuration; without
// one the sync commands cannot run and say so plainly.
func buildCatalogs() (service.SourceCatalog, service.TargetCatalog, error) {
	sourceBackend := viper.GetString("source.backend")
	targetBackend := viper.GetString("target.backend")

	if sourceBackend == "" || targetBackend == "" {
		return nil, nil, common.NewUserError(
			"no catalog backends configured; set source.backend and target.backend in your config",
			common.ErrNoBackend)
	}

	return nil, nil, common.NewUserError(
		fmt.Sprintf("unsupported catalog backends %q → %q", sourceBackend, targetBackend),
		common.ErrInvalidConfig)
}

// openStore opens the configured database and migrates it.
func openStore() (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		var err error
		dbPath, err = defaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	slog.Debug("Opened database", "path", dbPath)
	return store, nil
}
