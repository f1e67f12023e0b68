package main

// Apply or inspect the database schema:
//   go run ./cmd/migrate [up|down|status|version]

import (
	"context"
	"os"

	"training-app/internal/shared/config"
	"training-app/internal/shared/storage/db"
	"training-app/internal/shared/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	var arg string
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}
	cmd, err := db.ParseCommand(arg)
	if err != nil {
		telemetry.Error("migrate.usage", map[string]any{"error": err.Error()})
		return 2
	}

	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileMigrate))
	if err != nil {
		telemetry.Error("migrate.connect.failed", map[string]any{"error": err.Error()})
		return 1
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, cmd); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": string(cmd), "error": err.Error()})
		return 1
	}
	version, err := db.SchemaVersion(ctx, pool)
	if err != nil {
		telemetry.Error("migrate.version.failed", map[string]any{"error": err.Error()})
		return 1
	}
	telemetry.Info("migrate.done", map[string]any{"command": string(cmd), "version": version})
	return 0
}
