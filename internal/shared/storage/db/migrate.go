package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Command is a migration action understood by cmd/migrate.
type Command string

const (
	CommandUp      Command = "up"
	CommandDown    Command = "down"
	CommandStatus  Command = "status"
	CommandVersion Command = "version"
)

// ParseCommand maps a CLI argument to a Command; empty means up.
func ParseCommand(arg string) (Command, error) {
	switch Command(arg) {
	case "":
		return CommandUp, nil
	case CommandUp, CommandDown, CommandStatus, CommandVersion:
		return Command(arg), nil
	default:
		return "", fmt.Errorf("unknown migrate command %q (want up, down, status or version)", arg)
	}
}

var gooseSetup struct {
	once sync.Once
	err  error
}

func setupGoose() error {
	gooseSetup.once.Do(func() {
		goose.SetBaseFS(migrationFiles)
		gooseSetup.err = goose.SetDialect("postgres")
	})
	return gooseSetup.err
}

// RunMigrations applies all pending migrations. A nil database is a no-op
// so in-memory setups can call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	return Migrate(ctx, database, CommandUp)
}

// Migrate runs cmd against the embedded migrations.
func Migrate(ctx context.Context, database *sql.DB, cmd Command) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	switch cmd {
	case CommandUp:
		return goose.UpContext(ctx, database, migrationsDir)
	case CommandDown:
		return goose.DownContext(ctx, database, migrationsDir)
	case CommandStatus:
		return goose.StatusContext(ctx, database, migrationsDir)
	case CommandVersion:
		_, err := SchemaVersion(ctx, database)
		return err
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
}

// SchemaVersion reports the latest applied migration.
func SchemaVersion(ctx context.Context, database *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, fmt.Errorf("goose dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, database)
}
