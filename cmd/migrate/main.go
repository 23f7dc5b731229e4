// Command migrate applies the SQL migrations in migrations/ to the configured
// Postgres database.
//
//	migrate up            apply all pending migrations
//	migrate down [N]      roll back N migrations (default 1)
//	migrate goto V        migrate up or down to version V
//	migrate force V       mark version V as clean after a failed migration
//	migrate version       print the current version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"stockbank/internal/config"
	"stockbank/internal/database"
	"stockbank/internal/logger"
)

const usage = "usage: migrate <up|down [N]|goto V|force V|version>"

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("migrate: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	m, err := database.NewMigrator(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer database.CloseMigrator(m)

	log := logger.Get()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("migrations applied")

	case "down":
		steps, err := intArg(args, 1)
		if err != nil {
			return err
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Infof("rolled back %d migration(s)", steps)

	case "goto":
		target, err := requiredArg(args)
		if err != nil {
			return err
		}
		if err := m.Migrate(uint(target)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration to %d failed: %w", target, err)
		}
		log.Infof("migrated to version %d", target)

	case "force":
		target, err := requiredArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(target); err != nil {
			return fmt.Errorf("force %d failed: %w", target, err)
		}
		log.Warnf("forced version %d; verify the schema by hand", target)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		log.Infow("schema version", "version", version, "dirty", dirty)

	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usage)
	}

	return nil
}

// intArg parses the optional positive integer after the command.
func intArg(args []string, fallback int) (int, error) {
	if len(args) < 2 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step count %q", args[1])
	}
	return n, nil
}

func requiredArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, errors.New(usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid version %q", args[1])
	}
	return n, nil
}
