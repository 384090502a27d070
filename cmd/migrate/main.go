package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"gwi.com/reelpick/internal/config"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/store"
)

func main() {
	defaults := config.Default()

	driver := flag.String("driver", envOr("DATABASE_DRIVER", defaults.DatabaseDriver), "database driver: sqlite or postgres")
	dsn := flag.String("db", envOr("DATABASE_URL", defaults.DatabaseURL), "database file or connection URL")
	op := flag.String("op", "up", "operation: up, down, version or force")
	steps := flag.Int("steps", 0, "number of steps for up/down (0 = all), or the version for force")
	flag.Parse()

	db, err := store.OpenDB(*driver, *dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}

	m, err := store.NewMigrator(db, *driver)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer m.Close()

	switch *op {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "force":
		err = m.Force(*steps)
	case "version":
	default:
		logging.Fatal().Str("op", *op).Msg("Unknown operation")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logging.Fatal().Err(err).Str("op", *op).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logging.Fatal().Err(err).Msg("Failed to read schema version")
	}
	logging.Info().Str("op", *op).Uint("version", version).Bool("dirty", dirty).Msg("Migration complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
