package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/database"
)

// Applies pending SQL migrations and exits. Only meaningful for
// Postgres; SQLite schemas are created on open.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), cfg.DBType, logger)
	if err := migrator.Run(cfg.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	logger.Info().Msg("migrations complete")
}
