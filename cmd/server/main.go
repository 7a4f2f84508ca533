package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelpick/reelpick/internal/api"
	"github.com/reelpick/reelpick/internal/cache"
	"github.com/reelpick/reelpick/internal/catalog"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/database"
	"github.com/reelpick/reelpick/internal/plex"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	dbConfig := database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), cfg.DBType, logger)
	if err := migrator.Run(cfg.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	app := &api.App{
		Config:  cfg,
		Logger:  logger,
		Users:   database.NewUserRepository(db),
		Pins:    plex.NewPinAuth(""),
		Clients: cache.New[*plex.Client](cfg.CacheTTL),
		Indexes: cache.New[*catalog.Index](cfg.CacheTTL),
	}

	router := api.NewRouter(app)

	logger.Info().
		Str("port", cfg.Port).
		Str("plex_url", cfg.PlexURL).
		Str("movie_library", cfg.MovieLibrary).
		Str("series_library", cfg.SeriesLibrary).
		Str("db_type", cfg.DBType).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("server starting")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
