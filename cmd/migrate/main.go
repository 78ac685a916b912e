package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/config"
	"github.com/medikab/clinic-api/internal/db"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "migrate").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	log.Info().Int("applied", applied).Msg("migrations up to date")
}
