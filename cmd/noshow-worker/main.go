package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/appointment"
	"github.com/medikab/clinic-api/internal/config"
	"github.com/medikab/clinic-api/internal/db"
	redisclient "github.com/medikab/clinic-api/internal/redis"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "noshow-worker").Logger()
	log.Info().Msg("starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer rdb.Close()

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(appointment.NewPgRepository(pgPool), locker, cfg, log)

	log.Info().
		Dur("interval", cfg.WorkerInterval).
		Dur("grace", cfg.NoShowGrace).
		Msg("sweeping overdue appointments")

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	sweep(rootCtx, svc, log)
	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutting down")
			return
		case <-ticker.C:
			sweep(rootCtx, svc, log)
		}
	}
}

func sweep(ctx context.Context, svc *appointment.Service, log zerolog.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	marked, err := svc.MarkOverdueNoShows(sweepCtx)
	if err != nil {
		log.Error().Err(err).Msg("sweep failed")
		return
	}
	if marked > 0 {
		log.Info().Int("marked", marked).Msg("appointments marked no-show")
	}
}
