package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/api"
	"github.com/medikab/clinic-api/internal/appointment"
	"github.com/medikab/clinic-api/internal/billing"
	"github.com/medikab/clinic-api/internal/clinic"
	"github.com/medikab/clinic-api/internal/config"
	"github.com/medikab/clinic-api/internal/consultation"
	"github.com/medikab/clinic-api/internal/db"
	"github.com/medikab/clinic-api/internal/patient"
	redisclient "github.com/medikab/clinic-api/internal/redis"
	"github.com/medikab/clinic-api/internal/reporting"
	"github.com/medikab/clinic-api/internal/user"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	patientSvc := patient.NewService(patient.NewPgRepository(pgPool))
	appointmentSvc := appointment.NewService(appointment.NewPgRepository(pgPool), locker, cfg, log)
	consultationSvc := consultation.NewService(consultation.NewPgRepository(pgPool))
	billingSvc := billing.NewService(billing.NewPgRepository(pgPool), cfg.InvoicePrefix, log)
	userSvc := user.NewService(user.NewPgRepository(pgPool))
	clinicSvc := clinic.NewService(clinic.NewPgRepository(pgPool))
	reportingSvc := reporting.NewService(reporting.NewPgRepository(pgPool))

	router := api.NewRouter(api.RouterConfig{
		Patients:      patientSvc,
		Appointments:  appointmentSvc,
		Consultations: consultationSvc,
		Billing:       billingSvc,
		Users:         userSvc,
		Clinic:        clinicSvc,
		Reporting:     reportingSvc,
		PgPool:        pgPool,
		Redis:         rdb,
		Log:           log,
		Env:           cfg.Env,
		Version:       version,
		Secret:        cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
