package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/appointment"
	"github.com/medikab/clinic-api/internal/auth"
	"github.com/medikab/clinic-api/internal/billing"
	"github.com/medikab/clinic-api/internal/clinic"
	"github.com/medikab/clinic-api/internal/consultation"
	"github.com/medikab/clinic-api/internal/patient"
	"github.com/medikab/clinic-api/internal/reporting"
	"github.com/medikab/clinic-api/internal/user"
)

type RouterConfig struct {
	Patients      *patient.Service
	Appointments  *appointment.Service
	Consultations *consultation.Service
	Billing       *billing.Service
	Users         *user.Service
	Clinic        *clinic.Service
	Reporting     *reporting.Service

	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Log      zerolog.Logger
	Env      string
	Version  string
	Secret   string
	TokenTTL time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	authHandler := NewAuthHandler(cfg.Users, cfg.Secret, cfg.TokenTTL)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/setup", authHandler.Setup)

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.Secret))

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", listPatientsHandler(cfg.Patients))
			r.Post("/", createPatientHandler(cfg.Patients))
			r.Get("/{id}", getPatientHandler(cfg.Patients))
			r.Put("/{id}", updatePatientHandler(cfg.Patients))
			r.Delete("/{id}", deletePatientHandler(cfg.Patients))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", listAppointmentsHandler(cfg.Appointments))
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Put("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Patch("/{id}/status", updateAppointmentStatusHandler(cfg.Appointments))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/consultations", func(r chi.Router) {
			record := RequireAction(auth.ActionRecordConsultation)
			r.Get("/", listConsultationsHandler(cfg.Consultations))
			r.Get("/{id}", getConsultationHandler(cfg.Consultations))
			r.With(record).Post("/", createConsultationHandler(cfg.Consultations))
			r.With(record).Put("/{id}", updateConsultationHandler(cfg.Consultations))
			r.With(record).Delete("/{id}", deleteConsultationHandler(cfg.Consultations))
		})

		view := RequireAction(auth.ActionViewBilling)
		manage := RequireAction(auth.ActionManageBilling)

		r.Route("/services", func(r chi.Router) {
			r.With(view).Get("/", listServicesHandler(cfg.Billing))
			r.With(view).Get("/{id}", getServiceHandler(cfg.Billing))
			r.With(manage).Post("/", createServiceHandler(cfg.Billing))
			r.With(manage).Put("/{id}", updateServiceHandler(cfg.Billing))
			r.With(manage).Delete("/{id}", deleteServiceHandler(cfg.Billing))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.With(view).Get("/", listInvoicesHandler(cfg.Billing))
			r.With(view).Get("/{id}", getInvoiceHandler(cfg.Billing))
			r.With(manage).Post("/", createInvoiceHandler(cfg.Billing))
			r.With(manage).Put("/{id}", updateInvoiceHandler(cfg.Billing))
			r.With(manage).Patch("/{id}/payment", markInvoicePaidHandler(cfg.Billing))
			r.With(manage).Post("/{id}/cancel", cancelInvoiceHandler(cfg.Billing))
			r.With(manage).Delete("/{id}", deleteInvoiceHandler(cfg.Billing))
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(view).Get("/", listExpensesHandler(cfg.Billing))
			r.With(view).Get("/{id}", getExpenseHandler(cfg.Billing))
			r.With(manage).Post("/", createExpenseHandler(cfg.Billing))
			r.With(manage).Put("/{id}", updateExpenseHandler(cfg.Billing))
			r.With(manage).Delete("/{id}", deleteExpenseHandler(cfg.Billing))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAction(auth.ActionManageUsers))
			r.Get("/", listUsersHandler(cfg.Users))
			r.Post("/", createUserHandler(cfg.Users))
			r.Get("/{id}", getUserHandler(cfg.Users))
			r.Put("/{id}", updateUserHandler(cfg.Users))
			r.Delete("/{id}", deleteUserHandler(cfg.Users))
		})

		r.Get("/settings", getSettingsHandler(cfg.Clinic))
		r.With(RequireAction(auth.ActionManageSettings)).Put("/settings", updateSettingsHandler(cfg.Clinic))

		r.Get("/dashboard", dashboardHandler(cfg.Reporting))
	})

	return r
}
