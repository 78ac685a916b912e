package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dashboard aggregates the numbers the landing view shows. Money figures are
// scoped to the current month; counts to today, the current week or month.
type Dashboard struct {
	TotalPatients        int             `json:"total_patients"`
	NewPatientsThisMonth int             `json:"new_patients_this_month"`
	AppointmentsToday    int             `json:"appointments_today"`
	AppointmentsThisWeek int             `json:"appointments_this_week"`
	ConsultationsMonth   int             `json:"consultations_this_month"`
	MonthlyRevenue       decimal.Decimal `json:"monthly_revenue"`
	MonthlyExpenses      decimal.Decimal `json:"monthly_expenses"`
	MonthlyProfit        decimal.Decimal `json:"monthly_profit"`
	PendingInvoices      int             `json:"pending_invoices"`
	PendingAmount        decimal.Decimal `json:"pending_amount"`

	RecentPatients       []PatientSummary     `json:"recent_patients"`
	UpcomingAppointments []AppointmentSummary `json:"upcoming_appointments"`
}

type PatientSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type AppointmentSummary struct {
	ID          uuid.UUID `json:"id"`
	StartTime   time.Time `json:"start_time"`
	Status      string    `json:"status"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
}

// Repository runs the aggregate queries.
type Repository interface {
	Dashboard(ctx context.Context, now time.Time) (*Dashboard, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return s.repo.Dashboard(ctx, time.Now())
}
