package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	d := &Dashboard{
		MonthlyRevenue:  decimal.Zero,
		MonthlyExpenses: decimal.Zero,
		PendingAmount:   decimal.Zero,
	}

	y, m, day := now.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	dayStart := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Week runs Monday to Monday.
	offset := (int(now.Weekday()) + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -offset)
	weekEnd := weekStart.AddDate(0, 0, 7)

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM patients),
			(SELECT count(*) FROM patients WHERE created_at >= $1),
			(SELECT count(*) FROM appointments
			 WHERE start_time >= $2 AND start_time < $3
			   AND status NOT IN ('CANCELLED', 'NO_SHOW')),
			(SELECT count(*) FROM appointments
			 WHERE start_time >= $4 AND start_time < $5
			   AND status NOT IN ('CANCELLED', 'NO_SHOW')),
			(SELECT count(*) FROM consultations WHERE date >= $1),
			(SELECT COALESCE(sum(amount_paid), 0) FROM invoices
			 WHERE payment_status = 'PAID' AND date >= $1),
			(SELECT COALESCE(sum(amount), 0) FROM expenses WHERE date >= $1),
			(SELECT count(*) FROM invoices
			 WHERE payment_status IN ('PENDING', 'PARTIAL')),
			(SELECT COALESCE(sum(total - amount_paid), 0) FROM invoices
			 WHERE payment_status IN ('PENDING', 'PARTIAL'))
	`, monthStart, dayStart, dayEnd, weekStart, weekEnd).Scan(
		&d.TotalPatients,
		&d.NewPatientsThisMonth,
		&d.AppointmentsToday,
		&d.AppointmentsThisWeek,
		&d.ConsultationsMonth,
		&d.MonthlyRevenue,
		&d.MonthlyExpenses,
		&d.PendingInvoices,
		&d.PendingAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard aggregates: %w", err)
	}
	d.MonthlyProfit = d.MonthlyRevenue.Sub(d.MonthlyExpenses)

	if err := r.loadRecentPatients(ctx, d); err != nil {
		return nil, err
	}
	if err := r.loadUpcomingAppointments(ctx, d, now); err != nil {
		return nil, err
	}

	return d, nil
}

func (r *PgRepository) loadRecentPatients(ctx context.Context, d *Dashboard) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, phone, created_at
		FROM patients
		ORDER BY created_at DESC
		LIMIT 5
	`)
	if err != nil {
		return fmt.Errorf("recent patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.CreatedAt); err != nil {
			return err
		}
		d.RecentPatients = append(d.RecentPatients, p)
	}
	return rows.Err()
}

func (r *PgRepository) loadUpcomingAppointments(ctx context.Context, d *Dashboard, now time.Time) error {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.start_time, a.status, a.patient_id,
		       p.first_name || ' ' || p.last_name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.start_time >= $1 AND a.start_time < $2
		  AND a.status IN ('SCHEDULED', 'CONFIRMED')
		ORDER BY a.start_time
		LIMIT 10
	`, now, now.AddDate(0, 0, 7))
	if err != nil {
		return fmt.Errorf("upcoming appointments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a AppointmentSummary
		if err := rows.Scan(&a.ID, &a.StartTime, &a.Status, &a.PatientID, &a.PatientName); err != nil {
			return err
		}
		d.UpcomingAppointments = append(d.UpcomingAppointments, a)
	}
	return rows.Err()
}
