package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, start_time, duration_minutes, type, reason, notes, status,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Type,
		&a.Reason,
		&a.Notes,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.id, a.patient_id, a.start_time, a.duration_minutes, a.type,
		       a.reason, a.notes, a.status, a.created_at, a.updated_at,
		       p.id, p.first_name, p.last_name, p.phone
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`, id)
	return scanDetail(row)
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var ref PatientRef
	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.StartTime,
		&d.DurationMinutes,
		&d.Type,
		&d.Reason,
		&d.Notes,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&ref.ID,
		&ref.FirstName,
		&ref.LastName,
		&ref.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	d.Patient = &ref
	return &d, nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Detail, int, error) {
	where := "TRUE"
	args := []any{}

	if filter.Day != nil {
		dayStart := filter.Day.Truncate(24 * time.Hour)
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
		where += fmt.Sprintf(` AND a.start_time >= $%d AND a.start_time < $%d`, len(args)-1, len(args))
	} else {
		if filter.From != nil {
			args = append(args, *filter.From)
			where += fmt.Sprintf(` AND a.start_time >= $%d`, len(args))
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			where += fmt.Sprintf(` AND a.start_time <= $%d`, len(args))
		}
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		where += fmt.Sprintf(` AND a.patient_id = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments a WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT a.id, a.patient_id, a.start_time, a.duration_minutes, a.type,
		       a.reason, a.notes, a.status, a.created_at, a.updated_at,
		       p.id, p.first_name, p.last_name, p.phone
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE %s
		ORDER BY a.start_time ASC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// conflictQuery implements the symmetric half-open interval intersection:
// an active appointment conflicts iff it starts before the candidate end and
// ends after the candidate start. Empty intervals (a zero-length candidate
// or a zero-duration row) intersect nothing, matching Overlaps.
const conflictQuery = `
	SELECT id, start_time, start_time + make_interval(mins => duration_minutes)
	FROM appointments
	WHERE status NOT IN ('CANCELLED', 'NO_SHOW')
	  AND $1 < $2
	  AND duration_minutes > 0
	  AND start_time < $2
	  AND start_time + make_interval(mins => duration_minutes) > $1
	  AND ($3::uuid IS NULL OR id <> $3)
	ORDER BY start_time
	LIMIT 1`

func scanConflict(row pgx.Row) (*Conflict, error) {
	var c Conflict
	err := row.Scan(&c.AppointmentID, &c.StartTime, &c.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) FindConflicting(ctx context.Context, start, end time.Time, exclude *uuid.UUID) (*Conflict, error) {
	c, err := scanConflict(r.pool.QueryRow(ctx, conflictQuery, start, end, exclude))
	if err != nil {
		return nil, fmt.Errorf("conflict probe: %w", err)
	}
	return c, nil
}

func (r *PgRepository) CreateIfFree(ctx context.Context, a *Appointment) (*Conflict, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	conflict, err := scanConflict(tx.QueryRow(ctx, conflictQuery, a.StartTime, a.End(), nil))
	if err != nil {
		return nil, fmt.Errorf("conflict probe: %w", err)
	}
	if conflict != nil {
		return conflict, nil
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, start_time, duration_minutes,
			type, reason, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.PatientID, a.StartTime, a.DurationMinutes, a.Type, a.Reason, a.Notes, a.Status)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return nil, nil
}

func (r *PgRepository) RescheduleIfFree(ctx context.Context, a *Appointment) (*Conflict, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule: %w", err)
	}
	defer tx.Rollback(ctx)

	if a.Status.Active() {
		conflict, err := scanConflict(tx.QueryRow(ctx, conflictQuery, a.StartTime, a.End(), &a.ID))
		if err != nil {
			return nil, fmt.Errorf("conflict probe: %w", err)
		}
		if conflict != nil {
			return conflict, nil
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    duration_minutes = $3,
		    type = $4,
		    reason = $5,
		    notes = $6,
		    status = $7,
		    updated_at = now()
		WHERE id = $1
	`, a.ID, a.StartTime, a.DurationMinutes, a.Type, a.Reason, a.Notes, a.Status)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reschedule: %w", err)
	}
	return nil, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING`+appointmentColumns,
		id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE status IN ('SCHEDULED', 'CONFIRMED')
		  AND start_time + make_interval(mins => duration_minutes) < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert appointment event: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
