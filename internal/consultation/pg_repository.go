package consultation

import (
	"context"
	"errors"
	"fmt"

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

const consultationColumns = `
	id, patient_id, doctor_id, appointment_id, date, weight, height,
	blood_pressure, heart_rate, temperature, chief_complaint, symptoms,
	physical_exam, diagnosis, differential_diagnosis, treatment_plan,
	recommendations, follow_up_date, notes, created_at, updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID,
		&c.PatientID,
		&c.DoctorID,
		&c.AppointmentID,
		&c.Date,
		&c.Weight,
		&c.Height,
		&c.BloodPressure,
		&c.HeartRate,
		&c.Temperature,
		&c.ChiefComplaint,
		&c.Symptoms,
		&c.PhysicalExam,
		&c.Diagnosis,
		&c.DifferentialDiagnosis,
		&c.TreatmentPlan,
		&c.Recommendations,
		&c.FollowUpDate,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'DOCTOR')`, id).Scan(&exists)
	return exists, err
}

func (r *PgRepository) Create(ctx context.Context, c *Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin consultation: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, doctor_id, appointment_id,
			date, weight, height, blood_pressure, heart_rate, temperature,
			chief_complaint, symptoms, physical_exam, diagnosis,
			differential_diagnosis, treatment_plan, recommendations,
			follow_up_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, now(), now())
		RETURNING created_at, updated_at
	`,
		c.ID, c.PatientID, c.DoctorID, c.AppointmentID, c.Date, c.Weight,
		c.Height, c.BloodPressure, c.HeartRate, c.Temperature,
		c.ChiefComplaint, c.Symptoms, c.PhysicalExam, c.Diagnosis,
		c.DifferentialDiagnosis, c.TreatmentPlan, c.Recommendations,
		c.FollowUpDate, c.Notes,
	)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}

	for pi := range c.Prescriptions {
		p := &c.Prescriptions[pi]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.ConsultationID = c.ID
		if p.Date.IsZero() {
			p.Date = c.Date
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO prescriptions (id, consultation_id, date, notes, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, p.ID, p.ConsultationID, p.Date, p.Notes)
		if err != nil {
			return fmt.Errorf("insert prescription: %w", err)
		}

		for mi := range p.Medications {
			med := &p.Medications[mi]
			if med.ID == uuid.Nil {
				med.ID = uuid.New()
			}
			med.PrescriptionID = p.ID

			_, err := tx.Exec(ctx, `
				INSERT INTO medications (id, prescription_id, name, dosage,
					frequency, duration, instructions, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, med.ID, med.PrescriptionID, med.Name, med.Dosage, med.Frequency,
				med.Duration, med.Instructions, med.Quantity)
			if err != nil {
				return fmt.Errorf("insert medication: %w", err)
			}
		}
	}

	if c.AppointmentID != nil {
		_, err := tx.Exec(ctx, `
			UPDATE appointments
			SET status = 'COMPLETED',
			    updated_at = now()
			WHERE id = $1
			  AND status NOT IN ('CANCELLED', 'NO_SHOW')
		`, *c.AppointmentID)
		if err != nil {
			return fmt.Errorf("complete linked appointment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit consultation: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx,
		`SELECT`+consultationColumns+` FROM consultations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadPrescriptions(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PgRepository) loadPrescriptions(ctx context.Context, c *Consultation) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, consultation_id, date, notes
		FROM prescriptions
		WHERE consultation_id = $1
		ORDER BY date
	`, c.ID)
	if err != nil {
		return fmt.Errorf("load prescriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.ConsultationID, &p.Date, &p.Notes); err != nil {
			return err
		}
		c.Prescriptions = append(c.Prescriptions, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range c.Prescriptions {
		p := &c.Prescriptions[i]
		medRows, err := r.pool.Query(ctx, `
			SELECT id, prescription_id, name, dosage, frequency, duration,
			       instructions, quantity
			FROM medications
			WHERE prescription_id = $1
		`, p.ID)
		if err != nil {
			return fmt.Errorf("load medications: %w", err)
		}
		for medRows.Next() {
			var m Medication
			if err := medRows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Dosage,
				&m.Frequency, &m.Duration, &m.Instructions, &m.Quantity); err != nil {
				medRows.Close()
				return err
			}
			p.Medications = append(p.Medications, m)
		}
		medRows.Close()
		if err := medRows.Err(); err != nil {
			return err
		}
	}

	return nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Consultation, int, error) {
	where := "TRUE"
	args := []any{}

	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		where += fmt.Sprintf(` AND c.patient_id = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(
			` AND (c.diagnosis ILIKE $%d OR p.first_name ILIKE $%d OR p.last_name ILIKE $%d)`,
			len(args), len(args), len(args))
	}

	var total int
	countQuery := `SELECT count(*) FROM consultations c JOIN patients p ON p.id = c.patient_id WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT c.id, c.patient_id, c.doctor_id, c.appointment_id, c.date,
		       c.weight, c.height, c.blood_pressure, c.heart_rate,
		       c.temperature, c.chief_complaint, c.symptoms, c.physical_exam,
		       c.diagnosis, c.differential_diagnosis, c.treatment_plan,
		       c.recommendations, c.follow_up_date, c.notes, c.created_at,
		       c.updated_at
		FROM consultations c
		JOIN patients p ON p.id = c.patient_id
		WHERE %s
		ORDER BY c.date DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var result []Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultations
		SET date = $2,
		    weight = $3,
		    height = $4,
		    blood_pressure = $5,
		    heart_rate = $6,
		    temperature = $7,
		    chief_complaint = $8,
		    symptoms = $9,
		    physical_exam = $10,
		    diagnosis = $11,
		    differential_diagnosis = $12,
		    treatment_plan = $13,
		    recommendations = $14,
		    follow_up_date = $15,
		    notes = $16,
		    updated_at = now()
		WHERE id = $1
	`,
		c.ID, c.Date, c.Weight, c.Height, c.BloodPressure, c.HeartRate,
		c.Temperature, c.ChiefComplaint, c.Symptoms, c.PhysicalExam,
		c.Diagnosis, c.DifferentialDiagnosis, c.TreatmentPlan,
		c.Recommendations, c.FollowUpDate, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConsultationNotFound
	}
	return nil
}
