package patient

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

const patientColumns = `
	id, first_name, last_name, date_of_birth, gender, phone, phone_secondary,
	email, address, city, marital_status, occupation, blood_type, allergies,
	chronic_diseases, current_medications, family_history, notes,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Gender,
		&p.Phone,
		&p.PhoneSecondary,
		&p.Email,
		&p.Address,
		&p.City,
		&p.MaritalStatus,
		&p.Occupation,
		&p.BloodType,
		&p.Allergies,
		&p.ChronicDiseases,
		&p.CurrentMedications,
		&p.FamilyHistory,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, gender, phone,
			phone_secondary, email, address, city, marital_status, occupation,
			blood_type, allergies, chronic_diseases, current_medications,
			family_history, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, now(), now())
		RETURNING created_at, updated_at
	`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone,
		p.PhoneSecondary, p.Email, p.Address, p.City, p.MaritalStatus,
		p.Occupation, p.BloodType, p.Allergies, p.ChronicDiseases,
		p.CurrentMedications, p.FamilyHistory, p.Notes,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET first_name = $2,
		    last_name = $3,
		    date_of_birth = $4,
		    gender = $5,
		    phone = $6,
		    phone_secondary = $7,
		    email = $8,
		    address = $9,
		    city = $10,
		    marital_status = $11,
		    occupation = $12,
		    blood_type = $13,
		    allergies = $14,
		    chronic_diseases = $15,
		    current_medications = $16,
		    family_history = $17,
		    notes = $18,
		    updated_at = now()
		WHERE id = $1
	`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone,
		p.PhoneSecondary, p.Email, p.Address, p.City, p.MaritalStatus,
		p.Occupation, p.BloodType, p.Allergies, p.ChronicDiseases,
		p.CurrentMedications, p.FamilyHistory, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Patient, int, error) {
	where := "TRUE"
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR phone LIKE $%d)`,
			len(args), len(args), len(args))
	}
	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		where += fmt.Sprintf(` AND gender = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) FindByPhone(ctx context.Context, phone string, exclude *uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+patientColumns+`
		FROM patients
		WHERE phone = $1
		  AND ($2::uuid IS NULL OR id <> $2)
	`, phone, exclude)
	return scanPatient(row)
}
