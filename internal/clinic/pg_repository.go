package clinic

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

func (r *PgRepository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, email, website, consultation_fee,
		       opening_hours, updated_at
		FROM clinic_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&s.ID, &s.Name, &s.Address, &s.Phone, &s.Email, &s.Website,
		&s.ConsultationFee, &s.OpeningHours, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) Upsert(ctx context.Context, s *Settings) error {
	current, err := r.Get(ctx)
	if err != nil {
		return err
	}

	if current == nil {
		s.ID = uuid.New()
		row := r.pool.QueryRow(ctx, `
			INSERT INTO clinic_settings (id, name, address, phone, email,
				website, consultation_fee, opening_hours, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			RETURNING updated_at
		`, s.ID, s.Name, s.Address, s.Phone, s.Email, s.Website,
			s.ConsultationFee, s.OpeningHours)
		if err := row.Scan(&s.UpdatedAt); err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}
		return nil
	}

	s.ID = current.ID
	row := r.pool.QueryRow(ctx, `
		UPDATE clinic_settings
		SET name = $2,
		    address = $3,
		    phone = $4,
		    email = $5,
		    website = $6,
		    consultation_fee = $7,
		    opening_hours = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, s.ID, s.Name, s.Address, s.Phone, s.Email, s.Website,
		s.ConsultationFee, s.OpeningHours)
	if err := row.Scan(&s.UpdatedAt); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
