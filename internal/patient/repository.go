package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicatePhone  = errors.New("a patient with this phone number already exists")
	ErrInvalidPatient  = errors.New("invalid patient")
)

// Repository contains all DB interactions needed by the patient service.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Patient, int, error)

	// FindByPhone is used for duplicate checks; exclude skips the patient
	// being updated.
	FindByPhone(ctx context.Context, phone string, exclude *uuid.UUID) (*Patient, error)
}
