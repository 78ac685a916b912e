package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrInvalidConsultation  = errors.New("invalid consultation")
)

// Repository contains all DB interactions needed by the consultation service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)

	// Create inserts the consultation together with its prescriptions and
	// medications, and marks a linked appointment COMPLETED, in a single
	// transaction.
	Create(ctx context.Context, c *Consultation) error

	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Consultation, int, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error
}
