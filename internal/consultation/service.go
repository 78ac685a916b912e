package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a consultation, optionally with nested prescriptions, and
// completes a linked appointment atomically with the insert.
func (s *Service) Create(ctx context.Context, c *Consultation) (*Consultation, error) {
	if c.PatientID == uuid.Nil || c.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient and doctor are required", ErrInvalidConsultation)
	}
	if c.Date.IsZero() {
		c.Date = time.Now()
	}

	for _, p := range c.Prescriptions {
		for _, m := range p.Medications {
			if m.Name == "" {
				return nil, fmt.Errorf("%w: medication name is required", ErrInvalidConsultation)
			}
		}
	}

	exists, err := s.repo.PatientExists(ctx, c.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	exists, err = s.repo.DoctorExists(ctx, c.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Consultation, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Update(ctx context.Context, c *Consultation) (*Consultation, error) {
	current, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if c.Date.IsZero() {
		c.Date = current.Date
	}
	c.PatientID = current.PatientID
	c.DoctorID = current.DoctorID
	c.AppointmentID = current.AppointmentID

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, c.ID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
