package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByPhone(ctx, p.Phone, nil)
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicatePhone
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) (*Patient, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, p.ID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByPhone(ctx, p.Phone, &p.ID)
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicatePhone
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Patient, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func validate(p *Patient) error {
	if p.FirstName == "" || p.LastName == "" || p.Phone == "" {
		return fmt.Errorf("%w: first name, last name and phone are required", ErrInvalidPatient)
	}
	if p.Gender != nil && *p.Gender != GenderMale && *p.Gender != GenderFemale {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidPatient, *p.Gender)
	}
	return nil
}
