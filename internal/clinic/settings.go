package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settings is a singleton row. Get falls back to defaults until the first
// update persists a row.
type Settings struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Address         *string         `json:"address,omitempty"`
	Phone           *string         `json:"phone,omitempty"`
	Email           *string         `json:"email,omitempty"`
	Website         *string         `json:"website,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	OpeningHours    *string         `json:"opening_hours,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Name:            "My Clinic",
		ConsultationFee: decimal.NewFromInt(100),
	}
}

// Repository persists the settings singleton.
type Repository interface {
	// Get returns the stored settings, or nil when none exist yet.
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return DefaultSettings(), nil
	}
	return stored, nil
}

func (s *Service) Update(ctx context.Context, in *Settings) (*Settings, error) {
	if in.Name == "" {
		in.Name = DefaultSettings().Name
	}
	if in.ConsultationFee.IsNegative() {
		in.ConsultationFee = decimal.Zero
	}
	if err := s.repo.Upsert(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}
