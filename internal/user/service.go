package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the plaintext password; the hash never leaves this
// package boundary unhashed.
type CreateInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	Phone     *string
	Specialty *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := validateInput(in.Name, in.Email, in.Role); err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, auth.MinPasswordLength)
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email, nil)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Specialty:    in.Specialty,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateFirstDoctor bootstraps the installation. It only succeeds while the
// users table is empty, and the role is always DOCTOR.
func (s *Service) CreateFirstDoctor(ctx context.Context, in CreateInput) (*User, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: setup already completed", ErrInvalidUser)
	}
	in.Role = auth.RoleDoctor
	return s.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateInput updates profile fields; a non-empty Password rotates the hash.
type UpdateInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	Phone     *string
	Specialty *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name == "" {
		in.Name = current.Name
	}
	if in.Email == "" {
		in.Email = current.Email
	}
	if in.Role == "" {
		in.Role = current.Role
	}
	if err := validateInput(in.Name, in.Email, in.Role); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email, &id)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	current.Name = in.Name
	current.Email = strings.ToLower(in.Email)
	current.Role = in.Role
	current.Phone = in.Phone
	current.Specialty = in.Specialty

	if in.Password != "" {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, auth.MinPasswordLength)
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		current.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteIfNotLastDoctor(ctx, id)
}

// Authenticate verifies the credentials and returns the user. The same error
// comes back for an unknown email and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, auth.ErrWrongPassword
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

func validateInput(name, email, role string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidUser, email)
	}
	if !ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}
	return nil
}
