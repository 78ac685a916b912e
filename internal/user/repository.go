package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrLastDoctor     = errors.New("cannot delete the last doctor")
	ErrInvalidUser    = errors.New("invalid user")
)

// Repository contains all DB interactions needed by the user service.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// FindByEmail looks up a user by email, optionally ignoring one id, for
	// uniqueness checks on create and update.
	FindByEmail(ctx context.Context, email string, exclude *uuid.UUID) (*User, error)

	List(ctx context.Context, limit, offset int) ([]User, int, error)
	Update(ctx context.Context, u *User) error

	// DeleteIfNotLastDoctor removes the user unless doing so would leave no
	// DOCTOR. The count and delete run in one transaction.
	DeleteIfNotLastDoctor(ctx context.Context, id uuid.UUID) error

	CountUsers(ctx context.Context) (int, error)
}
