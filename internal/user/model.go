package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/auth"
)

func ValidRole(role string) bool {
	return role == auth.RoleDoctor || role == auth.RoleAssistant
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        *string   `json:"phone,omitempty"`
	Specialty    *string   `json:"specialty,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
