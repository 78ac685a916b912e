package patient

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type Patient struct {
	ID                 uuid.UUID  `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Gender             *Gender    `json:"gender,omitempty"`
	Phone              string     `json:"phone"`
	PhoneSecondary     *string    `json:"phone_secondary,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Address            *string    `json:"address,omitempty"`
	City               *string    `json:"city,omitempty"`
	MaritalStatus      *string    `json:"marital_status,omitempty"`
	Occupation         *string    `json:"occupation,omitempty"`
	BloodType          *string    `json:"blood_type,omitempty"`
	Allergies          *string    `json:"allergies,omitempty"`
	ChronicDiseases    *string    `json:"chronic_diseases,omitempty"`
	CurrentMedications *string    `json:"current_medications,omitempty"`
	FamilyHistory      *string    `json:"family_history,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Age in full years at the given reference time. Zero when the date of birth
// is unknown.
func (p *Patient) Age(at time.Time) int {
	if p.DateOfBirth == nil {
		return 0
	}
	dob := *p.DateOfBirth
	age := at.Year() - dob.Year()
	if at.YearDay() < dob.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// ListFilter narrows patient listings.
type ListFilter struct {
	Search string // matches first name, last name or phone
	Gender *Gender
}
