package consultation

import (
	"time"

	"github.com/google/uuid"
)

type Consultation struct {
	ID                    uuid.UUID  `json:"id"`
	PatientID             uuid.UUID  `json:"patient_id"`
	DoctorID              uuid.UUID  `json:"doctor_id"`
	AppointmentID         *uuid.UUID `json:"appointment_id,omitempty"`
	Date                  time.Time  `json:"date"`
	Weight                *float64   `json:"weight,omitempty"`
	Height                *float64   `json:"height,omitempty"`
	BloodPressure         *string    `json:"blood_pressure,omitempty"`
	HeartRate             *int       `json:"heart_rate,omitempty"`
	Temperature           *float64   `json:"temperature,omitempty"`
	ChiefComplaint        *string    `json:"chief_complaint,omitempty"`
	Symptoms              *string    `json:"symptoms,omitempty"`
	PhysicalExam          *string    `json:"physical_exam,omitempty"`
	Diagnosis             *string    `json:"diagnosis,omitempty"`
	DifferentialDiagnosis *string    `json:"differential_diagnosis,omitempty"`
	TreatmentPlan         *string    `json:"treatment_plan,omitempty"`
	Recommendations       *string    `json:"recommendations,omitempty"`
	FollowUpDate          *time.Time `json:"follow_up_date,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	Prescriptions []Prescription `json:"prescriptions,omitempty"`
}

type Prescription struct {
	ID             uuid.UUID    `json:"id"`
	ConsultationID uuid.UUID    `json:"consultation_id"`
	Date           time.Time    `json:"date"`
	Notes          *string      `json:"notes,omitempty"`
	Medications    []Medication `json:"medications"`
}

type Medication struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Name           string    `json:"name"`
	Dosage         *string   `json:"dosage,omitempty"`
	Frequency      *string   `json:"frequency,omitempty"`
	Duration       *string   `json:"duration,omitempty"`
	Instructions   *string   `json:"instructions,omitempty"`
	Quantity       *int      `json:"quantity,omitempty"`
}

// ListFilter narrows consultation listings.
type ListFilter struct {
	PatientID *uuid.UUID
	Search    string // matches diagnosis or patient name
}
