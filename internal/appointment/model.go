package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

// validTransitions holds the allowed explicit status moves. Terminal states
// have no outgoing edges.
var validTransitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the appointment still occupies its time window.
// Cancelled and no-show appointments free their slot.
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusNoShow
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            string    `json:"type"`
	Reason          *string   `json:"reason,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// End is the exclusive end of the appointment window.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps implements the half-open interval test [start, end): back-to-back
// and zero-length windows do not conflict.
func Overlaps(aStart time.Time, aMinutes int, bStart time.Time, bMinutes int) bool {
	aEnd := aStart.Add(time.Duration(aMinutes) * time.Minute)
	bEnd := bStart.Add(time.Duration(bMinutes) * time.Minute)
	// An empty interval intersects nothing.
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// PatientRef is the patient summary joined into listings.
type PatientRef struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
}

type Detail struct {
	Appointment
	Patient *PatientRef `json:"patient,omitempty"`
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	Day       *time.Time // all appointments on this calendar day
	From      *time.Time
	To        *time.Time
	Status    *Status
	PatientID *uuid.UUID
}

type Event struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
