package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrInvalidAppointment  = errors.New("invalid appointment")
)

// Conflict reports the appointment already occupying a requested window.
type Conflict struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Detail, int, error)

	// FindConflicting returns the first active appointment whose window
	// intersects [start, end), skipping exclude when rescheduling.
	FindConflicting(ctx context.Context, start, end time.Time, exclude *uuid.UUID) (*Conflict, error)

	// CreateIfFree checks for a conflict and inserts in a single
	// transaction. A non-nil Conflict means nothing was inserted.
	CreateIfFree(ctx context.Context, a *Appointment) (*Conflict, error)

	// RescheduleIfFree updates the appointment's window and fields in a
	// single transaction, excluding the appointment itself from the
	// conflict probe.
	RescheduleIfFree(ctx context.Context, a *Appointment) (*Conflict, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindOverdue returns active appointments whose window ended before
	// the cutoff, for the no-show sweeper.
	FindOverdue(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev Event) error
}
