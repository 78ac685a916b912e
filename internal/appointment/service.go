package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/config"
	redisclient "github.com/medikab/clinic-api/internal/redis"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
)

var (
	ErrSlotBeingBooked         = errors.New("this time is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrCrossesMidnight         = errors.New("appointment window must not cross midnight")
)

// ConflictError carries the occupying appointment for diagnostics.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("another appointment (%s) already occupies %s – %s",
		e.Conflict.AppointmentID,
		e.Conflict.StartTime.Format(time.RFC3339),
		e.Conflict.EndTime.Format(time.RFC3339))
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// Book reserves a window for a patient. A distributed day lock serializes the
// conflict-check-then-insert pair so concurrent requests for overlapping
// windows cannot both land; the repository repeats the check inside the
// insert transaction.
func (s *Service) Book(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.DurationMinutes == 0 {
		a.DurationMinutes = s.cfg.DefaultDuration
	}
	if a.Type == "" {
		a.Type = "consultation"
	}
	a.Status = StatusScheduled

	if err := s.validateWindow(a); err != nil {
		return nil, err
	}

	exists, err := s.repo.PatientExists(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	err = s.locker.WithLock(ctx, dayLockName(a.StartTime), func(lockCtx context.Context) error {
		conflict, err := s.repo.CreateIfFree(lockCtx, a)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Conflict: *conflict}
		}

		s.logEvent(lockCtx, a.ID, EventAppointmentBooked, map[string]any{
			"patient_id": a.PatientID.String(),
			"start_time": a.StartTime,
			"duration":   a.DurationMinutes,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return a, nil
}

// Reschedule moves or edits an appointment, re-running the conflict check
// with the appointment itself excluded.
func (s *Service) Reschedule(ctx context.Context, a *Appointment) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	if a.DurationMinutes == 0 {
		a.DurationMinutes = current.DurationMinutes
	}
	if a.Type == "" {
		a.Type = current.Type
	}
	if a.Status == "" {
		a.Status = current.Status
	} else if a.Status != current.Status {
		if !current.Status.CanTransitionTo(a.Status) {
			return nil, ErrInvalidStatusTransition
		}
	}
	a.PatientID = current.PatientID

	if err := s.validateWindow(a); err != nil {
		return nil, err
	}

	err = s.locker.WithLock(ctx, dayLockName(a.StartTime), func(lockCtx context.Context) error {
		conflict, err := s.repo.RescheduleIfFree(lockCtx, a)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Conflict: *conflict}
		}

		if !a.StartTime.Equal(current.StartTime) || a.DurationMinutes != current.DurationMinutes {
			s.logEvent(lockCtx, a.ID, EventAppointmentRescheduled, map[string]any{
				"from": current.StartTime,
				"to":   a.StartTime,
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return a, nil
}

// UpdateStatus applies an explicit status transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidAppointment, to)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	switch to {
	case StatusCancelled:
		s.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{})
	case StatusNoShow:
		s.logEvent(ctx, id, EventAppointmentNoShow, map[string]any{"reason": "manual"})
	}

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Detail, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// MarkOverdueNoShows is called by the worker periodically. Scheduled or
// confirmed appointments whose window ended more than the grace period ago
// become NO_SHOW.
func (s *Service) MarkOverdueNoShows(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.NoShowGrace)
	overdue, err := s.repo.FindOverdue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find overdue appointments: %w", err)
	}

	marked := 0
	for _, a := range overdue {
		if _, err := s.repo.UpdateStatus(ctx, a.ID, a.Status, StatusNoShow); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			s.log.Error().Err(err).Stringer("appointment_id", a.ID).Msg("failed to mark no-show")
			continue
		}
		marked++
		s.logEvent(ctx, a.ID, EventAppointmentNoShow, map[string]any{"reason": "worker"})
	}

	return marked, nil
}

func (s *Service) validateWindow(a *Appointment) error {
	if a.PatientID == uuid.Nil || a.StartTime.IsZero() {
		return fmt.Errorf("%w: patient and start time are required", ErrInvalidAppointment)
	}
	if a.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidAppointment)
	}

	// One day lock covers the whole window only when the window stays
	// within the start's calendar day.
	y, m, d := a.StartTime.Date()
	nextMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, a.StartTime.Location())
	if a.End().After(nextMidnight) {
		return ErrCrossesMidnight
	}
	return nil
}

func dayLockName(start time.Time) string {
	return "schedule:" + start.Format("2006-01-02")
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := Event{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Stringer("appointment_id", appointmentID).
			Msg("failed to insert appointment event")
	}
}
