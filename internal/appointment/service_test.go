package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medikab/clinic-api/internal/config"
)

// mockRepository reproduces the conflict semantics of the SQL implementation
// in memory.
type mockRepository struct {
	patients     map[uuid.UUID]bool
	appointments map[uuid.UUID]*Appointment
	events       []Event
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		patients:     map[uuid.UUID]bool{},
		appointments: map[uuid.UUID]*Appointment{},
	}
}

func (m *mockRepository) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

func (m *mockRepository) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Appointment: *a}, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter, limit, offset int) ([]Detail, int, error) {
	var result []Detail
	for _, a := range m.appointments {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		result = append(result, Detail{Appointment: *a})
	}
	return result, len(result), nil
}

func (m *mockRepository) FindConflicting(_ context.Context, start, end time.Time, exclude *uuid.UUID) (*Conflict, error) {
	minutes := int(end.Sub(start) / time.Minute)
	for _, a := range m.appointments {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if !a.Status.Active() {
			continue
		}
		if Overlaps(start, minutes, a.StartTime, a.DurationMinutes) {
			return &Conflict{AppointmentID: a.ID, StartTime: a.StartTime, EndTime: a.End()}, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateIfFree(ctx context.Context, a *Appointment) (*Conflict, error) {
	conflict, err := m.FindConflicting(ctx, a.StartTime, a.End(), nil)
	if err != nil || conflict != nil {
		return conflict, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	stored := *a
	m.appointments[a.ID] = &stored
	return nil, nil
}

func (m *mockRepository) RescheduleIfFree(ctx context.Context, a *Appointment) (*Conflict, error) {
	if _, ok := m.appointments[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status.Active() {
		conflict, err := m.FindConflicting(ctx, a.StartTime, a.End(), &a.ID)
		if err != nil || conflict != nil {
			return conflict, err
		}
	}
	stored := *a
	m.appointments[a.ID] = &stored
	return nil, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	copied := *a
	return &copied, nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockRepository) FindOverdue(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appointments {
		if (a.Status == StatusScheduled || a.Status == StatusConfirmed) && a.End().Before(cutoff) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockRepository) InsertEvent(_ context.Context, ev Event) error {
	m.events = append(m.events, ev)
	return nil
}

// noopLocker runs the critical section directly.
type noopLocker struct{}

func (noopLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *mockRepository) *Service {
	cfg := config.Config{DefaultDuration: 30, NoShowGrace: 2 * time.Hour}
	return NewService(repo, noopLocker{}, cfg, zerolog.Nop())
}

func seedPatient(repo *mockRepository) uuid.UUID {
	id := uuid.New()
	repo.patients[id] = true
	return id
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func TestBookDefaultsAndEvents(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	booked, err := svc.Book(context.Background(), &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if booked.DurationMinutes != 30 {
		t.Errorf("duration = %d, want the 30 minute default", booked.DurationMinutes)
	}
	if booked.Status != StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", booked.Status)
	}
	if len(repo.events) != 1 || repo.events[0].EventType != EventAppointmentBooked {
		t.Errorf("expected a single %s event, got %+v", EventAppointmentBooked, repo.events)
	}
}

func TestBookRejectsOverlap(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	if _, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:15:00Z"),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want a ConflictError", err)
	}

	// Back to back is fine.
	if _, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:30:00Z"),
	}); err != nil {
		t.Errorf("back-to-back booking rejected: %v", err)
	}
}

func TestBookIgnoresCancelledWindow(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	first, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, first.ID, StatusCancelled); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	}); err != nil {
		t.Errorf("cancelled appointment still blocks its window: %v", err)
	}
}

func TestBookUnknownPatient(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), &Appointment{
		PatientID: uuid.New(),
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("got %v, want ErrPatientNotFound", err)
	}
}

func TestBookRejectsMidnightCrossing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	_, err := svc.Book(context.Background(), &Appointment{
		PatientID:       patientID,
		StartTime:       ts(t, "2025-06-02T23:45:00Z"),
		DurationMinutes: 30,
	})
	if !errors.Is(err, ErrCrossesMidnight) {
		t.Errorf("got %v, want ErrCrossesMidnight", err)
	}

	// Ending exactly at midnight is allowed, the interval is half-open.
	if _, err := svc.Book(context.Background(), &Appointment{
		PatientID:       patientID,
		StartTime:       ts(t, "2025-06-02T23:30:00Z"),
		DurationMinutes: 30,
	}); err != nil {
		t.Errorf("window ending at midnight rejected: %v", err)
	}
}

func TestRescheduleExcludesSelf(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	booked, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Shifting within its own window must not conflict with itself.
	moved, err := svc.Reschedule(ctx, &Appointment{
		ID:        booked.ID,
		StartTime: ts(t, "2025-06-02T09:10:00Z"),
	})
	if err != nil {
		t.Fatalf("reschedule into own window: %v", err)
	}
	if !moved.StartTime.Equal(ts(t, "2025-06-02T09:10:00Z")) {
		t.Errorf("start = %s", moved.StartTime)
	}
	if moved.DurationMinutes != 30 {
		t.Errorf("duration not carried over, got %d", moved.DurationMinutes)
	}
}

func TestRescheduleIntoOccupiedWindow(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	if _, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	}); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T10:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Reschedule(ctx, &Appointment{
		ID:        second.ID,
		StartTime: ts(t, "2025-06-02T09:15:00Z"),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("got %v, want a ConflictError", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	booked, err := svc.Book(ctx, &Appointment{
		PatientID: patientID,
		StartTime: ts(t, "2025-06-02T09:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateStatus(ctx, booked.ID, StatusConfirmed); err != nil {
		t.Fatalf("SCHEDULED -> CONFIRMED: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, booked.ID, StatusCompleted); err != nil {
		t.Fatalf("CONFIRMED -> COMPLETED: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, booked.ID, StatusCancelled); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("COMPLETED -> CANCELLED: got %v, want ErrInvalidStatusTransition", err)
	}
	if _, err := svc.UpdateStatus(ctx, booked.ID, "TELEPORTED"); !errors.Is(err, ErrInvalidAppointment) {
		t.Errorf("unknown status: got %v, want ErrInvalidAppointment", err)
	}
}

func TestMarkOverdueNoShows(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	old := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		StartTime:       time.Now().Add(-5 * time.Hour),
		DurationMinutes: 30,
		Status:          StatusScheduled,
	}
	confirmed := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		StartTime:       time.Now().Add(-4 * time.Hour),
		DurationMinutes: 30,
		Status:          StatusConfirmed,
	}
	completed := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		StartTime:       time.Now().Add(-4 * time.Hour),
		DurationMinutes: 30,
		Status:          StatusCompleted,
	}
	recent := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		StartTime:       time.Now().Add(-30 * time.Minute),
		DurationMinutes: 30,
		Status:          StatusScheduled,
	}
	for _, a := range []*Appointment{old, confirmed, completed, recent} {
		repo.appointments[a.ID] = a
	}

	marked, err := svc.MarkOverdueNoShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if marked != 2 {
		t.Errorf("marked %d, want 2 (the scheduled and confirmed ones past grace)", marked)
	}

	if repo.appointments[old.ID].Status != StatusNoShow {
		t.Error("overdue scheduled appointment not marked")
	}
	if repo.appointments[confirmed.ID].Status != StatusNoShow {
		t.Error("overdue confirmed appointment not marked")
	}
	if repo.appointments[completed.ID].Status != StatusCompleted {
		t.Error("completed appointment must not be touched")
	}
	if repo.appointments[recent.ID].Status != StatusScheduled {
		t.Error("appointment inside the grace period must not be touched")
	}
}
