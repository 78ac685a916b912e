package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medikab/clinic-api/internal/auth"
)

type mockRepository struct {
	users map[uuid.UUID]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: map[uuid.UUID]*User{}}
}

func (m *mockRepository) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	return m.FindByEmail(context.Background(), email, nil)
}

func (m *mockRepository) FindByEmail(_ context.Context, email string, exclude *uuid.UUID) (*User, error) {
	for _, u := range m.users {
		if exclude != nil && u.ID == *exclude {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) List(_ context.Context, limit, offset int) ([]User, int, error) {
	var result []User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, len(result), nil
}

func (m *mockRepository) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockRepository) DeleteIfNotLastDoctor(_ context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if u.Role == auth.RoleDoctor {
		doctors := 0
		for _, other := range m.users {
			if other.Role == auth.RoleDoctor {
				doctors++
			}
		}
		if doctors <= 1 {
			return ErrLastDoctor
		}
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepository) CountUsers(_ context.Context) (int, error) {
	return len(m.users), nil
}

func doctorInput(email string) CreateInput {
	return CreateInput{
		Name:     "Dr. House",
		Email:    email,
		Password: "correct-horse",
		Role:     auth.RoleDoctor,
	}
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(newMockRepository())

	in := doctorInput("house@clinic.test")
	in.Password = "short"
	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, ErrInvalidUser) {
		t.Errorf("got %v, want ErrInvalidUser", err)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	if _, err := svc.Create(ctx, doctorInput("house@clinic.test")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Create(ctx, doctorInput("HOUSE@clinic.test"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail (case-insensitive)", err)
	}
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMockRepository())

	u, err := svc.Create(context.Background(), doctorInput("house@clinic.test"))
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "correct-horse" || u.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
	if err := auth.CheckPassword(u.PasswordHash, "correct-horse"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, doctorInput("house@clinic.test"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Authenticate(ctx, "house@clinic.test", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != created.ID {
		t.Error("authenticated as a different user")
	}

	if _, err := svc.Authenticate(ctx, "house@clinic.test", "wrong"); !errors.Is(err, auth.ErrWrongPassword) {
		t.Errorf("wrong password: got %v, want ErrWrongPassword", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@clinic.test", "correct-horse"); !errors.Is(err, auth.ErrWrongPassword) {
		t.Errorf("unknown email: got %v, want ErrWrongPassword (no user enumeration)", err)
	}
}

func TestDeleteLastDoctorBlocked(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	doc, err := svc.Create(ctx, doctorInput("house@clinic.test"))
	if err != nil {
		t.Fatal(err)
	}
	assistant, err := svc.Create(ctx, CreateInput{
		Name:     "Nurse Joy",
		Email:    "joy@clinic.test",
		Password: "pikachu-rules",
		Role:     auth.RoleAssistant,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, doc.ID); !errors.Is(err, ErrLastDoctor) {
		t.Errorf("deleting the only doctor: got %v, want ErrLastDoctor", err)
	}

	if err := svc.Delete(ctx, assistant.ID); err != nil {
		t.Errorf("deleting an assistant should work: %v", err)
	}

	second, err := svc.Create(ctx, doctorInput("wilson@clinic.test"))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, doc.ID); err != nil {
		t.Errorf("deleting a doctor with another remaining should work: %v", err)
	}
	if err := svc.Delete(ctx, second.ID); !errors.Is(err, ErrLastDoctor) {
		t.Errorf("the remaining doctor became the last one: got %v, want ErrLastDoctor", err)
	}
}

func TestCreateFirstDoctor(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	in := doctorInput("house@clinic.test")
	in.Role = auth.RoleAssistant // ignored, setup always creates a doctor

	u, err := svc.CreateFirstDoctor(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != auth.RoleDoctor {
		t.Errorf("role = %q, want DOCTOR", u.Role)
	}

	if _, err := svc.CreateFirstDoctor(ctx, doctorInput("second@clinic.test")); err == nil {
		t.Error("setup should be rejected once a user exists")
	}
}

func TestUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, doctorInput("house@clinic.test"))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateInput{Name: "Dr. Gregory House"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.PasswordHash != created.PasswordHash {
		t.Error("password hash changed without a new password")
	}
	if updated.Name != "Dr. Gregory House" {
		t.Errorf("name = %q", updated.Name)
	}
}
