package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/medikab/clinic-api/internal/auth"
	"github.com/medikab/clinic-api/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 0, 0)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsers(context.Background(), pool); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	patients, err := seedPatients(context.Background(), pool, 200)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patients, 300); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}
	if err := seedExpenses(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed expenses: %v", err)
	}

	log.Println("seed complete")
	log.Println("login with doctor@clinic.local / password123")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding users")

	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	users := []struct {
		name, email, role, specialty string
	}{
		{"Dr. " + gofakeit.Name(), "doctor@clinic.local", "DOCTOR", "General Practice"},
		{gofakeit.Name(), "assistant@clinic.local", "ASSISTANT", ""},
	}

	for _, u := range users {
		var specialty *string
		if u.specialty != "" {
			specialty = &u.specialty
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT DO NOTHING
		`, uuid.New(), u.name, u.email, hash, u.role, specialty)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bloodTypes := []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		gender := "MALE"
		if gofakeit.Bool() {
			gender = "FEMALE"
		}
		dob := gofakeit.DateRange(
			time.Now().AddDate(-90, 0, 0),
			time.Now().AddDate(-1, 0, 0),
		)
		blood := bloodTypes[gofakeit.Number(0, len(bloodTypes)-1)]
		city := gofakeit.City()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, date_of_birth, gender,
				phone, email, address, city, blood_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName(), dob, gender,
			gofakeit.Phone(), gofakeit.Email(), gofakeit.Street(), city, blood)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding service catalog")

	services := []struct {
		name  string
		price int64
	}{
		{"General consultation", 100},
		{"Follow-up visit", 60},
		{"ECG", 150},
		{"Blood panel", 120},
		{"Vaccination", 80},
		{"Wound dressing", 50},
	}

	for _, s := range services {
		_, err := pool.Exec(ctx, `
			INSERT INTO services (id, name, price, active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, now(), now())
		`, uuid.New(), s.name, decimal.NewFromInt(s.price))
		if err != nil {
			return err
		}
	}
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patients []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	types := []string{"consultation", "follow-up", "emergency", "vaccination"}

	// Spread over working hours of the coming two weeks, one per slot so the
	// seed never violates the no-overlap rule.
	day := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	slot := day.Add(8 * time.Hour)

	for i := 0; i < count; i++ {
		patient := patients[gofakeit.Number(0, len(patients)-1)]
		kind := types[gofakeit.Number(0, len(types)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, start_time, duration_minutes,
				type, status, created_at, updated_at)
			VALUES ($1, $2, $3, 30, $4, 'SCHEDULED', now(), now())
		`, uuid.New(), patient, slot, kind)
		if err != nil {
			return err
		}

		slot = slot.Add(30 * time.Minute)
		if slot.Hour() >= 18 {
			day = day.AddDate(0, 0, 1)
			slot = day.Add(8 * time.Hour)
		}
	}

	return tx.Commit(ctx)
}

func seedExpenses(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d expenses", count)

	categories := []string{"RENT", "SALARY", "SUPPLIES", "UTILITIES", "EQUIPMENT", "MAINTENANCE", "INSURANCE", "OTHER"}

	for i := 0; i < count; i++ {
		category := categories[gofakeit.Number(0, len(categories)-1)]
		amount := decimal.NewFromFloat(gofakeit.Float64Range(20, 2000)).Round(2)
		date := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now())

		_, err := pool.Exec(ctx, `
			INSERT INTO expenses (id, date, category, description, amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, uuid.New(), date, category, gofakeit.ProductName(), amount)
		if err != nil {
			return err
		}
	}
	return nil
}
