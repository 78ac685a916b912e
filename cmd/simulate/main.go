package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/medikab/clinic-api/internal/appointment"
	"github.com/medikab/clinic-api/internal/billing"
	"github.com/medikab/clinic-api/internal/config"
	"github.com/medikab/clinic-api/internal/db"
	"github.com/medikab/clinic-api/internal/patient"
	redisclient "github.com/medikab/clinic-api/internal/redis"
)

// simulate hammers the two race-prone operations with concurrent callers:
// booking one time window, and drawing invoice numbers. Exactly one booking
// must land, and every invoice number must be unique and consecutive.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	workers := flag.Int("workers", 20, "concurrent callers per scenario")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	patientSvc := patient.NewService(patient.NewPgRepository(pool))
	appointmentSvc := appointment.NewService(appointment.NewPgRepository(pool), locker, cfg, zerolog.Nop())
	billingSvc := billing.NewService(billing.NewPgRepository(pool), cfg.InvoicePrefix, zerolog.Nop())

	subject, err := patientSvc.Create(ctx, &patient.Patient{
		FirstName: "Simulated",
		LastName:  "Subject",
		Phone:     "sim-" + uuid.NewString(),
	})
	if err != nil {
		log.Fatalf("create subject patient: %v", err)
	}

	runBookingRace(ctx, appointmentSvc, subject.ID, *workers)
	runInvoiceRace(ctx, billingSvc, subject.ID, *workers)
}

func runBookingRace(ctx context.Context, svc *appointment.Service, patientID uuid.UUID, workers int) {
	// A window far enough out that no seeded data collides with it.
	start := time.Now().AddDate(0, 0, 60).Truncate(time.Hour)

	var booked, conflicts, contended, failures int64
	var wg sync.WaitGroup

	log.Printf("booking race: %d workers, one window at %s", workers, start.Format(time.RFC3339))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, &appointment.Appointment{
				PatientID: patientID,
				StartTime: start,
			})
			var conflict *appointment.ConflictError
			switch {
			case err == nil:
				atomic.AddInt64(&booked, 1)
			case errors.As(err, &conflict):
				atomic.AddInt64(&conflicts, 1)
			case errors.Is(err, appointment.ErrSlotBeingBooked):
				atomic.AddInt64(&contended, 1)
			default:
				atomic.AddInt64(&failures, 1)
				log.Printf("unexpected booking error: %v", err)
			}
		}()
	}
	wg.Wait()

	log.Printf("booking race: booked=%d conflicts=%d lock_contention=%d failures=%d",
		booked, conflicts, contended, failures)
	if booked != 1 {
		log.Fatalf("booking race FAILED: %d bookings landed for one window, want exactly 1", booked)
	}
	log.Println("booking race OK")
}

func runInvoiceRace(ctx context.Context, svc *billing.Service, patientID uuid.UUID, workers int) {
	log.Printf("invoice race: %d concurrent creations", workers)

	numbers := make(chan string, workers)
	var failures int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.CreateInvoice(ctx, &billing.Invoice{
				PatientID: patientID,
				Items: []billing.InvoiceItem{
					{Description: "Simulated consultation", Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
				},
			})
			if err != nil {
				atomic.AddInt64(&failures, 1)
				log.Printf("unexpected invoice error: %v", err)
				return
			}
			numbers <- inv.InvoiceNumber
		}()
	}
	wg.Wait()
	close(numbers)

	if failures > 0 {
		log.Fatalf("invoice race FAILED: %d creations errored", failures)
	}

	seen := make(map[string]bool)
	var all []string
	for n := range numbers {
		if seen[n] {
			log.Fatalf("invoice race FAILED: duplicate number %s", n)
		}
		seen[n] = true
		all = append(all, n)
	}
	sort.Strings(all)

	log.Printf("invoice race: %d distinct numbers, %s .. %s", len(all), all[0], all[len(all)-1])
	log.Println("invoice race OK")
}
