package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

// mockRepository keeps everything in maps and reproduces the numbering
// contract of the SQL implementation.
type mockRepository struct {
	patients map[uuid.UUID]bool
	invoices map[uuid.UUID]*Invoice
	services map[uuid.UUID]*BillableService
	expenses map[uuid.UUID]*Expense
	counters map[string]int // "PREFIX-YEAR" -> last number
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		patients: map[uuid.UUID]bool{},
		invoices: map[uuid.UUID]*Invoice{},
		services: map[uuid.UUID]*BillableService{},
		expenses: map[uuid.UUID]*Expense{},
		counters: map[string]int{},
	}
}

func (m *mockRepository) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

func (m *mockRepository) CreateInvoice(_ context.Context, inv *Invoice, prefix string) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	key := fmt.Sprintf("%s-%d", prefix, inv.Date.Year())
	m.counters[key]++
	inv.InvoiceNumber = FormatInvoiceNumber(prefix, inv.Date.Year(), m.counters[key])

	stored := *inv
	m.invoices[inv.ID] = &stored
	return nil
}

func (m *mockRepository) GetInvoice(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *mockRepository) ListInvoices(_ context.Context, filter InvoiceListFilter, limit, offset int) ([]Invoice, int, error) {
	var result []Invoice
	for _, inv := range m.invoices {
		if filter.PaymentStatus != "" && inv.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.PatientID != nil && inv.PatientID != *filter.PatientID {
			continue
		}
		result = append(result, *inv)
	}
	return result, len(result), nil
}

func (m *mockRepository) UpdateInvoice(_ context.Context, inv *Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrInvoiceNotFound
	}
	stored := *inv
	m.invoices[inv.ID] = &stored
	return nil
}

func (m *mockRepository) DeleteInvoice(_ context.Context, id uuid.UUID) error {
	if _, ok := m.invoices[id]; !ok {
		return ErrInvoiceNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockRepository) CreateService(_ context.Context, svc *BillableService) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	stored := *svc
	m.services[svc.ID] = &stored
	return nil
}

func (m *mockRepository) GetService(_ context.Context, id uuid.UUID) (*BillableService, error) {
	svc, ok := m.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	copied := *svc
	return &copied, nil
}

func (m *mockRepository) ListServices(_ context.Context, filter ServiceListFilter, limit, offset int) ([]BillableService, int, error) {
	var result []BillableService
	for _, svc := range m.services {
		if filter.ActiveOnly && !svc.Active {
			continue
		}
		result = append(result, *svc)
	}
	return result, len(result), nil
}

func (m *mockRepository) UpdateService(_ context.Context, svc *BillableService) error {
	if _, ok := m.services[svc.ID]; !ok {
		return ErrServiceNotFound
	}
	stored := *svc
	m.services[svc.ID] = &stored
	return nil
}

func (m *mockRepository) DeactivateService(_ context.Context, id uuid.UUID) error {
	svc, ok := m.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	svc.Active = false
	return nil
}

func (m *mockRepository) CreateExpense(_ context.Context, e *Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	stored := *e
	m.expenses[e.ID] = &stored
	return nil
}

func (m *mockRepository) GetExpense(_ context.Context, id uuid.UUID) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrExpenseNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockRepository) ListExpenses(_ context.Context, filter ExpenseListFilter, limit, offset int) ([]Expense, int, error) {
	var result []Expense
	for _, e := range m.expenses {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		result = append(result, *e)
	}
	return result, len(result), nil
}

func (m *mockRepository) UpdateExpense(_ context.Context, e *Expense) error {
	if _, ok := m.expenses[e.ID]; !ok {
		return ErrExpenseNotFound
	}
	stored := *e
	m.expenses[e.ID] = &stored
	return nil
}

func (m *mockRepository) DeleteExpense(_ context.Context, id uuid.UUID) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, "FAC", zerolog.Nop())
}

func seedPatient(repo *mockRepository) uuid.UUID {
	id := uuid.New()
	repo.patients[id] = true
	return id
}

func TestCreateInvoiceAssignsSequentialNumbers(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	date := mustTime(t, "2025-03-10T10:00:00Z")

	first, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Date:      date,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.InvoiceNumber != "FAC-2025-00001" {
		t.Errorf("first number = %q, want FAC-2025-00001", first.InvoiceNumber)
	}

	second, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Date:      date,
		Items:     []InvoiceItem{{Description: "Follow-up", Quantity: 1, UnitPrice: d("60")}},
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.InvoiceNumber != "FAC-2025-00002" {
		t.Errorf("second number = %q, want FAC-2025-00002", second.InvoiceNumber)
	}
}

func TestCreateInvoiceCountersIsolatedByYear(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv2025, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Date:      mustTime(t, "2025-12-31T23:00:00Z"),
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	inv2026, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Date:      mustTime(t, "2026-01-01T09:00:00Z"),
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if inv2025.InvoiceNumber != "FAC-2025-00001" {
		t.Errorf("2025 number = %q", inv2025.InvoiceNumber)
	}
	if inv2026.InvoiceNumber != "FAC-2026-00001" {
		t.Errorf("2026 number = %q, want a fresh counter", inv2026.InvoiceNumber)
	}
}

func TestCreateInvoiceComputesTotalsAndStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	inv, err := svc.CreateInvoice(context.Background(), &Invoice{
		PatientID: patientID,
		Discount:  d("50"),
		Items: []InvoiceItem{
			{Description: "Consultation", Quantity: 2, UnitPrice: d("100")},
			{Description: "X-ray", Quantity: 1, UnitPrice: d("150")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !inv.Subtotal.Equal(d("350")) {
		t.Errorf("subtotal = %s, want 350", inv.Subtotal)
	}
	if !inv.Total.Equal(d("300")) {
		t.Errorf("total = %s, want 300", inv.Total)
	}
	if inv.PaymentStatus != PaymentPending {
		t.Errorf("status = %s, want PENDING", inv.PaymentStatus)
	}
}

func TestCreateInvoiceRejectsEmpty(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	_, err := svc.CreateInvoice(context.Background(), &Invoice{PatientID: patientID})
	if !errors.Is(err, ErrNoLineItems) {
		t.Errorf("got %v, want ErrNoLineItems", err)
	}
}

func TestCreateInvoiceUnknownPatient(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.CreateInvoice(context.Background(), &Invoice{
		PatientID: uuid.New(),
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("got %v, want ErrPatientNotFound", err)
	}
}

func TestMarkPaid(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("200")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	partial := d("80")
	got, err := svc.MarkPaid(ctx, inv.ID, &partial, MethodCash)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != PaymentPartial {
		t.Errorf("after partial payment status = %s, want PARTIAL", got.PaymentStatus)
	}

	// Last write wins: the amount is absolute, not additive.
	full := d("200")
	got, err = svc.MarkPaid(ctx, inv.ID, &full, MethodCard)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != PaymentPaid {
		t.Errorf("after full payment status = %s, want PAID", got.PaymentStatus)
	}
	if !got.AmountPaid.Equal(d("200")) {
		t.Errorf("amount paid = %s, want 200", got.AmountPaid)
	}
	if got.PaymentDate == nil {
		t.Error("payment date not set")
	}
}

func TestMarkPaidDefaultsToTotal(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("150")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.MarkPaid(ctx, inv.ID, nil, MethodBankTransfer)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != PaymentPaid {
		t.Errorf("status = %s, want PAID", got.PaymentStatus)
	}
	if !got.AmountPaid.Equal(d("150")) {
		t.Errorf("amount paid = %s, want the total", got.AmountPaid)
	}
}

func TestMarkPaidOnCancelledRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CancelInvoice(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}

	_, err = svc.MarkPaid(ctx, inv.ID, nil, MethodCash)
	if !errors.Is(err, ErrInvoiceCancelled) {
		t.Errorf("got %v, want ErrInvoiceCancelled", err)
	}
}

func TestCreateInvoiceZeroTotalIsPaid(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	// A fully discounted invoice has nothing outstanding.
	inv, err := svc.CreateInvoice(context.Background(), &Invoice{
		PatientID: patientID,
		Discount:  d("100"),
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Total.Equal(d("0")) {
		t.Errorf("total = %s, want 0", inv.Total)
	}
	if inv.PaymentStatus != PaymentPaid {
		t.Errorf("status = %s, want PAID", inv.PaymentStatus)
	}
	if inv.PaymentDate == nil {
		t.Error("payment date not set")
	}
}

func TestCreateInvoiceDiscountExceedsSubtotal(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)

	_, err := svc.CreateInvoice(context.Background(), &Invoice{
		PatientID: patientID,
		Discount:  d("150"),
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if !errors.Is(err, ErrInvalidInvoice) {
		t.Errorf("got %v, want ErrInvalidInvoice", err)
	}
}

func TestUpdateInvoiceDiscountExceedsSubtotal(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	discount := d("100.01")
	_, err = svc.UpdateInvoice(ctx, inv.ID, InvoiceUpdate{Discount: &discount})
	if !errors.Is(err, ErrInvalidInvoice) {
		t.Errorf("got %v, want ErrInvalidInvoice", err)
	}

	got, err := svc.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Total.Equal(d("100")) {
		t.Errorf("total changed to %s after rejected update", got.Total)
	}
}

func TestUpdateInvoiceRecomputesTotal(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	patientID := seedPatient(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID: patientID,
		Items:     []InvoiceItem{{Description: "Consultation", Quantity: 1, UnitPrice: d("100")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	discount := d("25")
	got, err := svc.UpdateInvoice(ctx, inv.ID, InvoiceUpdate{Discount: &discount})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Total.Equal(d("75")) {
		t.Errorf("total = %s, want 75", got.Total)
	}
}

func TestDeleteServiceDeactivates(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, &BillableService{Name: "Consultation", Price: d("100")})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteService(ctx, created.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetService(ctx, created.ID)
	if err != nil {
		t.Fatalf("service should still be readable after delete: %v", err)
	}
	if got.Active {
		t.Error("service still active after delete")
	}

	active, _, err := svc.ListServices(ctx, ServiceListFilter{ActiveOnly: true}, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("active list has %d entries, want 0", len(active))
	}
}

func TestExpenseValidation(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, &Expense{Category: "GADGETS", Description: "toys", Amount: d("10")})
	if !errors.Is(err, ErrInvalidExpense) {
		t.Errorf("unknown category: got %v, want ErrInvalidExpense", err)
	}

	created, err := svc.CreateExpense(ctx, &Expense{Category: CategorySupplies, Description: "gloves", Amount: d("45.90")})
	if err != nil {
		t.Fatal(err)
	}
	if created.Date.IsZero() {
		t.Error("expense date not defaulted")
	}
}
