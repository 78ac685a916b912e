package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo   Repository
	prefix string
	log    zerolog.Logger
}

func NewService(repo Repository, invoicePrefix string, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		prefix: invoicePrefix,
		log:    log,
	}
}

// CreateInvoice computes totals, derives the initial payment status and
// persists the invoice under the next number for the configured prefix.
func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if inv.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient is required", ErrInvalidInvoice)
	}
	if len(inv.Items) == 0 {
		return nil, ErrNoLineItems
	}
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.Description == "" {
			return nil, fmt.Errorf("%w: item description is required", ErrInvalidInvoice)
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: negative unit price", ErrInvalidInvoice)
		}
	}
	if inv.PaymentMethod != nil && !ValidPaymentMethod(*inv.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInvoice, *inv.PaymentMethod)
	}
	if inv.Date.IsZero() {
		inv.Date = time.Now()
	}
	if inv.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount paid", ErrInvalidInvoice)
	}
	if inv.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: negative discount", ErrInvalidInvoice)
	}
	if inv.Tax.IsNegative() {
		return nil, fmt.Errorf("%w: negative tax", ErrInvalidInvoice)
	}

	inv.ComputeTotals()
	if inv.Discount.GreaterThan(inv.Subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", ErrInvalidInvoice)
	}
	inv.PaymentStatus = DerivePaymentStatus(inv.AmountPaid, inv.Total)

	if inv.PaymentStatus == PaymentPaid && inv.PaymentDate == nil {
		now := time.Now()
		inv.PaymentDate = &now
	}

	exists, err := s.repo.PatientExists(ctx, inv.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	if err := s.repo.CreateInvoice(ctx, inv, s.prefix); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Stringer("patient_id", inv.PatientID).
		Str("total", inv.Total.StringFixed(2)).
		Msg("invoice created")

	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, filter InvoiceListFilter, limit, offset int) ([]Invoice, int, error) {
	if filter.PaymentStatus != "" && !ValidPaymentStatus(filter.PaymentStatus) {
		return nil, 0, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInvoice, filter.PaymentStatus)
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListInvoices(ctx, filter, limit, offset)
}

// InvoiceUpdate carries the editable fields. Line items are immutable once
// the invoice exists; adjustments go through discount and tax.
type InvoiceUpdate struct {
	DueDate  *time.Time
	Discount *decimal.Decimal
	Tax      *decimal.Decimal
	Notes    *string
}

func (s *Service) UpdateInvoice(ctx context.Context, id uuid.UUID, upd InvoiceUpdate) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus == PaymentCancelled {
		return nil, ErrInvoiceCancelled
	}

	if upd.DueDate != nil {
		inv.DueDate = upd.DueDate
	}
	if upd.Discount != nil {
		if upd.Discount.IsNegative() {
			return nil, fmt.Errorf("%w: negative discount", ErrInvalidInvoice)
		}
		inv.Discount = *upd.Discount
	}
	if upd.Tax != nil {
		if upd.Tax.IsNegative() {
			return nil, fmt.Errorf("%w: negative tax", ErrInvalidInvoice)
		}
		inv.Tax = *upd.Tax
	}
	if upd.Notes != nil {
		inv.Notes = upd.Notes
	}

	inv.ComputeTotals()
	if inv.Discount.GreaterThan(inv.Subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", ErrInvalidInvoice)
	}
	inv.PaymentStatus = DerivePaymentStatus(inv.AmountPaid, inv.Total)

	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkPaid records a payment as an absolute amount. A nil amount means the
// full total. Repeating the call overwrites the previous amount, so the last
// write wins.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, amount *decimal.Decimal, method PaymentMethod) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus == PaymentCancelled {
		return nil, ErrInvoiceCancelled
	}
	if method != "" && !ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInvoice, method)
	}

	paid := inv.Total
	if amount != nil {
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: negative amount", ErrInvalidInvoice)
		}
		paid = *amount
	}

	inv.AmountPaid = paid
	inv.PaymentStatus = DerivePaymentStatus(paid, inv.Total)
	if method != "" {
		inv.PaymentMethod = &method
	}
	now := time.Now()
	inv.PaymentDate = &now

	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelInvoice sets the status to CANCELLED. Cancellation is terminal for
// payment derivation but the record stays queryable.
func (s *Service) CancelInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus == PaymentCancelled {
		return inv, nil
	}

	inv.PaymentStatus = PaymentCancelled
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteInvoice(ctx, id)
}

func (s *Service) CreateService(ctx context.Context, svc *BillableService) (*BillableService, error) {
	if err := validateService(svc); err != nil {
		return nil, err
	}
	svc.Active = true
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*BillableService, error) {
	return s.repo.GetService(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, filter ServiceListFilter, limit, offset int) ([]BillableService, int, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListServices(ctx, filter, limit, offset)
}

func (s *Service) UpdateService(ctx context.Context, svc *BillableService) (*BillableService, error) {
	if err := validateService(svc); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetService(ctx, svc.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// DeleteService deactivates rather than removes, invoice items may still
// reference the row.
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateService(ctx, id)
}

func (s *Service) CreateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	if err := validateExpense(e); err != nil {
		return nil, err
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) ListExpenses(ctx context.Context, filter ExpenseListFilter, limit, offset int) ([]Expense, int, error) {
	if filter.Category != "" && !ValidExpenseCategory(filter.Category) {
		return nil, 0, fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, filter.Category)
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListExpenses(ctx, filter, limit, offset)
}

func (s *Service) UpdateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	if err := validateExpense(e); err != nil {
		return nil, err
	}
	current, err := s.repo.GetExpense(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if e.Date.IsZero() {
		e.Date = current.Date
	}
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExpense(ctx, id)
}

func validateService(svc *BillableService) error {
	if svc.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if svc.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidService)
	}
	return nil
}

func validateExpense(e *Expense) error {
	if e.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}
	if !ValidExpenseCategory(e.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, e.Category)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidExpense)
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
