package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrInvoiceCancelled = errors.New("invoice is cancelled")
	ErrNoLineItems      = errors.New("invoice requires at least one line item")
	ErrInvalidInvoice   = errors.New("invalid invoice")
	ErrInvalidService   = errors.New("invalid service")
	ErrInvalidExpense   = errors.New("invalid expense")
)

// Repository contains all DB interactions needed by the billing service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)

	// CreateInvoice assigns the next number for (prefix, invoice year) and
	// inserts the invoice with its items in a single transaction. The counter
	// row lock serializes concurrent creations for the same prefix/year.
	CreateInvoice(ctx context.Context, inv *Invoice, prefix string) error

	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceListFilter, limit, offset int) ([]Invoice, int, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	DeleteInvoice(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, svc *BillableService) error
	GetService(ctx context.Context, id uuid.UUID) (*BillableService, error)
	ListServices(ctx context.Context, filter ServiceListFilter, limit, offset int) ([]BillableService, int, error)
	UpdateService(ctx context.Context, svc *BillableService) error
	DeactivateService(ctx context.Context, id uuid.UUID) error

	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseListFilter, limit, offset int) ([]Expense, int, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}
