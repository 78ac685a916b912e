package billing

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheck        PaymentMethod = "CHECK"
	MethodOther        PaymentMethod = "OTHER"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodCheck, MethodOther:
		return true
	}
	return false
}

type ExpenseCategory string

const (
	CategoryRent        ExpenseCategory = "RENT"
	CategorySalary      ExpenseCategory = "SALARY"
	CategorySupplies    ExpenseCategory = "SUPPLIES"
	CategoryUtilities   ExpenseCategory = "UTILITIES"
	CategoryEquipment   ExpenseCategory = "EQUIPMENT"
	CategoryMaintenance ExpenseCategory = "MAINTENANCE"
	CategoryInsurance   ExpenseCategory = "INSURANCE"
	CategoryOther       ExpenseCategory = "OTHER"
)

func ValidExpenseCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryRent, CategorySalary, CategorySupplies, CategoryUtilities,
		CategoryEquipment, CategoryMaintenance, CategoryInsurance, CategoryOther:
		return true
	}
	return false
}

// BillableService is a catalog entry priced per unit. Deleting one only
// deactivates it because invoice items keep referencing it.
type BillableService struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type InvoiceItem struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	ServiceID   *uuid.UUID      `json:"service_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type Invoice struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	PatientID      uuid.UUID       `json:"patient_id"`
	ConsultationID *uuid.UUID      `json:"consultation_id,omitempty"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	Date           time.Time       `json:"date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaymentMethod  *PaymentMethod  `json:"payment_method,omitempty"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items []InvoiceItem `json:"items,omitempty"`
}

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	Category    ExpenseCategory `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceNumberPattern matches assigned invoice numbers, e.g. FAC-2025-00042.
var InvoiceNumberPattern = regexp.MustCompile(`^[A-Z]+-\d{4}-\d{5}$`)

func FormatInvoiceNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, seq)
}

// DerivePaymentStatus maps paid/total onto the payment status. A zero-total
// invoice with nothing outstanding is PAID. Cancellation is an explicit
// operation and never derived here.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.GreaterThan(decimal.Zero):
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// ComputeTotals fills per-line totals, the subtotal and the grand total in
// place. Money stays at two decimal places.
func (inv *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(item.Total)
	}
	inv.Subtotal = subtotal.Round(2)
	inv.Total = inv.Subtotal.Sub(inv.Discount).Add(inv.Tax).Round(2)
}

// InvoiceListFilter narrows invoice listings.
type InvoiceListFilter struct {
	PatientID     *uuid.UUID
	PaymentStatus PaymentStatus
}

// ExpenseListFilter narrows expense listings.
type ExpenseListFilter struct {
	Category ExpenseCategory
	From     *time.Time
	To       *time.Time
}

// ServiceListFilter narrows catalog listings.
type ServiceListFilter struct {
	ActiveOnly bool
}
