package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		paid  string
		total string
		want  PaymentStatus
	}{
		{"nothing paid", "0", "100", PaymentPending},
		{"partial", "40", "100", PaymentPartial},
		{"exactly total", "100", "100", PaymentPaid},
		{"overpaid", "120", "100", PaymentPaid},
		{"cent short", "99.99", "100", PaymentPartial},
		{"zero total zero paid", "0", "0", PaymentPaid},
		{"zero total with payment", "10", "0", PaymentPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DerivePaymentStatus(d(tc.paid), d(tc.total))
			if got != tc.want {
				t.Errorf("DerivePaymentStatus(%s, %s) = %s, want %s", tc.paid, tc.total, got, tc.want)
			}
		})
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	got := FormatInvoiceNumber("FAC", 2025, 1)
	if got != "FAC-2025-00001" {
		t.Errorf("got %q, want FAC-2025-00001", got)
	}
	if !InvoiceNumberPattern.MatchString(got) {
		t.Errorf("%q does not match the invoice number pattern", got)
	}

	got = FormatInvoiceNumber("INV", 2026, 12345)
	if got != "INV-2026-12345" {
		t.Errorf("got %q, want INV-2026-12345", got)
	}
	if !InvoiceNumberPattern.MatchString(got) {
		t.Errorf("%q does not match the invoice number pattern", got)
	}
}

func TestComputeTotals(t *testing.T) {
	inv := &Invoice{
		Discount: d("50"),
		Tax:      d("0"),
		Items: []InvoiceItem{
			{Description: "Consultation", Quantity: 2, UnitPrice: d("100")},
			{Description: "X-ray", Quantity: 1, UnitPrice: d("150")},
		},
	}

	inv.ComputeTotals()

	if !inv.Subtotal.Equal(d("350")) {
		t.Errorf("subtotal = %s, want 350", inv.Subtotal)
	}
	if !inv.Total.Equal(d("300")) {
		t.Errorf("total = %s, want 300", inv.Total)
	}
	if !inv.Items[0].Total.Equal(d("200")) {
		t.Errorf("first line total = %s, want 200", inv.Items[0].Total)
	}
	if !inv.Items[1].Total.Equal(d("150")) {
		t.Errorf("second line total = %s, want 150", inv.Items[1].Total)
	}
}

func TestComputeTotalsWithTax(t *testing.T) {
	inv := &Invoice{
		Discount: d("10"),
		Tax:      d("19.50"),
		Items: []InvoiceItem{
			{Description: "Blood panel", Quantity: 3, UnitPrice: d("33.33")},
		},
	}

	inv.ComputeTotals()

	if !inv.Subtotal.Equal(d("99.99")) {
		t.Errorf("subtotal = %s, want 99.99", inv.Subtotal)
	}
	if !inv.Total.Equal(d("109.49")) {
		t.Errorf("total = %s, want 109.49", inv.Total)
	}
}
