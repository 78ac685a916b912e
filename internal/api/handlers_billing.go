package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medikab/clinic-api/internal/billing"
)

func createInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inv billing.Invoice
		if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if claims := ClaimsFrom(r.Context()); claims != nil {
			creator := claims.UserID
			inv.CreatedBy = &creator
		}

		created, err := svc.CreateInvoice(r.Context(), &inv)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		inv, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, inv)
	}
}

func listInvoicesHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 20)

		filter := billing.InvoiceListFilter{
			PaymentStatus: billing.PaymentStatus(r.URL.Query().Get("payment_status")),
		}
		if raw := r.URL.Query().Get("patient_id"); raw != "" {
			patientID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			filter.PatientID = &patientID
		}

		items, total, err := svc.ListInvoices(r.Context(), filter, limit, offset)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		if items == nil {
			items = []billing.Invoice{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

type invoiceUpdateRequest struct {
	DueDate  *time.Time       `json:"due_date"`
	Discount *decimal.Decimal `json:"discount"`
	Tax      *decimal.Decimal `json:"tax"`
	Notes    *string          `json:"notes"`
}

func updateInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req invoiceUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.UpdateInvoice(r.Context(), id, billing.InvoiceUpdate{
			DueDate:  req.DueDate,
			Discount: req.Discount,
			Tax:      req.Tax,
			Notes:    req.Notes,
		})
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

type paymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Method string           `json:"method"`
}

func markInvoicePaidHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.MarkPaid(r.Context(), id, req.Amount, billing.PaymentMethod(req.Method))
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func cancelInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		cancelled, err := svc.CancelInvoice(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, cancelled)
	}
}

func deleteInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteInvoice(r.Context(), id); err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func createServiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry billing.BillableService
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		created, err := svc.CreateService(r.Context(), &entry)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getServiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		entry, err := svc.GetService(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, entry)
	}
}

func listServicesHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 50)
		filter := billing.ServiceListFilter{
			ActiveOnly: r.URL.Query().Get("active") == "true",
		}

		items, total, err := svc.ListServices(r.Context(), filter, limit, offset)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		if items == nil {
			items = []billing.BillableService{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

func updateServiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var entry billing.BillableService
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		entry.ID = id

		updated, err := svc.UpdateService(r.Context(), &entry)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteServiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteService(r.Context(), id); err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deactivated": id.String()})
	}
}

func createExpenseHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e billing.Expense
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		created, err := svc.CreateExpense(r.Context(), &e)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func getExpenseHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		e, err := svc.GetExpense(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, e)
	}
}

func listExpensesHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := pageParams(r, 20)

		filter := billing.ExpenseListFilter{
			Category: billing.ExpenseCategory(r.URL.Query().Get("category")),
		}
		for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
			if raw := r.URL.Query().Get(key); raw != "" {
				ts, err := time.Parse("2006-01-02", raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be YYYY-MM-DD")
					return
				}
				*dst = &ts
			}
		}

		items, total, err := svc.ListExpenses(r.Context(), filter, limit, offset)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		if items == nil {
			items = []billing.Expense{}
		}
		writeList(w, items, NewPagination(page, limit, total))
	}
}

func updateExpenseHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var e billing.Expense
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		e.ID = id

		updated, err := svc.UpdateExpense(r.Context(), &e)
		if err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteExpenseHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteExpense(r.Context(), id); err != nil {
			handleBillingError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
	}
}

func handleBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, billing.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, billing.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "expense_not_found", err.Error())
	case errors.Is(err, billing.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, billing.ErrInvoiceCancelled):
		writeError(w, http.StatusConflict, "invoice_cancelled", err.Error())
	case errors.Is(err, billing.ErrNoLineItems):
		writeError(w, http.StatusBadRequest, "no_line_items", err.Error())
	case errors.Is(err, billing.ErrInvalidInvoice),
		errors.Is(err, billing.ErrInvalidService),
		errors.Is(err, billing.ErrInvalidExpense):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
