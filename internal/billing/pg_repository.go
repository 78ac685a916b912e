package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

const invoiceColumns = `
	id, invoice_number, patient_id, consultation_id, created_by, date,
	due_date, subtotal, discount, tax, total, amount_paid, payment_status,
	payment_method, payment_date, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.PatientID,
		&inv.ConsultationID,
		&inv.CreatedBy,
		&inv.Date,
		&inv.DueDate,
		&inv.Subtotal,
		&inv.Discount,
		&inv.Tax,
		&inv.Total,
		&inv.AmountPaid,
		&inv.PaymentStatus,
		&inv.PaymentMethod,
		&inv.PaymentDate,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PgRepository) CreateInvoice(ctx context.Context, inv *Invoice, prefix string) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin invoice: %w", err)
	}
	defer tx.Rollback(ctx)

	// Bump the per prefix/year counter. The upsert takes a row lock, so two
	// transactions for the same prefix/year cannot read the same number.
	year := inv.Date.Year()
	var seq int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (prefix, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_number = invoice_counters.last_number + 1
		RETURNING last_number
	`, prefix, year).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next invoice number: %w", err)
	}
	inv.InvoiceNumber = FormatInvoiceNumber(prefix, year, seq)

	row := tx.QueryRow(ctx, `
		INSERT INTO invoices (id, invoice_number, patient_id, consultation_id,
			created_by, date, due_date, subtotal, discount, tax, total,
			amount_paid, payment_status, payment_method, payment_date, notes,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, now(), now())
		RETURNING created_at, updated_at
	`,
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.ConsultationID,
		inv.CreatedBy, inv.Date, inv.DueDate, inv.Subtotal, inv.Discount,
		inv.Tax, inv.Total, inv.AmountPaid, inv.PaymentStatus,
		inv.PaymentMethod, inv.PaymentDate, inv.Notes,
	)
	if err := row.Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.InvoiceID = inv.ID

		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, service_id, description,
				quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.InvoiceID, item.ServiceID, item.Description,
			item.Quantity, item.UnitPrice, item.Total)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit invoice: %w", err)
	}
	return nil
}

func (r *PgRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT`+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, service_id, description, quantity, unit_price, total
		FROM invoice_items
		WHERE invoice_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ServiceID,
			&item.Description, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return inv, nil
}

func (r *PgRepository) ListInvoices(ctx context.Context, filter InvoiceListFilter, limit, offset int) ([]Invoice, int, error) {
	where := "TRUE"
	args := []any{}

	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where += fmt.Sprintf(` AND payment_status = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT`+invoiceColumns+`
		FROM invoices
		WHERE %s
		ORDER BY date DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET due_date = $2,
		    discount = $3,
		    tax = $4,
		    total = $5,
		    amount_paid = $6,
		    payment_status = $7,
		    payment_method = $8,
		    payment_date = $9,
		    notes = $10,
		    updated_at = now()
		WHERE id = $1
	`,
		inv.ID, inv.DueDate, inv.Discount, inv.Tax, inv.Total, inv.AmountPaid,
		inv.PaymentStatus, inv.PaymentMethod, inv.PaymentDate, inv.Notes,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *PgRepository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *PgRepository) CreateService(ctx context.Context, svc *BillableService) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, svc.ID, svc.Name, svc.Description, svc.Price, svc.Active)
	if err := row.Scan(&svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *PgRepository) GetService(ctx context.Context, id uuid.UUID) (*BillableService, error) {
	var svc BillableService
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, price, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.Active,
		&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &svc, nil
}

func (r *PgRepository) ListServices(ctx context.Context, filter ServiceListFilter, limit, offset int) ([]BillableService, int, error) {
	where := "TRUE"
	if filter.ActiveOnly {
		where = "active"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM services WHERE `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, name, description, price, active, created_at, updated_at
		FROM services
		WHERE %s
		ORDER BY name
		LIMIT $1 OFFSET $2`, where), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var result []BillableService
	for rows.Next() {
		var svc BillableService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price,
			&svc.Active, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) UpdateService(ctx context.Context, svc *BillableService) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    price = $4,
		    active = $5,
		    updated_at = now()
		WHERE id = $1
	`, svc.ID, svc.Name, svc.Description, svc.Price, svc.Active)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) DeactivateService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services SET active = FALSE, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) CreateExpense(ctx context.Context, e *Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, date, category, description, amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, e.ID, e.Date, e.Category, e.Description, e.Amount, e.Notes)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *PgRepository) GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `
		SELECT id, date, category, description, amount, notes, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Date, &e.Category, &e.Description, &e.Amount,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *PgRepository) ListExpenses(ctx context.Context, filter ExpenseListFilter, limit, offset int) ([]Expense, int, error) {
	where := "TRUE"
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, date, category, description, amount, notes, created_at, updated_at
		FROM expenses
		WHERE %s
		ORDER BY date DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var result []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Description,
			&e.Amount, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) UpdateExpense(ctx context.Context, e *Expense) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses
		SET date = $2,
		    category = $3,
		    description = $4,
		    amount = $5,
		    notes = $6,
		    updated_at = now()
		WHERE id = $1
	`, e.ID, e.Date, e.Category, e.Description, e.Amount, e.Notes)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *PgRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
