package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// Compile-time check: InvoiceRepository implements domain.InvoiceRepository.
var _ domain.InvoiceRepository = (*InvoiceRepository)(nil)

// InvoiceRepository implements domain.InvoiceRepository using SQLite.
// Rows are never deleted; insertion order defines "newest first".
type InvoiceRepository struct {
	db *sql.DB
}

func (r *InvoiceRepository) Append(ctx context.Context, inv domain.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, tenant_id, plan, issued_at, amount, status, type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TenantID, inv.Plan, inv.Date.UTC().Format(timeFormat),
		inv.Amount.StringFixed(2), string(inv.Status), string(inv.Type),
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, tenantID, id string) (domain.Invoice, error) {
	return scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, plan, issued_at, amount, status, type
		 FROM invoices WHERE tenant_id = ? AND id = ?`, tenantID, id,
	))
}

func (r *InvoiceRepository) List(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, plan, issued_at, amount, status, type
		 FROM invoices WHERE tenant_id = ? ORDER BY seq DESC`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

func (r *InvoiceRepository) SetStatus(ctx context.Context, tenantID, id string, status domain.InvoiceStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = ? WHERE tenant_id = ? AND id = ?`,
		string(status), tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}

	return nil
}

func scanInvoice(row scanner) (domain.Invoice, error) {
	var inv domain.Invoice
	var issuedAt, amount, status, typ string

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Plan, &issuedAt, &amount, &status, &typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invoice{}, domain.ErrInvoiceNotFound
		}
		return domain.Invoice{}, fmt.Errorf("scanning invoice: %w", err)
	}

	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("parsing invoice amount %q: %w", amount, err)
	}
	inv.Date, _ = time.Parse(timeFormat, issuedAt)
	inv.Status = domain.InvoiceStatus(status)
	inv.Type = domain.InvoiceType(typ)

	return inv, nil
}
