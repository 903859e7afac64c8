package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// Ledger is the append-only invoice history of every tenant.
type Ledger struct {
	invoices  domain.InvoiceRepository
	publisher domain.EventPublisher
	now       func() time.Time
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(invoices domain.InvoiceRepository, publisher domain.EventPublisher, opts ...Option) *Ledger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ledger{invoices: invoices, publisher: publisher, now: o.now}
}

// Record appends a pending invoice for tenant. The amount is frozen at this
// point. Record never changes the tenant itself. notify asks downstream
// consumers to email the invoice.
func (l *Ledger) Record(ctx context.Context, tenant domain.Tenant, amount decimal.Decimal, typ domain.InvoiceType, notify bool) (domain.Invoice, error) {
	id, err := generateInvoiceID()
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("generating invoice id: %w", err)
	}

	invoice := domain.NewInvoice(id, tenant, amount, typ, l.now())
	if err := l.invoices.Append(ctx, invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("appending invoice: %w", err)
	}

	l.publish(ctx, domain.Event{Kind: domain.EventInvoiceCreated, Tenant: tenant, InvoiceID: invoice.ID, Notify: notify})
	return invoice, nil
}

// Seed appends historical invoices, given newest first, as-is.
func (l *Ledger) Seed(ctx context.Context, invoices ...domain.Invoice) error {
	for i := len(invoices) - 1; i >= 0; i-- {
		if err := l.invoices.Append(ctx, invoices[i]); err != nil {
			return fmt.Errorf("seeding invoice %s: %w", invoices[i].ID, err)
		}
	}
	return nil
}

// List returns the tenant's invoices, newest first.
func (l *Ledger) List(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	return l.invoices.List(ctx, tenantID)
}

// Get returns a single invoice.
func (l *Ledger) Get(ctx context.Context, tenantID, invoiceID string) (domain.Invoice, error) {
	return l.invoices.GetByID(ctx, tenantID, invoiceID)
}

// MarkPaid records payment of a pending invoice. Paying an already paid
// invoice is a no-op. Unknown ids fail with domain.ErrInvoiceNotFound.
func (l *Ledger) MarkPaid(ctx context.Context, tenant domain.Tenant, invoiceID string) (domain.Invoice, error) {
	invoice, err := l.invoices.GetByID(ctx, tenant.ID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	switch invoice.Status {
	case domain.InvoicePaid:
		return invoice, nil
	case domain.InvoiceFailed:
		return domain.Invoice{}, &domain.ValidationError{Field: "invoice", Message: "failed invoices cannot be marked paid"}
	case domain.InvoicePending:
	}

	if err := l.invoices.SetStatus(ctx, tenant.ID, invoiceID, domain.InvoicePaid); err != nil {
		return domain.Invoice{}, fmt.Errorf("marking invoice paid: %w", err)
	}
	invoice.Status = domain.InvoicePaid

	l.publish(ctx, domain.Event{Kind: domain.EventInvoicePaid, Tenant: tenant, InvoiceID: invoice.ID})
	return invoice, nil
}

func (l *Ledger) publish(ctx context.Context, event domain.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publishing event",
			"kind", event.Kind,
			"invoice_id", event.InvoiceID,
			"error", err,
		)
	}
}
