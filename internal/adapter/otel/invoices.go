package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// TracingInvoiceRepository wraps a domain.InvoiceRepository with OpenTelemetry tracing.
type TracingInvoiceRepository struct {
	next   domain.InvoiceRepository
	tracer trace.Tracer
}

var _ domain.InvoiceRepository = (*TracingInvoiceRepository)(nil)

func NewTracingInvoiceRepository(next domain.InvoiceRepository) *TracingInvoiceRepository {
	return &TracingInvoiceRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingInvoiceRepository) Append(ctx context.Context, inv domain.Invoice) (err error) {
	ctx, span := r.tracer.Start(ctx, "InvoiceRepository.Append",
		trace.WithAttributes(
			attribute.String("tenant.id", inv.TenantID),
			attribute.String("invoice.id", inv.ID),
			attribute.String("invoice.type", string(inv.Type)),
			attribute.String("invoice.amount", inv.Amount.StringFixed(2)),
		),
	)
	defer func() { end(span, err) }()

	return r.next.Append(ctx, inv)
}

func (r *TracingInvoiceRepository) GetByID(ctx context.Context, tenantID, id string) (inv domain.Invoice, err error) {
	ctx, span := r.tracer.Start(ctx, "InvoiceRepository.GetByID",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("invoice.id", id),
		),
	)
	defer func() { endLookup(span, err) }()

	return r.next.GetByID(ctx, tenantID, id)
}

func (r *TracingInvoiceRepository) List(ctx context.Context, tenantID string) (invoices []domain.Invoice, err error) {
	ctx, span := r.tracer.Start(ctx, "InvoiceRepository.List",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
	defer func() { end(span, err) }()

	invoices, err = r.next.List(ctx, tenantID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(invoices)))
	}
	return invoices, err
}

func (r *TracingInvoiceRepository) SetStatus(ctx context.Context, tenantID, id string, status domain.InvoiceStatus) (err error) {
	ctx, span := r.tracer.Start(ctx, "InvoiceRepository.SetStatus",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("invoice.id", id),
			attribute.String("invoice.status", string(status)),
		),
	)
	defer func() { end(span, err) }()

	return r.next.SetStatus(ctx, tenantID, id, status)
}
