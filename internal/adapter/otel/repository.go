package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

const tracerName = "github.com/neomorfeo/tenantdesk/internal/adapter/otel"

// endLookup closes a read span. A missing record is an ordinary answer for
// a lookup and is tagged rather than marked as a failure.
func endLookup(span trace.Span, err error) {
	if errors.Is(err, domain.ErrTenantNotFound) || errors.Is(err, domain.ErrInvoiceNotFound) {
		span.SetAttributes(attribute.Bool("result.found", false))
		span.End()
		return
	}
	end(span, err)
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func tenantAttrs(t domain.Tenant) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("tenant.id", t.ID),
		attribute.String("tenant.status", string(t.Status)),
		attribute.Bool("tenant.trial", t.IsTrial),
		attribute.String("tenant.plan_group", t.PlanGroup),
	}
}

// TracingRepository wraps a domain.TenantRepository with OpenTelemetry tracing.
type TracingRepository struct {
	next   domain.TenantRepository
	tracer trace.Tracer
}

var _ domain.TenantRepository = (*TracingRepository)(nil)

func NewTracingRepository(next domain.TenantRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, tenant domain.Tenant) (err error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Create",
		trace.WithAttributes(attribute.String("tenant.slug", tenant.Slug)),
		trace.WithAttributes(tenantAttrs(tenant)...),
	)
	defer func() { end(span, err) }()

	return r.next.Create(ctx, tenant)
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (tenant domain.Tenant, err error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByID",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer func() { endLookup(span, err) }()

	return r.next.GetByID(ctx, id)
}

func (r *TracingRepository) GetBySlug(ctx context.Context, slug string) (tenant domain.Tenant, err error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetBySlug",
		trace.WithAttributes(attribute.String("tenant.slug", slug)),
	)
	defer func() { endLookup(span, err) }()

	return r.next.GetBySlug(ctx, slug)
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) (tenants []domain.Tenant, err error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer func() { end(span, err) }()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	tenants, err = r.next.List(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenants)))
	}
	return tenants, err
}

// Update records the state being written so a trace shows every lifecycle
// move alongside the SQL it produced.
func (r *TracingRepository) Update(ctx context.Context, tenant domain.Tenant) (err error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Update",
		trace.WithAttributes(tenantAttrs(tenant)...),
	)
	defer func() { end(span, err) }()

	return r.next.Update(ctx, tenant)
}
