package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing
// and counts published events by kind.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	// A failing instrument creation yields a no-op counter.
	counter, _ := otel.Meter(tracerName).Int64Counter("tenantdesk.events.published",
		metric.WithDescription("Domain events handed to the publisher"),
	)
	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		published: counter,
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event) error {
	attrs := []attribute.KeyValue{
		attribute.String("event.kind", event.Kind),
		attribute.String("tenant.id", event.Tenant.ID),
		attribute.String("tenant.slug", event.Tenant.Slug),
	}
	if event.Action != "" {
		attrs = append(attrs, attribute.String("event.action", string(event.Action)))
	}
	if event.InvoiceID != "" {
		attrs = append(attrs, attribute.String("invoice.id", event.InvoiceID))
	}

	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish", trace.WithAttributes(attrs...))
	defer span.End()

	err := p.next.Publish(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if p.published != nil {
		p.published.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event.kind", event.Kind),
			attribute.Bool("error", err != nil),
		))
	}
	return err
}
