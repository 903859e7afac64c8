package otel_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	adapter "github.com/neomorfeo/tenantdesk/internal/adapter/otel"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.Event) error {
	return fmt.Errorf("publish failed")
}

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	tenant := domain.NewTenant("t-1", "Acme", "acme")
	event := domain.Event{Kind: domain.EventTransitioned, Action: domain.ActionPause, Tenant: tenant}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.kind", "tenant.transitioned")
	assertAttribute(t, spans[0], "event.action", "pause")
	assertAttribute(t, spans[0], "tenant.id", "t-1")
	assertAttribute(t, spans[0], "tenant.slug", "acme")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_InvoiceAttribute(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&mockPublisher{})

	event := domain.Event{
		Kind:      domain.EventInvoiceCreated,
		Tenant:    domain.NewTenant("t-1", "Acme", "acme"),
		InvoiceID: "inv_0a1b2c3d",
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "invoice.id", "inv_0a1b2c3d")
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	event := domain.Event{Kind: domain.EventCreated, Tenant: domain.NewTenant("t-1", "Acme", "acme")}
	err := pub.Publish(context.Background(), event)
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestTracingPublisher_Publish_CountsEvents(t *testing.T) {
	setupTestTracer(t)
	reader := setupTestMeter(t)
	pub := adapter.NewTracingPublisher(&mockPublisher{})

	tenant := domain.NewTenant("t-1", "Acme", "acme")
	for range 3 {
		if err := pub.Publish(context.Background(), domain.Event{Kind: domain.EventCreated, Tenant: tenant}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tenantdesk.events.published" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 3 {
		t.Errorf("events counted = %d, want 3", total)
	}
}

// --- Invoice repository ---

type mockInvoiceRows struct {
	rows []domain.Invoice
}

func (m *mockInvoiceRows) Append(_ context.Context, inv domain.Invoice) error {
	m.rows = append(m.rows, inv)
	return nil
}

func (m *mockInvoiceRows) GetByID(_ context.Context, tenantID, id string) (domain.Invoice, error) {
	for _, inv := range m.rows {
		if inv.TenantID == tenantID && inv.ID == id {
			return inv, nil
		}
	}
	return domain.Invoice{}, domain.ErrInvoiceNotFound
}

func (m *mockInvoiceRows) List(_ context.Context, tenantID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.rows {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvoiceRows) SetStatus(_ context.Context, tenantID, id string, status domain.InvoiceStatus) error {
	for i, inv := range m.rows {
		if inv.TenantID == tenantID && inv.ID == id {
			m.rows[i].Status = status
			return nil
		}
	}
	return domain.ErrInvoiceNotFound
}

func TestTracingInvoiceRepository_Append_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingInvoiceRepository(&mockInvoiceRows{})

	inv := domain.Invoice{
		ID:       "inv_001",
		TenantID: "t-1",
		Amount:   decimal.NewFromInt(1260),
		Status:   domain.InvoicePending,
		Type:     domain.InvoiceRenewal,
	}
	if err := repo.Append(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "InvoiceRepository.Append" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "InvoiceRepository.Append")
	}
	assertAttribute(t, spans[0], "invoice.id", "inv_001")
	assertAttribute(t, spans[0], "invoice.amount", "1260.00")
	assertAttribute(t, spans[0], "invoice.type", "Renewal")
}

func TestTracingInvoiceRepository_SetStatus_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingInvoiceRepository(&mockInvoiceRows{})

	err := repo.SetStatus(context.Background(), "t-1", "inv_missing", domain.InvoicePaid)
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestTracingInvoiceRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockInvoiceRows{rows: []domain.Invoice{
		{ID: "inv_001", TenantID: "t-1"},
		{ID: "inv_002", TenantID: "t-1"},
		{ID: "inv_003", TenantID: "t-2"},
	}}
	repo := adapter.NewTracingInvoiceRepository(inner)

	invoices, err := repo.List(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invoices) != 2 {
		t.Errorf("got %d invoices, want 2", len(invoices))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "result.count", "2")
}
