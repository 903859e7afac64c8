package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/tenantdesk/internal/adapter/otel"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

type mockInvoices struct {
	invoices []domain.Invoice
	err      error
}

func (m *mockInvoices) Append(_ context.Context, inv domain.Invoice) error {
	if m.err != nil {
		return m.err
	}
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *mockInvoices) GetByID(_ context.Context, tenantID, id string) (domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.ID == id {
			return inv, nil
		}
	}
	return domain.Invoice{}, domain.ErrInvoiceNotFound
}

func (m *mockInvoices) List(_ context.Context, tenantID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvoices) SetStatus(_ context.Context, _, _ string, _ domain.InvoiceStatus) error {
	return m.err
}

func TestTracingInvoices_AppendRecordsAmount(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingInvoiceRepository(&mockInvoices{})

	inv := domain.Invoice{
		ID:       "inv_1a2b3c4d",
		TenantID: "t-1",
		Plan:     domain.PlanCampusStarter,
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString("682.5"),
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
		t.Errorf("span name = %q", spans[0].Name)
	}
	assertAttribute(t, spans[0], "invoice.amount", "682.50")
	assertAttribute(t, spans[0], "invoice.type", "Renewal")
}

func TestTracingInvoices_AppendFailure(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingInvoiceRepository(&mockInvoices{err: errors.New("disk full")})

	if err := repo.Append(context.Background(), domain.Invoice{ID: "inv_x", TenantID: "t-1"}); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code != codes.Error {
		t.Fatalf("spans = %+v, want one failed span", spans)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingInvoices_GetByIDMiss(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingInvoiceRepository(&mockInvoices{})

	_, err := repo.GetByID(context.Background(), "t-1", "inv_404")
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("a lookup miss should not mark the span as failed")
	}
	assertAttribute(t, spans[0], "result.found", "false")
}

func TestTracingInvoices_ListCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockInvoices{invoices: []domain.Invoice{
		{ID: "inv_a", TenantID: "t-1"},
		{ID: "inv_b", TenantID: "t-2"},
		{ID: "inv_c", TenantID: "t-1"},
	}}
	repo := adapter.NewTracingInvoiceRepository(inner)

	list, err := repo.List(context.Background(), "t-1")
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %d, %v", len(list), err)
	}
	assertAttribute(t, exporter.GetSpans()[0], "result.count", "2")
}
