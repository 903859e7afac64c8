package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/adapter/pdf"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

func TestRender_ProducesPDF(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Northfield University", "northfield")
	inv := domain.NewInvoice("inv_001", tenant, decimal.NewFromInt(1260), domain.InvoiceRenewal,
		time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC))

	out, err := pdf.NewInvoiceRenderer("Tenant Desk").Render(tenant, inv)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out[:min(len(out), 8)])
	}
}

func TestRender_RejectsForeignInvoice(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Northfield University", "northfield")
	other := domain.NewTenant("t-2", "Other", "other")
	inv := domain.NewInvoice("inv_001", other, decimal.NewFromInt(100), domain.InvoiceUpgrade, time.Now())

	if _, err := pdf.NewInvoiceRenderer("Tenant Desk").Render(tenant, inv); err == nil {
		t.Fatal("expected error for an invoice of another tenant")
	}
}
