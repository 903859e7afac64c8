package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

func TestLedger_Record(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)

	inv, err := h.ledger.Record(context.Background(), tenant, decimal.RequireFromString("1260"), domain.InvoiceRenewal, true)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if !strings.HasPrefix(inv.ID, "inv_") || len(inv.ID) != 12 {
		t.Errorf("ID = %q, want inv_ plus 8 characters", inv.ID)
	}
	if inv.Status != domain.InvoicePending {
		t.Errorf("Status = %q, want Pending", inv.Status)
	}
	if inv.Plan != domain.PlanCampusStarter || inv.TenantID != tenant.ID {
		t.Errorf("invoice = %+v", inv)
	}
	if !inv.Date.Equal(fixedNow) {
		t.Errorf("Date = %v, want %v", inv.Date, fixedNow)
	}

	if len(h.pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.pub.events))
	}
	e := h.pub.events[0]
	if e.Kind != domain.EventInvoiceCreated || e.InvoiceID != inv.ID || !e.Notify {
		t.Errorf("event = %+v", e)
	}
}

func TestLedger_AmountIsFrozen(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	inv, err := h.ledger.Record(ctx, tenant, decimal.NewFromInt(1200), domain.InvoiceRenewal, false)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	limits := domain.ResourceLimits{Students: 2000, Teachers: 20, Admins: 2}
	if _, err := h.svc.Configure(ctx, tenant.ID, domain.PlanChange{Limits: &limits}); err != nil {
		t.Fatalf("configure: %v", err)
	}

	got, err := h.ledger.Get(ctx, tenant.ID, inv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Amount = %s, want 1200", got.Amount)
	}
}

func TestLedger_ListNewestFirst(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	seed := []domain.Invoice{
		{ID: "inv_002", TenantID: tenant.ID, Plan: domain.PlanCampusStarter, Date: fixedNow.AddDate(0, -6, 0), Amount: decimal.NewFromInt(1200), Status: domain.InvoicePaid, Type: domain.InvoiceRenewal},
		{ID: "inv_001", TenantID: tenant.ID, Plan: domain.PlanCampusStarter, Date: fixedNow.AddDate(-1, -6, 0), Amount: decimal.NewFromInt(1200), Status: domain.InvoicePaid, Type: domain.InvoiceCreation},
	}
	if err := h.ledger.Seed(ctx, seed...); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	recorded, err := h.ledger.Record(ctx, tenant, decimal.NewFromInt(1260), domain.InvoiceRenewal, false)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	list, err := h.ledger.List(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, inv := range list {
		ids = append(ids, inv.ID)
	}
	want := []string{recorded.ID, "inv_002", "inv_001"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestLedger_MarkPaid(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	inv, err := h.ledger.Record(ctx, tenant, decimal.NewFromInt(126), domain.InvoiceRenewal, false)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	h.pub.events = nil

	paid, err := h.ledger.MarkPaid(ctx, tenant, inv.ID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != domain.InvoicePaid {
		t.Errorf("Status = %q, want Paid", paid.Status)
	}
	if len(h.pub.events) != 1 || h.pub.events[0].Kind != domain.EventInvoicePaid {
		t.Errorf("events = %v", h.pub.kinds())
	}

	again, err := h.ledger.MarkPaid(ctx, tenant, inv.ID)
	if err != nil || again.Status != domain.InvoicePaid {
		t.Errorf("second MarkPaid = %q, %v", again.Status, err)
	}
	if len(h.pub.events) != 1 {
		t.Error("paying a paid invoice should not publish again")
	}
}

func TestLedger_MarkPaidErrors(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	other := h.withPlan(t, "globex", domain.PlanCampusStarter, false)
	ctx := context.Background()

	failed := domain.Invoice{
		ID: "inv_bad", TenantID: tenant.ID, Plan: domain.PlanCampusStarter,
		Date: fixedNow.Add(-time.Hour), Amount: decimal.NewFromInt(10),
		Status: domain.InvoiceFailed, Type: domain.InvoiceRenewal,
	}
	if err := h.ledger.Seed(ctx, failed); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	_, err := h.ledger.MarkPaid(ctx, tenant, "inv_bad")
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("failed invoice: err = %v, want ValidationError", err)
	}

	if _, err := h.ledger.MarkPaid(ctx, tenant, "inv_missing"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("unknown invoice: err = %v, want ErrInvoiceNotFound", err)
	}
	if _, err := h.ledger.MarkPaid(ctx, other, "inv_bad"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("foreign invoice: err = %v, want ErrInvoiceNotFound", err)
	}
}
