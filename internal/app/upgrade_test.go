package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

func TestUpgrade_FullFlow(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	s, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro)
	if err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if s.Stage != domain.StageCustomize {
		t.Errorf("Stage = %q, want customize", s.Stage)
	}

	if _, err := h.upgrades.SetAddOns(ctx, tenant.ID, map[string]int{"1": 2}); err != nil {
		t.Fatalf("SetAddOns: %v", err)
	}

	s, err = h.upgrades.Summarize(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Quote == nil || !s.Quote.Total.Equal(decimal.NewFromInt(1440)) {
		t.Fatalf("quote = %+v, want total 1440", s.Quote)
	}

	inv, err := h.upgrades.Commit(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if inv.Type != domain.InvoiceUpgrade || !inv.Amount.Equal(decimal.NewFromInt(1440)) {
		t.Errorf("invoice = %s %s", inv.Type, inv.Amount)
	}
	if inv.Plan != domain.PlanInstitutionPro {
		t.Errorf("invoice Plan = %q, want %q", inv.Plan, domain.PlanInstitutionPro)
	}

	got, _ := h.svc.GetByID(ctx, tenant.ID)
	if got.PlanGroup != domain.PlanInstitutionPro {
		t.Errorf("PlanGroup = %q", got.PlanGroup)
	}

	s, _ = h.upgrades.State(ctx, tenant.ID)
	if s.Stage != domain.StageConfirmed || s.Invoice == nil {
		t.Errorf("state = %+v", s)
	}
}

func TestUpgrade_Downgrade(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanEnterpriseElite, false)
	ctx := context.Background()

	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanCampusStarter); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if _, err := h.upgrades.Summarize(ctx, tenant.ID); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	inv, err := h.upgrades.Commit(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if inv.Type != domain.InvoiceDowngrade {
		t.Errorf("Type = %q, want Downgrade", inv.Type)
	}
	if !inv.Amount.IsZero() {
		t.Errorf("Amount = %s, want 0 after credit", inv.Amount)
	}
}

func TestUpgrade_EndsTrial(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, true)
	ctx := context.Background()

	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if _, err := h.upgrades.Summarize(ctx, tenant.ID); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if _, err := h.upgrades.Commit(ctx, tenant.ID); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, _ := h.svc.GetByID(ctx, tenant.ID)
	if got.IsTrial || got.TermEndsAt == nil {
		t.Errorf("IsTrial=%v TermEndsAt=%v, want a paid term", got.IsTrial, got.TermEndsAt)
	}
}

func TestUpgrade_RequiresPlan(t *testing.T) {
	h := newHarness()
	tenant := h.create(t, "acme")

	_, err := h.upgrades.ChoosePlan(context.Background(), tenant.ID, domain.PlanInstitutionPro)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestUpgrade_Validation(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	var valErr *domain.ValidationError
	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, "Platinum"); !errors.As(err, &valErr) {
		t.Errorf("unknown plan: err = %v", err)
	}
	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if _, err := h.upgrades.SetAddOns(ctx, tenant.ID, map[string]int{"42": 1}); !errors.As(err, &valErr) {
		t.Errorf("unknown add-on: err = %v", err)
	}
}

func TestUpgrade_SamePlanRejected(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanInstitutionPro, false)
	ctx := context.Background()

	_, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro)
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	s, _ := h.upgrades.State(ctx, tenant.ID)
	if s.Stage != domain.StageChoosePlan {
		t.Errorf("Stage = %q, want choose_plan", s.Stage)
	}
	if len(h.invoices.invoices) != 0 {
		t.Error("no invoice should be written")
	}
}

func TestUpgrade_CreditFollowsShortRenewal(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, true)
	ctx := context.Background()

	renewal := commitRenewal(t, h, tenant.ID, domain.RenewOneMonth, false)
	if !renewal.Amount.Equal(decimal.NewFromInt(126)) {
		t.Fatalf("renewal Amount = %s, want 126", renewal.Amount)
	}

	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	s, err := h.upgrades.Summarize(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	// Only the 120 paid for the month is credited.
	if !s.Quote.Credit.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Credit = %s, want 120", s.Quote.Credit)
	}
	if !s.Quote.Total.Equal(decimal.NewFromInt(2280)) {
		t.Errorf("Total = %s, want 2280", s.Quote.Total)
	}

	inv, err := h.upgrades.Commit(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, _ := h.svc.GetByID(ctx, tenant.ID)
	if !got.TermPrice.Equal(decimal.NewFromInt(2400)) {
		t.Errorf("TermPrice after upgrade = %s, want 2400", got.TermPrice)
	}
	if !inv.Amount.Equal(decimal.NewFromInt(2280)) {
		t.Errorf("invoice Amount = %s, want 2280", inv.Amount)
	}
}

func TestUpgrade_OutOfOrder(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	var stageErr *domain.StageError
	if _, err := h.upgrades.Summarize(ctx, tenant.ID); !errors.As(err, &stageErr) {
		t.Errorf("Summarize from choose_plan: err = %v", err)
	}
	if _, err := h.upgrades.Commit(ctx, tenant.ID); !errors.As(err, &stageErr) {
		t.Errorf("Commit from choose_plan: err = %v", err)
	}
	if len(h.invoices.invoices) != 0 {
		t.Error("no invoice should be written")
	}
}

func TestUpgrade_BackAndReset(t *testing.T) {
	h := newHarness()
	tenant := h.withPlan(t, "acme", domain.PlanCampusStarter, false)
	ctx := context.Background()

	if _, err := h.upgrades.ChoosePlan(ctx, tenant.ID, domain.PlanInstitutionPro); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if _, err := h.upgrades.Summarize(ctx, tenant.ID); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	s, err := h.upgrades.Back(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if s.Stage != domain.StageCustomize || s.Quote != nil {
		t.Errorf("after Back: stage=%q quote=%v", s.Stage, s.Quote)
	}

	s, err = h.upgrades.Reset(ctx, tenant.ID)
	if err != nil || s.Stage != domain.StageChoosePlan {
		t.Fatalf("Reset = %q, %v", s.Stage, err)
	}

	got, _ := h.svc.GetByID(ctx, tenant.ID)
	if got.PlanGroup != domain.PlanCampusStarter {
		t.Errorf("PlanGroup = %q, an abandoned upgrade must not change the plan", got.PlanGroup)
	}
}
