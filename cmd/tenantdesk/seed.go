package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/app"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

const (
	demoTenantName = "Lady Doak College"
	demoTenantSlug = "lady-doak-college"
)

// seedDemo creates the demo tenant on a paid Campus Starter plan with its
// invoice history. Each step is skipped when already done, so a run that
// failed halfway is completed by the next one.
func seedDemo(ctx context.Context, tenants *app.TenantService, ledger *app.Ledger) error {
	tenant, err := tenants.Create(ctx, demoTenantName, demoTenantSlug)
	var conflict *domain.SlugConflictError
	if errors.As(err, &conflict) {
		tenant, err = tenants.GetBySlug(ctx, demoTenantSlug)
	}
	if err != nil {
		return err
	}

	if !tenant.HasPlan {
		tenant, err = tenants.RequestTransition(ctx, tenant.ID, domain.ActionAssignPlan, domain.TransitionParams{
			Plan: &domain.PlanConfig{
				PlanGroup:       domain.PlanCampusStarter,
				BillingInterval: domain.IntervalYearly,
			},
		})
		if err != nil {
			return err
		}
	}

	existing, err := ledger.List(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.DebugContext(ctx, "demo tenant already seeded", "slug", demoTenantSlug)
		return nil
	}

	history := []domain.Invoice{
		demoInvoice(tenant.ID, "inv_001", time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC), domain.InvoiceRenewal),
		demoInvoice(tenant.ID, "inv_002", time.Date(2023, 12, 12, 0, 0, 0, 0, time.UTC), domain.InvoiceCreation),
	}
	if err := ledger.Seed(ctx, history...); err != nil {
		return err
	}

	slog.InfoContext(ctx, "demo tenant seeded", "tenant_id", tenant.ID, "slug", tenant.Slug)
	return nil
}

func demoInvoice(tenantID, id string, date time.Time, typ domain.InvoiceType) domain.Invoice {
	return domain.Invoice{
		ID:       id,
		TenantID: tenantID,
		Plan:     domain.PlanCampusStarter,
		Date:     date,
		Amount:   decimal.NewFromInt(1200),
		Status:   domain.InvoicePaid,
		Type:     typ,
	}
}
