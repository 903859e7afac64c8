package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddOn is an optional extra sold alongside a plan.
type AddOn struct {
	ID           string
	Name         string
	MonthlyPrice decimal.Decimal
	Unit         string
	Description  string
}

// AddOnCatalog lists the add-ons offered in the upgrade wizard.
var AddOnCatalog = []AddOn{
	{ID: "1", Name: "Extra Storage", MonthlyPrice: decimal.NewFromInt(10), Unit: "500GB", Description: "Additional cloud storage for resources."},
	{ID: "2", Name: "Live Class Hours", MonthlyPrice: decimal.NewFromInt(25), Unit: "100 Hrs", Description: "Extended streaming time per month."},
	{ID: "3", Name: "Admin Users", MonthlyPrice: decimal.NewFromInt(15), Unit: "User", Description: "Full access administrative accounts."},
}

// FindAddOn looks up a catalog entry by id.
func FindAddOn(id string) (AddOn, bool) {
	for _, a := range AddOnCatalog {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// UpgradeQuote is the prorated billing summary of a plan change.
type UpgradeQuote struct {
	PlanGroup    string
	NewPlanCost  decimal.Decimal
	AddOnsTotal  decimal.Decimal
	Credit       decimal.Decimal
	Total        decimal.Decimal
	InvoiceType  InvoiceType
	IntervalUnit string
}

// Proration returns the unused-time credit of the tenant's current term:
// remainingDays / totalDays * TermPrice. Trials and tenants without a term
// get no credit.
func Proration(t Tenant, now time.Time) decimal.Decimal {
	if t.IsTrial || t.TermStartedAt == nil || t.TermEndsAt == nil {
		return decimal.Zero
	}
	total := daysBetween(*t.TermStartedAt, *t.TermEndsAt)
	if total <= 0 {
		return decimal.Zero
	}
	remaining := min(max(daysBetween(now, *t.TermEndsAt), 0), total)
	return t.TermPrice.Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// ErrSamePlan is returned when an upgrade targets the tenant's current plan
// group. Extending the same plan is a renewal.
var ErrSamePlan = &ValidationError{Field: "plan_group", Message: "already on this plan group; renew instead"}

// QuoteUpgrade prices moving t to planGroup with the given add-on
// quantities (catalog id → quantity).
func QuoteUpgrade(t Tenant, planGroup string, addOns map[string]int, now time.Time) (UpgradeQuote, error) {
	if planGroup == t.PlanGroup {
		return UpgradeQuote{}, ErrSamePlan
	}
	current := ComputePricing(t)

	target := t.Clone()
	target.PlanGroup = planGroup
	target.IsTrial = false
	proposed := ComputePricing(target)

	months := int64(12)
	if t.BillingInterval == IntervalMonthly {
		months = 1
	}
	addOnsTotal := decimal.Zero
	for id, qty := range addOns {
		if qty < 0 {
			return UpgradeQuote{}, &ValidationError{Field: "add_ons", Message: "quantity must not be negative"}
		}
		a, ok := FindAddOn(id)
		if !ok {
			return UpgradeQuote{}, &ValidationError{Field: "add_ons", Message: "unknown add-on " + id}
		}
		addOnsTotal = addOnsTotal.Add(a.MonthlyPrice.Mul(decimal.NewFromInt(int64(qty))).Mul(decimal.NewFromInt(months)))
	}

	credit := Proration(t, now)
	total := proposed.FutureRenewalPrice.Add(addOnsTotal).Sub(credit)
	if total.IsNegative() {
		total = decimal.Zero
	}

	typ := InvoiceUpgrade
	if !t.IsTrial && proposed.FutureRenewalPrice.LessThan(current.FutureRenewalPrice) {
		typ = InvoiceDowngrade
	}

	return UpgradeQuote{
		PlanGroup:    planGroup,
		NewPlanCost:  proposed.FutureRenewalPrice,
		AddOnsTotal:  addOnsTotal,
		Credit:       credit,
		Total:        total,
		InvoiceType:  typ,
		IntervalUnit: proposed.IntervalLabel,
	}, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
