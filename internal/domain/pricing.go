package domain

import "github.com/shopspring/decimal"

// Plan groups with a published rate.
const (
	PlanCampusStarter   = "Campus Starter"
	PlanInstitutionPro  = "Institution Pro"
	PlanEnterpriseElite = "Enterprise Elite"
)

// PlanGroups lists the priced plan groups, cheapest first.
var PlanGroups = []string{PlanCampusStarter, PlanInstitutionPro, PlanEnterpriseElite}

// Overage bundle sizes per resource type.
const (
	StudentBundle = 100
	TeacherBundle = 5
	AdminBundle   = 1
)

// RateTable holds the prices for one billing interval. Monthly and yearly
// tables are independent; yearly is not twelve times monthly.
type RateTable struct {
	Base         map[string]int64
	ResellerBase int64
	Student      int64 // per StudentBundle
	Teacher      int64 // per TeacherBundle
	Admin        int64 // per AdminBundle
	Label        string
}

var (
	monthlyRates = RateTable{
		Base: map[string]int64{
			PlanCampusStarter:   120,
			PlanInstitutionPro:  240,
			PlanEnterpriseElite: 500,
		},
		ResellerBase: 350,
		Student:      5,
		Teacher:      5,
		Admin:        10,
		Label:        "/mo",
	}
	yearlyRates = RateTable{
		Base: map[string]int64{
			PlanCampusStarter:   1200,
			PlanInstitutionPro:  2400,
			PlanEnterpriseElite: 5000,
		},
		ResellerBase: 3500,
		Student:      50,
		Teacher:      50,
		Admin:        100,
		Label:        "/yr",
	}
)

// Rates returns the rate table for interval. Custom intervals use the
// yearly schedule.
func Rates(interval BillingInterval) RateTable {
	switch interval {
	case IntervalMonthly:
		return monthlyRates
	case IntervalYearly, IntervalCustom:
		return yearlyRates
	}
	return yearlyRates
}

// PricingBreakdown is the derived cost of a tenant's configuration.
type PricingBreakdown struct {
	BasePrice          decimal.Decimal
	StudentCost        decimal.Decimal
	TeacherCost        decimal.Decimal
	AdminCost          decimal.Decimal
	Total              decimal.Decimal
	FutureRenewalPrice decimal.Decimal
	ExtraStudents      int
	ExtraTeachers      int
	ExtraAdmins        int
	IntervalLabel      string
}

// Subtotal is the charge before trial zeroing.
func (p PricingBreakdown) Subtotal() decimal.Decimal {
	return p.BasePrice.Add(p.StudentCost).Add(p.TeacherCost).Add(p.AdminCost)
}

// ComputePricing derives the cost breakdown for t. It is pure: identical
// input always yields identical output.
func ComputePricing(t Tenant) PricingBreakdown {
	rates := Rates(t.BillingInterval)

	base, ok := rates.Base[t.PlanGroup]
	if !ok {
		base = rates.Base[PlanCampusStarter]
	}
	if t.IsReseller {
		base = rates.ResellerBase
	}

	included := TierBase(t.IsReseller)
	extraStudents := max(0, t.Limits.Students-included.Students)
	extraTeachers := max(0, t.Limits.Teachers-included.Teachers)
	extraAdmins := max(0, t.Limits.Admins-included.Admins)

	p := PricingBreakdown{
		BasePrice:     decimal.NewFromInt(base),
		StudentCost:   bundleCost(extraStudents, StudentBundle, rates.Student),
		TeacherCost:   bundleCost(extraTeachers, TeacherBundle, rates.Teacher),
		AdminCost:     bundleCost(extraAdmins, AdminBundle, rates.Admin),
		ExtraStudents: extraStudents,
		ExtraTeachers: extraTeachers,
		ExtraAdmins:   extraAdmins,
		IntervalLabel: rates.Label,
	}

	subtotal := p.Subtotal()
	p.FutureRenewalPrice = subtotal
	p.Total = subtotal
	if t.IsTrial {
		p.Total = decimal.Zero
	}
	return p
}

// bundleCost charges every started bundle in full.
func bundleCost(extra, bundle int, rate int64) decimal.Decimal {
	bundles := extra / bundle
	if extra%bundle != 0 {
		bundles++
	}
	return decimal.NewFromInt(int64(bundles)).Mul(decimal.NewFromInt(rate))
}
