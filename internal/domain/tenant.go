package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a tenant.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
	StatusPaused     Status = "paused"
	StatusTerminated Status = "terminated"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{StatusActive, StatusSuspended, StatusPaused, StatusTerminated}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusPaused, StatusTerminated:
		return true
	}
	return false
}

// Action represents an operator request that triggers a state transition.
type Action string

const (
	ActionAssignPlan           Action = "assign_plan"
	ActionPause                Action = "pause"
	ActionSuspend              Action = "suspend"
	ActionResume               Action = "resume"
	ActionReactivate           Action = "reactivate"
	ActionTerminate            Action = "terminate"
	ActionActivateSubscription Action = "activate_subscription"
	ActionRenew                Action = "renew"
	ActionChangePlan           Action = "change_plan"
	ActionConfigure            Action = "configure"
)

// Actions lists every action, in the order they are offered to operators.
var Actions = []Action{
	ActionAssignPlan,
	ActionActivateSubscription,
	ActionRenew,
	ActionChangePlan,
	ActionConfigure,
	ActionPause,
	ActionResume,
	ActionSuspend,
	ActionReactivate,
	ActionTerminate,
}

// Transition defines a valid state change: an action moves a tenant from Src to Dst.
type Transition struct {
	Action Action
	Src    Status
	Dst    Status
}

// Transitions defines all valid state changes in the tenant lifecycle.
// Self transitions (Src == Dst) are legal actions that keep the status.
// StatusTerminated has no outgoing transitions.
var Transitions = []Transition{
	{Action: ActionAssignPlan, Src: StatusActive, Dst: StatusActive},
	{Action: ActionActivateSubscription, Src: StatusActive, Dst: StatusActive},
	{Action: ActionRenew, Src: StatusActive, Dst: StatusActive},
	{Action: ActionChangePlan, Src: StatusActive, Dst: StatusActive},
	{Action: ActionConfigure, Src: StatusActive, Dst: StatusActive},
	{Action: ActionConfigure, Src: StatusPaused, Dst: StatusPaused},
	{Action: ActionConfigure, Src: StatusSuspended, Dst: StatusSuspended},
	{Action: ActionPause, Src: StatusActive, Dst: StatusPaused},
	{Action: ActionSuspend, Src: StatusActive, Dst: StatusSuspended},
	{Action: ActionResume, Src: StatusPaused, Dst: StatusActive},
	{Action: ActionReactivate, Src: StatusSuspended, Dst: StatusActive},
	{Action: ActionTerminate, Src: StatusActive, Dst: StatusTerminated},
	{Action: ActionTerminate, Src: StatusPaused, Dst: StatusTerminated},
	{Action: ActionTerminate, Src: StatusSuspended, Dst: StatusTerminated},
}

// BillingInterval is the cadence a plan is priced at.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "Monthly"
	IntervalYearly  BillingInterval = "Yearly"
	IntervalCustom  BillingInterval = "Custom"
)

// Valid reports whether i is a known billing interval.
func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalMonthly, IntervalYearly, IntervalCustom:
		return true
	}
	return false
}

// TermLength returns the length of one paid term starting at from.
// Custom intervals are billed on the yearly schedule.
func (i BillingInterval) TermLength(from time.Time) time.Time {
	if i == IntervalMonthly {
		return from.AddDate(0, 1, 0)
	}
	return from.AddDate(1, 0, 0)
}

// ResourceLimits are the licensed seat counts of a tenant.
type ResourceLimits struct {
	Students int
	Teachers int
	Admins   int
}

// TierBase returns the limits included in the tier selected by isReseller.
func TierBase(isReseller bool) ResourceLimits {
	if isReseller {
		return ResourceLimits{Students: 2000, Teachers: 50, Admins: 10}
	}
	return ResourceLimits{Students: 500, Teachers: 20, Admins: 2}
}

// TrialPresets are the curated trial lengths offered when assigning a plan.
var TrialPresets = []int{7, 14, 30}

// MaxTrialDays bounds custom trial lengths.
const MaxTrialDays = 365

// FallbackBilling selects how the fallback plan is charged.
type FallbackBilling string

const (
	FallbackFree      FallbackBilling = "free"
	FallbackDailyRate FallbackBilling = "daily_rate"
)

// Fallback plan groups and features an operator can pick from.
var (
	FallbackGroups   = []string{"Free Tier (Read Only)", "Basic Maintenance", "Grace Period Extension"}
	FallbackFeatures = []string{"Login Access", "Data Export", "Admin Dashboard"}
)

// FallbackPlan is the reduced-access plan that takes over when the primary
// plan lapses. It is stored configuration only.
type FallbackPlan struct {
	Group    string
	Features []string
	Billing  FallbackBilling
}

// Tenant is the core domain entity: an institution whose account and
// subscription are managed from the console.
type Tenant struct {
	ID     string
	Name   string
	Slug   string
	Status Status

	HasPlan     bool
	IsTrial     bool
	TrialDays   int
	TrialEndsAt *time.Time

	IsReseller      bool
	PlanGroup       string
	ProductPackage  string
	BillingInterval BillingInterval
	Limits          ResourceLimits

	TermStartedAt *time.Time
	TermEndsAt    *time.Time
	TermPrice     decimal.Decimal // paid for the whole current term, before tax

	SuspensionReason string
	ResumeBy         *time.Time
	Fallback         FallbackPlan

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Default plan configuration for a new tenant.
const (
	DefaultPlanGroup      = PlanCampusStarter
	DefaultProductPackage = "LMS Core"
	DefaultTrialDays      = 14
)

// NewTenant creates an active tenant with no plan assigned yet.
func NewTenant(id, name, slug string) Tenant {
	now := time.Now().UTC()
	return Tenant{
		ID:              id,
		Name:            name,
		Slug:            slug,
		Status:          StatusActive,
		TrialDays:       DefaultTrialDays,
		PlanGroup:       DefaultPlanGroup,
		ProductPackage:  DefaultProductPackage,
		BillingInterval: IntervalYearly,
		Limits:          TierBase(false),
		Fallback:        FallbackPlan{Billing: FallbackFree},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy so callers can stage changes without touching
// the original snapshot.
func (t Tenant) Clone() Tenant {
	out := t
	out.TrialEndsAt = clonePtr(t.TrialEndsAt)
	out.TermStartedAt = clonePtr(t.TermStartedAt)
	out.TermEndsAt = clonePtr(t.TermEndsAt)
	out.ResumeBy = clonePtr(t.ResumeBy)
	out.Fallback.Features = slices.Clone(t.Fallback.Features)
	return out
}

// SetReseller switches the pricing tier and snaps all limits to the new
// tier's base.
func (t *Tenant) SetReseller(isReseller bool) {
	t.IsReseller = isReseller
	t.Limits = TierBase(isReseller)
}

// StartTerm begins a paid term at from for the tenant's billing interval,
// priced at the current configuration's list price.
func (t *Tenant) StartTerm(from time.Time) {
	end := t.BillingInterval.TermLength(from)
	t.TermStartedAt = &from
	t.TermEndsAt = &end
	t.TermPrice = ComputePricing(*t).Subtotal()
}

// ClearTerm drops the current term and its price.
func (t *Tenant) ClearTerm() {
	t.TermStartedAt = nil
	t.TermEndsAt = nil
	t.TermPrice = decimal.Zero
}

func clonePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
