package domain

import (
	"slices"
	"strings"
	"time"
)

// TerminationConfirmation is the literal an operator must type to terminate.
const TerminationConfirmation = "DELETE"

// PlanConfig is the plan an operator assigns to a tenant that has none.
type PlanConfig struct {
	PlanGroup       string
	ProductPackage  string
	BillingInterval BillingInterval
	IsReseller      bool
	Limits          *ResourceLimits // nil means the tier base
	Trial           bool
	TrialDays       int
}

// PlanChange is a partial edit of a tenant's plan configuration. Nil fields
// are left untouched. IsReseller is applied before Limits.
type PlanChange struct {
	PlanGroup       *string
	ProductPackage  *string
	BillingInterval *BillingInterval
	IsReseller      *bool
	Limits          *ResourceLimits
	Fallback        *FallbackPlan
}

// TransitionParams carries the action-specific inputs collected by the
// workflow layer.
type TransitionParams struct {
	Reason       string
	ResumeBy     *time.Time
	Confirmation string
	Plan         *PlanConfig
	Change       *PlanChange
}

// LegalFrom reports whether the transition table allows action from s.
func LegalFrom(s Status, action Action) bool {
	for _, tr := range Transitions {
		if tr.Action == action && tr.Src == s {
			return true
		}
	}
	return false
}

// CheckGuards verifies the flag preconditions an action has beyond the
// source status. It returns a *TransitionError when they do not hold.
func CheckGuards(t Tenant, action Action) error {
	var reason string
	switch action {
	case ActionAssignPlan:
		if t.HasPlan {
			reason = "a plan is already assigned"
		}
	case ActionActivateSubscription:
		if !t.HasPlan || !t.IsTrial {
			reason = "tenant is not in trial"
		}
	case ActionRenew:
		if !t.HasPlan {
			reason = "no plan assigned"
		} else if t.IsTrial {
			reason = "trial tenants activate instead of renewing"
		}
	case ActionChangePlan:
		if !t.HasPlan {
			reason = "no plan assigned"
		}
	case ActionPause, ActionSuspend, ActionResume, ActionReactivate, ActionTerminate, ActionConfigure:
	default:
		reason = "unknown action"
	}
	if reason != "" {
		return &TransitionError{Action: action, Current: t.Status, Reason: reason}
	}
	return nil
}

// CanApply reports whether action is legal for t right now.
func CanApply(t Tenant, action Action) bool {
	return LegalFrom(t.Status, action) && CheckGuards(t, action) == nil
}

// AvailableActions returns every action legal for t, in Actions order.
// Terminate is always last when present.
func AvailableActions(t Tenant) []Action {
	var out []Action
	for _, a := range Actions {
		if CanApply(t, a) {
			out = append(out, a)
		}
	}
	return out
}

// ApplyTransition returns a copy of t with action applied and its status set
// to dst. The source status must already have been validated. Flag guards
// and action parameters are checked here; on error t is returned unchanged.
func ApplyTransition(t Tenant, action Action, dst Status, p TransitionParams, now time.Time) (Tenant, error) {
	if err := CheckGuards(t, action); err != nil {
		return t, err
	}

	next := t.Clone()
	next.Status = dst

	switch action {
	case ActionAssignPlan:
		if p.Plan == nil {
			return t, &ValidationError{Field: "plan", Message: "plan configuration is required"}
		}
		if err := applyPlanConfig(&next, *p.Plan, now); err != nil {
			return t, err
		}
	case ActionPause:
		if p.ResumeBy != nil && !p.ResumeBy.After(now) {
			return t, &ValidationError{Field: "resume_by", Message: "must be in the future"}
		}
		next.ResumeBy = clonePtr(p.ResumeBy)
	case ActionSuspend:
		reason := strings.TrimSpace(p.Reason)
		if reason == "" {
			return t, &ValidationError{Field: "reason", Message: "a suspension reason is required"}
		}
		next.SuspensionReason = reason
	case ActionResume:
		next.ResumeBy = nil
	case ActionReactivate:
		next.SuspensionReason = ""
	case ActionTerminate:
		if p.Confirmation != TerminationConfirmation {
			return t, &ValidationError{Field: "confirmation", Message: `type "DELETE" to confirm`}
		}
	case ActionActivateSubscription:
		next.IsTrial = false
		next.TrialEndsAt = nil
		next.StartTerm(now)
	case ActionRenew:
		// Term extension is applied by the renewal workflow, which knows the
		// purchased duration.
	case ActionChangePlan, ActionConfigure:
		if p.Change == nil {
			return t, &ValidationError{Field: "change", Message: "plan change is required"}
		}
		if err := applyPlanChange(&next, *p.Change); err != nil {
			return t, err
		}
	}

	next.UpdatedAt = now
	return next, nil
}

func applyPlanConfig(t *Tenant, cfg PlanConfig, now time.Time) error {
	if strings.TrimSpace(cfg.PlanGroup) == "" {
		return &ValidationError{Field: "plan_group", Message: "must not be empty"}
	}
	interval := cfg.BillingInterval
	if interval == "" {
		interval = IntervalYearly
	}
	if !interval.Valid() {
		return &ValidationError{Field: "billing_interval", Message: "must be Monthly, Yearly or Custom"}
	}

	t.PlanGroup = cfg.PlanGroup
	if cfg.ProductPackage != "" {
		t.ProductPackage = cfg.ProductPackage
	}
	t.BillingInterval = interval
	t.SetReseller(cfg.IsReseller)
	if cfg.Limits != nil {
		if err := ValidateLimits(*cfg.Limits, cfg.IsReseller); err != nil {
			return err
		}
		t.Limits = *cfg.Limits
	}

	t.HasPlan = true
	t.IsTrial = cfg.Trial
	if cfg.Trial {
		days := cfg.TrialDays
		if days == 0 {
			days = DefaultTrialDays
		}
		if err := ValidateTrialDays(days); err != nil {
			return err
		}
		end := now.AddDate(0, 0, days)
		t.TrialDays = days
		t.TrialEndsAt = &end
		t.ClearTerm()
		return nil
	}
	t.TrialEndsAt = nil
	t.StartTerm(now)
	return nil
}

func applyPlanChange(t *Tenant, c PlanChange) error {
	if c.PlanGroup != nil {
		if strings.TrimSpace(*c.PlanGroup) == "" {
			return &ValidationError{Field: "plan_group", Message: "must not be empty"}
		}
		t.PlanGroup = *c.PlanGroup
	}
	if c.ProductPackage != nil {
		t.ProductPackage = *c.ProductPackage
	}
	if c.BillingInterval != nil {
		if !c.BillingInterval.Valid() {
			return &ValidationError{Field: "billing_interval", Message: "must be Monthly, Yearly or Custom"}
		}
		t.BillingInterval = *c.BillingInterval
	}
	if c.IsReseller != nil && *c.IsReseller != t.IsReseller {
		t.SetReseller(*c.IsReseller)
	}
	if c.Limits != nil {
		if err := ValidateLimits(*c.Limits, t.IsReseller); err != nil {
			return err
		}
		t.Limits = *c.Limits
	}
	if c.Fallback != nil {
		if err := ValidateFallback(*c.Fallback); err != nil {
			return err
		}
		fb := *c.Fallback
		fb.Features = slices.Clone(fb.Features)
		t.Fallback = fb
	}
	return nil
}

// MaxLimit caps every resource limit.
const MaxLimit = 1_000_000

// ValidateLimits checks that every limit is between the tier's base and
// MaxLimit.
func ValidateLimits(l ResourceLimits, isReseller bool) error {
	base := TierBase(isReseller)
	switch {
	case l.Students > MaxLimit:
		return &ValidationError{Field: "limits.students", Message: "above the maximum of 1000000"}
	case l.Teachers > MaxLimit:
		return &ValidationError{Field: "limits.teachers", Message: "above the maximum of 1000000"}
	case l.Admins > MaxLimit:
		return &ValidationError{Field: "limits.admins", Message: "above the maximum of 1000000"}
	case l.Students < base.Students:
		return &ValidationError{Field: "limits.students", Message: "below the tier's included base"}
	case l.Teachers < base.Teachers:
		return &ValidationError{Field: "limits.teachers", Message: "below the tier's included base"}
	case l.Admins < base.Admins:
		return &ValidationError{Field: "limits.admins", Message: "below the tier's included base"}
	}
	return nil
}

// ValidateTrialDays accepts the presets or a custom length up to MaxTrialDays.
func ValidateTrialDays(days int) error {
	if slices.Contains(TrialPresets, days) {
		return nil
	}
	if days < 1 || days > MaxTrialDays {
		return &ValidationError{Field: "trial_days", Message: "must be between 1 and 365"}
	}
	return nil
}

// ValidateFallback checks a fallback plan against the known groups and features.
func ValidateFallback(fb FallbackPlan) error {
	if fb.Group != "" && !slices.Contains(FallbackGroups, fb.Group) {
		return &ValidationError{Field: "fallback.group", Message: "unknown fallback group"}
	}
	for _, f := range fb.Features {
		if !slices.Contains(FallbackFeatures, f) {
			return &ValidationError{Field: "fallback.features", Message: "unknown feature " + f}
		}
	}
	switch fb.Billing {
	case FallbackFree, FallbackDailyRate:
	default:
		return &ValidationError{Field: "fallback.billing", Message: "must be free or daily_rate"}
	}
	return nil
}
