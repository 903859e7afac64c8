package app

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// AccessOption is one entry of the access-control menu.
type AccessOption struct {
	Action            domain.Action
	Label             string
	RequiresReason    bool
	AcceptsResumeDate bool
	RequiresConfirm   bool
	Destructive       bool
}

// AccessForm is what the operator filled in before confirming.
type AccessForm struct {
	Reason       string
	ResumeBy     *time.Time
	Confirmation string
}

var accessOptions = []AccessOption{
	{Action: domain.ActionPause, Label: "Pause Subscription", AcceptsResumeDate: true},
	{Action: domain.ActionResume, Label: "Resume Subscription"},
	{Action: domain.ActionSuspend, Label: "Suspend Account", RequiresReason: true, Destructive: true},
	{Action: domain.ActionReactivate, Label: "Unsuspend Account"},
	{Action: domain.ActionTerminate, Label: "Terminate Tenant", RequiresConfirm: true, Destructive: true},
}

// AccessControl is the confirmation-gated workflow for pausing, suspending,
// resuming and terminating tenants.
type AccessControl struct {
	tenants *TenantService
}

// NewAccessControl creates the workflow on top of the lifecycle machine.
func NewAccessControl(tenants *TenantService) *AccessControl {
	return &AccessControl{tenants: tenants}
}

// Menu lists the access actions legal for the tenant's current status.
// Terminated tenants get an empty menu.
func (a *AccessControl) Menu(ctx context.Context, tenantID string) ([]AccessOption, error) {
	tenant, err := a.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var out []AccessOption
	for _, opt := range accessOptions {
		if domain.CanApply(tenant, opt.Action) {
			out = append(out, opt)
		}
	}
	return out, nil
}

// CanConfirm reports whether the confirm button for action is enabled.
// Terminate needs the exact text "DELETE"; suspend needs a reason.
func (a *AccessControl) CanConfirm(action domain.Action, form AccessForm) bool {
	switch action {
	case domain.ActionTerminate:
		return form.Confirmation == domain.TerminationConfirmation
	case domain.ActionSuspend:
		return strings.TrimSpace(form.Reason) != ""
	case domain.ActionPause, domain.ActionResume, domain.ActionReactivate:
		return true
	}
	return false
}

// Confirm commits action through the lifecycle machine.
func (a *AccessControl) Confirm(ctx context.Context, tenantID string, action domain.Action, form AccessForm) (domain.Tenant, error) {
	if !isAccessAction(action) {
		return domain.Tenant{}, &domain.ValidationError{Field: "action", Message: "not an access-control action"}
	}
	return a.tenants.RequestTransition(ctx, tenantID, action, domain.TransitionParams{
		Reason:       form.Reason,
		ResumeBy:     form.ResumeBy,
		Confirmation: form.Confirmation,
	})
}

func isAccessAction(action domain.Action) bool {
	return slices.ContainsFunc(accessOptions, func(o AccessOption) bool { return o.Action == action })
}
