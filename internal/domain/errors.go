package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// SlugConflictError is returned when a tenant slug is already in use.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// TransitionError is returned when an action is not allowed from the
// tenant's current state.
type TransitionError struct {
	Action  Action
	Current Status
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("action %q is not valid from state %q: %s", e.Action, e.Current, e.Reason)
	}
	return fmt.Sprintf("action %q is not valid from state %q", e.Action, e.Current)
}

// ValidationError is returned when a required input is missing or wrong.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StageError is returned when a workflow step is requested out of order.
type StageError struct {
	Flow    Flow
	Step    Step
	Current Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s step %q is not valid from stage %q", e.Flow, e.Step, e.Current)
}
