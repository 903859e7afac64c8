package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// DefaultRenewalDuration is preselected when a renewal session opens.
const DefaultRenewalDuration = domain.RenewOneYear

// RenewalState is a snapshot of a tenant's renewal session.
type RenewalState struct {
	TenantID         string
	Stage            domain.Stage
	Quote            domain.RenewalQuote
	SendInvoiceEmail bool
	Invoice          *domain.Invoice
}

// RenewalWorkflow drives review → preview → processing → success. Committing
// records an invoice and, for trial tenants, activates the subscription.
type RenewalWorkflow struct {
	tenants *TenantService
	ledger  *Ledger
	stages  domain.StageValidator
	delay   time.Duration

	mu       sync.Mutex
	sessions map[string]*RenewalState
}

// NewRenewalWorkflow wires the workflow to the lifecycle machine and ledger.
func NewRenewalWorkflow(tenants *TenantService, ledger *Ledger, stages domain.StageValidator, opts ...Option) *RenewalWorkflow {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RenewalWorkflow{
		tenants:  tenants,
		ledger:   ledger,
		stages:   stages,
		delay:    o.delay,
		sessions: make(map[string]*RenewalState),
	}
}

// State returns the tenant's session, opening a review with the default
// duration if none exists.
func (w *RenewalWorkflow) State(ctx context.Context, tenantID string) (RenewalState, error) {
	if _, err := w.tenants.GetByID(ctx, tenantID); err != nil {
		return RenewalState{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.session(tenantID)
	if err != nil {
		return RenewalState{}, err
	}
	return s.snapshot(), nil
}

// Start (re)opens the review stage with duration selected.
func (w *RenewalWorkflow) Start(ctx context.Context, tenantID string, duration domain.RenewalDuration, sendInvoiceEmail bool) (RenewalState, error) {
	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return RenewalState{}, err
	}
	if err := renewable(tenant); err != nil {
		return RenewalState{}, err
	}
	quote, err := domain.QuoteRenewal(duration)
	if err != nil {
		return RenewalState{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.sessions[tenantID]; ok && s.Stage != domain.StageReview {
		stage, err := w.stages.Step(ctx, domain.FlowRenewal, s.Stage, domain.StepReset)
		if err != nil {
			return RenewalState{}, err
		}
		s.Stage = stage
	}

	s := &RenewalState{
		TenantID:         tenantID,
		Stage:            domain.StageReview,
		Quote:            quote,
		SendInvoiceEmail: sendInvoiceEmail,
	}
	w.sessions[tenantID] = s
	return s.snapshot(), nil
}

// Advance moves review to preview. Nothing is mutated.
func (w *RenewalWorkflow) Advance(ctx context.Context, tenantID string) (RenewalState, error) {
	return w.step(ctx, tenantID, domain.StepNext)
}

// Back returns from preview to review.
func (w *RenewalWorkflow) Back(ctx context.Context, tenantID string) (RenewalState, error) {
	return w.step(ctx, tenantID, domain.StepBack)
}

// Reset closes the session; the next use starts at review.
func (w *RenewalWorkflow) Reset(ctx context.Context, tenantID string) (RenewalState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[tenantID]
	if !ok {
		return RenewalState{TenantID: tenantID, Stage: domain.StageReview}, nil
	}
	if s.Stage != domain.StageReview {
		if _, err := w.stages.Step(ctx, domain.FlowRenewal, s.Stage, domain.StepReset); err != nil {
			return RenewalState{}, err
		}
	}
	delete(w.sessions, tenantID)
	return RenewalState{TenantID: tenantID, Stage: domain.StageReview, Quote: s.Quote}, nil
}

// Commit processes the previewed renewal. It waits out the processing stage,
// honoring ctx; a cancelled or failed commit returns to review with no
// invoice written.
func (w *RenewalWorkflow) Commit(ctx context.Context, tenantID string) (domain.Invoice, error) {
	w.mu.Lock()
	s, err := w.session(tenantID)
	if err == nil {
		err = w.advance(ctx, s, domain.StepCommit)
	}
	var quote domain.RenewalQuote
	var notify bool
	if err == nil {
		quote, notify = s.Quote, s.SendInvoiceEmail
	}
	w.mu.Unlock()
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := w.process(ctx, tenantID, quote, notify)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if cancelErr := w.advance(context.WithoutCancel(ctx), s, domain.StepCancel); cancelErr != nil {
			slog.ErrorContext(ctx, "rolling back renewal", "tenant_id", tenantID, "error", cancelErr)
		}
		return domain.Invoice{}, err
	}
	if err := w.advance(ctx, s, domain.StepComplete); err != nil {
		return domain.Invoice{}, err
	}
	s.Invoice = &invoice
	return invoice, nil
}

func (w *RenewalWorkflow) process(ctx context.Context, tenantID string, quote domain.RenewalQuote, notify bool) (domain.Invoice, error) {
	if err := await(ctx, w.delay); err != nil {
		return domain.Invoice{}, err
	}

	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.Invoice{}, err
	}

	action, typ := domain.ActionRenew, domain.InvoiceRenewal
	if tenant.IsTrial {
		action, typ = domain.ActionActivateSubscription, domain.InvoiceCreation
	}

	var invoice domain.Invoice
	_, err = w.tenants.commit(ctx, tenantID, action, domain.TransitionParams{}, commitHooks{
		mutate: func(next *domain.Tenant) {
			if action == domain.ActionActivateSubscription {
				next.ClearTerm()
			}
			next.ExtendTerm(quote.Duration, quote.Subtotal, next.UpdatedAt)
		},
		after: func(ctx context.Context, next domain.Tenant) error {
			var err error
			invoice, err = w.ledger.Record(ctx, next, quote.Total, typ, notify)
			return err
		},
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return invoice, nil
}

func (w *RenewalWorkflow) step(ctx context.Context, tenantID string, step domain.Step) (RenewalState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.session(tenantID)
	if err != nil {
		return RenewalState{}, err
	}
	if err := w.advance(ctx, s, step); err != nil {
		return RenewalState{}, err
	}
	return s.snapshot(), nil
}

func (w *RenewalWorkflow) advance(ctx context.Context, s *RenewalState, step domain.Step) error {
	stage, err := w.stages.Step(ctx, domain.FlowRenewal, s.Stage, step)
	if err != nil {
		return err
	}
	s.Stage = stage
	return nil
}

// session returns the tenant's session, creating a default one.
// Callers hold w.mu.
func (w *RenewalWorkflow) session(tenantID string) (*RenewalState, error) {
	if s, ok := w.sessions[tenantID]; ok {
		return s, nil
	}
	quote, err := domain.QuoteRenewal(DefaultRenewalDuration)
	if err != nil {
		return nil, err
	}
	s := &RenewalState{
		TenantID:         tenantID,
		Stage:            domain.StageReview,
		Quote:            quote,
		SendInvoiceEmail: true,
	}
	w.sessions[tenantID] = s
	return s, nil
}

func (s *RenewalState) snapshot() RenewalState {
	out := *s
	if s.Invoice != nil {
		inv := *s.Invoice
		out.Invoice = &inv
	}
	return out
}

// renewable reports whether a renewal (or trial activation) can commit for
// tenant.
func renewable(tenant domain.Tenant) error {
	if domain.CanApply(tenant, domain.ActionRenew) || domain.CanApply(tenant, domain.ActionActivateSubscription) {
		return nil
	}
	if !domain.LegalFrom(tenant.Status, domain.ActionRenew) {
		return &domain.TransitionError{Action: domain.ActionRenew, Current: tenant.Status}
	}
	return domain.CheckGuards(tenant, domain.ActionRenew)
}

// await blocks for d or until ctx is done.
func await(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
