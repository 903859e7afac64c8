package app

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// UpgradeState is a snapshot of a tenant's upgrade session.
type UpgradeState struct {
	TenantID  string
	Stage     domain.Stage
	PlanGroup string
	AddOns    map[string]int
	Quote     *domain.UpgradeQuote
	Invoice   *domain.Invoice
}

// UpgradeWorkflow drives choose plan → customize → summary → confirmed.
// Committing bills the prorated total and moves the tenant to the new plan.
type UpgradeWorkflow struct {
	tenants *TenantService
	ledger  *Ledger
	stages  domain.StageValidator
	delay   time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*UpgradeState
}

// NewUpgradeWorkflow wires the workflow to the lifecycle machine and ledger.
func NewUpgradeWorkflow(tenants *TenantService, ledger *Ledger, stages domain.StageValidator, opts ...Option) *UpgradeWorkflow {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &UpgradeWorkflow{
		tenants:  tenants,
		ledger:   ledger,
		stages:   stages,
		delay:    o.delay,
		now:      o.now,
		sessions: make(map[string]*UpgradeState),
	}
}

// State returns the tenant's session, opening one at choose_plan if none
// exists.
func (w *UpgradeWorkflow) State(ctx context.Context, tenantID string) (UpgradeState, error) {
	if _, err := w.tenants.GetByID(ctx, tenantID); err != nil {
		return UpgradeState{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session(tenantID).snapshot(), nil
}

// ChoosePlan selects the target plan group and moves on to customize.
func (w *UpgradeWorkflow) ChoosePlan(ctx context.Context, tenantID, planGroup string) (UpgradeState, error) {
	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return UpgradeState{}, err
	}
	if !domain.CanApply(tenant, domain.ActionChangePlan) {
		if err := domain.CheckGuards(tenant, domain.ActionChangePlan); err != nil {
			return UpgradeState{}, err
		}
		return UpgradeState{}, &domain.TransitionError{Action: domain.ActionChangePlan, Current: tenant.Status}
	}
	if !slices.Contains(domain.PlanGroups, planGroup) {
		return UpgradeState{}, &domain.ValidationError{Field: "plan_group", Message: "unknown plan group"}
	}
	if planGroup == tenant.PlanGroup {
		return UpgradeState{}, domain.ErrSamePlan
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.session(tenantID)
	if s.Stage != domain.StageChoosePlan {
		return UpgradeState{}, &domain.StageError{Flow: domain.FlowUpgrade, Step: domain.StepNext, Current: s.Stage}
	}
	if err := w.advance(ctx, s, domain.StepNext); err != nil {
		return UpgradeState{}, err
	}
	s.PlanGroup = planGroup
	return s.snapshot(), nil
}

// SetAddOns replaces the selected add-on quantities while customizing.
func (w *UpgradeWorkflow) SetAddOns(ctx context.Context, tenantID string, quantities map[string]int) (UpgradeState, error) {
	for id, qty := range quantities {
		if _, ok := domain.FindAddOn(id); !ok {
			return UpgradeState{}, &domain.ValidationError{Field: "add_ons", Message: "unknown add-on " + id}
		}
		if qty < 0 {
			return UpgradeState{}, &domain.ValidationError{Field: "add_ons", Message: "quantity must not be negative"}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.session(tenantID)
	if s.Stage != domain.StageCustomize {
		return UpgradeState{}, &domain.StageError{Flow: domain.FlowUpgrade, Step: domain.StepNext, Current: s.Stage}
	}
	s.AddOns = maps.Clone(quantities)
	return s.snapshot(), nil
}

// Summarize moves customize to summary with a prorated quote.
func (w *UpgradeWorkflow) Summarize(ctx context.Context, tenantID string) (UpgradeState, error) {
	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return UpgradeState{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.session(tenantID)
	if s.Stage != domain.StageCustomize {
		return UpgradeState{}, &domain.StageError{Flow: domain.FlowUpgrade, Step: domain.StepNext, Current: s.Stage}
	}
	quote, err := domain.QuoteUpgrade(tenant, s.PlanGroup, s.AddOns, w.now())
	if err != nil {
		return UpgradeState{}, err
	}
	if err := w.advance(ctx, s, domain.StepNext); err != nil {
		return UpgradeState{}, err
	}
	s.Quote = &quote
	return s.snapshot(), nil
}

// Back moves one stage back.
func (w *UpgradeWorkflow) Back(ctx context.Context, tenantID string) (UpgradeState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.session(tenantID)
	if err := w.advance(ctx, s, domain.StepBack); err != nil {
		return UpgradeState{}, err
	}
	if s.Stage != domain.StageSummary {
		s.Quote = nil
	}
	return s.snapshot(), nil
}

// Reset closes the session.
func (w *UpgradeWorkflow) Reset(ctx context.Context, tenantID string) (UpgradeState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[tenantID]
	if ok && s.Stage != domain.StageChoosePlan {
		if _, err := w.stages.Step(ctx, domain.FlowUpgrade, s.Stage, domain.StepReset); err != nil {
			return UpgradeState{}, err
		}
	}
	delete(w.sessions, tenantID)
	return UpgradeState{TenantID: tenantID, Stage: domain.StageChoosePlan}, nil
}

// Commit applies the summarized upgrade. The quote is recomputed at commit
// time so the credit reflects the moment the change takes effect. A
// cancelled or failed commit returns to summary with no invoice written.
func (w *UpgradeWorkflow) Commit(ctx context.Context, tenantID string) (domain.Invoice, error) {
	w.mu.Lock()
	s := w.session(tenantID)
	err := w.advance(ctx, s, domain.StepCommit)
	planGroup, addOns := s.PlanGroup, maps.Clone(s.AddOns)
	w.mu.Unlock()
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, quote, err := w.process(ctx, tenantID, planGroup, addOns)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if cancelErr := w.advance(context.WithoutCancel(ctx), s, domain.StepCancel); cancelErr != nil {
			slog.ErrorContext(ctx, "rolling back upgrade", "tenant_id", tenantID, "error", cancelErr)
		}
		return domain.Invoice{}, err
	}
	if err := w.advance(ctx, s, domain.StepComplete); err != nil {
		return domain.Invoice{}, err
	}
	s.Quote = &quote
	s.Invoice = &invoice
	return invoice, nil
}

func (w *UpgradeWorkflow) process(ctx context.Context, tenantID, planGroup string, addOns map[string]int) (domain.Invoice, domain.UpgradeQuote, error) {
	if err := await(ctx, w.delay); err != nil {
		return domain.Invoice{}, domain.UpgradeQuote{}, err
	}

	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.Invoice{}, domain.UpgradeQuote{}, err
	}
	quote, err := domain.QuoteUpgrade(tenant, planGroup, addOns, w.now())
	if err != nil {
		return domain.Invoice{}, domain.UpgradeQuote{}, err
	}

	var invoice domain.Invoice
	change := domain.PlanChange{PlanGroup: &planGroup}
	_, err = w.tenants.commit(ctx, tenantID, domain.ActionChangePlan, domain.TransitionParams{Change: &change}, commitHooks{
		mutate: func(next *domain.Tenant) {
			next.IsTrial = false
			next.TrialEndsAt = nil
			next.StartTerm(next.UpdatedAt)
		},
		after: func(ctx context.Context, next domain.Tenant) error {
			var err error
			invoice, err = w.ledger.Record(ctx, next, quote.Total, quote.InvoiceType, false)
			return err
		},
	})
	if err != nil {
		return domain.Invoice{}, domain.UpgradeQuote{}, err
	}
	return invoice, quote, nil
}

func (w *UpgradeWorkflow) advance(ctx context.Context, s *UpgradeState, step domain.Step) error {
	stage, err := w.stages.Step(ctx, domain.FlowUpgrade, s.Stage, step)
	if err != nil {
		return err
	}
	s.Stage = stage
	return nil
}

// session returns the tenant's session, creating one at choose_plan.
// Callers hold w.mu.
func (w *UpgradeWorkflow) session(tenantID string) *UpgradeState {
	if s, ok := w.sessions[tenantID]; ok {
		return s
	}
	s := &UpgradeState{
		TenantID: tenantID,
		Stage:    domain.StageChoosePlan,
		AddOns:   map[string]int{},
	}
	w.sessions[tenantID] = s
	return s
}

func (s *UpgradeState) snapshot() UpgradeState {
	out := *s
	out.AddOns = maps.Clone(s.AddOns)
	if s.Quote != nil {
		q := *s.Quote
		out.Quote = &q
	}
	if s.Invoice != nil {
		inv := *s.Invoice
		out.Invoice = &inv
	}
	return out
}
