package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// Option configures the application services.
type Option func(*options)

type options struct {
	now   func() time.Time
	delay time.Duration
}

func defaultOptions() options {
	return options{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithProcessingDelay sets how long workflow commits spend in the
// processing stage before they are applied.
func WithProcessingDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// TenantService is the lifecycle state machine. It owns the authoritative
// tenant snapshot; every mutation goes through it and is serialized.
type TenantService struct {
	repo      domain.TenantRepository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	now       func() time.Time

	mu sync.Mutex
}

// NewTenantService creates a service with the given adapters.
func NewTenantService(repo domain.TenantRepository, publisher domain.EventPublisher, validator domain.TransitionValidator, opts ...Option) *TenantService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TenantService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		now:       o.now,
	}
}

// Create persists a new active tenant without a plan and publishes a
// creation event.
func (s *TenantService) Create(ctx context.Context, name, slug string) (domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check slug uniqueness before creating.
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return domain.Tenant{}, &domain.SlugConflictError{Slug: slug}
	}

	id, err := generateID()
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("generating tenant id: %w", err)
	}

	tenant := domain.NewTenant(id, name, slug)
	tenant.CreatedAt = s.now()
	tenant.UpdatedAt = tenant.CreatedAt

	if err := s.repo.Create(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}

	s.publish(ctx, domain.Event{Kind: domain.EventCreated, Tenant: tenant})
	return tenant, nil
}

// GetByID returns a snapshot of a tenant.
func (s *TenantService) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug returns a snapshot of the tenant with the given slug.
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List returns tenants matching the given filter.
func (s *TenantService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.repo.List(ctx, filter)
}

// Pricing recomputes the tenant's cost breakdown from its current snapshot.
func (s *TenantService) Pricing(ctx context.Context, id string) (domain.PricingBreakdown, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.PricingBreakdown{}, err
	}
	return domain.ComputePricing(tenant), nil
}

// AvailableActions lists the actions legal for the tenant right now.
func (s *TenantService) AvailableActions(ctx context.Context, id string) ([]domain.Action, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.AvailableActions(tenant), nil
}

// RequestTransition applies a lifecycle action to a tenant. The status
// change and every dependent field commit together or not at all.
func (s *TenantService) RequestTransition(ctx context.Context, id string, action domain.Action, params domain.TransitionParams) (domain.Tenant, error) {
	return s.commit(ctx, id, action, params, commitHooks{})
}

// Configure edits the tenant's plan configuration.
func (s *TenantService) Configure(ctx context.Context, id string, change domain.PlanChange) (domain.Tenant, error) {
	return s.RequestTransition(ctx, id, domain.ActionConfigure, domain.TransitionParams{Change: &change})
}

// commitHooks lets workflows extend a transition. mutate adjusts the staged
// tenant before it is stored. after runs once the tenant is stored; if it
// fails the previous snapshot is restored.
type commitHooks struct {
	mutate func(next *domain.Tenant)
	after  func(ctx context.Context, next domain.Tenant) error
}

func (s *TenantService) commit(ctx context.Context, id string, action domain.Action, params domain.TransitionParams, hooks commitHooks) (domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	dst, err := s.validator.Apply(ctx, prev.Status, action)
	if err != nil {
		return domain.Tenant{}, err
	}

	now := s.now()
	next, err := domain.ApplyTransition(prev, action, dst, params, now)
	if err != nil {
		return domain.Tenant{}, err
	}
	if hooks.mutate != nil {
		hooks.mutate(&next)
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Tenant{}, fmt.Errorf("updating tenant: %w", err)
	}

	if hooks.after != nil {
		if err := hooks.after(ctx, next); err != nil {
			if rbErr := s.repo.Update(ctx, prev); rbErr != nil {
				slog.ErrorContext(ctx, "restoring tenant after failed commit",
					"tenant_id", id,
					"action", action,
					"error", rbErr,
				)
			}
			return domain.Tenant{}, err
		}
	}

	slog.InfoContext(ctx, "tenant transitioned",
		"tenant_id", next.ID,
		"action", action,
		"from", prev.Status,
		"to", next.Status,
	)

	s.publish(ctx, domain.Event{Kind: domain.EventTransitioned, Action: action, Tenant: next})

	return next, nil
}

// publish emits an event after a change has committed. A publishing failure
// does not undo the change; it is logged instead.
func (s *TenantService) publish(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publishing event",
			"kind", event.Kind,
			"tenant_id", event.Tenant.ID,
			"error", err,
		)
	}
}
