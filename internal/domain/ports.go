package domain

import "context"

// TenantRepository defines the persistence contract for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
}

// ListFilter holds optional criteria for listing tenants.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// InvoiceRepository is the append-only store behind the invoice ledger.
// List returns invoices newest first.
type InvoiceRepository interface {
	Append(ctx context.Context, invoice Invoice) error
	GetByID(ctx context.Context, tenantID, id string) (Invoice, error)
	List(ctx context.Context, tenantID string) ([]Invoice, error)
	SetStatus(ctx context.Context, tenantID, id string, status InvoiceStatus) error
}

// Event is a domain notification emitted after a change commits.
type Event struct {
	Kind      string
	Action    Action
	Tenant    Tenant
	InvoiceID string
	Notify    bool
}

// Event kinds.
const (
	EventCreated        = "tenant.created"
	EventTransitioned   = "tenant.transitioned"
	EventInvoiceCreated = "invoice.created"
	EventInvoicePaid    = "invoice.paid"
)

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransitionValidator checks an action against the lifecycle table and
// returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, action Action) (Status, error)
}

// StageValidator checks a workflow step against a flow's stage table and
// returns the destination stage.
type StageValidator interface {
	Step(ctx context.Context, flow Flow, current Stage, step Step) (Stage, error)
}
