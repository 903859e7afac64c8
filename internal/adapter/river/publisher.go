package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a snapshot of the tenant at publish time so the
// worker never reads the database.
type EventJobArgs struct {
	Event     string `json:"event"`
	Action    string `json:"action,omitempty"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	PlanGroup string `json:"plan_group"`
	IsTrial   bool   `json:"is_trial"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Notify    bool   `json:"notify,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "event.published" }

// InvoiceEmailArgs asks the billing queue to mail a freshly issued invoice
// to the tenant's administrators.
type InvoiceEmailArgs struct {
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	InvoiceID string `json:"invoice_id"`
}

func (InvoiceEmailArgs) Kind() string { return "invoice.email" }

func (InvoiceEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueBilling, MaxAttempts: 5}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a domain event as an async job in River. An invoice
// created with notification on also enqueues its email in the same insert.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	jobs := []river.InsertManyParams{{Args: EventJobArgs{
		Event:     event.Kind,
		Action:    string(event.Action),
		TenantID:  event.Tenant.ID,
		Name:      event.Tenant.Name,
		Slug:      event.Tenant.Slug,
		Status:    string(event.Tenant.Status),
		PlanGroup: event.Tenant.PlanGroup,
		IsTrial:   event.Tenant.IsTrial,
		InvoiceID: event.InvoiceID,
		Notify:    event.Notify,
	}}}
	if event.Kind == domain.EventInvoiceCreated && event.Notify {
		jobs = append(jobs, river.InsertManyParams{Args: InvoiceEmailArgs{
			TenantID:  event.Tenant.ID,
			Name:      event.Tenant.Name,
			InvoiceID: event.InvoiceID,
		}})
	}

	if _, err := p.client.InsertMany(ctx, jobs); err != nil {
		return fmt.Errorf("enqueuing %s jobs: %w", event.Kind, err)
	}
	return nil
}
