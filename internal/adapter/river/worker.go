package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker logs domain events from the default queue.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	args := job.Args
	slog.InfoContext(ctx, "processing event",
		"event", args.Event,
		"action", args.Action,
		"tenant_id", args.TenantID,
		"tenant_slug", args.Slug,
		"status", args.Status,
		"plan_group", args.PlanGroup,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// InvoiceEmailWorker delivers invoice emails. There is no mail transport
// yet, so delivery is a log line.
type InvoiceEmailWorker struct {
	river.WorkerDefaults[InvoiceEmailArgs]
}

func (w *InvoiceEmailWorker) Work(ctx context.Context, job *river.Job[InvoiceEmailArgs]) error {
	slog.InfoContext(ctx, "invoice email sent",
		"tenant_id", job.Args.TenantID,
		"tenant_name", job.Args.Name,
		"invoice_id", job.Args.InvoiceID,
		"attempt", job.Attempt,
	)
	return nil
}
