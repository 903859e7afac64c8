package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// DefaultMaxWorkers bounds concurrent event jobs when the caller passes zero.
const DefaultMaxWorkers = 2

// QueueBilling carries invoice emails, one at a time.
const QueueBilling = "billing"

// Setup runs River's migrations on db and returns a client with the event
// worker registered. Callers Start the client to process jobs and Stop it
// on shutdown.
func Setup(ctx context.Context, db *sql.DB, maxWorkers int) (*Client, error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	driver := riversqlite.New(db)

	// river_job, river_leader and friends live beside the goose-managed tables.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{})
	river.AddWorker(workers, &InvoiceEmailWorker{})

	client, err := river.NewClient(driver, &river.Config{
		Logger: slog.Default().With("component", "river"),
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
			QueueBilling:       {MaxWorkers: 1},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
