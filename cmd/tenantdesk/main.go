package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"

	"github.com/neomorfeo/tenantdesk/internal/adapter/fsm"
	"github.com/neomorfeo/tenantdesk/internal/adapter/otel"
	"github.com/neomorfeo/tenantdesk/internal/adapter/pdf"
	"github.com/neomorfeo/tenantdesk/internal/adapter/river"
	"github.com/neomorfeo/tenantdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/tenantdesk/internal/app"
	"github.com/neomorfeo/tenantdesk/internal/config"

	handler "github.com/neomorfeo/tenantdesk/internal/adapter/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("tenantdesk failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := func(*cobra.Command, []string) error { return run() }

	root := &cobra.Command{
		Use:           "tenantdesk",
		Short:         "Tenant lifecycle and subscription console API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  serve,
	})
	root.AddCommand(newPricingCmd())
	return root
}

// run wires every adapter, serves HTTP and blocks until SIGINT or SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	otelCfg, err := otel.ConfigFromEnv()
	if err != nil {
		return err
	}
	providers, err := otel.Setup(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer repo.Close()

	riverClient, err := river.Setup(ctx, db, cfg.RiverMaxWorkers)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			slog.Error("river shutdown", "error", err)
		}
	}()

	tenantRepo := otel.NewTracingRepository(repo)
	invoiceRepo := otel.NewTracingInvoiceRepository(repo.Invoices())
	publisher := otel.NewTracingPublisher(river.NewPublisher(riverClient))

	// --- Application ---
	opts := []app.Option{app.WithProcessingDelay(cfg.ProcessingDelay)}
	stages := fsm.NewStageValidator()
	tenants := app.NewTenantService(tenantRepo, publisher, fsm.New(), opts...)
	ledger := app.NewLedger(invoiceRepo, publisher, opts...)

	if cfg.SeedDemo {
		if err := seedDemo(ctx, tenants, ledger); err != nil {
			return fmt.Errorf("seeding demo tenant: %w", err)
		}
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(otelCfg.ServiceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("tenantdesk", otelCfg.ServiceVersion))
	handler.Register(api, handler.Services{
		Tenants:   tenants,
		Ledger:    ledger,
		Renewals:  app.NewRenewalWorkflow(tenants, ledger, stages, opts...),
		Upgrades:  app.NewUpgradeWorkflow(tenants, ledger, stages, opts...),
		Access:    app.NewAccessControl(tenants),
		Documents: pdf.NewInvoiceRenderer(cfg.InvoiceIssuer),
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("tenantdesk listening", "port", cfg.Port, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	slog.Info("stopped")
	return nil
}
