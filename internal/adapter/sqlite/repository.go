package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: TenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TenantRepository)(nil)

// TenantRepository implements domain.TenantRepository using SQLite.
type TenantRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*TenantRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*TenantRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &TenantRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *TenantRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *TenantRepository) DB() *sql.DB {
	return r.db
}

// Invoices returns the invoice store sharing this repository's database.
func (r *TenantRepository) Invoices() *InvoiceRepository {
	return &InvoiceRepository{db: r.db}
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const tenantColumns = `id, name, slug, status, has_plan, is_trial, trial_days, trial_ends_at,
	is_reseller, plan_group, product_package, billing_interval, students, teachers, admins,
	term_started_at, term_ends_at, term_price, suspension_reason, resume_by,
	fallback_group, fallback_features, fallback_billing, created_at, updated_at`

func (r *TenantRepository) Create(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (`+tenantColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, string(t.Status), t.HasPlan, t.IsTrial, t.TrialDays, formatNullTime(t.TrialEndsAt),
		t.IsReseller, t.PlanGroup, t.ProductPackage, string(t.BillingInterval),
		t.Limits.Students, t.Limits.Teachers, t.Limits.Admins,
		formatNullTime(t.TermStartedAt), formatNullTime(t.TermEndsAt), t.TermPrice.String(),
		t.SuspensionReason, formatNullTime(t.ResumeBy),
		t.Fallback.Group, strings.Join(t.Fallback.Features, ","), string(t.Fallback.Billing),
		t.CreatedAt.Format(timeFormat),
		t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id,
	))
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug,
	))
}

func (r *TenantRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

func (r *TenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, slug = ?, status = ?, has_plan = ?, is_trial = ?, trial_days = ?,
		 trial_ends_at = ?, is_reseller = ?, plan_group = ?, product_package = ?, billing_interval = ?,
		 students = ?, teachers = ?, admins = ?, term_started_at = ?, term_ends_at = ?, term_price = ?,
		 suspension_reason = ?, resume_by = ?, fallback_group = ?, fallback_features = ?,
		 fallback_billing = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Slug, string(t.Status), t.HasPlan, t.IsTrial, t.TrialDays,
		formatNullTime(t.TrialEndsAt), t.IsReseller, t.PlanGroup, t.ProductPackage, string(t.BillingInterval),
		t.Limits.Students, t.Limits.Teachers, t.Limits.Admins,
		formatNullTime(t.TermStartedAt), formatNullTime(t.TermEndsAt), t.TermPrice.String(),
		t.SuspensionReason, formatNullTime(t.ResumeBy), t.Fallback.Group, strings.Join(t.Fallback.Features, ","),
		string(t.Fallback.Billing), t.UpdatedAt.UTC().Format(timeFormat),
		t.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("updating tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTenant scans a single row into a domain.Tenant.
func scanTenant(row scanner) (domain.Tenant, error) {
	var t domain.Tenant
	var status, interval, termPrice, features, fallbackBilling, createdAt, updatedAt string
	var trialEndsAt, termStartedAt, termEndsAt, resumeBy sql.NullString

	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &status, &t.HasPlan, &t.IsTrial, &t.TrialDays, &trialEndsAt,
		&t.IsReseller, &t.PlanGroup, &t.ProductPackage, &interval,
		&t.Limits.Students, &t.Limits.Teachers, &t.Limits.Admins,
		&termStartedAt, &termEndsAt, &termPrice, &t.SuspensionReason, &resumeBy,
		&t.Fallback.Group, &features, &fallbackBilling, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}

	t.Status = domain.Status(status)
	t.BillingInterval = domain.BillingInterval(interval)
	t.Fallback.Billing = domain.FallbackBilling(fallbackBilling)
	if features != "" {
		t.Fallback.Features = strings.Split(features, ",")
	}
	t.TrialEndsAt = parseNullTime(trialEndsAt)
	t.TermStartedAt = parseNullTime(termStartedAt)
	t.TermEndsAt = parseNullTime(termEndsAt)
	if t.TermPrice, err = decimal.NewFromString(termPrice); err != nil {
		return domain.Tenant{}, fmt.Errorf("parsing term price %q: %w", termPrice, err)
	}
	t.ResumeBy = parseNullTime(resumeBy)
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
