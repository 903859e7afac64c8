package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantdesk/internal/adapter/pdf"
	"github.com/neomorfeo/tenantdesk/internal/app"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Services bundles the application services exposed over HTTP.
type Services struct {
	Tenants   *app.TenantService
	Ledger    *app.Ledger
	Renewals  *app.RenewalWorkflow
	Upgrades  *app.UpgradeWorkflow
	Access    *app.AccessControl
	Documents *pdf.InvoiceRenderer
}

// LimitsBody is the API representation of resource limits.
type LimitsBody struct {
	Students int `json:"students" minimum:"0" maximum:"1000000" doc:"Student seats"`
	Teachers int `json:"teachers" minimum:"0" maximum:"1000000" doc:"Teacher seats"`
	Admins   int `json:"admins" minimum:"0" maximum:"1000000" doc:"Admin seats"`
}

func (b LimitsBody) toDomain() domain.ResourceLimits {
	return domain.ResourceLimits{Students: b.Students, Teachers: b.Teachers, Admins: b.Admins}
}

// FallbackBody is the API representation of the fallback plan.
type FallbackBody struct {
	Group    string   `json:"group,omitempty" doc:"Fallback plan group"`
	Features []string `json:"features,omitempty" doc:"Features kept while on the fallback plan"`
	Billing  string   `json:"billing" enum:"free,daily_rate" doc:"How the fallback plan is charged"`
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID               string       `json:"id" doc:"Unique identifier"`
	Name             string       `json:"name" doc:"Display name"`
	Slug             string       `json:"slug" doc:"URL-friendly identifier"`
	Status           string       `json:"status" doc:"Lifecycle state"`
	HasPlan          bool         `json:"has_plan" doc:"Whether a plan has been assigned"`
	IsTrial          bool         `json:"is_trial" doc:"Whether the plan is a trial"`
	TrialDays        int          `json:"trial_days,omitempty" doc:"Trial length in days"`
	TrialEndsAt      string       `json:"trial_ends_at,omitempty" doc:"Trial end (ISO 8601)"`
	IsReseller       bool         `json:"is_reseller" doc:"Reseller tier"`
	PlanGroup        string       `json:"plan_group" doc:"Plan group"`
	ProductPackage   string       `json:"product_package" doc:"Product package"`
	BillingInterval  string       `json:"billing_interval" doc:"Monthly, Yearly or Custom"`
	Limits           LimitsBody   `json:"limits"`
	TermStartedAt    string       `json:"term_started_at,omitempty" doc:"Current term start (ISO 8601)"`
	TermEndsAt       string       `json:"term_ends_at,omitempty" doc:"Current term end (ISO 8601)"`
	TermPrice        string       `json:"term_price" doc:"Price paid for the current term, before tax"`
	SuspensionReason string       `json:"suspension_reason,omitempty" doc:"Why the account was suspended"`
	ResumeBy         string       `json:"resume_by,omitempty" doc:"Planned resume date (ISO 8601)"`
	Fallback         FallbackBody `json:"fallback"`
	CreatedAt        string       `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt        string       `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenantResponse(t domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:              t.ID,
		Name:            t.Name,
		Slug:            t.Slug,
		Status:          string(t.Status),
		HasPlan:         t.HasPlan,
		IsTrial:         t.IsTrial,
		TrialDays:       t.TrialDays,
		TrialEndsAt:     formatTime(t.TrialEndsAt),
		IsReseller:      t.IsReseller,
		PlanGroup:       t.PlanGroup,
		ProductPackage:  t.ProductPackage,
		BillingInterval: string(t.BillingInterval),
		Limits: LimitsBody{
			Students: t.Limits.Students,
			Teachers: t.Limits.Teachers,
			Admins:   t.Limits.Admins,
		},
		TermStartedAt:    formatTime(t.TermStartedAt),
		TermEndsAt:       formatTime(t.TermEndsAt),
		TermPrice:        t.TermPrice.StringFixed(2),
		SuspensionReason: t.SuspensionReason,
		ResumeBy:         formatTime(t.ResumeBy),
		Fallback: FallbackBody{
			Group:    t.Fallback.Group,
			Features: t.Fallback.Features,
			Billing:  string(t.Fallback.Billing),
		},
		CreatedAt: t.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: t.UpdatedAt.UTC().Format(timeFormat),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

// --- Create Tenant ---

type CreateTenantInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Slug string `json:"slug" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
	}
}

type TenantOutput struct {
	Body TenantResponse
}

// --- Get Tenant ---

type TenantPathInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

// --- List Tenants ---

type ListTenantsInput struct {
	Status string `query:"status" required:"false" enum:"active,suspended,paused,terminated" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Lifecycle actions ---

// PlanConfigBody assigns a plan to a tenant that has none.
type PlanConfigBody struct {
	PlanGroup       string      `json:"plan_group" minLength:"1" doc:"Plan group"`
	ProductPackage  string      `json:"product_package,omitempty" doc:"Product package"`
	BillingInterval string      `json:"billing_interval,omitempty" enum:"Monthly,Yearly,Custom" doc:"Billing interval (default Yearly)"`
	IsReseller      bool        `json:"is_reseller,omitempty" doc:"Reseller tier"`
	Limits          *LimitsBody `json:"limits,omitempty" doc:"Resource limits (default: tier base)"`
	Trial           bool        `json:"trial,omitempty" doc:"Start as a trial"`
	TrialDays       int         `json:"trial_days,omitempty" minimum:"0" maximum:"365" doc:"Trial length (7, 14, 30 or custom)"`
}

func (b *PlanConfigBody) toDomain() *domain.PlanConfig {
	if b == nil {
		return nil
	}
	cfg := &domain.PlanConfig{
		PlanGroup:       b.PlanGroup,
		ProductPackage:  b.ProductPackage,
		BillingInterval: domain.BillingInterval(b.BillingInterval),
		IsReseller:      b.IsReseller,
		Trial:           b.Trial,
		TrialDays:       b.TrialDays,
	}
	if b.Limits != nil {
		l := b.Limits.toDomain()
		cfg.Limits = &l
	}
	return cfg
}

type ActionsOutput struct {
	Body struct {
		Actions []string              `json:"actions" doc:"Actions legal right now, terminate last"`
		Access  []AccessOptionResponse `json:"access" doc:"Access-control menu"`
	}
}

// AccessOptionResponse describes one access-control menu entry.
type AccessOptionResponse struct {
	Action            string `json:"action"`
	Label             string `json:"label"`
	RequiresReason    bool   `json:"requires_reason"`
	AcceptsResumeDate bool   `json:"accepts_resume_date"`
	RequiresConfirm   bool   `json:"requires_confirm"`
	Destructive       bool   `json:"destructive"`
}

type ActionInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Action       string          `json:"action" enum:"assign_plan,pause,suspend,resume,reactivate,terminate" doc:"Lifecycle action"`
		Reason       string          `json:"reason,omitempty" doc:"Suspension reason"`
		ResumeBy     *time.Time      `json:"resume_by,omitempty" doc:"Planned resume date for pause"`
		Confirmation string          `json:"confirmation,omitempty" doc:"Type DELETE to terminate"`
		Plan         *PlanConfigBody `json:"plan,omitempty" doc:"Plan for assign_plan"`
	}
}

// --- Configure ---

type ConfigureInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		PlanGroup       *string       `json:"plan_group,omitempty" doc:"Plan group"`
		ProductPackage  *string       `json:"product_package,omitempty" doc:"Product package"`
		BillingInterval *string       `json:"billing_interval,omitempty" enum:"Monthly,Yearly,Custom" doc:"Billing interval"`
		IsReseller      *bool         `json:"is_reseller,omitempty" doc:"Reseller tier; toggling resets limits to the tier base"`
		Limits          *LimitsBody   `json:"limits,omitempty" doc:"Resource limits"`
		Fallback        *FallbackBody `json:"fallback,omitempty" doc:"Fallback plan"`
	}
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerTenants(api, svc)
	registerBilling(api, svc)
	registerRenewal(api, svc)
	registerUpgrade(api, svc)
}

func registerTenants(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-tenant",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants",
		Summary:       "Create a new tenant",
		Tags:          []string{"Tenants"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTenantInput) (*TenantOutput, error) {
		tenant, err := svc.Tenants.Create(ctx, input.Body.Name, input.Body.Slug)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantPathInput) (*TenantOutput, error) {
		tenant, err := svc.Tenants.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		tenants, err := svc.Tenants.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenantResponse, len(tenants))
		for i, t := range tenants {
			resp[i] = toTenantResponse(t)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/actions",
		Summary:     "List the lifecycle actions legal right now",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *TenantPathInput) (*ActionsOutput, error) {
		actions, err := svc.Tenants.AvailableActions(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		menu, err := svc.Access.Menu(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ActionsOutput{}
		out.Body.Actions = make([]string, len(actions))
		for i, a := range actions {
			out.Body.Actions[i] = string(a)
		}
		out.Body.Access = make([]AccessOptionResponse, len(menu))
		for i, opt := range menu {
			out.Body.Access[i] = AccessOptionResponse{
				Action:            string(opt.Action),
				Label:             opt.Label,
				RequiresReason:    opt.RequiresReason,
				AcceptsResumeDate: opt.AcceptsResumeDate,
				RequiresConfirm:   opt.RequiresConfirm,
				Destructive:       opt.Destructive,
			}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-action",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/actions",
		Summary:     "Request a lifecycle action",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *ActionInput) (*TenantOutput, error) {
		action := domain.Action(input.Body.Action)

		var (
			tenant domain.Tenant
			err    error
		)
		if action == domain.ActionAssignPlan {
			tenant, err = svc.Tenants.RequestTransition(ctx, input.ID, action, domain.TransitionParams{
				Plan: input.Body.Plan.toDomain(),
			})
		} else {
			tenant, err = svc.Access.Confirm(ctx, input.ID, action, app.AccessForm{
				Reason:       input.Body.Reason,
				ResumeBy:     input.Body.ResumeBy,
				Confirmation: input.Body.Confirmation,
			})
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "configure-plan",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tenants/{id}/plan",
		Summary:     "Edit the tenant's plan configuration",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *ConfigureInput) (*TenantOutput, error) {
		b := input.Body
		change := domain.PlanChange{
			PlanGroup:      b.PlanGroup,
			ProductPackage: b.ProductPackage,
			IsReseller:     b.IsReseller,
		}
		if b.BillingInterval != nil {
			interval := domain.BillingInterval(*b.BillingInterval)
			change.BillingInterval = &interval
		}
		if b.Limits != nil {
			l := b.Limits.toDomain()
			change.Limits = &l
		}
		if b.Fallback != nil {
			change.Fallback = &domain.FallbackPlan{
				Group:    b.Fallback.Group,
				Features: b.Fallback.Features,
				Billing:  domain.FallbackBilling(b.Fallback.Billing),
			}
		}

		tenant, err := svc.Tenants.Configure(ctx, input.ID, change)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(tenant)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrTenantNotFound) {
		return huma.Error404NotFound("tenant not found")
	}
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		return huma.Error404NotFound("invoice not found")
	}

	var slugErr *domain.SlugConflictError
	if errors.As(err, &slugErr) {
		return huma.Error409Conflict(slugErr.Error())
	}

	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return huma.Error409Conflict(stageErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error400BadRequest(valErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return huma.Error504GatewayTimeout("processing timed out")
	}

	return huma.Error500InternalServerError("internal server error")
}
