package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantdesk/internal/app"
	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// --- Renewal ---

// RenewalStateResponse is a snapshot of a renewal session.
type RenewalStateResponse struct {
	TenantID         string           `json:"tenant_id"`
	Stage            string           `json:"stage" doc:"review, preview, processing or success"`
	Duration         string           `json:"duration"`
	Subtotal         string           `json:"subtotal"`
	Tax              string           `json:"tax"`
	Total            string           `json:"total"`
	SendInvoiceEmail bool             `json:"send_invoice_email"`
	Invoice          *InvoiceResponse `json:"invoice,omitempty" doc:"Invoice recorded by the last commit"`
}

func toRenewalResponse(s app.RenewalState) RenewalStateResponse {
	return RenewalStateResponse{
		TenantID:         s.TenantID,
		Stage:            string(s.Stage),
		Duration:         string(s.Quote.Duration),
		Subtotal:         s.Quote.Subtotal.StringFixed(2),
		Tax:              s.Quote.Tax.StringFixed(2),
		Total:            s.Quote.Total.StringFixed(2),
		SendInvoiceEmail: s.SendInvoiceEmail,
		Invoice:          toInvoiceResponsePtr(s.Invoice),
	}
}

type RenewalOutput struct {
	Body RenewalStateResponse
}

type StartRenewalInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Duration         string `json:"duration,omitempty" enum:"1 Month,6 Months,1 Year,2 Years" default:"1 Year" doc:"Renewal length"`
		SendInvoiceEmail bool   `json:"send_invoice_email,omitempty" default:"true" doc:"Email the invoice once issued"`
	}
}

// --- Upgrade ---

// UpgradeQuoteResponse is the prorated summary of a plan change.
type UpgradeQuoteResponse struct {
	PlanGroup    string `json:"plan_group"`
	NewPlanCost  string `json:"new_plan_cost"`
	AddOnsTotal  string `json:"add_ons_total"`
	Credit       string `json:"credit" doc:"Unused time on the current term"`
	Total        string `json:"total"`
	InvoiceType  string `json:"invoice_type" doc:"Upgrade or Downgrade"`
	IntervalUnit string `json:"interval_unit"`
}

// UpgradeStateResponse is a snapshot of an upgrade session.
type UpgradeStateResponse struct {
	TenantID  string                `json:"tenant_id"`
	Stage     string                `json:"stage" doc:"choose_plan, customize, summary, processing or confirmed"`
	PlanGroup string                `json:"plan_group,omitempty"`
	AddOns    map[string]int        `json:"add_ons"`
	Quote     *UpgradeQuoteResponse `json:"quote,omitempty"`
	Invoice   *InvoiceResponse      `json:"invoice,omitempty"`
}

func toUpgradeResponse(s app.UpgradeState) UpgradeStateResponse {
	resp := UpgradeStateResponse{
		TenantID:  s.TenantID,
		Stage:     string(s.Stage),
		PlanGroup: s.PlanGroup,
		AddOns:    s.AddOns,
		Invoice:   toInvoiceResponsePtr(s.Invoice),
	}
	if resp.AddOns == nil {
		resp.AddOns = map[string]int{}
	}
	if q := s.Quote; q != nil {
		resp.Quote = &UpgradeQuoteResponse{
			PlanGroup:    q.PlanGroup,
			NewPlanCost:  q.NewPlanCost.StringFixed(2),
			AddOnsTotal:  q.AddOnsTotal.StringFixed(2),
			Credit:       q.Credit.StringFixed(2),
			Total:        q.Total.StringFixed(2),
			InvoiceType:  string(q.InvoiceType),
			IntervalUnit: q.IntervalUnit,
		}
	}
	return resp
}

type UpgradeOutput struct {
	Body UpgradeStateResponse
}

type ChoosePlanInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		PlanGroup string `json:"plan_group" enum:"Campus Starter,Institution Pro,Enterprise Elite" doc:"Target plan group"`
	}
}

type SetAddOnsInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		AddOns map[string]int `json:"add_ons" doc:"Quantity per add-on ID"`
	}
}

func registerRenewal(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "get-renewal",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/renewal",
		Summary:     "Get the renewal session",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *TenantPathInput) (*RenewalOutput, error) {
		s, err := svc.Renewals.State(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-renewal",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/renewal",
		Summary:     "Open a renewal at review with the chosen duration",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *StartRenewalInput) (*RenewalOutput, error) {
		s, err := svc.Renewals.Start(ctx, input.ID, domain.RenewalDuration(input.Body.Duration), input.Body.SendInvoiceEmail)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-renewal",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/renewal/preview",
		Summary:     "Move the renewal to preview",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *TenantPathInput) (*RenewalOutput, error) {
		s, err := svc.Renewals.Advance(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "back-renewal",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/renewal/back",
		Summary:     "Return from preview to review",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *TenantPathInput) (*RenewalOutput, error) {
		s, err := svc.Renewals.Back(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "commit-renewal",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/renewal/commit",
		Summary:     "Process the previewed renewal",
		Description: "Blocks for the processing delay, then records the invoice. Trial tenants are activated.",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *TenantPathInput) (*RenewalOutput, error) {
		if _, err := svc.Renewals.Commit(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s, err := svc.Renewals.State(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-renewal",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}/renewal",
		Summary:     "Close the renewal session",
		Tags:        []string{"Renewal"},
	}, func(ctx context.Context, input *TenantPathInput) (*RenewalOutput, error) {
		s, err := svc.Renewals.Reset(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewalOutput{Body: toRenewalResponse(s)}, nil
	})
}

func registerUpgrade(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "get-upgrade",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/upgrade",
		Summary:     "Get the upgrade session",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *TenantPathInput) (*UpgradeOutput, error) {
		s, err := svc.Upgrades.State(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "choose-upgrade-plan",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/upgrade",
		Summary:     "Choose the target plan group",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *ChoosePlanInput) (*UpgradeOutput, error) {
		s, err := svc.Upgrades.ChoosePlan(ctx, input.ID, input.Body.PlanGroup)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-upgrade-addons",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/upgrade/addons",
		Summary:     "Replace the selected add-ons",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *SetAddOnsInput) (*UpgradeOutput, error) {
		if _, err := svc.Tenants.GetByID(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s, err := svc.Upgrades.SetAddOns(ctx, input.ID, input.Body.AddOns)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "summarize-upgrade",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/upgrade/summary",
		Summary:     "Compute the prorated summary",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *TenantPathInput) (*UpgradeOutput, error) {
		s, err := svc.Upgrades.Summarize(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "back-upgrade",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/upgrade/back",
		Summary:     "Move the upgrade one stage back",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *TenantPathInput) (*UpgradeOutput, error) {
		if _, err := svc.Tenants.GetByID(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s, err := svc.Upgrades.Back(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "commit-upgrade",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/upgrade/commit",
		Summary:     "Apply the summarized plan change",
		Description: "Blocks for the processing delay, then records the invoice and moves the tenant to the new plan.",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *TenantPathInput) (*UpgradeOutput, error) {
		if _, err := svc.Upgrades.Commit(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s, err := svc.Upgrades.State(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-upgrade",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}/upgrade",
		Summary:     "Close the upgrade session",
		Tags:        []string{"Upgrade"},
	}, func(ctx context.Context, input *TenantPathInput) (*UpgradeOutput, error) {
		if _, err := svc.Tenants.GetByID(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s, err := svc.Upgrades.Reset(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpgradeOutput{Body: toUpgradeResponse(s)}, nil
	})
}
