package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// PricingResponse is the cost breakdown of a tenant's current plan.
// Money fields are decimal strings with two places.
type PricingResponse struct {
	BasePrice          string `json:"base_price"`
	StudentCost        string `json:"student_cost"`
	TeacherCost        string `json:"teacher_cost"`
	AdminCost          string `json:"admin_cost"`
	Total              string `json:"total" doc:"Amount due now; zero during a trial"`
	FutureRenewalPrice string `json:"future_renewal_price" doc:"What the next term will cost"`
	ExtraStudents      int    `json:"extra_students"`
	ExtraTeachers      int    `json:"extra_teachers"`
	ExtraAdmins        int    `json:"extra_admins"`
	IntervalLabel      string `json:"interval_label" doc:"/mo or /yr"`
}

func toPricingResponse(p domain.PricingBreakdown) PricingResponse {
	return PricingResponse{
		BasePrice:          p.BasePrice.StringFixed(2),
		StudentCost:        p.StudentCost.StringFixed(2),
		TeacherCost:        p.TeacherCost.StringFixed(2),
		AdminCost:          p.AdminCost.StringFixed(2),
		Total:              p.Total.StringFixed(2),
		FutureRenewalPrice: p.FutureRenewalPrice.StringFixed(2),
		ExtraStudents:      p.ExtraStudents,
		ExtraTeachers:      p.ExtraTeachers,
		ExtraAdmins:        p.ExtraAdmins,
		IntervalLabel:      p.IntervalLabel,
	}
}

type PricingOutput struct {
	Body PricingResponse
}

// InvoiceResponse is the API representation of a ledger entry.
type InvoiceResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
	Date     string `json:"date" doc:"Issue date (ISO 8601)"`
	Amount   string `json:"amount"`
	Status   string `json:"status" doc:"Paid, Pending or Failed"`
	Type     string `json:"type" doc:"Renewal, Upgrade, Creation or Downgrade"`
}

func toInvoiceResponse(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:       inv.ID,
		TenantID: inv.TenantID,
		Plan:     inv.Plan,
		Date:     inv.Date.UTC().Format(timeFormat),
		Amount:   inv.Amount.StringFixed(2),
		Status:   string(inv.Status),
		Type:     string(inv.Type),
	}
}

func toInvoiceResponsePtr(inv *domain.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	resp := toInvoiceResponse(*inv)
	return &resp
}

type ListInvoicesOutput struct {
	Body []InvoiceResponse
}

type InvoicePathInput struct {
	ID        string `path:"id" doc:"Tenant ID"`
	InvoiceID string `path:"invoiceID" doc:"Invoice ID"`
}

type InvoiceOutput struct {
	Body InvoiceResponse
}

type InvoiceDocumentOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// AddOnResponse is one entry of the add-on catalog.
type AddOnResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MonthlyPrice string `json:"monthly_price"`
	Unit         string `json:"unit"`
	Description  string `json:"description"`
}

type ListAddOnsOutput struct {
	Body []AddOnResponse
}

func registerBilling(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "get-pricing",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/pricing",
		Summary:     "Compute the tenant's pricing breakdown",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *TenantPathInput) (*PricingOutput, error) {
		p, err := svc.Tenants.Pricing(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PricingOutput{Body: toPricingResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invoices",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/invoices",
		Summary:     "List the tenant's invoices, newest first",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *TenantPathInput) (*ListInvoicesOutput, error) {
		if _, err := svc.Tenants.GetByID(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		invoices, err := svc.Ledger.List(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]InvoiceResponse, len(invoices))
		for i, inv := range invoices {
			resp[i] = toInvoiceResponse(inv)
		}
		return &ListInvoicesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-invoice",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/invoices/{invoiceID}/pay",
		Summary:     "Mark a pending invoice as paid",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *InvoicePathInput) (*InvoiceOutput, error) {
		tenant, err := svc.Tenants.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		inv, err := svc.Ledger.MarkPaid(ctx, tenant, input.InvoiceID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InvoiceOutput{Body: toInvoiceResponse(inv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "download-invoice",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/invoices/{invoiceID}/pdf",
		Summary:     "Download an invoice as PDF",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *InvoicePathInput) (*InvoiceDocumentOutput, error) {
		tenant, err := svc.Tenants.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		inv, err := svc.Ledger.Get(ctx, input.ID, input.InvoiceID)
		if err != nil {
			return nil, toHumaError(err)
		}
		doc, err := svc.Documents.Render(tenant, inv)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InvoiceDocumentOutput{
			ContentType:        "application/pdf",
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", inv.ID+".pdf"),
			Body:               doc,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-addons",
		Method:      http.MethodGet,
		Path:        "/api/v1/addons",
		Summary:     "List the add-on catalog",
		Tags:        []string{"Billing"},
	}, func(_ context.Context, _ *struct{}) (*ListAddOnsOutput, error) {
		resp := make([]AddOnResponse, len(domain.AddOnCatalog))
		for i, a := range domain.AddOnCatalog {
			resp[i] = AddOnResponse{
				ID:           a.ID,
				Name:         a.Name,
				MonthlyPrice: a.MonthlyPrice.StringFixed(2),
				Unit:         a.Unit,
				Description:  a.Description,
			}
		}
		return &ListAddOnsOutput{Body: resp}, nil
	})
}
