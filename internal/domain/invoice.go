package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "Paid"
	InvoicePending InvoiceStatus = "Pending"
	InvoiceFailed  InvoiceStatus = "Failed"
)

// InvoiceType is the billing event an invoice records.
type InvoiceType string

const (
	InvoiceRenewal   InvoiceType = "Renewal"
	InvoiceUpgrade   InvoiceType = "Upgrade"
	InvoiceCreation  InvoiceType = "Creation"
	InvoiceDowngrade InvoiceType = "Downgrade"
)

// Invoice is a ledger entry. Amount is a snapshot taken when the invoice was
// recorded and never changes afterwards.
type Invoice struct {
	ID       string
	TenantID string
	Plan     string
	Date     time.Time
	Amount   decimal.Decimal
	Status   InvoiceStatus
	Type     InvoiceType
}

// NewInvoice creates a pending invoice for tenant dated now.
func NewInvoice(id string, tenant Tenant, amount decimal.Decimal, typ InvoiceType, now time.Time) Invoice {
	return Invoice{
		ID:       id,
		TenantID: tenant.ID,
		Plan:     tenant.PlanGroup,
		Date:     now,
		Amount:   amount,
		Status:   InvoicePending,
		Type:     typ,
	}
}
