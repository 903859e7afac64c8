package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

var (
	colorPrimary   = [3]int{30, 58, 95}
	colorTextDark  = [3]int{44, 62, 80}
	colorTextMuted = [3]int{127, 140, 141}
	colorTableAlt  = [3]int{241, 245, 249}
	colorPaid      = [3]int{46, 204, 113}
	colorPending   = [3]int{241, 196, 15}
	colorFailed    = [3]int{231, 76, 60}
)

// InvoiceRenderer produces downloadable invoice documents.
type InvoiceRenderer struct {
	issuer string
	now    func() time.Time
}

// NewInvoiceRenderer creates a renderer that prints issuer in the header.
func NewInvoiceRenderer(issuer string) *InvoiceRenderer {
	return &InvoiceRenderer{issuer: issuer, now: time.Now}
}

// Render lays out a single-page A4 invoice for tenant.
func (r *InvoiceRenderer) Render(tenant domain.Tenant, inv domain.Invoice) ([]byte, error) {
	if inv.TenantID != tenant.ID {
		return nil, fmt.Errorf("invoice %s does not belong to tenant %s", inv.ID, tenant.ID)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle("Invoice "+inv.ID, true)
	pdf.SetCreator(r.issuer, true)
	pdf.AddPage()

	r.writeHeader(pdf, inv)
	r.writeParties(pdf, tenant, inv)
	r.writeLines(pdf, tenant, inv)
	r.writeFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice %s: %w", inv.ID, err)
	}
	return buf.Bytes(), nil
}

func (r *InvoiceRenderer) writeHeader(pdf *fpdf.Fpdf, inv domain.Invoice) {
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(20)
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 6, r.issuer, "", 1, "L", false, 0, "")

	c := statusColor(inv.Status)
	pdf.SetY(22)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(c[0], c[1], c[2])
	pdf.CellFormat(0, 8, string(inv.Status), "", 1, "R", false, 0, "")
	pdf.Ln(12)
}

func (r *InvoiceRenderer) writeParties(pdf *fpdf.Fpdf, tenant domain.Tenant, inv domain.Invoice) {
	rows := [][2]string{
		{"Invoice", inv.ID},
		{"Date", inv.Date.Format("January 2, 2006")},
		{"Type", string(inv.Type)},
		{"Billed to", tenant.Name},
		{"Tenant", tenant.Slug},
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (r *InvoiceRenderer) writeLines(pdf *fpdf.Fpdf, tenant domain.Tenant, inv domain.Invoice) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(110, 8, "Description", "0", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Amount (USD)", "0", 1, "R", true, 0, "")

	description := fmt.Sprintf("%s (%s, %s)", inv.Plan, tenant.ProductPackage, tenant.BillingInterval)
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(110, 8, description, "0", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, inv.Amount.StringFixed(2), "0", 1, "R", true, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(110, 10, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, "$"+inv.Amount.StringFixed(2), "T", 1, "R", false, 0, "")
}

func (r *InvoiceRenderer) writeFooter(pdf *fpdf.Fpdf) {
	pdf.SetY(-30)
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", r.now().UTC().Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
}

func statusColor(s domain.InvoiceStatus) [3]int {
	switch s {
	case domain.InvoicePaid:
		return colorPaid
	case domain.InvoiceFailed:
		return colorFailed
	case domain.InvoicePending:
	}
	return colorPending
}
