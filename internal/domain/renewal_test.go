package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

func TestQuoteRenewal(t *testing.T) {
	tests := []struct {
		duration domain.RenewalDuration
		subtotal string
		tax      string
		total    string
	}{
		{domain.RenewOneMonth, "120", "6", "126"},
		{domain.RenewSixMonths, "650", "32.5", "682.5"},
		{domain.RenewOneYear, "1200", "60", "1260"},
		{domain.RenewTwoYears, "2200", "110", "2310"},
	}
	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			q, err := domain.QuoteRenewal(tt.duration)
			if err != nil {
				t.Fatalf("QuoteRenewal: %v", err)
			}
			for name, pair := range map[string][2]decimal.Decimal{
				"Subtotal": {q.Subtotal, decimal.RequireFromString(tt.subtotal)},
				"Tax":      {q.Tax, decimal.RequireFromString(tt.tax)},
				"Total":    {q.Total, decimal.RequireFromString(tt.total)},
			} {
				if !pair[0].Equal(pair[1]) {
					t.Errorf("%s = %s, want %s", name, pair[0], pair[1])
				}
			}
		})
	}
}

func TestQuoteRenewal_UnknownDuration(t *testing.T) {
	_, err := domain.QuoteRenewal("3 Weeks")
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "duration" {
		t.Fatalf("err = %v, want duration ValidationError", err)
	}
}

func TestRenewalDuration_Months(t *testing.T) {
	want := []int{1, 6, 12, 24}
	for i, d := range domain.RenewalDurations {
		if d.Months() != want[i] {
			t.Errorf("%s.Months() = %d, want %d", d, d.Months(), want[i])
		}
	}
	if domain.RenewalDuration("forever").Valid() {
		t.Error("unknown duration reported valid")
	}
}

func TestExtendTerm_FromActiveTerm(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Acme", "acme")
	start := now.AddDate(0, -6, 0)
	tenant.StartTerm(start)
	end := *tenant.TermEndsAt

	tenant.ExtendTerm(domain.RenewOneYear, decimal.NewFromInt(1200), now)

	if !tenant.TermStartedAt.Equal(start) {
		t.Errorf("TermStartedAt = %v, want unchanged %v", tenant.TermStartedAt, start)
	}
	if want := end.AddDate(1, 0, 0); !tenant.TermEndsAt.Equal(want) {
		t.Errorf("TermEndsAt = %v, want %v", tenant.TermEndsAt, want)
	}
	assertMoney(t, "TermPrice", tenant.TermPrice, 2400)
}

func TestExtendTerm_LapsedRestartsNow(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Acme", "acme")
	tenant.StartTerm(now.AddDate(-2, 0, 0))

	tenant.ExtendTerm(domain.RenewSixMonths, decimal.NewFromInt(650), now)

	if !tenant.TermStartedAt.Equal(now) {
		t.Errorf("TermStartedAt = %v, want %v", tenant.TermStartedAt, now)
	}
	if want := now.AddDate(0, 6, 0); !tenant.TermEndsAt.Equal(want) {
		t.Errorf("TermEndsAt = %v, want %v", tenant.TermEndsAt, want)
	}
	assertMoney(t, "TermPrice", tenant.TermPrice, 650)
}

func TestExtendTerm_NoTerm(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Acme", "acme")

	tenant.ExtendTerm(domain.RenewOneMonth, decimal.NewFromInt(120), now)

	if tenant.TermStartedAt == nil || tenant.TermEndsAt == nil {
		t.Fatal("ExtendTerm should start a term")
	}
	if got := tenant.TermEndsAt.Sub(*tenant.TermStartedAt); got < 28*24*time.Hour {
		t.Errorf("term length = %v, want about a month", got)
	}
}
