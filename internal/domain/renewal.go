package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RenewalDuration is a purchasable renewal length.
type RenewalDuration string

const (
	RenewOneMonth  RenewalDuration = "1 Month"
	RenewSixMonths RenewalDuration = "6 Months"
	RenewOneYear   RenewalDuration = "1 Year"
	RenewTwoYears  RenewalDuration = "2 Years"
)

// RenewalDurations lists the durations in the order they are offered.
var RenewalDurations = []RenewalDuration{RenewOneMonth, RenewSixMonths, RenewOneYear, RenewTwoYears}

// renewalSubtotals is a fixed price list, separate from ComputePricing.
var renewalSubtotals = map[RenewalDuration]int64{
	RenewOneMonth:  120,
	RenewSixMonths: 650,
	RenewOneYear:   1200,
	RenewTwoYears:  2200,
}

// RenewalTaxRate is applied on top of every renewal subtotal.
var RenewalTaxRate = decimal.New(5, -2)

// Months returns the number of months d buys.
func (d RenewalDuration) Months() int {
	switch d {
	case RenewOneMonth:
		return 1
	case RenewSixMonths:
		return 6
	case RenewOneYear:
		return 12
	case RenewTwoYears:
		return 24
	}
	return 0
}

// Valid reports whether d is one of the offered durations.
func (d RenewalDuration) Valid() bool {
	return d.Months() > 0
}

// RenewalQuote is the invoice preview for a renewal.
type RenewalQuote struct {
	Duration RenewalDuration
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// QuoteRenewal prices a renewal of length d.
func QuoteRenewal(d RenewalDuration) (RenewalQuote, error) {
	sub, ok := renewalSubtotals[d]
	if !ok {
		return RenewalQuote{}, &ValidationError{Field: "duration", Message: "must be one of 1 Month, 6 Months, 1 Year, 2 Years"}
	}
	subtotal := decimal.NewFromInt(sub)
	tax := subtotal.Mul(RenewalTaxRate).Round(2)
	return RenewalQuote{
		Duration: d,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ExtendTerm pushes the tenant's term end out by d and adds paid to the
// term's price. A lapsed or missing term restarts at now priced at paid.
func (t *Tenant) ExtendTerm(d RenewalDuration, paid decimal.Decimal, now time.Time) {
	if t.TermStartedAt == nil || t.TermEndsAt == nil || !t.TermEndsAt.After(now) {
		s := now
		t.TermStartedAt = &s
		t.TermEndsAt = &s
		t.TermPrice = decimal.Zero
	}
	end := t.TermEndsAt.AddDate(0, d.Months(), 0)
	t.TermEndsAt = &end
	t.TermPrice = t.TermPrice.Add(paid)
}
