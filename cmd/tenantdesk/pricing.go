package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

type pricingFlags struct {
	plan     string
	interval string
	students int
	teachers int
	admins   int
	reseller bool
	trial    bool
}

func newPricingCmd() *cobra.Command {
	var f pricingFlags

	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Print the price breakdown of a plan configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPricing(cmd.OutOrStdout(), f, cmd.Flags().Changed)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.plan, "plan", domain.PlanCampusStarter, "plan group")
	flags.StringVar(&f.interval, "interval", string(domain.IntervalYearly), "billing interval: Monthly, Yearly or Custom")
	flags.IntVar(&f.students, "students", 0, "student limit (defaults to the tier base)")
	flags.IntVar(&f.teachers, "teachers", 0, "teacher limit (defaults to the tier base)")
	flags.IntVar(&f.admins, "admins", 0, "admin limit (defaults to the tier base)")
	flags.BoolVar(&f.reseller, "reseller", false, "price on the reseller tier")
	flags.BoolVar(&f.trial, "trial", false, "price a tenant in trial")
	return cmd
}

func printPricing(w io.Writer, f pricingFlags, changed func(string) bool) error {
	interval := domain.BillingInterval(f.interval)
	if !interval.Valid() {
		return &domain.ValidationError{Field: "interval", Message: "must be Monthly, Yearly or Custom"}
	}

	tenant := domain.NewTenant("", "", "")
	tenant.HasPlan = true
	tenant.PlanGroup = f.plan
	tenant.BillingInterval = interval
	tenant.IsTrial = f.trial
	tenant.SetReseller(f.reseller)
	if changed("students") {
		tenant.Limits.Students = f.students
	}
	if changed("teachers") {
		tenant.Limits.Teachers = f.teachers
	}
	if changed("admins") {
		tenant.Limits.Admins = f.admins
	}
	if err := domain.ValidateLimits(tenant.Limits, tenant.IsReseller); err != nil {
		return err
	}

	p := domain.ComputePricing(tenant)
	unit := p.IntervalLabel

	fmt.Fprintf(w, "Plan:        %s (%s)\n", tenant.PlanGroup, tenant.BillingInterval)
	fmt.Fprintf(w, "Base price:  %s%s\n", p.BasePrice.StringFixed(2), unit)
	fmt.Fprintf(w, "Students:    +%d  %s\n", p.ExtraStudents, p.StudentCost.StringFixed(2))
	fmt.Fprintf(w, "Teachers:    +%d  %s\n", p.ExtraTeachers, p.TeacherCost.StringFixed(2))
	fmt.Fprintf(w, "Admins:      +%d  %s\n", p.ExtraAdmins, p.AdminCost.StringFixed(2))
	fmt.Fprintf(w, "Total:       %s%s\n", p.Total.StringFixed(2), unit)
	fmt.Fprintf(w, "Renews at:   %s%s\n", p.FutureRenewalPrice.StringFixed(2), unit)
	return nil
}
