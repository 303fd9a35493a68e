// Package domain contains core business types and interfaces.
//
// This file defines the per-plan monthly analysis limits.
package domain

const (
	// FreeMonthlyLimit is the default monthly analysis allowance on the
	// free plan.
	FreeMonthlyLimit = 5

	// UnlimitedMonthlyLimit is the stored limit for paid plans. Paid plans
	// are gated by plan, not by count; the value only feeds usage stats.
	UnlimitedMonthlyLimit = 999999
)

// MonthlyLimitForPlan returns the stored monthly limit for a plan.
// Unknown plans fall back to the free limit.
func MonthlyLimitForPlan(plan Plan) int {
	switch plan {
	case PlanPro, PlanEnterprise:
		return UnlimitedMonthlyLimit
	default:
		return FreeMonthlyLimit
	}
}
