package service

import (
	"strings"
	"testing"
	"time"

	"github.com/tonemirror/tonemirror/internal/domain"
)

func TestAnalysisPermission(t *testing.T) {
	const op = "usage.can_perform_analysis"

	tests := []struct {
		name    string
		plan    domain.Plan
		used    int
		limit   int
		allowed bool
	}{
		{"free plan fresh month", domain.PlanFree, 0, 5, true},
		{"free plan fifth analysis permitted", domain.PlanFree, 4, 5, true},
		{"free plan sixth analysis denied", domain.PlanFree, 5, 5, false},
		{"free plan over limit denied", domain.PlanFree, 6, 5, false},
		{"free plan raised limit honored", domain.PlanFree, 5, 10, true},
		{"free plan raised limit exhausted", domain.PlanFree, 10, 10, false},
		{"pro plan never count gated", domain.PlanPro, 100000, 5, true},
		{"enterprise plan never count gated", domain.PlanEnterprise, 100000, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perm := analysisPermission(op, tt.plan, tt.used, tt.limit)
			if perm.Allowed != tt.allowed {
				t.Errorf("analysisPermission(%s, %d, %d).Allowed = %v, want %v",
					tt.plan, tt.used, tt.limit, perm.Allowed, tt.allowed)
			}
			if perm.Allowed && perm.Reason != "" {
				t.Errorf("allowed permission carries reason %q", perm.Reason)
			}
			if !perm.Allowed && perm.Reason == "" {
				t.Error("denied permission carries no reason")
			}
		})
	}
}

func TestAnalysisPermission_DenialReason(t *testing.T) {
	perm := analysisPermission("usage.can_perform_analysis", domain.PlanFree, 5, 5)

	if perm.Allowed {
		t.Fatal("expected denial")
	}
	if !strings.Contains(perm.Reason, "Monthly limit reached (5 analyses)") {
		t.Errorf("reason %q does not name the limit", perm.Reason)
	}
	if !strings.Contains(perm.Reason, "Upgrade to Pro") {
		t.Errorf("reason %q does not suggest upgrading", perm.Reason)
	}
}

func TestComputeUsageStats(t *testing.T) {
	tests := []struct {
		name      string
		plan      domain.Plan
		limit     int
		used      int
		remaining int
		pct       float64
	}{
		{"fresh month", domain.PlanFree, 5, 0, 5, 0},
		{"partial use", domain.PlanFree, 5, 3, 2, 60},
		{"exhausted", domain.PlanFree, 5, 5, 0, 100},
		{"over limit uncapped percentage", domain.PlanFree, 5, 7, 0, 140},
		{"zero limit", domain.PlanFree, 0, 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := computeUsageStats(&domain.UserProfile{
				Plan:         tt.plan,
				MonthlyLimit: tt.limit,
			}, tt.used)

			if stats.MonthlyUsage != tt.used {
				t.Errorf("MonthlyUsage = %d, want %d", stats.MonthlyUsage, tt.used)
			}
			if stats.MonthlyLimit != tt.limit {
				t.Errorf("MonthlyLimit = %d, want %d", stats.MonthlyLimit, tt.limit)
			}
			if stats.Remaining != tt.remaining {
				t.Errorf("Remaining = %d, want %d", stats.Remaining, tt.remaining)
			}
			if stats.UsagePercentage != tt.pct {
				t.Errorf("UsagePercentage = %v, want %v", stats.UsagePercentage, tt.pct)
			}
		})
	}
}

func TestCurrentMonthStart(t *testing.T) {
	start := currentMonthStart()
	now := time.Now().UTC()

	if start.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", start.Location())
	}
	if start.Day() != 1 {
		t.Errorf("day = %d, want 1", start.Day())
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		t.Errorf("clock not at midnight: %v", start)
	}
	if start.Year() != now.Year() || start.Month() != now.Month() {
		t.Errorf("month window %v does not match current month %v", start, now)
	}
	if start.After(now) {
		t.Errorf("month start %v is in the future", start)
	}
}
