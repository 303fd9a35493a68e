// Package service contains the business logic layer.
//
// This file implements the usage service: the plan gate for analyses and
// the usage accounting around it.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/repository"
)

// UsageService defines operations around plan limits and usage accounting.
//
// Usage is always recomputed from the analyses table: the monthly_usage
// column on user_profiles is a display snapshot, never an input to a
// permission decision. The count window is the current calendar month in
// UTC, so allowances reset at the month boundary without a rollover job.
type UsageService interface {
	// GetProfile returns the user's plan profile, creating a free-plan
	// profile on first access.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// GetProfileByStripeCustomerID resolves a profile from a Stripe
	// customer ID. Returns domain.ENOTFOUND when no profile matches.
	GetProfileByStripeCustomerID(ctx context.Context, customerID string) (*domain.UserProfile, error)

	// CanPerformAnalysis checks whether the user may run another analysis
	// this month. Denials carry the upgrade message as the reason.
	CanPerformAnalysis(ctx context.Context, userID uuid.UUID) (*domain.Permission, error)

	// GetMonthlyUsage counts the user's analyses in the current calendar
	// month.
	GetMonthlyUsage(ctx context.Context, userID uuid.UUID) (int, error)

	// RecordAnalysis persists a completed analysis, appends a usage-log
	// row, and refreshes the profile's usage snapshot.
	RecordAnalysis(ctx context.Context, userID uuid.UUID, text string, contentType domain.ContentType, result *domain.AnalysisResult, isDemo bool) (*domain.Analysis, error)

	// RecordExport appends an export usage-log row.
	RecordExport(ctx context.Context, userID, analysisID uuid.UUID) error

	// GetUsageStats returns the user's consumption against their plan.
	GetUsageStats(ctx context.Context, userID uuid.UUID) (*domain.UsageStats, error)

	// ListAnalyses returns the user's analyses, newest first. A limit of 0
	// applies the default page size.
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error)

	// GetAnalysis returns one analysis owned by the user. Rows owned by
	// other users surface as domain.ENOTFOUND.
	GetAnalysis(ctx context.Context, userID, analysisID uuid.UUID) (*domain.Analysis, error)

	// UpdatePlan sets the plan and derived monthly limit directly, outside
	// a subscription change. Used for manual plan grants.
	UpdatePlan(ctx context.Context, userID uuid.UUID, plan domain.Plan) error

	// UpdateStripeCustomer saves the Stripe customer ID on the profile.
	UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, customerID string) error

	// UpdateSubscription applies a subscription state change from the
	// billing provider: plan, limit, subscription ID, status, and period
	// end together.
	UpdateSubscription(ctx context.Context, params domain.SubscriptionUpdateParams) error
}

type usageService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUsageService creates a new UsageService.
func NewUsageService(queries *repository.Queries, logger *slog.Logger) UsageService {
	return &usageService{
		queries: queries,
		logger:  logger,
	}
}

// GetProfile returns the user's plan profile, creating one lazily.
func (s *usageService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	const op = "usage.get_profile"

	profile, err := s.queries.GetProfileByUserID(ctx, userID)
	if err == nil {
		return repoProfileToDomain(profile), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to retrieve profile")
	}

	created, err := s.queries.CreateProfile(ctx, repository.CreateProfileParams{
		UserID:       userID,
		Plan:         string(domain.PlanFree),
		MonthlyUsage: 0,
		MonthlyLimit: int32(domain.FreeMonthlyLimit),
	})
	if err != nil {
		// Lost a race with a concurrent first access.
		if repository.IsUniqueViolation(err) {
			profile, err = s.queries.GetProfileByUserID(ctx, userID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to retrieve profile")
			}
			return repoProfileToDomain(profile), nil
		}
		return nil, domain.Internal(err, op, "failed to create profile")
	}

	s.logger.Info("profile created", "user_id", userID, "plan", created.Plan)
	return repoProfileToDomain(created), nil
}

// GetProfileByStripeCustomerID resolves a profile from a Stripe customer ID.
func (s *usageService) GetProfileByStripeCustomerID(ctx context.Context, customerID string) (*domain.UserProfile, error) {
	const op = "usage.get_profile_by_customer"

	profile, err := s.queries.GetProfileByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", customerID)
		}
		return nil, domain.Internal(err, op, "failed to retrieve profile")
	}

	return repoProfileToDomain(profile), nil
}

// analysisPermission decides the plan gate from the plan, the recomputed
// monthly count, and the profile's stored limit. Paid plans are gated by
// plan, never by count.
func analysisPermission(op string, plan domain.Plan, used, limit int) *domain.Permission {
	if plan.Unlimited() {
		return &domain.Permission{Allowed: true}
	}
	if used >= limit {
		return &domain.Permission{
			Allowed: false,
			Reason:  domain.LimitReached(op, limit).Message,
		}
	}
	return &domain.Permission{Allowed: true}
}

// CanPerformAnalysis checks the plan gate for one more analysis.
func (s *usageService) CanPerformAnalysis(ctx context.Context, userID uuid.UUID) (*domain.Permission, error) {
	const op = "usage.can_perform_analysis"

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Skip the count query when the plan is not count-gated.
	if profile.Plan.Unlimited() {
		return &domain.Permission{Allowed: true}, nil
	}

	used, err := s.GetMonthlyUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	perm := analysisPermission(op, profile.Plan, used, profile.MonthlyLimit)
	if !perm.Allowed {
		s.logger.Info("analysis denied by plan gate",
			"user_id", userID,
			"plan", profile.Plan,
			"used", used,
			"limit", profile.MonthlyLimit,
		)
	}
	return perm, nil
}

// GetMonthlyUsage counts analyses in the current calendar month.
func (s *usageService) GetMonthlyUsage(ctx context.Context, userID uuid.UUID) (int, error) {
	const op = "usage.get_monthly_usage"

	startOfMonth := currentMonthStart()
	count, err := s.queries.CountAnalysesByUserSince(ctx, userID, startOfMonth)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to count analyses")
	}

	return int(count), nil
}

// RecordAnalysis persists a completed analysis and its usage-log row.
//
// The analysis insert is the source of truth for the gate; usage-log and
// snapshot failures are logged but do not fail the call.
func (s *usageService) RecordAnalysis(ctx context.Context, userID uuid.UUID, text string, contentType domain.ContentType, result *domain.AnalysisResult, isDemo bool) (*domain.Analysis, error) {
	const op = "usage.record_analysis"

	sentiment, err := json.Marshal(result.Sentiment)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode sentiment")
	}
	tone, err := json.Marshal(result.Tone)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode tone")
	}
	intent, err := json.Marshal(result.Intent)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode intent")
	}

	row, err := s.queries.CreateAnalysis(ctx, repository.CreateAnalysisParams{
		UserID:             userID,
		Text:               text,
		ContentType:        string(contentType),
		Sentiment:          sentiment,
		Tone:               tone,
		Intent:             intent,
		Suggestions:        result.Suggestions,
		Misinterpretations: result.PotentialMisinterpretations,
		IsDemo:             isDemo,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to persist analysis")
	}

	meta, _ := json.Marshal(map[string]any{
		"analysis_id":  row.ID.String(),
		"content_type": string(contentType),
		"demo":         isDemo,
	})
	if _, err := s.queries.CreateUsageLog(ctx, repository.CreateUsageLogParams{
		UserID:   userID,
		Action:   domain.UsageActionAnalysis,
		Metadata: pqtype.NullRawMessage{RawMessage: meta, Valid: true},
	}); err != nil {
		s.logger.Warn("failed to append usage log", "user_id", userID, "error", err)
	}

	s.refreshUsageSnapshot(ctx, userID)

	return repoAnalysisToDomain(row)
}

// RecordExport appends an export usage-log row.
func (s *usageService) RecordExport(ctx context.Context, userID, analysisID uuid.UUID) error {
	const op = "usage.record_export"

	meta, _ := json.Marshal(map[string]any{"analysis_id": analysisID.String()})
	_, err := s.queries.CreateUsageLog(ctx, repository.CreateUsageLogParams{
		UserID:   userID,
		Action:   domain.UsageActionExport,
		Metadata: pqtype.NullRawMessage{RawMessage: meta, Valid: true},
	})
	if err != nil {
		return domain.Internal(err, op, "failed to append usage log")
	}
	return nil
}

// computeUsageStats derives the stats payload from the profile's stored
// limit and the recomputed monthly count. The percentage is the raw ratio
// and exceeds 100 when a limit was lowered mid-month.
func computeUsageStats(profile *domain.UserProfile, used int) *domain.UsageStats {
	remaining := profile.MonthlyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	var pct float64
	if profile.MonthlyLimit > 0 {
		pct = float64(used) / float64(profile.MonthlyLimit) * 100
	}

	return &domain.UsageStats{
		Plan:            profile.Plan,
		MonthlyUsage:    used,
		MonthlyLimit:    profile.MonthlyLimit,
		Remaining:       remaining,
		UsagePercentage: pct,
	}
}

// GetUsageStats returns the user's consumption against their plan.
func (s *usageService) GetUsageStats(ctx context.Context, userID uuid.UUID) (*domain.UsageStats, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	used, err := s.GetMonthlyUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	return computeUsageStats(profile, used), nil
}

// History listing page sizes.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ListAnalyses returns the user's analyses, newest first.
func (s *usageService) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error) {
	const op = "usage.list_analyses"

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.queries.ListAnalysesByUser(ctx, userID, int32(limit))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list analyses")
	}

	analyses := make([]domain.Analysis, 0, len(rows))
	for _, row := range rows {
		a, err := repoAnalysisToDomain(row)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to decode analysis")
		}
		analyses = append(analyses, *a)
	}
	return analyses, nil
}

// GetAnalysis returns one analysis owned by the user.
func (s *usageService) GetAnalysis(ctx context.Context, userID, analysisID uuid.UUID) (*domain.Analysis, error) {
	const op = "usage.get_analysis"

	row, err := s.queries.GetAnalysisByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "analysis", analysisID.String())
		}
		return nil, domain.Internal(err, op, "failed to retrieve analysis")
	}
	if row.UserID != userID {
		return nil, domain.NotFound(op, "analysis", analysisID.String())
	}

	return repoAnalysisToDomain(row)
}

// UpdatePlan sets the plan and derived limit directly.
func (s *usageService) UpdatePlan(ctx context.Context, userID uuid.UUID, plan domain.Plan) error {
	const op = "usage.update_plan"

	if !plan.Valid() {
		return domain.Invalid(op, "Unknown plan")
	}

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	err := s.queries.UpdateProfilePlan(ctx, userID, string(plan), int32(domain.MonthlyLimitForPlan(plan)))
	if err != nil {
		return domain.Internal(err, op, "failed to update plan")
	}

	s.logger.Info("plan updated", "user_id", userID, "plan", plan)
	return nil
}

// UpdateStripeCustomer saves the Stripe customer ID on the profile.
func (s *usageService) UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, customerID string) error {
	const op = "usage.update_stripe_customer"

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	err := s.queries.UpdateProfileStripeCustomer(ctx, userID, domain.ToNullString(customerID))
	if err != nil {
		return domain.Internal(err, op, "failed to update stripe customer")
	}

	s.logger.Info("stripe customer updated", "user_id", userID, "stripe_customer_id", customerID)
	return nil
}

// UpdateSubscription applies a subscription state change.
func (s *usageService) UpdateSubscription(ctx context.Context, params domain.SubscriptionUpdateParams) error {
	const op = "usage.update_subscription"

	if !params.Plan.Valid() {
		return domain.Invalid(op, "Unknown plan")
	}

	if _, err := s.GetProfile(ctx, params.UserID); err != nil {
		return err
	}

	err := s.queries.UpdateProfileSubscription(ctx, repository.UpdateProfileSubscriptionParams{
		UserID:               params.UserID,
		Plan:                 string(params.Plan),
		MonthlyLimit:         int32(domain.MonthlyLimitForPlan(params.Plan)),
		StripeSubscriptionID: domain.ToNullString(params.StripeSubscriptionID),
		SubscriptionStatus:   domain.ToNullString(string(params.Status)),
		SubscriptionEndDate:  domain.ToNullTime(params.EndDate),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}

	s.logger.Info("subscription updated",
		"user_id", params.UserID,
		"plan", params.Plan,
		"status", params.Status,
	)
	return nil
}

// refreshUsageSnapshot overwrites the display snapshot with the recomputed
// count. Best effort.
func (s *usageService) refreshUsageSnapshot(ctx context.Context, userID uuid.UUID) {
	used, err := s.GetMonthlyUsage(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to recompute usage snapshot", "user_id", userID, "error", err)
		return
	}
	if err := s.queries.UpdateProfileUsage(ctx, userID, int32(used)); err != nil {
		s.logger.Warn("failed to store usage snapshot", "user_id", userID, "error", err)
	}
}

// currentMonthStart returns the first instant of the current month in UTC.
func currentMonthStart() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func repoProfileToDomain(p repository.UserProfile) *domain.UserProfile {
	return &domain.UserProfile{
		ID:                   p.ID,
		UserID:               p.UserID,
		Plan:                 domain.Plan(p.Plan),
		MonthlyUsage:         int(p.MonthlyUsage),
		MonthlyLimit:         int(p.MonthlyLimit),
		StripeCustomerID:     domain.NullStringValue(p.StripeCustomerID),
		StripeSubscriptionID: domain.NullStringValue(p.StripeSubscriptionID),
		SubscriptionStatus:   domain.SubscriptionStatus(domain.NullStringValue(p.SubscriptionStatus)),
		SubscriptionEndDate:  domain.NullTimeValue(p.SubscriptionEndDate),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func repoAnalysisToDomain(a repository.Analysis) (*domain.Analysis, error) {
	var result domain.AnalysisResult
	if err := json.Unmarshal(a.Sentiment, &result.Sentiment); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(a.Tone, &result.Tone); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(a.Intent, &result.Intent); err != nil {
		return nil, err
	}
	result.Suggestions = a.Suggestions
	result.PotentialMisinterpretations = a.Misinterpretations

	return &domain.Analysis{
		ID:          a.ID,
		UserID:      a.UserID,
		Text:        a.Text,
		ContentType: domain.ContentType(a.ContentType),
		Result:      result,
		IsDemo:      a.IsDemo,
		CreatedAt:   a.CreatedAt,
	}, nil
}

var _ UsageService = (*usageService)(nil)
