package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the row shape of the user_profiles table.
type UserProfile struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Plan                 string
	MonthlyUsage         int32
	MonthlyLimit         int32
	StripeCustomerID     sql.NullString
	StripeSubscriptionID sql.NullString
	SubscriptionStatus   sql.NullString
	SubscriptionEndDate  sql.NullTime
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const profileColumns = `id, user_id, plan, monthly_usage, monthly_limit,
stripe_customer_id, stripe_subscription_id, subscription_status,
subscription_end_date, created_at, updated_at`

func scanProfile(row *sql.Row) (UserProfile, error) {
	var p UserProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Plan, &p.MonthlyUsage, &p.MonthlyLimit,
		&p.StripeCustomerID, &p.StripeSubscriptionID, &p.SubscriptionStatus,
		&p.SubscriptionEndDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createProfile = `
INSERT INTO user_profiles (user_id, plan, monthly_usage, monthly_limit)
VALUES ($1, $2, $3, $4)
RETURNING ` + profileColumns

// CreateProfileParams holds the inputs for CreateProfile.
type CreateProfileParams struct {
	UserID       uuid.UUID
	Plan         string
	MonthlyUsage int32
	MonthlyLimit int32
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (UserProfile, error) {
	row := q.db.QueryRowContext(ctx, createProfile, arg.UserID, arg.Plan, arg.MonthlyUsage, arg.MonthlyLimit)
	return scanProfile(row)
}

const getProfileByUserID = `
SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`

func (q *Queries) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (UserProfile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfileByUserID, userID))
}

const getProfileByStripeCustomerID = `
SELECT ` + profileColumns + ` FROM user_profiles WHERE stripe_customer_id = $1`

func (q *Queries) GetProfileByStripeCustomerID(ctx context.Context, customerID string) (UserProfile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfileByStripeCustomerID, customerID))
}

const updateProfileUsage = `
UPDATE user_profiles SET monthly_usage = $2, updated_at = now() WHERE user_id = $1`

// UpdateProfileUsage overwrites the cached monthly-usage snapshot with a
// freshly recomputed count.
func (q *Queries) UpdateProfileUsage(ctx context.Context, userID uuid.UUID, monthlyUsage int32) error {
	_, err := q.db.ExecContext(ctx, updateProfileUsage, userID, monthlyUsage)
	return err
}

const updateProfilePlan = `
UPDATE user_profiles SET plan = $2, monthly_limit = $3, updated_at = now() WHERE user_id = $1`

func (q *Queries) UpdateProfilePlan(ctx context.Context, userID uuid.UUID, plan string, monthlyLimit int32) error {
	_, err := q.db.ExecContext(ctx, updateProfilePlan, userID, plan, monthlyLimit)
	return err
}

const updateProfileStripeCustomer = `
UPDATE user_profiles SET stripe_customer_id = $2, updated_at = now() WHERE user_id = $1`

func (q *Queries) UpdateProfileStripeCustomer(ctx context.Context, userID uuid.UUID, customerID sql.NullString) error {
	_, err := q.db.ExecContext(ctx, updateProfileStripeCustomer, userID, customerID)
	return err
}

const updateProfileSubscription = `
UPDATE user_profiles
SET plan = $2, monthly_limit = $3, stripe_subscription_id = $4,
    subscription_status = $5, subscription_end_date = $6, updated_at = now()
WHERE user_id = $1`

// UpdateProfileSubscriptionParams holds the inputs for UpdateProfileSubscription.
type UpdateProfileSubscriptionParams struct {
	UserID               uuid.UUID
	Plan                 string
	MonthlyLimit         int32
	StripeSubscriptionID sql.NullString
	SubscriptionStatus   sql.NullString
	SubscriptionEndDate  sql.NullTime
}

func (q *Queries) UpdateProfileSubscription(ctx context.Context, arg UpdateProfileSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, updateProfileSubscription, arg.UserID, arg.Plan, arg.MonthlyLimit,
		arg.StripeSubscriptionID, arg.SubscriptionStatus, arg.SubscriptionEndDate)
	return err
}
