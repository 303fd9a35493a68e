// Package domain contains core business types and interfaces.
//
// This file defines the User and UserProfile domain types. They are separate
// from the repository models so business logic never depends on sql.Null*
// types or column layout.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the subscription tier controlling the monthly analysis quota.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

// Unlimited reports whether the plan has no monthly analysis cap.
func (p Plan) Unlimited() bool {
	return p == PlanPro || p == PlanEnterprise
}

// SubscriptionStatus mirrors the billing provider's subscription states.
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = ""
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// User represents a registered user.
type User struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string // Never expose this in API responses
	Name            string
	Image           string // Avatar URL reference, opaque to the server
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UserProfile holds the plan, usage counters, and billing identifiers for a
// user. Created lazily on first access; one-to-one with User.
//
// MonthlyUsage is a write-only snapshot: it is overwritten with the
// recomputed analysis count after each recorded analysis, but permission
// decisions and usage stats always recompute from the analyses rows.
type UserProfile struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Plan                 Plan
	MonthlyUsage         int
	MonthlyLimit         int
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   SubscriptionStatus
	SubscriptionEndDate  *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Session represents an authenticated session.
//
// Sessions are stored with a SHA-256 hash of the token; the raw token is
// only given to the client once, at login.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, hashed by the service
	Name     string
	Image    string // Optional
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed), returned once
}

// SubscriptionUpdateParams carries one subscription state change from the
// billing provider to the profile.
type SubscriptionUpdateParams struct {
	UserID               uuid.UUID
	Plan                 Plan
	StripeSubscriptionID string
	Status               SubscriptionStatus
	EndDate              *time.Time
}

// UsageLog is an append-only audit row recorded per billable action.
type UsageLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    string // "analysis", "export", ...
	Metadata  []byte // JSON blob with action-specific detail, may be nil
	CreatedAt time.Time
}

// Usage-log action names.
const (
	UsageActionAnalysis = "analysis"
	UsageActionExport   = "export"
)
