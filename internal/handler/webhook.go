// Stripe webhook handler.
//
// The route is public; authentication is the webhook signature. Event
// processing is best effort: handler failures are logged and the event is
// still acknowledged, so Stripe does not retry events we cannot use.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/tonemirror/tonemirror/internal/billing"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/service"
)

// maxWebhookBody caps webhook payloads at 64KB.
const maxWebhookBody = 65536

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing billing.Service // nil when Stripe is not configured
	usage   service.UsageService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(billingService billing.Service, usage service.UsageService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billingService,
		usage:   usage,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/stripe/webhook", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and processes one Stripe webhook event.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Missing stripe signature"})
		return
	}
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Stripe is not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid payload"})
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid signature"})
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChange(ctx, event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(ctx, event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleCheckoutCompleted activates the subscription bought at checkout.
// The subscription object carries the price, so it is fetched to resolve
// the plan.
func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return
	}
	if session.Customer == nil || session.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", session.ID)
		return
	}

	profile, err := h.usage.GetProfileByStripeCustomerID(ctx, session.Customer.ID)
	if err != nil {
		// The subscription.created event resolves this once the customer ID
		// is saved.
		h.logger.Info("no profile for checkout customer",
			"customer_id", session.Customer.ID, "session_id", session.ID)
		return
	}

	sub, err := h.billing.GetSubscription(session.Subscription.ID)
	if err != nil {
		h.logger.Error("failed to fetch subscription after checkout",
			"subscription_id", session.Subscription.ID, "error", err)
		return
	}

	h.applySubscription(ctx, profile, sub)
}

// handleSubscriptionChange applies created and updated subscription events.
func (h *WebhookHandler) handleSubscriptionChange(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err)
		return
	}
	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return
	}

	profile, err := h.usage.GetProfileByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("no profile for subscription event",
			"customer_id", sub.Customer.ID, "subscription_id", sub.ID)
		return
	}

	h.applySubscription(ctx, profile, &sub)
}

// applySubscription maps one Stripe subscription state onto the profile.
// Canceled and unpaid subscriptions drop the user back to the free plan.
func (h *WebhookHandler) applySubscription(ctx context.Context, profile *domain.UserProfile, sub *stripe.Subscription) {
	plan := domain.Plan("")
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		plan = h.billing.PlanForPriceID(sub.Items.Data[0].Price.ID)
	}
	if plan == "" {
		h.logger.Warn("subscription price maps to no plan", "subscription_id", sub.ID)
		return
	}

	status := domain.SubscriptionStatus(sub.Status)
	if status == domain.SubscriptionStatusCanceled || status == domain.SubscriptionStatusUnpaid {
		plan = domain.PlanFree
	}

	var endDate *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		endDate = &t
	}

	err := h.usage.UpdateSubscription(ctx, domain.SubscriptionUpdateParams{
		UserID:               profile.UserID,
		Plan:                 plan,
		StripeSubscriptionID: sub.ID,
		Status:               status,
		EndDate:              endDate,
	})
	if err != nil {
		h.logger.Error("failed to apply subscription state",
			"user_id", profile.UserID, "subscription_id", sub.ID, "error", err)
		return
	}

	h.logger.Info("subscription state applied",
		"user_id", profile.UserID, "plan", plan, "status", status)
}

// handleSubscriptionDeleted drops the user back to the free plan.
func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return
	}
	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return
	}

	profile, err := h.usage.GetProfileByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("no profile for subscription deletion", "customer_id", sub.Customer.ID)
		return
	}

	err = h.usage.UpdateSubscription(ctx, domain.SubscriptionUpdateParams{
		UserID: profile.UserID,
		Plan:   domain.PlanFree,
		Status: domain.SubscriptionStatusCanceled,
	})
	if err != nil {
		h.logger.Error("failed to downgrade on subscription deletion",
			"user_id", profile.UserID, "error", err)
		return
	}

	h.logger.Info("subscription deleted", "user_id", profile.UserID, "subscription_id", sub.ID)
}

// handlePaymentSucceeded restores active status after a recovery payment.
func (h *WebhookHandler) handlePaymentSucceeded(ctx context.Context, event stripe.Event) {
	profile, ok := h.profileForInvoice(ctx, event)
	if !ok {
		return
	}
	if profile.SubscriptionStatus == domain.SubscriptionStatusActive {
		return
	}

	h.setStatus(ctx, profile, domain.SubscriptionStatusActive)
}

// handlePaymentFailed marks the subscription past due. The plan is kept;
// downgrade happens when Stripe cancels the subscription.
func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, event stripe.Event) {
	profile, ok := h.profileForInvoice(ctx, event)
	if !ok {
		return
	}

	h.setStatus(ctx, profile, domain.SubscriptionStatusPastDue)
	h.logger.Warn("payment failed", "user_id", profile.UserID)
}

func (h *WebhookHandler) profileForInvoice(ctx context.Context, event stripe.Event) (*domain.UserProfile, bool) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice event", "error", err, "type", event.Type)
		return nil, false
	}
	if invoice.Customer == nil {
		return nil, false
	}

	profile, err := h.usage.GetProfileByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("no profile for invoice event", "customer_id", invoice.Customer.ID)
		return nil, false
	}
	return profile, true
}

func (h *WebhookHandler) setStatus(ctx context.Context, profile *domain.UserProfile, status domain.SubscriptionStatus) {
	err := h.usage.UpdateSubscription(ctx, domain.SubscriptionUpdateParams{
		UserID:               profile.UserID,
		Plan:                 profile.Plan,
		StripeSubscriptionID: profile.StripeSubscriptionID,
		Status:               status,
		EndDate:              profile.SubscriptionEndDate,
	})
	if err != nil {
		h.logger.Error("failed to update subscription status",
			"user_id", profile.UserID, "status", status, "error", err)
	}
}
