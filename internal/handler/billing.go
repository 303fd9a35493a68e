package handler

import (
	"log/slog"
	"net/http"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/billing"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/service"
)

// BillingHandler handles Stripe checkout and subscription management.
type BillingHandler struct {
	billing billing.Service // nil when Stripe is not configured
	usage   service.UsageService
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler. billingService may be
// nil when Stripe is not configured; billing routes then report that.
func NewBillingHandler(billingService billing.Service, usage service.UsageService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		usage:   usage,
		logger:  logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux. Checkout
// is public so upgrades work straight from the marketing page; the
// management routes require authentication.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/stripe/checkout", h.HandleCheckout)
	mux.Handle("POST /api/stripe/portal", requireUser(http.HandlerFunc(h.HandlePortal)))
	mux.Handle("POST /api/stripe/cancel", requireUser(http.HandlerFunc(h.HandleCancel)))
	mux.Handle("POST /api/stripe/reactivate", requireUser(http.HandlerFunc(h.HandleReactivate)))
}

type checkoutRequest struct {
	PriceID       string `json:"priceId"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
	CustomerEmail string `json:"customerEmail"`
}

// HandleCheckout creates a Stripe Checkout session for subscribing.
func (h *BillingHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.checkout"

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if req.PriceID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Price ID is required"))
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Success and cancel URLs are required"))
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.NotConfigured(op, "Stripe"))
		return
	}

	params := billing.CheckoutParams{
		PriceID:       req.PriceID,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	}

	// Known users check out against their existing Stripe customer so the
	// webhook can find them; one is created on first checkout.
	if user := auth.GetUser(r.Context()); user != nil {
		customerID, err := h.ensureCustomer(r, user)
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		params.CustomerID = customerID
		params.CustomerEmail = ""
	}

	sess, err := h.billing.CreateCheckoutSession(params)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Wrap(err, domain.EUNAVAILABLE, op, "Failed to create checkout session"))
		return
	}

	metrics.CheckoutSessionsTotal.Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// HandlePortal creates a Stripe Customer Portal session.
func (h *BillingHandler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.portal"

	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.ReturnURL == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Return URL is required"))
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.NotConfigured(op, "Stripe"))
		return
	}

	profile, err := h.usage.GetProfile(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if profile.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "No billing account"))
		return
	}

	url, err := h.billing.CreatePortalSession(profile.StripeCustomerID, req.ReturnURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Wrap(err, domain.EUNAVAILABLE, op, "Failed to create portal session"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"url": url})
}

// HandleCancel sets the subscription to cancel at period end.
func (h *BillingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	const op = "billing.cancel"
	h.updateSubscription(w, r, op, func(subscriptionID string) error {
		return h.billing.CancelSubscription(subscriptionID)
	})
}

// HandleReactivate removes the cancel-at-period-end flag.
func (h *BillingHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	const op = "billing.reactivate"
	h.updateSubscription(w, r, op, func(subscriptionID string) error {
		return h.billing.ReactivateSubscription(subscriptionID)
	})
}

func (h *BillingHandler) updateSubscription(w http.ResponseWriter, r *http.Request, op string, apply func(subscriptionID string) error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.NotConfigured(op, "Stripe"))
		return
	}

	profile, err := h.usage.GetProfile(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if profile.StripeSubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "No active subscription"))
		return
	}

	if err := apply(profile.StripeSubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Wrap(err, domain.EUNAVAILABLE, op, "Failed to update subscription"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ensureCustomer returns the user's Stripe customer ID, creating one on
// first use.
func (h *BillingHandler) ensureCustomer(r *http.Request, user *domain.User) (string, error) {
	const op = "billing.ensure_customer"

	profile, err := h.usage.GetProfile(r.Context(), user.ID)
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	customerID, err := h.billing.CreateCustomer(user.Email, user.Name)
	if err != nil {
		return "", domain.Wrap(err, domain.EUNAVAILABLE, op, "Failed to create billing account")
	}
	if err := h.usage.UpdateStripeCustomer(r.Context(), user.ID, customerID); err != nil {
		return "", err
	}

	return customerID, nil
}
