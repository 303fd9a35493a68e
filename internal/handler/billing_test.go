package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/billing"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/service"
)

// mockBilling implements billing.Service.
type mockBilling struct {
	checkoutSession *billing.CheckoutSession
	checkoutErr     error
	lastCheckout    billing.CheckoutParams

	verifyEvent stripe.Event
	verifyErr   error

	subscription *stripe.Subscription
	planByPrice  map[string]domain.Plan
}

func (m *mockBilling) CreateCustomer(email, name string) (string, error) {
	return "cus_test", nil
}

func (m *mockBilling) CreateCheckoutSession(params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	m.lastCheckout = params
	if m.checkoutErr != nil {
		return nil, m.checkoutErr
	}
	return m.checkoutSession, nil
}

func (m *mockBilling) CreatePortalSession(customerID, returnURL string) (string, error) {
	return "https://billing.stripe.com/session/test", nil
}

func (m *mockBilling) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	if m.subscription == nil {
		return nil, errors.New("no such subscription")
	}
	return m.subscription, nil
}

func (m *mockBilling) CancelSubscription(subscriptionID string) error     { return nil }
func (m *mockBilling) ReactivateSubscription(subscriptionID string) error { return nil }

func (m *mockBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if m.verifyErr != nil {
		return stripe.Event{}, m.verifyErr
	}
	return m.verifyEvent, nil
}

func (m *mockBilling) PlanForPriceID(priceID string) domain.Plan {
	return m.planByPrice[priceID]
}

var _ billing.Service = (*mockBilling)(nil)

// mockUsageService implements the parts of service.UsageService the
// billing and webhook handlers touch.
type mockUsageService struct {
	service.UsageService

	profile         *domain.UserProfile
	profileErr      error
	updates         []domain.SubscriptionUpdateParams
	customerUpdates []string
}

func (m *mockUsageService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockUsageService) GetProfileByStripeCustomerID(ctx context.Context, customerID string) (*domain.UserProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockUsageService) UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, customerID string) error {
	m.customerUpdates = append(m.customerUpdates, customerID)
	return nil
}

func (m *mockUsageService) UpdateSubscription(ctx context.Context, params domain.SubscriptionUpdateParams) error {
	m.updates = append(m.updates, params)
	return nil
}

func checkoutBody(priceID, successURL, cancelURL string) string {
	b, _ := json.Marshal(map[string]string{
		"priceId":    priceID,
		"successUrl": successURL,
		"cancelUrl":  cancelURL,
	})
	return string(b)
}

func TestHandleCheckout_MissingPriceID(t *testing.T) {
	h := NewBillingHandler(&mockBilling{}, &mockUsageService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		strings.NewReader(checkoutBody("", "https://x/s", "https://x/c")))
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Price ID is required")
}

func TestHandleCheckout_MissingURLs(t *testing.T) {
	h := NewBillingHandler(&mockBilling{}, &mockUsageService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		strings.NewReader(checkoutBody("price_123", "https://x/s", "")))
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Success and cancel URLs are required")
}

func TestHandleCheckout_StripeNotConfigured(t *testing.T) {
	h := NewBillingHandler(nil, &mockUsageService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		strings.NewReader(checkoutBody("price_123", "https://x/s", "https://x/c")))
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Stripe is not configured")
}

func TestHandleCheckout_Anonymous(t *testing.T) {
	mock := &mockBilling{checkoutSession: &billing.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.com/pay/cs_test_123",
	}}
	h := NewBillingHandler(mock, &mockUsageService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		strings.NewReader(checkoutBody("price_123", "https://x/s", "https://x/c")))
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "cs_test_123", body["sessionId"])
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", body["url"])
	assert.Equal(t, "price_123", mock.lastCheckout.PriceID)
}

func TestHandleCheckout_AuthenticatedCreatesCustomer(t *testing.T) {
	mock := &mockBilling{checkoutSession: &billing.CheckoutSession{ID: "cs_1", URL: "https://x"}}
	usage := &mockUsageService{profile: &domain.UserProfile{Plan: domain.PlanFree}}
	h := NewBillingHandler(mock, usage, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		strings.NewReader(checkoutBody("price_123", "https://x/s", "https://x/c")))
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{Email: "u@example.com"}))
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cus_test", mock.lastCheckout.CustomerID)
	assert.Equal(t, []string{"cus_test"}, usage.customerUpdates)
}

func TestHandleCancel_NoSubscription(t *testing.T) {
	usage := &mockUsageService{profile: &domain.UserProfile{Plan: domain.PlanFree}}
	h := NewBillingHandler(&mockBilling{}, usage, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/cancel", strings.NewReader(`{}`))
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{}))
	rec := httptest.NewRecorder()
	h.HandleCancel(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active subscription")
}

func TestHandleCancel_Success(t *testing.T) {
	usage := &mockUsageService{profile: &domain.UserProfile{
		Plan:                 domain.PlanPro,
		StripeSubscriptionID: "sub_123",
	}}
	h := NewBillingHandler(&mockBilling{}, usage, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/cancel", strings.NewReader(`{}`))
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{}))
	rec := httptest.NewRecorder()
	h.HandleCancel(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
