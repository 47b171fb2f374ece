package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newTestStripeClient(t *testing.T, handler http.HandlerFunc) *StripeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	c, err := NewStripeClient("sk_test_123", testWebhookSecret, WithBackends(&stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}))
	require.NoError(t, err)
	return c
}

func TestNewStripeClientRequiresSecret(t *testing.T) {
	_, err := NewStripeClient("", "whsec")
	require.Error(t, err)
}

func TestStripeClient_CreateCheckoutSession(t *testing.T) {
	c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "p1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "jane@example.com", r.PostForm.Get("customer_email"))
		assert.Equal(t, "14900", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "month", r.PostForm.Get("line_items[0][price_data][recurring][interval]"))
		assert.Equal(t, "Standard Integration Plan", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "p1", r.PostForm.Get("metadata[purchaseId]"))
		assert.Equal(t, "Jane Doe", r.PostForm.Get("metadata[customerName]"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_123","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_123","status":"open","payment_status":"unpaid","amount_total":14900,"currency":"usd","client_reference_id":"p1","customer_email":"jane@example.com"}`)
	})

	s, err := c.CreateCheckoutSession(context.Background(), models.CheckoutSessionParams{
		PurchaseID:      "p1",
		PricingTierName: "Standard",
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		AmountMinor:     14900,
		Currency:        "USD",
		Interval:        "month",
		SuccessURL:      "https://market.example.com/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       "https://market.example.com/purchase?hub=zendesk&spoke=jira",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", s.URL)
	assert.Equal(t, "p1", s.PurchaseID)
	assert.Equal(t, int64(14900), s.AmountTotal)
}

func TestStripeClient_GetCheckoutSession(t *testing.T) {
	c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_123","object":"checkout.session","status":"complete","payment_status":"paid","amount_total":29900,"currency":"usd","metadata":{"purchaseId":"p9"},"customer_details":{"email":"bob@example.com"}}`)
	})

	s, err := c.GetCheckoutSession(context.Background(), "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, "complete", s.Status)
	assert.Equal(t, "paid", s.PaymentStatus)
	assert.Equal(t, "p9", s.PurchaseID)
	assert.Equal(t, "bob@example.com", s.CustomerEmail)
}

func TestStripeClient_ParseWebhook(t *testing.T) {
	c, err := NewStripeClient("sk_test_123", testWebhookSecret)
	require.NoError(t, err)

	now := time.Now()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_test_123","object":"checkout.session","client_reference_id":"p1","payment_status":"paid"}}}`, now.Unix()))

	event, err := c.ParseWebhook(payload, signPayload(payload, testWebhookSecret, now))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, models.PaymentEventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_test_123", event.SessionID)
	assert.Equal(t, "p1", event.PurchaseID)
	assert.True(t, event.Paid)

	_, err = c.ParseWebhook(payload, signPayload(payload, "whsec_other", now))
	assert.Error(t, err)
}

func TestStripeClient_ParseWebhookWithoutSecret(t *testing.T) {
	c, err := NewStripeClient("sk_test_123", "")
	require.NoError(t, err)

	_, err = c.ParseWebhook([]byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrWebhookSecretMissing)
}
