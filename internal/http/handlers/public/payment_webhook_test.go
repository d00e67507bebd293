package public

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/payment/stripe"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
)

func decodeWebhookResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestStripeWebhookRejectsWhenProcessorNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h := New(&provider.Container{})
	h.StripeWebhook(c)

	resp := decodeWebhookResponse(t, w)
	if resp.StatusCode != response.CodeInternal {
		t.Fatalf("expected status_code %d, got %d", response.CodeInternal, resp.StatusCode)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client, err := stripe.NewClient(stripe.Config{
		SecretKey:     "sk_test_local",
		WebhookSecret: "whsec_local",
	})
	if err != nil {
		t.Fatalf("new stripe client: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=1700000000,v1=deadbeef")
	c.Request = req

	h := New(&provider.Container{Gateway: client})
	h.StripeWebhook(c)

	resp := decodeWebhookResponse(t, w)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected status_code %d, got %d", response.CodeBadRequest, resp.StatusCode)
	}
}
