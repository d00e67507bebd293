package stripe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/storefront-next/internal/payment"
)

func TestNewClientConfigDefaults(t *testing.T) {
	client, err := NewClient(Config{
		SecretKey:     " sk_test_123 ",
		WebhookSecret: " whsec_123 ",
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", client.cfg.SecretKey)
	}
	if client.cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", client.cfg.APIBaseURL)
	}
	if client.cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected tolerance: %d", client.cfg.WebhookToleranceSeconds)
	}
}

func TestNewClientRequiresSecretKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestVerifyAndParseWebhookSucceeded(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client, err := NewClient(Config{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":          "payment_intent",
				"id":              "pi_test_123",
				"status":          "succeeded",
				"currency":        "usd",
				"amount":          1288,
				"amount_received": 1288,
				"created":         now.Unix(),
				"metadata": map[string]interface{}{
					"order_id": "1001",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature("whsec_test_abc", now.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	event, err := client.VerifyAndParseWebhook(headers, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.EventType != "payment_intent.succeeded" {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.AuthorizationID != "pi_test_123" {
		t.Fatalf("unexpected authorization id: %s", event.AuthorizationID)
	}
	if event.Status != payment.AuthorizationStatusSucceeded {
		t.Fatalf("unexpected status: %s", event.Status)
	}
	if event.AmountMinor != 1288 {
		t.Fatalf("unexpected amount: %d", event.AmountMinor)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client, err := NewClient(Config{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "payment_intent",
				"id":     "pi_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=invalid-signature",
	}

	if _, err := client.VerifyAndParseWebhook(headers, body, now); err == nil {
		t.Fatalf("expected verify error")
	}
}

func TestVerifyAndParseWebhookOutsideTolerance(t *testing.T) {
	sent := time.Unix(1760000000, 0)
	client, err := NewClient(Config{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "payment_intent",
				"id":     "pi_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature("whsec_test_abc", sent.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	late := sent.Add(10 * time.Minute)
	if _, err := client.VerifyAndParseWebhook(headers, body, late); err == nil {
		t.Fatalf("expected tolerance error")
	}
}

func TestMapIntentStatus(t *testing.T) {
	if got := mapIntentStatus("succeeded"); got != payment.AuthorizationStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", got)
	}
	if got := mapIntentStatus("processing"); got != payment.AuthorizationStatusProcessing {
		t.Fatalf("expected processing, got %s", got)
	}
	if got := mapIntentStatus("requires_action"); got != payment.AuthorizationStatusRequiresAction {
		t.Fatalf("expected requires_action, got %s", got)
	}
	if got := mapIntentStatus("requires_payment_method"); got != payment.AuthorizationStatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}
