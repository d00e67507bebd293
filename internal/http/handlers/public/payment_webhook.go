package public

import (
	"io"
	"time"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/payment/stripe"

	"github.com/gin-gonic/gin"
)

// StripeWebhook receives card processor events. The signature is
// verified against the raw body before anything is trusted; events
// that do not resolve to a known authorization are acknowledged
// without side effects so the processor stops retrying.
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)

	client, ok := h.Gateway.(*stripe.Client)
	if !ok || client == nil {
		log.Warnw("stripe_webhook_gateway_not_configured")
		respondError(c, response.CodeInternal, "payment processor not configured", nil)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	event, err := client.VerifyAndParseWebhook(headers, body, time.Now())
	if err != nil {
		log.Warnw("stripe_webhook_verify_failed",
			"client_ip", c.ClientIP(),
			"body_size", len(body),
			"error", err,
		)
		respondError(c, response.CodeBadRequest, "invalid webhook signature", nil)
		return
	}

	if event == nil || event.AuthorizationID == "" {
		log.Infow("stripe_webhook_ignored", "event_type", eventTypeOf(event))
		response.Success(c, gin.H{"accepted": true, "updated": false})
		return
	}

	if err := h.OrderService.ApplyWebhookStatus(event.AuthorizationID, event.Status); err != nil {
		log.Warnw("stripe_webhook_apply_failed",
			"event_type", event.EventType,
			"authorization_id", event.AuthorizationID,
			"status", event.Status,
			"error", err,
		)
		respondError(c, response.CodeInternal, "webhook processing failed", err)
		return
	}

	log.Infow("stripe_webhook_processed",
		"event_type", event.EventType,
		"authorization_id", event.AuthorizationID,
		"status", event.Status,
	)
	response.Success(c, gin.H{
		"accepted":   true,
		"updated":    true,
		"event_type": event.EventType,
	})
}

func eventTypeOf(event *stripe.WebhookEvent) string {
	if event == nil {
		return ""
	}
	return event.EventType
}
