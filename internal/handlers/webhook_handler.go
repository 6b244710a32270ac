package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

// webhookDedupTTL covers the gateway's redelivery window.
const webhookDedupTTL = 24 * time.Hour

type WebhookHandler struct {
	verifier   *services.SignatureVerifier
	reconciler *services.PaymentReconciler
	cache      *services.RedisCache
	gatewayTag models.PaymentGateway
}

func NewWebhookHandler(verifier *services.SignatureVerifier, reconciler *services.PaymentReconciler, cache *services.RedisCache, gatewayTag models.PaymentGateway) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconciler: reconciler, cache: cache, gatewayTag: gatewayTag}
}

// webhookEnvelope is the gateway's notification shape.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				Method           string `json:"method"`
				Email            string `json:"email"`
				Contact          string `json:"contact"`
				ErrorDescription string `json:"error_description"`
				Card             *struct {
					Last4   string `json:"last4"`
					Network string `json:"network"`
				} `json:"card"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleNotification authenticates and reconciles one webhook delivery.
// Delivery is at-least-once; replays resolve to idempotent no-ops.
func (h *WebhookHandler) HandleNotification(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read body")
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !h.verifier.VerifyWebhook(body, signature) {
		// No detail about which part of validation failed
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	outcome, known := declaredOutcomeFor(env.Event)
	if !known {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	payment := env.Payload.Payment.Entity
	if payment.OrderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Notification carries no order id")
	}

	dedupKey := fmt.Sprintf("webhook:%s:%s:%s", payment.OrderID, payment.ID, outcome)
	if h.cache != nil {
		fresh, err := h.cache.SetNX(c.Request().Context(), dedupKey, 1, webhookDedupTTL)
		if err == nil && !fresh {
			return c.JSON(http.StatusOK, map[string]string{"status": "duplicate"})
		}
	}

	ev := services.PaymentEvent{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Outcome:   outcome,
		Source:    services.SourceWebhook,
		Gateway:   h.gatewayTag,
		Raw:       body,
		Method:    payment.Method,
		Reason:    payment.ErrorDescription,
	}
	if payment.Card != nil {
		ev.Last4 = payment.Card.Last4
		ev.Network = payment.Card.Network
	}

	result, err := h.reconciler.ApplyEvent(c.Request().Context(), ev)
	if err != nil {
		// Release the dedup key so the gateway's redelivery is not swallowed
		if h.cache != nil {
			_ = h.cache.Delete(c.Request().Context(), dedupKey)
		}
		if errors.Is(err, services.ErrUnknownOrder) {
			// May be delivered before the record committed; a 404 makes the
			// gateway redeliver later.
			return echo.NewHTTPError(http.StatusNotFound, "Unknown order")
		}
		return err
	}

	if result.Outcome == services.OutcomeConflict {
		log.Printf("Webhook conflict acknowledged for order %s", payment.OrderID)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(result.Outcome)})
}

func declaredOutcomeFor(event string) (services.DeclaredOutcome, bool) {
	switch event {
	case "payment.captured", "order.paid", "payment_link.paid":
		return services.DeclaredSuccess, true
	case "payment.failed":
		return services.DeclaredFailure, true
	case "payment_link.cancelled":
		return services.DeclaredCancellation, true
	default:
		return "", false
	}
}
