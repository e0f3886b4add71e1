package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mitanda/config"
	"mitanda/internal/service"
	"mitanda/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	reconciler *service.ReconcilerService
	cfg        *config.Config
	log        *zap.Logger
}

func NewWebhookHandler(reconciler *service.ReconcilerService, cfg *config.Config, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, cfg: cfg, log: log}
}

// stripeEvent is the slice of the gateway event envelope we care about.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			PaymentIntent    string            `json:"payment_intent"`
			AmountTotalCents int64             `json:"amount_total"`
			Metadata         map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleStripe receives gateway webhooks. Deliveries are at-least-once, so
// the reconciler must stay idempotent; this handler only verifies the
// signature, filters event types and maps reconciliation outcomes to status
// codes the gateway understands.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo ilegible"})
		return
	}
	sig := c.GetHeader("Stripe-Signature")
	if err := payment.VerifySignature(body, sig, h.cfg.Stripe.WebhookSecret, h.cfg.Stripe.Tolerance); err != nil {
		h.log.Warn("firma de webhook rechazada", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "firma inválida"})
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "json inválido"})
		return
	}
	if event.Type != "checkout.session.completed" {
		// Acknowledged but ignored; the gateway sends many event types.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	session := &service.CompletedSession{
		ID:               event.Data.Object.ID,
		PaymentIntentID:  event.Data.Object.PaymentIntent,
		AmountTotalCents: event.Data.Object.AmountTotalCents,
		Metadata:         event.Data.Object.Metadata,
	}
	if err := h.reconciler.ProcessCheckoutSession(c.Request.Context(), session); err != nil {
		// Nothing was recorded for this session; reporting failure lets the
		// gateway's retry policy take over. Unprocessable payloads are logged
		// with their reason since redelivering them cannot succeed.
		var fatalErr *service.FatalWebhookError
		if errors.As(err, &fatalErr) {
			h.log.Error("webhook no procesable",
				zap.String("session_id", session.ID), zap.String("reason", fatalErr.Reason))
		} else {
			h.log.Error("reconciliación falló",
				zap.String("session_id", session.ID), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "procesamiento falló"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
