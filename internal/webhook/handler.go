// Package webhook is the C10 inbound intake surface: it validates the
// messaging gateway's webhook payload, deduplicates retried deliveries,
// and hands accepted messages to the conversation orchestrator.
package webhook

import (
	"context"
	"net/http"
	"time"

	"sdrsolar/internal/conversation"
	"sdrsolar/platform/httpkit"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/sanitize"
	"sdrsolar/platform/validator"

	"github.com/gin-gonic/gin"
)

// inboundBudget bounds how long a single webhook-triggered conversation
// turn is allowed to run once detached from the HTTP request (spec: 45s
// total turn budget).
const inboundBudget = 45 * time.Second

// Orchestrator is the subset of conversation.Orchestrator the webhook
// handler depends on.
type Orchestrator interface {
	HandleInbound(ctx context.Context, in conversation.InboundMessage) error
}

// Handler implements the gateway's webhook contract.
type Handler struct {
	orchestrator Orchestrator
	dedup        *dedupCache
	val          *validator.Validator
	log          *logger.Logger
}

// NewHandler builds a webhook Handler.
func NewHandler(orchestrator Orchestrator, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		dedup:        newDedupCache(),
		val:          val,
		log:          log,
	}
}

// HandleGatewayEvent processes a gateway webhook delivery.
// POST /api/v1/webhook/gateway
func (h *Handler) HandleGatewayEvent(c *gin.Context) {
	var payload gowaWebhookPayload
	if !h.bindAndValidate(c, &payload) {
		return
	}

	inbound, ok := extractInbound(payload)
	if !ok {
		// Not an actionable event (status update, connection event, echo
		// of our own send, or a shape we don't recognize). Acknowledged
		// so the gateway doesn't retry it.
		c.Status(http.StatusOK)
		return
	}

	if h.dedup.seen(inbound.gatewayMessageID) {
		h.log.Info("webhook: duplicate delivery ignored", "gateway_message_id", inbound.gatewayMessageID)
		c.Status(http.StatusOK)
		return
	}

	h.dispatch(inbound)
	c.Status(http.StatusOK)
}

// dispatch hands the parsed message to the orchestrator on a detached
// context so the webhook response isn't held open for the full turn; the
// gateway only needs a fast 200 to stop retrying the delivery. The
// orchestrator's own per-lead lock already serializes turns per mailbox,
// so no additional queue is needed here.
func (h *Handler) dispatch(in parsedInbound) {
	go func() {
		defer h.recoverPanic(in.gatewayMessageID)

		ctx, cancel := context.WithTimeout(context.Background(), inboundBudget)
		defer cancel()

		err := h.orchestrator.HandleInbound(ctx, conversation.InboundMessage{
			Phone:            in.phone,
			DisplayName:      sanitize.Text(in.displayName),
			Text:             in.text,
			ContentType:      in.contentType,
			GatewayMessageID: in.gatewayMessageID,
			MediaMessageID:   in.mediaMessageID,
		})
		if err != nil {
			h.log.Error("webhook: inbound turn failed", "gateway_message_id", in.gatewayMessageID, "error", err)
		}
	}()
}

func (h *Handler) bindAndValidate(c *gin.Context, payload *gowaWebhookPayload) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "malformed webhook payload", err.Error())
		return false
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "webhook payload validation failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) recoverPanic(gatewayMessageID string) {
	if r := recover(); r != nil {
		h.log.Error("webhook: recovered panic handling inbound message", "gateway_message_id", gatewayMessageID, "panic", r)
	}
}
