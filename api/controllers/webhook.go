package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rushikeshnagarkar/balutedaar-app/api/responses"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/conversation"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

const (
	maxWebhookBody = 1 << 20
	dedupeTTL      = 24 * time.Hour
	dedupeScope    = "webhook"
)

type eventHandler interface {
	HandleEvent(ctx context.Context, ev conversation.Event) error
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// WebhookController receives inbound provider events. Recognized business
// failures still answer 200 so the provider does not retry-storm; only
// malformed payloads get a client error.
type WebhookController struct {
	handler eventHandler
	dedupe  dedupeStore
	logg    *logger.Logger
}

// NewWebhookController builds the inbound webhook controller. dedupe may be
// nil, which disables duplicate-delivery suppression.
func NewWebhookController(handler eventHandler, dedupe dedupeStore, logg *logger.Logger) *WebhookController {
	return &WebhookController{handler: handler, dedupe: dedupe, logg: logg}
}

// Handle processes one webhook delivery.
func (c *WebhookController) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
		return
	}

	events, err := conversation.DecodeEvents(body)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	if len(events) == 0 {
		// Status update: acknowledged, no side effect.
		responses.WriteSuccess(w, map[string]string{"status": "ignored"})
		return
	}

	for _, ev := range events {
		if !c.markFresh(ctx, ev.MessageID) {
			continue
		}
		if err := c.handler.HandleEvent(ctx, ev); err != nil {
			// Release the dedupe key so a provider redelivery can retry.
			c.release(ctx, ev.MessageID)
			responses.WriteError(ctx, c.logg, w, err)
			return
		}
	}
	responses.WriteSuccess(w, map[string]string{"status": "processed"})
}

func (c *WebhookController) markFresh(ctx context.Context, messageID string) bool {
	if c.dedupe == nil || messageID == "" {
		return true
	}
	key := c.dedupe.IdempotencyKey(dedupeScope, messageID)
	fresh, err := c.dedupe.SetNX(ctx, key, "1", dedupeTTL)
	if err != nil {
		// Dedupe is an optimization; a broken store must not drop messages.
		if c.logg != nil {
			c.logg.Error(ctx, "webhook dedupe check failed", err)
		}
		return true
	}
	if !fresh && c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "message_id", messageID), "duplicate webhook delivery skipped")
	}
	return fresh
}

func (c *WebhookController) release(ctx context.Context, messageID string) {
	if c.dedupe == nil || messageID == "" {
		return
	}
	key := c.dedupe.IdempotencyKey(dedupeScope, messageID)
	if err := c.dedupe.Del(ctx, key); err != nil && c.logg != nil {
		c.logg.Error(ctx, "webhook dedupe release failed", err)
	}
}
