package api

import (
	"io"
	"net/http"

	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/webhook"
)

// CleanupWebhook handles POST /api/webhooks/cleanup. The commerce platform
// posts order and cart lifecycle events here; on cleanup-worthy topics the
// uploaded images referenced by the payload's line items are deleted from
// object storage. Deletes are best effort: a storage failure is logged and
// the webhook still acknowledges, since the platform would otherwise retry
// the whole event against objects that may be half-deleted.
func (h *Handler) CleanupWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpkit.Error(w, http.StatusBadRequest, "reading body")
		return
	}

	if !webhook.Verify(body, r.Header.Get(webhook.SignatureHeader), h.cfg.Commerce.WebhookSecret) {
		h.logger.Warn("webhook signature mismatch", "topic", r.Header.Get(webhook.TopicHeader))
		httpkit.Error(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	topic := r.Header.Get(webhook.TopicHeader)
	if !webhook.CleanupTopic(topic) {
		httpkit.JSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": 0})
		return
	}

	payload, err := webhook.ParsePayload(body)
	if err != nil {
		httpkit.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	deleted := 0
	for _, url := range payload.ImageURLs() {
		if err := h.blobs.Delete(r.Context(), url); err != nil {
			h.logger.Error("deleting uploaded image", "url", url, "err", err)
			continue
		}
		deleted++
	}

	h.logger.Info("processed cleanup webhook", "topic", topic, "deleted", deleted)
	httpkit.JSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})
}
