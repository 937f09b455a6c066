package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
)

// Health handles GET /admin/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpkit.JSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Count(),
		"uptime":   time.Since(h.started).String(),
	})
}

// Requests handles GET /admin/requests, returning the recent-request ring
// buffer.
func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	httpkit.JSON(w, http.StatusOK, map[string]any{
		"requests": h.reqLog.Entries(),
	})
}

// Sessions handles GET /admin/sessions?cursor=&limit=.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httpkit.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	httpkit.JSON(w, http.StatusOK, h.sessions.Page(r.URL.Query().Get("cursor"), limit))
}

// Reset handles POST /admin/reset, dropping all sessions and caches.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.sessions.Reset()
	h.products.Purge()
	h.searches.Purge()
	h.carts.Purge()
	h.reqLog.Clear()
	httpkit.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
