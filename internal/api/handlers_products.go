package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terandy/canvas-print-shop-sub000/internal/cache"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
)

// ListProducts handles GET /api/products?q=&sort=&locale=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	sort := r.URL.Query().Get("sort")
	loc := h.locale(r)

	key := "search:" + q + ":" + sort + ":" + loc
	if products, ok := h.searches.Get(key); ok {
		httpkit.JSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}

	products, err := h.platform.SearchProducts(r.Context(), q, sort, loc)
	if err != nil {
		h.logger.Error("searching products", "query", q, "err", err)
		httpkit.Error(w, http.StatusBadGateway, "commerce platform unavailable")
		return
	}

	h.searches.Set(key, products, cache.TagProducts)
	httpkit.JSON(w, http.StatusOK, map[string]any{"products": products})
}

// GetProduct handles GET /api/products/{handle}?locale=.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	loc := h.locale(r)

	key := handle + ":" + loc
	if p, ok := h.products.Get(key); ok {
		httpkit.JSON(w, http.StatusOK, p)
		return
	}

	p, err := h.platform.GetProduct(r.Context(), handle, loc)
	if err != nil {
		h.logger.Error("fetching product", "handle", handle, "err", err)
		httpkit.Error(w, http.StatusNotFound, "product not found")
		return
	}

	h.products.Set(key, p, cache.TagProducts)
	httpkit.JSON(w, http.StatusOK, p)
}
