// Package api mounts the storefront's HTTP surface: product reads, session
// configuration, cart mutations, upload orchestration, and the cleanup
// webhook receiver.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terandy/canvas-print-shop-sub000/internal/blob"
	"github.com/terandy/canvas-print-shop-sub000/internal/cache"
	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
	"github.com/terandy/canvas-print-shop-sub000/internal/commerce"
	"github.com/terandy/canvas-print-shop-sub000/internal/config"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/session"
)

// SessionCookie carries the browser session id.
const SessionCookie = "cps_session"

// Platform is the slice of the commerce client the handlers need. Tests
// substitute a fake.
type Platform interface {
	GetProduct(ctx context.Context, handle, locale string) (catalog.Product, error)
	SearchProducts(ctx context.Context, query, sortSlug, locale string) ([]catalog.Product, error)
	CreateCart(ctx context.Context) (cart.State, error)
	AddLines(ctx context.Context, cartID string, lines []commerce.LineInput) (cart.State, error)
	UpdateLines(ctx context.Context, cartID string, lines []commerce.LineInput) (cart.State, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (cart.State, error)
	GetCart(ctx context.Context, cartID string) (cart.State, bool, error)
}

// Handler holds all API handler state.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Manager
	platform Platform
	blobs    blob.Store
	reqLog   *httpkit.RequestLog
	started  time.Time

	products *cache.Cache[catalog.Product]
	searches *cache.Cache[[]catalog.Product]
	carts    *cache.Cache[cart.State]
}

// NewHandler creates the API handler.
func NewHandler(cfg *config.Config, sessions *session.Manager, platform Platform, blobs blob.Store, reqLog *httpkit.RequestLog, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		platform: platform,
		blobs:    blobs,
		reqLog:   reqLog,
		started:  time.Now(),
		products: cache.New[catalog.Product](5 * time.Minute),
		searches: cache.New[[]catalog.Product](time.Minute),
		carts:    cache.New[cart.State](time.Minute),
	}
}

// Routes mounts the API endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{handle}", h.GetProduct)

		r.Post("/webhooks/cleanup", h.CleanupWebhook)

		// Session-scoped endpoints.
		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware)

			r.Get("/config", h.GetConfig)
			r.Patch("/config", h.PatchConfig)
			r.Delete("/config/{field}", h.DeleteConfigField)
			r.Get("/config/preview", h.Preview)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			// Line ids are slash-bearing platform GIDs, carried in the
			// id query parameter instead of the path.
			r.Patch("/cart/items", h.UpdateCartItem)
			r.Post("/cart/items/quantity", h.UpdateCartItemQuantity)

			r.Post("/upload", h.CreateUpload)
			r.Post("/upload/complete", h.CompleteUpload)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/requests", h.Requests)
		r.Get("/sessions", h.Sessions)
		r.Post("/reset", h.Reset)
	})
}

type contextKey string

const sessionCtxKey contextKey = "session"

// sessionMiddleware resolves the browser session from its cookie, creating
// a new session (and cookie) on first contact. Session creation seeds the
// configuration against the configurable product, so a platform outage on
// the very first request surfaces as a 502 here rather than as a half-built
// session later.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			id = c.Value
		}

		if sess, ok := h.sessions.Get(id); ok {
			ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		product, err := h.product(r.Context(), h.locale(r))
		if err != nil {
			h.logger.Error("loading product for new session", "err", err)
			httpkit.Error(w, http.StatusBadGateway, "commerce platform unavailable")
			return
		}

		if id == "" {
			id = h.sessions.NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess := h.sessions.GetOrCreate(r.Context(), id, product, r.URL.Query().Get("cartItemId"))
		ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentSession extracts the session placed in context by sessionMiddleware.
func currentSession(r *http.Request) *session.Session {
	return r.Context().Value(sessionCtxKey).(*session.Session)
}

// locale returns the request's locale, defaulting to the first configured one.
func (h *Handler) locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	if len(h.cfg.Locales) > 0 {
		return h.cfg.Locales[0]
	}
	return "en"
}

// product returns the configurable product, cached per locale.
func (h *Handler) product(ctx context.Context, locale string) (catalog.Product, error) {
	key := h.cfg.Product + ":" + locale
	if p, ok := h.products.Get(key); ok {
		return p, nil
	}
	p, err := h.platform.GetProduct(ctx, h.cfg.Product, locale)
	if err != nil {
		return catalog.Product{}, err
	}
	h.products.Set(key, p, cache.TagProducts)
	return p, nil
}
