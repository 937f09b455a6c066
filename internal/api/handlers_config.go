package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/preview"
	"github.com/terandy/canvas-print-shop-sub000/internal/session"
)

// configResponse is the full configurator view: current state, the resolved
// variant, and per-option price deltas relative to the current selection.
type configResponse struct {
	Config       session.State                       `json:"config"`
	CanAddToCart bool                                `json:"canAddToCart"`
	Variant      catalog.Variant                     `json:"variant"`
	PriceDeltas  map[string]map[string]catalog.Money `json:"priceDeltas"`
}

func (h *Handler) configResponse(sess *session.Session) configResponse {
	state := sess.Config.Get()
	product := sess.Config.Product()
	selection := state.Selection()

	deltas := make(map[string]map[string]catalog.Money)
	for _, opt := range product.Options {
		baseline, set := selection[opt.Name]
		if !set {
			continue
		}
		for _, candidate := range opt.Values {
			delta, ok := catalog.PriceDelta(product, selection, opt.Name, candidate, baseline)
			if !ok || catalog.ZeroDelta(delta) {
				continue
			}
			if deltas[opt.Name] == nil {
				deltas[opt.Name] = make(map[string]catalog.Money)
			}
			deltas[opt.Name][candidate] = delta
		}
	}

	return configResponse{
		Config:       state,
		CanAddToCart: sess.Config.CanAddToCart(),
		Variant:      catalog.Resolve(product, selection, h.logger),
		PriceDeltas:  deltas,
	}
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	httpkit.JSON(w, http.StatusOK, h.configResponse(currentSession(r)))
}

// PatchConfig handles PATCH /api/config with body {"field": ..., "value": ...}.
func (h *Handler) PatchConfig(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := sess.Config.UpdateField(r.Context(), req.Field, req.Value); err != nil {
		httpkit.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	httpkit.JSON(w, http.StatusOK, h.configResponse(sess))
}

// DeleteConfigField handles DELETE /api/config/{field}, resetting the field
// to its default.
func (h *Handler) DeleteConfigField(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	field := chi.URLParam(r, "field")

	if _, err := sess.Config.DeleteField(r.Context(), field); err != nil {
		httpkit.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	httpkit.JSON(w, http.StatusOK, h.configResponse(sess))
}

// Preview handles GET /api/config/preview?width=&height=&border=.
// The border query parameter is the rendered border thickness class, distinct
// from the configuration's borderStyle (which picks a color treatment).
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	state := sess.Config.Get()

	width, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	if err != nil {
		httpkit.Error(w, http.StatusBadRequest, "width must be a number")
		return
	}
	height, err := strconv.ParseFloat(r.URL.Query().Get("height"), 64)
	if err != nil {
		httpkit.Error(w, http.StatusBadRequest, "height must be a number")
		return
	}

	border := preview.BorderSize(r.URL.Query().Get("border"))
	if border == "" {
		border = preview.BorderNone
	}

	layout, err := preview.ComputeLayout(preview.Params{
		Size:        state.Size,
		Orientation: state.Orientation,
		Frame:       state.Frame,
		Border:      border,
	}, width, height)
	if err != nil {
		httpkit.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	httpkit.JSON(w, http.StatusOK, layout)
}
