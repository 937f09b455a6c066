package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/terandy/canvas-print-shop-sub000/internal/cache"
	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
	"github.com/terandy/canvas-print-shop-sub000/internal/commerce"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/session"
)

// cartResponse wraps the displayed cart state. Pending is the number of
// optimistic operations not yet confirmed by the platform.
type cartResponse struct {
	Cart    cart.State `json:"cart"`
	Pending int        `json:"pending"`
}

// GetCart handles GET /api/cart, refreshing authoritative state from the
// platform when the session's cart cache entry has been invalidated or
// expired.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	cartID := sess.Cart.Authoritative().ID
	if cartID != "" {
		if _, fresh := h.carts.Get(sess.ID); !fresh {
			// Snapshot before the fetch so operations enqueued during it
			// stay pending.
			throughSeq := sess.Cart.LastSeq()
			auth, found, err := h.platform.GetCart(r.Context(), cartID)
			switch {
			case err != nil:
				h.logger.Error("refreshing cart", "cart_id", cartID, "err", err)
			case found:
				sess.Cart.Reconcile(auth, throughSeq)
				h.carts.Set(sess.ID, auth, cache.TagCart)
			default:
				// Cart expired or checked out; start over.
				sess.Cart.Reconcile(cart.State{}, throughSeq)
			}
		}
	}

	httpkit.JSON(w, http.StatusOK, cartResponse{
		Cart:    sess.Cart.View(),
		Pending: sess.Cart.PendingCount(),
	})
}

// AddCartItem handles POST /api/cart/items. The new line is built from the
// session's configuration: resolved variant plus the image, border style,
// and orientation attributes.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	if !sess.Config.CanAddToCart() {
		httpkit.Error(w, http.StatusUnprocessableEntity, "an uploaded image is required before adding to cart")
		return
	}

	item := h.itemFromConfig(sess)
	view, seq := sess.Cart.AddItem(item)
	h.carts.InvalidateTag(cache.TagCart)

	cartID, err := h.ensureCartID(r.Context(), sess)
	if err != nil {
		h.logger.Error("creating platform cart", "err", err)
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	auth, err := h.platform.AddLines(r.Context(), cartID, []commerce.LineInput{{
		MerchandiseID: item.MerchandiseID,
		Quantity:      item.Quantity,
		Attributes:    item.Attributes,
	}})
	if err != nil {
		// The optimistic add stays visible until the next authoritative
		// refresh settles it.
		h.logger.Error("adding cart line", "cart_id", cartID, "err", err)
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	view = sess.Cart.Reconcile(auth, seq)
	h.carts.Set(sess.ID, auth, cache.TagCart)
	httpkit.JSON(w, http.StatusCreated, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
}

// UpdateCartItem handles PATCH /api/cart/items?id=...: the line is rebuilt
// from the session's (edited) configuration, keeping its id and quantity.
// Platform line ids are GID URIs containing slashes, so the id travels as a
// query parameter rather than a path segment.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	itemID := r.URL.Query().Get("id")
	if itemID == "" {
		httpkit.Error(w, http.StatusBadRequest, "missing id query parameter")
		return
	}

	existing, ok := sess.Cart.View().Item(itemID)
	if !ok {
		httpkit.Error(w, http.StatusNotFound, "cart item not found")
		return
	}

	item := h.itemFromConfig(sess).WithQuantity(existing.Quantity)
	view, seq := sess.Cart.UpdateItem(itemID, item)
	h.carts.InvalidateTag(cache.TagCart)

	cartID := sess.Cart.Authoritative().ID
	if cartID == "" || isTemporaryID(itemID) {
		// Not yet confirmed by the platform; nothing to update there.
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	auth, err := h.platform.UpdateLines(r.Context(), cartID, []commerce.LineInput{{
		ID:            itemID,
		MerchandiseID: item.MerchandiseID,
		Quantity:      item.Quantity,
		Attributes:    item.Attributes,
	}})
	if err != nil {
		h.logger.Error("updating cart line", "cart_id", cartID, "line_id", itemID, "err", err)
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	view = sess.Cart.Reconcile(auth, seq)
	h.carts.Set(sess.ID, auth, cache.TagCart)
	httpkit.JSON(w, http.StatusOK, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
}

// UpdateCartItemQuantity handles POST /api/cart/items/quantity?id=...
// with body {"action": "plus"|"minus"|"delete"}.
func (h *Handler) UpdateCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	itemID := r.URL.Query().Get("id")
	if itemID == "" {
		httpkit.Error(w, http.StatusBadRequest, "missing id query parameter")
		return
	}

	var req struct {
		Action cart.QuantityAction `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Action {
	case cart.QuantityPlus, cart.QuantityMinus, cart.QuantityDelete:
	default:
		httpkit.Error(w, http.StatusUnprocessableEntity, "action must be plus, minus, or delete")
		return
	}

	existing, ok := sess.Cart.View().Item(itemID)
	if !ok {
		httpkit.Error(w, http.StatusNotFound, "cart item not found")
		return
	}

	view, seq := sess.Cart.UpdateItemQuantity(itemID, req.Action)
	h.carts.InvalidateTag(cache.TagCart)

	cartID := sess.Cart.Authoritative().ID
	if cartID == "" || isTemporaryID(itemID) {
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	newQuantity := existing.Quantity
	switch req.Action {
	case cart.QuantityPlus:
		newQuantity++
	case cart.QuantityMinus:
		newQuantity--
	case cart.QuantityDelete:
		newQuantity = 0
	}

	var auth cart.State
	var err error
	if newQuantity <= 0 {
		auth, err = h.platform.RemoveLines(r.Context(), cartID, []string{itemID})
	} else {
		auth, err = h.platform.UpdateLines(r.Context(), cartID, []commerce.LineInput{{
			ID:            itemID,
			MerchandiseID: existing.MerchandiseID,
			Quantity:      newQuantity,
			Attributes:    existing.Attributes,
		}})
	}
	if err != nil {
		h.logger.Error("adjusting cart line quantity", "cart_id", cartID, "line_id", itemID, "err", err)
		httpkit.JSON(w, http.StatusAccepted, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
		return
	}

	view = sess.Cart.Reconcile(auth, seq)
	h.carts.Set(sess.ID, auth, cache.TagCart)
	httpkit.JSON(w, http.StatusOK, cartResponse{Cart: view, Pending: sess.Cart.PendingCount()})
}

// itemFromConfig builds a cart line from the session's current configuration.
func (h *Handler) itemFromConfig(sess *session.Session) cart.Item {
	state := sess.Config.Get()
	product := sess.Config.Product()
	variant := catalog.Resolve(product, state.Selection(), h.logger)
	return cart.BuildItem(variant, product.Title, product.Handle, state.ImageURL, state.BorderStyle, state.Orientation)
}

// ensureCartID returns the platform cart id, creating the cart on first use.
func (h *Handler) ensureCartID(ctx context.Context, sess *session.Session) (string, error) {
	if id := sess.Cart.Authoritative().ID; id != "" {
		return id, nil
	}
	auth, err := h.platform.CreateCart(ctx)
	if err != nil {
		return "", err
	}
	sess.Cart.Reconcile(auth, 0)
	return auth.ID, nil
}

// isTemporaryID reports whether a line id is a client-generated placeholder
// the platform has never seen.
func isTemporaryID(id string) bool {
	return len(id) > 4 && id[:4] == "tmp_"
}
