// Package cart holds the normalized cart state derived from the commerce
// platform and the optimistic-overlay store that lets the UI show cart
// mutations ahead of server confirmation.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
)

// Attribute keys for the unpriced customization values carried on a cart
// line. These names are part of the wire contract with the commerce
// platform and the cleanup webhooks.
const (
	AttrImageURL    = "imgURL"
	AttrBorderStyle = "borderStyle"
	AttrDirection   = "direction"
)

// Attribute is one unpriced customization value on a cart line.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Item is one cart line. Attributes carry unpriced customization (image
// URL, border style, orientation); SelectedOptions carry the priced option
// selections (size, frame).
type Item struct {
	ID              string                   `json:"id"`
	MerchandiseID   string                   `json:"merchandiseId"` // variant id
	ProductHandle   string                   `json:"productHandle"`
	Title           string                   `json:"title"`
	ImageURL        string                   `json:"imageUrl"`
	Quantity        int                      `json:"quantity"`
	TotalAmount     catalog.Money            `json:"totalAmount"`
	Attributes      []Attribute              `json:"attributes"`
	SelectedOptions []catalog.SelectedOption `json:"selectedOptions"`
}

// Attribute returns the value for an attribute key.
func (i Item) Attribute(key string) string {
	for _, a := range i.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// WithQuantity returns a copy of the line at the given quantity, its total
// rescaled from the line's current per-unit price.
func (i Item) WithQuantity(quantity int) Item {
	i.TotalAmount = rescaleTotal(i.TotalAmount, i.Quantity, quantity)
	i.Quantity = quantity
	return i
}

// Cost is the cart-level money summary. The tax amount is always pinned to
// zero client-side; tax is the platform's call and arrives only with
// authoritative state.
type Cost struct {
	SubtotalAmount catalog.Money `json:"subtotalAmount"`
	TotalAmount    catalog.Money `json:"totalAmount"`
	TotalTaxAmount catalog.Money `json:"totalTaxAmount"`
}

// State is a full cart. TotalQuantity and Cost are always recomputed from
// the line items, never mutated independently.
type State struct {
	ID            string `json:"id"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          Cost   `json:"cost"`
	Items         []Item `json:"items"`
}

// Item returns the line with the given id.
func (s State) Item(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// clone deep-copies the state so overlay application never aliases the
// authoritative slices.
func (s State) clone() State {
	out := s
	out.Items = make([]Item, len(s.Items))
	copy(out.Items, s.Items)
	for i := range out.Items {
		attrs := make([]Attribute, len(out.Items[i].Attributes))
		copy(attrs, out.Items[i].Attributes)
		out.Items[i].Attributes = attrs

		opts := make([]catalog.SelectedOption, len(out.Items[i].SelectedOptions))
		copy(opts, out.Items[i].SelectedOptions)
		out.Items[i].SelectedOptions = opts
	}
	return out
}

// recomputeTotals re-derives the quantity and cost sums from the item set
// using decimal string arithmetic. The currency comes from an existing item
// (the cart is single-currency); an empty cart keeps its previous currency
// with zero amounts.
func recomputeTotals(s State) State {
	total := decimal.Zero
	quantity := 0
	currency := s.Cost.TotalAmount.CurrencyCode

	for _, it := range s.Items {
		quantity += it.Quantity
		if d, err := it.TotalAmount.Decimal(); err == nil {
			total = total.Add(d)
		}
		if it.TotalAmount.CurrencyCode != "" {
			currency = it.TotalAmount.CurrencyCode
		}
	}

	s.TotalQuantity = quantity
	amount := total.StringFixed(2)
	s.Cost = Cost{
		SubtotalAmount: catalog.Money{Amount: amount, CurrencyCode: currency},
		TotalAmount:    catalog.Money{Amount: amount, CurrencyCode: currency},
		TotalTaxAmount: catalog.Money{Amount: "0.00", CurrencyCode: currency},
	}
	return s
}
