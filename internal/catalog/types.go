// Package catalog defines the normalized product catalog types served by the
// commerce platform, and the variant resolution logic that maps a partial set
// of configuration choices onto a priced variant.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in a single currency. The amount is a decimal string
// (e.g. "35.00") exactly as the commerce platform reports it; all arithmetic
// goes through decimal, never float.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Decimal parses the amount string.
func (m Money) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", m.Amount, err)
	}
	return d, nil
}

// SelectedOption is one priced option choice on a variant or cart line
// (e.g. {Size, "16x20"} or {Frame, "black"}).
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductOption is a named option with its enumerated allowed values.
type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is one priced combination of option values. Option-value
// combinations are unique within a product.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
	Price            Money            `json:"price"`
}

// Image is a product image.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Product is a normalized product: options, variants, and display fields,
// with all edge/node pagination wrappers already flattened away.
type Product struct {
	ID            string          `json:"id"`
	Handle        string          `json:"handle"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Options       []ProductOption `json:"options"`
	Variants      []Variant       `json:"variants"`
	FeaturedImage Image           `json:"featuredImage"`
	Images        []Image         `json:"images"`
	Tags          []string        `json:"tags"`
	UpdatedAt     string          `json:"updatedAt"`
}

// HasOption reports whether the product offers an option with this name.
func (p Product) HasOption(name string) bool {
	for _, o := range p.Options {
		if o.Name == name {
			return true
		}
	}
	return false
}

// OptionValues returns the allowed values for a named option.
func (p Product) OptionValues(name string) []string {
	for _, o := range p.Options {
		if o.Name == name {
			return o.Values
		}
	}
	return nil
}
