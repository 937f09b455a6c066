// Package session owns the per-session product configuration state: the
// user's in-progress canvas customization choices, their persistence across
// visits, and the session registry tying configuration and cart state
// together. State here is a session-resume convenience, never a source of
// truth for pricing.
package session

import (
	"fmt"

	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
)

// PlaceholderImageURL is the "no image yet" default. A configuration cannot
// be added to the cart until the image differs from this.
const PlaceholderImageURL = "/images/placeholder.svg"

// Configuration field names accepted by UpdateField and DeleteField.
const (
	FieldImageURL    = "imageUrl"
	FieldSize        = "size"
	FieldFrame       = "frame"
	FieldBorderStyle = "borderStyle"
	FieldOrientation = "orientation"
	FieldCartItemID  = "cartItemId"
)

// Fixed enums for the unpriced fields. Size and frame values come from the
// product's option lists instead.
var (
	borderStyles = []string{"black", "white", "wrapped", "fill"}
	orientations = []string{"landscape", "portrait"}
)

// State is one product edit session's configuration. Size and frame map to
// priced product options; image, border style, and orientation ride along
// as unpriced attributes.
type State struct {
	ImageURL    string `json:"imageUrl"`
	Size        string `json:"size"`
	Frame       string `json:"frame"`
	BorderStyle string `json:"borderStyle"`
	Orientation string `json:"orientation"`
	CartItemID  string `json:"cartItemId"`
}

// HasImage reports whether a real (non-placeholder) image is set.
func (s State) HasImage() bool {
	return s.ImageURL != "" && s.ImageURL != PlaceholderImageURL
}

// Selection returns the priced option choices for variant resolution.
func (s State) Selection() map[string]string {
	sel := make(map[string]string, 2)
	if s.Size != "" {
		sel["Size"] = s.Size
	}
	if s.Frame != "" {
		sel["Frame"] = s.Frame
	}
	return sel
}

// Seed builds the initial configuration state for an edit context.
// Priority order: a persisted snapshot whose cartItemId matches the current
// edit context, else built-in defaults plus the product's first allowed
// value for every option not yet set. The cartItemId gate keeps one cart
// item's edits from leaking into another's.
func Seed(p catalog.Product, cartItemID string, persisted *State) State {
	if persisted != nil && persisted.CartItemID == cartItemID {
		return *persisted
	}

	s := State{
		ImageURL:    PlaceholderImageURL,
		BorderStyle: borderStyles[0],
		Orientation: orientations[1],
		CartItemID:  cartItemID,
	}
	if vals := p.OptionValues("Size"); len(vals) > 0 {
		s.Size = vals[0]
	}
	if vals := p.OptionValues("Frame"); len(vals) > 0 {
		s.Frame = vals[0]
	}
	return s
}

// validateField checks a field value against the product's option lists or
// the fixed enums. Image URLs and cart item ids are free-form.
func validateField(p catalog.Product, name, value string) error {
	switch name {
	case FieldImageURL, FieldCartItemID:
		return nil
	case FieldSize:
		return validateOneOf(name, value, p.OptionValues("Size"))
	case FieldFrame:
		return validateOneOf(name, value, p.OptionValues("Frame"))
	case FieldBorderStyle:
		return validateOneOf(name, value, borderStyles)
	case FieldOrientation:
		return validateOneOf(name, value, orientations)
	default:
		return fmt.Errorf("unknown configuration field %q", name)
	}
}

func validateOneOf(name, value string, allowed []string) error {
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("invalid %s value %q", name, value)
}

// setField returns the state with one field replaced.
func setField(s State, name, value string) State {
	switch name {
	case FieldImageURL:
		s.ImageURL = value
	case FieldSize:
		s.Size = value
	case FieldFrame:
		s.Frame = value
	case FieldBorderStyle:
		s.BorderStyle = value
	case FieldOrientation:
		s.Orientation = value
	case FieldCartItemID:
		s.CartItemID = value
	}
	return s
}

// knownField reports whether name is a configuration field.
func knownField(name string) bool {
	switch name {
	case FieldImageURL, FieldSize, FieldFrame, FieldBorderStyle, FieldOrientation, FieldCartItemID:
		return true
	}
	return false
}

// fieldDefault returns the value DeleteField resets a field to.
func fieldDefault(p catalog.Product, name string) string {
	switch name {
	case FieldImageURL:
		return PlaceholderImageURL
	case FieldSize:
		if vals := p.OptionValues("Size"); len(vals) > 0 {
			return vals[0]
		}
	case FieldFrame:
		if vals := p.OptionValues("Frame"); len(vals) > 0 {
			return vals[0]
		}
	case FieldBorderStyle:
		return borderStyles[0]
	case FieldOrientation:
		return orientations[1]
	}
	return ""
}
