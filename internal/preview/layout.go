// Package preview computes the rendered pixel geometry of the canvas
// preview: the outer print rectangle contain-fitted into its container, and
// the frame, border, and image layers inside it. Everything here is pure
// arithmetic over the configured physical dimensions; no drawing happens
// server-side.
package preview

import (
	"fmt"
	"strconv"
	"strings"
)

// Orientation of the print.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

// BorderSize selects the physical border width painted around the image.
type BorderSize string

// Border sizes.
const (
	BorderNone   BorderSize = "none"
	BorderSmall  BorderSize = "small"
	BorderMedium BorderSize = "medium"
	BorderLarge  BorderSize = "large"
)

// frameInches is the real-world width of the floating frame profile.
const frameInches = 0.25

// borderInches maps a border size to its physical width.
var borderInches = map[BorderSize]float64{
	BorderNone:   0,
	BorderSmall:  0.25,
	BorderMedium: 0.5,
	BorderLarge:  1.0,
}

// Params describes one preview request.
type Params struct {
	// Size is the print size as "WxH" in inches, e.g. "8x10".
	Size string
	// Orientation is landscape or portrait. Landscape keeps the parsed
	// axes; portrait swaps them.
	Orientation string
	// Frame is the frame option value; "none" removes the frame inset.
	Frame string
	// Border selects the painted border width.
	Border BorderSize
}

// Layout is the computed pixel geometry. All values are pixels within the
// container's coordinate space.
type Layout struct {
	OuterWidth  float64 `json:"outerWidth"`
	OuterHeight float64 `json:"outerHeight"`
	FrameInset  float64 `json:"frameInset"`
	BorderInset float64 `json:"borderInset"`
	ImageWidth  float64 `json:"imageWidth"`
	ImageHeight float64 `json:"imageHeight"`
}

// ParseSize parses a "WxH" size string into width and height in inches.
func ParseSize(size string) (float64, float64, error) {
	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q: want \"WxH\"", size)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size width %q: %w", parts[0], err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", size)
	}
	return w, h, nil
}

// ComputeLayout contain-fits the configured print into a container of the
// given pixel dimensions and derives the layer geometry. The physical frame
// and border widths scale with the container-to-real-world ratio so the
// preview keeps its proportions at any container size.
//
// The image rectangle is not clamped: a border wide enough to consume the
// whole print yields non-positive image dimensions, and callers own keeping
// container and size choices sensible.
func ComputeLayout(p Params, containerWidth, containerHeight float64) (Layout, error) {
	if containerWidth <= 0 || containerHeight <= 0 {
		return Layout{}, fmt.Errorf("invalid container %gx%g", containerWidth, containerHeight)
	}

	widthIn, heightIn, err := ParseSize(p.Size)
	if err != nil {
		return Layout{}, err
	}
	if p.Orientation == OrientationPortrait {
		widthIn, heightIn = heightIn, widthIn
	}

	// Contain fit: the axis with the smaller pixels-per-inch ratio
	// constrains the print.
	scale := containerWidth / widthIn
	if s := containerHeight / heightIn; s < scale {
		scale = s
	}

	layout := Layout{
		OuterWidth:  widthIn * scale,
		OuterHeight: heightIn * scale,
	}

	if p.Frame != "" && p.Frame != "none" {
		layout.FrameInset = frameInches * scale
	}
	layout.BorderInset = borderInches[p.Border] * scale

	inset := 2 * (layout.FrameInset + layout.BorderInset)
	layout.ImageWidth = layout.OuterWidth - inset
	layout.ImageHeight = layout.OuterHeight - inset

	return layout, nil
}
