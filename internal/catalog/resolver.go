package catalog

import (
	"log/slog"
)

// Match finds the variant whose selected options equal the selection's value
// for every option name that is both offered by the product and present in
// the selection. All filtered pairs must match; ties cannot occur because
// option-value combinations are unique within a product. The second return
// is false when no variant matches exactly.
func Match(p Product, selection map[string]string) (Variant, bool) {
	for _, v := range p.Variants {
		if variantMatches(p, v, selection) {
			return v, true
		}
	}
	return Variant{}, false
}

func variantMatches(p Product, v Variant, selection map[string]string) bool {
	for _, so := range v.SelectedOptions {
		want, set := selection[so.Name]
		if !set || !p.HasOption(so.Name) {
			// Option not constrained by the selection; any value matches.
			continue
		}
		if so.Value != want {
			return false
		}
	}
	return true
}

// Resolve matches the selection against the product's variants, falling back
// to the first variant when nothing matches exactly. The fallback masks real
// mismatches, so it is logged rather than silently accepted. Resolve never
// returns a zero Variant for a product with at least one variant.
func Resolve(p Product, selection map[string]string, logger *slog.Logger) Variant {
	if v, ok := Match(p, selection); ok {
		return v
	}
	if logger != nil {
		logger.Warn("variant resolution fell back to first variant",
			"product", p.Handle,
			"selection", selection,
		)
	}
	if len(p.Variants) == 0 {
		return Variant{}
	}
	return p.Variants[0]
}

// PriceDelta computes the price difference a candidate value for one option
// would introduce relative to a baseline value, holding every other selected
// option fixed. It returns ok=false when either lookup fails, in which case
// callers display nothing.
func PriceDelta(p Product, selection map[string]string, option, candidate, baseline string) (Money, bool) {
	candSel := cloneWith(selection, option, candidate)
	baseSel := cloneWith(selection, option, baseline)

	candVar, ok := Match(p, candSel)
	if !ok {
		return Money{}, false
	}
	baseVar, ok := Match(p, baseSel)
	if !ok {
		return Money{}, false
	}

	candPrice, err := candVar.Price.Decimal()
	if err != nil {
		return Money{}, false
	}
	basePrice, err := baseVar.Price.Decimal()
	if err != nil {
		return Money{}, false
	}

	delta := candPrice.Sub(basePrice)
	return Money{
		Amount:       delta.StringFixed(2),
		CurrencyCode: candVar.Price.CurrencyCode,
	}, true
}

func cloneWith(selection map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(selection)+1)
	for k, v := range selection {
		out[k] = v
	}
	out[key] = value
	return out
}

// ZeroDelta reports whether a delta amount is zero, used to suppress "+0.00"
// labels in option pickers.
func ZeroDelta(m Money) bool {
	d, err := m.Decimal()
	if err != nil {
		return false
	}
	return d.IsZero()
}
