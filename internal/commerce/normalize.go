package commerce

import (
	"strings"

	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
)

// normalizeProduct flattens a wire product into the catalog shape.
func normalizeProduct(p wireProduct) catalog.Product {
	out := catalog.Product{
		ID:          p.ID,
		Handle:      p.Handle,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		UpdatedAt:   p.UpdatedAt,
		FeaturedImage: catalog.Image{
			URL:     p.FeaturedImage.URL,
			AltText: p.FeaturedImage.AltText,
			Width:   p.FeaturedImage.Width,
			Height:  p.FeaturedImage.Height,
		},
	}

	for _, o := range p.Options {
		out.Options = append(out.Options, catalog.ProductOption{
			ID:     o.ID,
			Name:   o.Name,
			Values: o.Values,
		})
	}
	for _, v := range flatten(p.Variants) {
		out.Variants = append(out.Variants, normalizeVariant(v))
	}
	for _, img := range flatten(p.Images) {
		out.Images = append(out.Images, catalog.Image{
			URL:     img.URL,
			AltText: img.AltText,
			Width:   img.Width,
			Height:  img.Height,
		})
	}
	return out
}

func normalizeVariant(v wireVariant) catalog.Variant {
	out := catalog.Variant{
		ID:               v.ID,
		Title:            v.Title,
		AvailableForSale: v.AvailableForSale,
		Price: catalog.Money{
			Amount:       v.Price.Amount,
			CurrencyCode: v.Price.CurrencyCode,
		},
	}
	for _, so := range v.SelectedOptions {
		out.SelectedOptions = append(out.SelectedOptions, catalog.SelectedOption{
			Name:  so.Name,
			Value: so.Value,
		})
	}
	return out
}

// normalizeCart flattens a wire cart into cart.State.
func normalizeCart(c wireCart) cart.State {
	out := cart.State{
		ID:            c.ID,
		TotalQuantity: c.TotalQuantity,
		Cost: cart.Cost{
			SubtotalAmount: catalog.Money{Amount: c.Cost.SubtotalAmount.Amount, CurrencyCode: c.Cost.SubtotalAmount.CurrencyCode},
			TotalAmount:    catalog.Money{Amount: c.Cost.TotalAmount.Amount, CurrencyCode: c.Cost.TotalAmount.CurrencyCode},
			TotalTaxAmount: catalog.Money{Amount: c.Cost.TotalTaxAmount.Amount, CurrencyCode: c.Cost.TotalTaxAmount.CurrencyCode},
		},
	}

	for _, line := range flatten(c.Lines) {
		item := cart.Item{
			ID:            line.ID,
			MerchandiseID: line.Merchandise.ID,
			ProductHandle: line.Merchandise.Product.Handle,
			Title:         line.Merchandise.Product.Title,
			Quantity:      line.Quantity,
			TotalAmount: catalog.Money{
				Amount:       line.Cost.TotalAmount.Amount,
				CurrencyCode: line.Cost.TotalAmount.CurrencyCode,
			},
		}
		for _, a := range line.Attributes {
			item.Attributes = append(item.Attributes, cart.Attribute{Key: a.Key, Value: a.Value})
		}
		for _, so := range line.Merchandise.SelectedOptions {
			item.SelectedOptions = append(item.SelectedOptions, catalog.SelectedOption{Name: so.Name, Value: so.Value})
		}
		item.ImageURL = item.Attribute(cart.AttrImageURL)
		if item.ImageURL == "" {
			item.ImageURL = line.Merchandise.Product.FeaturedImage.URL
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// LanguageCode maps a storefront locale (e.g. "en", "fr-CA") to the
// two-letter language code the platform expects.
func LanguageCode(locale string) string {
	lang := locale
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ToUpper(strings.TrimSpace(lang))
	if len(lang) != 2 {
		return "EN"
	}
	return lang
}

// sortSpec maps a storefront sort slug to the platform's sort key.
type sortSpec struct {
	SortKey string
	Reverse bool
}

var sortSpecs = map[string]sortSpec{
	"relevance":    {SortKey: "RELEVANCE"},
	"latest":       {SortKey: "CREATED_AT", Reverse: true},
	"price-asc":    {SortKey: "PRICE"},
	"price-desc":   {SortKey: "PRICE", Reverse: true},
	"best-selling": {SortKey: "BEST_SELLING"},
}

// SortFor resolves a sort slug, defaulting to relevance.
func SortFor(slug string) sortSpec {
	if s, ok := sortSpecs[slug]; ok {
		return s
	}
	return sortSpecs["relevance"]
}
