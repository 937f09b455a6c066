// Package commerce is the client for the hosted commerce platform: product
// catalog reads and cart mutations over its GraphQL storefront API. The
// platform owns products, pricing, cart persistence, and checkout; this
// package only translates between its wire shapes and the normalized
// domain types.
package commerce

// response is the GraphQL envelope.
type response[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// connection is the paginated edge/node shape the platform wraps every
// list in.
type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

// flatten strips the edge/node wrappers into a plain slice.
func flatten[T any](c connection[T]) []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

// --- product wire shapes ---

type wireMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type wireSelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type wireVariant struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	AvailableForSale bool                 `json:"availableForSale"`
	SelectedOptions  []wireSelectedOption `json:"selectedOptions"`
	Price            wireMoney            `json:"price"`
}

type wireImage struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type wireOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type wireProduct struct {
	ID            string                  `json:"id"`
	Handle        string                  `json:"handle"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Options       []wireOption            `json:"options"`
	Variants      connection[wireVariant] `json:"variants"`
	FeaturedImage wireImage               `json:"featuredImage"`
	Images        connection[wireImage]   `json:"images"`
	Tags          []string                `json:"tags"`
	UpdatedAt     string                  `json:"updatedAt"`
}

// --- cart wire shapes ---

type wireAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireCartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Cost     struct {
		TotalAmount wireMoney `json:"totalAmount"`
	} `json:"cost"`
	Attributes  []wireAttribute `json:"attributes"`
	Merchandise struct {
		ID              string               `json:"id"`
		Title           string               `json:"title"`
		SelectedOptions []wireSelectedOption `json:"selectedOptions"`
		Product         struct {
			Handle        string    `json:"handle"`
			Title         string    `json:"title"`
			FeaturedImage wireImage `json:"featuredImage"`
		} `json:"product"`
	} `json:"merchandise"`
}

type wireCart struct {
	ID            string `json:"id"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount wireMoney `json:"subtotalAmount"`
		TotalAmount    wireMoney `json:"totalAmount"`
		TotalTaxAmount wireMoney `json:"totalTaxAmount"`
	} `json:"cost"`
	Lines connection[wireCartLine] `json:"lines"`
}

// userError is the platform's mutation-level validation error.
type userError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}
