package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
)

// accessTokenHeader authenticates storefront API requests.
const accessTokenHeader = "X-Storefront-Access-Token"

// Client talks to the commerce platform's storefront GraphQL endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a platform client.
func NewClient(endpoint, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// do posts one GraphQL request and decodes the data envelope into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling platform: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading platform response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform returned status %d: %s", resp.StatusCode, truncate(data, 200))
	}

	var envelope response[json.RawMessage]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding platform envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("platform error: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decoding platform data: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

const productFields = `
	id
	handle
	title
	description
	options { id name values }
	variants(first: 250) {
		edges { node {
			id
			title
			availableForSale
			selectedOptions { name value }
			price { amount currencyCode }
		} }
	}
	featuredImage { url altText width height }
	images(first: 20) { edges { node { url altText width height } } }
	tags
	updatedAt
`

const cartFields = `
	id
	totalQuantity
	cost {
		subtotalAmount { amount currencyCode }
		totalAmount { amount currencyCode }
		totalTaxAmount { amount currencyCode }
	}
	lines(first: 100) {
		edges { node {
			id
			quantity
			cost { totalAmount { amount currencyCode } }
			attributes { key value }
			merchandise {
				... on ProductVariant {
					id
					title
					selectedOptions { name value }
					product { handle title featuredImage { url altText width height } }
				}
			}
		} }
	}
`

// GetProduct fetches one product by handle, localized.
func (c *Client) GetProduct(ctx context.Context, handle, locale string) (catalog.Product, error) {
	query := fmt.Sprintf(`query getProduct($handle: String!) @inContext(language: %s) {
		product(handle: $handle) { %s }
	}`, LanguageCode(locale), productFields)

	var data struct {
		Product *wireProduct `json:"product"`
	}
	if err := c.do(ctx, query, map[string]any{"handle": handle}, &data); err != nil {
		return catalog.Product{}, err
	}
	if data.Product == nil {
		return catalog.Product{}, fmt.Errorf("product %q not found", handle)
	}
	return normalizeProduct(*data.Product), nil
}

// SearchProducts fetches products matching an optional search query, in the
// given sort order, localized.
func (c *Client) SearchProducts(ctx context.Context, searchQuery, sortSlug, locale string) ([]catalog.Product, error) {
	sort := SortFor(sortSlug)
	query := fmt.Sprintf(`query getProducts($query: String, $sortKey: ProductSortKeys, $reverse: Boolean) @inContext(language: %s) {
		products(first: 100, query: $query, sortKey: $sortKey, reverse: $reverse) {
			edges { node { %s } }
		}
	}`, LanguageCode(locale), productFields)

	var data struct {
		Products connection[wireProduct] `json:"products"`
	}
	err := c.do(ctx, query, map[string]any{
		"query":   searchQuery,
		"sortKey": sort.SortKey,
		"reverse": sort.Reverse,
	}, &data)
	if err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(data.Products.Edges))
	for _, p := range flatten(data.Products) {
		products = append(products, normalizeProduct(p))
	}
	return products, nil
}

// LineInput describes a cart line for mutations.
type LineInput struct {
	ID            string // platform line id, for update/remove
	MerchandiseID string // variant id
	Quantity      int
	Attributes    []cart.Attribute
}

func (l LineInput) wire() map[string]any {
	attrs := make([]map[string]string, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		attrs = append(attrs, map[string]string{"key": a.Key, "value": a.Value})
	}
	m := map[string]any{
		"merchandiseId": l.MerchandiseID,
		"quantity":      l.Quantity,
		"attributes":    attrs,
	}
	if l.ID != "" {
		m["id"] = l.ID
	}
	return m
}

type cartMutationResult struct {
	Cart       *wireCart   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

func (r cartMutationResult) state() (cart.State, error) {
	if len(r.UserErrors) > 0 {
		return cart.State{}, fmt.Errorf("platform rejected cart mutation: %s", r.UserErrors[0].Message)
	}
	if r.Cart == nil {
		return cart.State{}, fmt.Errorf("platform returned no cart")
	}
	return normalizeCart(*r.Cart), nil
}

// CreateCart creates an empty cart.
func (c *Client) CreateCart(ctx context.Context) (cart.State, error) {
	query := fmt.Sprintf(`mutation createCart {
		cartCreate { cart { %s } userErrors { field message } }
	}`, cartFields)

	var data struct {
		CartCreate cartMutationResult `json:"cartCreate"`
	}
	if err := c.do(ctx, query, nil, &data); err != nil {
		return cart.State{}, err
	}
	return data.CartCreate.state()
}

// AddLines appends lines to a cart.
func (c *Client) AddLines(ctx context.Context, cartID string, lines []LineInput) (cart.State, error) {
	query := fmt.Sprintf(`mutation addToCart($cartId: ID!, $lines: [CartLineInput!]!) {
		cartLinesAdd(cartId: $cartId, lines: $lines) { cart { %s } userErrors { field message } }
	}`, cartFields)

	var data struct {
		CartLinesAdd cartMutationResult `json:"cartLinesAdd"`
	}
	if err := c.do(ctx, query, map[string]any{"cartId": cartID, "lines": wireLines(lines)}, &data); err != nil {
		return cart.State{}, err
	}
	return data.CartLinesAdd.state()
}

// UpdateLines edits existing cart lines.
func (c *Client) UpdateLines(ctx context.Context, cartID string, lines []LineInput) (cart.State, error) {
	query := fmt.Sprintf(`mutation editCartItems($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
		cartLinesUpdate(cartId: $cartId, lines: $lines) { cart { %s } userErrors { field message } }
	}`, cartFields)

	var data struct {
		CartLinesUpdate cartMutationResult `json:"cartLinesUpdate"`
	}
	if err := c.do(ctx, query, map[string]any{"cartId": cartID, "lines": wireLines(lines)}, &data); err != nil {
		return cart.State{}, err
	}
	return data.CartLinesUpdate.state()
}

// RemoveLines deletes cart lines by id.
func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (cart.State, error) {
	query := fmt.Sprintf(`mutation removeFromCart($cartId: ID!, $lineIds: [ID!]!) {
		cartLinesRemove(cartId: $cartId, lineIds: $lineIds) { cart { %s } userErrors { field message } }
	}`, cartFields)

	var data struct {
		CartLinesRemove cartMutationResult `json:"cartLinesRemove"`
	}
	if err := c.do(ctx, query, map[string]any{"cartId": cartID, "lineIds": lineIDs}, &data); err != nil {
		return cart.State{}, err
	}
	return data.CartLinesRemove.state()
}

// GetCart fetches a cart by id. A missing cart (expired or completed
// checkout) returns ok=false without error.
func (c *Client) GetCart(ctx context.Context, cartID string) (cart.State, bool, error) {
	query := fmt.Sprintf(`query getCart($cartId: ID!) {
		cart(id: $cartId) { %s }
	}`, cartFields)

	var data struct {
		Cart *wireCart `json:"cart"`
	}
	if err := c.do(ctx, query, map[string]any{"cartId": cartID}, &data); err != nil {
		return cart.State{}, false, err
	}
	if data.Cart == nil {
		return cart.State{}, false, nil
	}
	return normalizeCart(*data.Cart), true, nil
}

func wireLines(lines []LineInput) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.wire())
	}
	return out
}
