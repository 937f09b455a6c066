package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const productJSON = `{
	"id": "gid://product/1",
	"handle": "canvas-print",
	"title": "Canvas Print",
	"description": "A stretched canvas print.",
	"options": [
		{"id": "opt1", "name": "Size", "values": ["8x10", "16x20"]},
		{"id": "opt2", "name": "Frame", "values": ["none", "black"]}
	],
	"variants": {"edges": [
		{"node": {
			"id": "gid://variant/1",
			"title": "8x10 / none",
			"availableForSale": true,
			"selectedOptions": [{"name": "Size", "value": "8x10"}, {"name": "Frame", "value": "none"}],
			"price": {"amount": "20.0", "currencyCode": "CAD"}
		}},
		{"node": {
			"id": "gid://variant/2",
			"title": "16x20 / black",
			"availableForSale": true,
			"selectedOptions": [{"name": "Size", "value": "16x20"}, {"name": "Frame", "value": "black"}],
			"price": {"amount": "60.0", "currencyCode": "CAD"}
		}}
	]},
	"featuredImage": {"url": "https://cdn.example.com/canvas.jpg", "altText": "Canvas", "width": 800, "height": 600},
	"images": {"edges": [{"node": {"url": "https://cdn.example.com/canvas.jpg", "altText": "Canvas", "width": 800, "height": 600}}]},
	"tags": ["canvas"],
	"updatedAt": "2024-05-01T00:00:00Z"
}`

const cartJSON = `{
	"id": "gid://cart/1",
	"totalQuantity": 2,
	"cost": {
		"subtotalAmount": {"amount": "80.0", "currencyCode": "CAD"},
		"totalAmount": {"amount": "80.0", "currencyCode": "CAD"},
		"totalTaxAmount": {"amount": "0.0", "currencyCode": "CAD"}
	},
	"lines": {"edges": [{"node": {
		"id": "gid://line/1",
		"quantity": 2,
		"cost": {"totalAmount": {"amount": "80.0", "currencyCode": "CAD"}},
		"attributes": [
			{"key": "imgURL", "value": "https://cdn.example.com/uploads/photo.jpg"},
			{"key": "borderStyle", "value": "black"},
			{"key": "direction", "value": "landscape"}
		],
		"merchandise": {
			"id": "gid://variant/1",
			"title": "8x10 / none",
			"selectedOptions": [{"name": "Size", "value": "8x10"}],
			"product": {
				"handle": "canvas-print",
				"title": "Canvas Print",
				"featuredImage": {"url": "https://cdn.example.com/canvas.jpg"}
			}
		}
	}}]}
}`

type recordedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
	Token     string
}

// fakePlatform replies with canned GraphQL data keyed by operation name.
func fakePlatform(t *testing.T, responses map[string]string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req recordedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		req.Token = r.Header.Get(accessTokenHeader)
		requests = append(requests, req)

		for op, data := range responses {
			if strings.Contains(req.Query, op) {
				fmt.Fprintf(w, `{"data": %s}`, data)
				return
			}
		}
		t.Fatalf("no canned response for query: %s", req.Query)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "shptok_test", slog.New(slog.NewTextHandler(testWriter{t}, nil))), &requests
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestGetProduct(t *testing.T) {
	client, requests := fakePlatform(t, map[string]string{
		"getProduct": fmt.Sprintf(`{"product": %s}`, productJSON),
	})

	p, err := client.GetProduct(context.Background(), "canvas-print", "fr-CA")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.Handle != "canvas-print" {
		t.Errorf("handle = %q, want canvas-print", p.Handle)
	}
	if len(p.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(p.Variants))
	}
	if p.Variants[1].Price.Amount != "60.0" || p.Variants[1].Price.CurrencyCode != "CAD" {
		t.Errorf("variant price = %+v", p.Variants[1].Price)
	}
	if len(p.Options) != 2 || p.Options[0].Name != "Size" {
		t.Errorf("options = %+v", p.Options)
	}

	req := (*requests)[0]
	if req.Token != "shptok_test" {
		t.Errorf("access token header = %q", req.Token)
	}
	if !strings.Contains(req.Query, "language: FR") {
		t.Errorf("query missing locale context: %s", req.Query)
	}
	if req.Variables["handle"] != "canvas-print" {
		t.Errorf("variables = %+v", req.Variables)
	}
}

func TestGetProductNotFound(t *testing.T) {
	client, _ := fakePlatform(t, map[string]string{
		"getProduct": `{"product": null}`,
	})

	if _, err := client.GetProduct(context.Background(), "missing", "en"); err == nil {
		t.Fatal("expected error for missing product")
	}
}

func TestSearchProductsSort(t *testing.T) {
	client, requests := fakePlatform(t, map[string]string{
		"getProducts": fmt.Sprintf(`{"products": {"edges": [{"node": %s}]}}`, productJSON),
	})

	products, err := client.SearchProducts(context.Background(), "canvas", "price-desc", "en")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Canvas Print" {
		t.Errorf("products = %+v", products)
	}

	vars := (*requests)[0].Variables
	if vars["sortKey"] != "PRICE" || vars["reverse"] != true {
		t.Errorf("sort variables = %+v", vars)
	}
}

func TestAddLines(t *testing.T) {
	client, requests := fakePlatform(t, map[string]string{
		"addToCart": fmt.Sprintf(`{"cartLinesAdd": {"cart": %s, "userErrors": []}}`, cartJSON),
	})

	state, err := client.AddLines(context.Background(), "gid://cart/1", []LineInput{{
		MerchandiseID: "gid://variant/1",
		Quantity:      2,
	}})
	if err != nil {
		t.Fatalf("AddLines: %v", err)
	}
	if state.ID != "gid://cart/1" || state.TotalQuantity != 2 {
		t.Errorf("state = %+v", state)
	}
	if len(state.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(state.Items))
	}
	item := state.Items[0]
	if item.ImageURL != "https://cdn.example.com/uploads/photo.jpg" {
		t.Errorf("item image = %q, want the imgURL attribute", item.ImageURL)
	}
	if got := item.Attribute("borderStyle"); got != "black" {
		t.Errorf("borderStyle attribute = %q", got)
	}
	if state.Cost.TotalTaxAmount.Amount != "0.0" {
		t.Errorf("tax = %q", state.Cost.TotalTaxAmount.Amount)
	}

	vars := (*requests)[0].Variables
	lines, ok := vars["lines"].([]any)
	if !ok || len(lines) != 1 {
		t.Fatalf("lines variable = %+v", vars["lines"])
	}
	line := lines[0].(map[string]any)
	if line["merchandiseId"] != "gid://variant/1" || line["quantity"] != float64(2) {
		t.Errorf("line = %+v", line)
	}
}

func TestAddLinesUserError(t *testing.T) {
	client, _ := fakePlatform(t, map[string]string{
		"addToCart": `{"cartLinesAdd": {"cart": null, "userErrors": [{"field": ["lines"], "message": "variant is sold out"}]}}`,
	})

	_, err := client.AddLines(context.Background(), "gid://cart/1", []LineInput{{MerchandiseID: "gid://variant/9", Quantity: 1}})
	if err == nil || !strings.Contains(err.Error(), "sold out") {
		t.Fatalf("err = %v, want user error surfaced", err)
	}
}

func TestRemoveLines(t *testing.T) {
	client, requests := fakePlatform(t, map[string]string{
		"removeFromCart": fmt.Sprintf(`{"cartLinesRemove": {"cart": %s, "userErrors": []}}`, cartJSON),
	})

	if _, err := client.RemoveLines(context.Background(), "gid://cart/1", []string{"gid://line/1"}); err != nil {
		t.Fatalf("RemoveLines: %v", err)
	}
	vars := (*requests)[0].Variables
	ids, _ := vars["lineIds"].([]any)
	if len(ids) != 1 || ids[0] != "gid://line/1" {
		t.Errorf("lineIds = %+v", vars["lineIds"])
	}
}

func TestGetCartMissing(t *testing.T) {
	client, _ := fakePlatform(t, map[string]string{
		"getCart": `{"cart": null}`,
	})

	_, ok, err := client.GetCart(context.Background(), "gid://cart/expired")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing cart")
	}
}

func TestGraphQLErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": null, "errors": [{"message": "throttled"}]}`)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "tok", slog.Default())

	if _, err := client.CreateCart(context.Background()); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("err = %v, want throttled surfaced", err)
	}
}
