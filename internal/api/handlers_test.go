package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/terandy/canvas-print-shop-sub000/internal/blob"
	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
	"github.com/terandy/canvas-print-shop-sub000/internal/commerce"
	"github.com/terandy/canvas-print-shop-sub000/internal/config"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/session"
	"github.com/terandy/canvas-print-shop-sub000/internal/webhook"
	"github.com/terandy/canvas-print-shop-sub000/pkg/testutil"
)

const testWebhookSecret = "whsec_test"

// Platform line ids are GID URIs with slashes, so they ride in the id
// query parameter and must be escaped.
func cartItemPath(id string) string {
	return "/api/cart/items?id=" + url.QueryEscape(id)
}

func cartItemQuantityPath(id string) string {
	return "/api/cart/items/quantity?id=" + url.QueryEscape(id)
}

func canvasProduct() catalog.Product {
	variant := func(id, size, frame, price string) catalog.Variant {
		return catalog.Variant{
			ID:               id,
			Title:            size + " / " + frame,
			AvailableForSale: true,
			SelectedOptions: []catalog.SelectedOption{
				{Name: "Size", Value: size},
				{Name: "Frame", Value: frame},
			},
			Price: catalog.Money{Amount: price, CurrencyCode: "CAD"},
		}
	}
	return catalog.Product{
		ID:     "gid://product/1",
		Handle: "canvas-print",
		Title:  "Canvas Print",
		Options: []catalog.ProductOption{
			{ID: "opt1", Name: "Size", Values: []string{"8x10", "16x20"}},
			{ID: "opt2", Name: "Frame", Values: []string{"none", "black"}},
		},
		Variants: []catalog.Variant{
			variant("v1", "8x10", "none", "20.00"),
			variant("v2", "8x10", "black", "35.00"),
			variant("v3", "16x20", "none", "40.00"),
			variant("v4", "16x20", "black", "60.00"),
		},
	}
}

// fakePlatform is an in-memory commerce platform: one product, one cart,
// platform-assigned line ids.
type fakePlatform struct {
	mu            sync.Mutex
	product       catalog.Product
	cart          cart.State
	nextLine      int
	failMutations bool
	productCalls  int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{product: canvasProduct()}
}

func (f *fakePlatform) GetProduct(ctx context.Context, handle, locale string) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if handle != f.product.Handle {
		return catalog.Product{}, fmt.Errorf("product %q not found", handle)
	}
	return f.product, nil
}

func (f *fakePlatform) SearchProducts(ctx context.Context, query, sortSlug, locale string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	return []catalog.Product{f.product}, nil
}

func (f *fakePlatform) CreateCart(ctx context.Context) (cart.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = cart.State{ID: "gid://cart/1"}
	return f.cart, nil
}

func (f *fakePlatform) AddLines(ctx context.Context, cartID string, lines []commerce.LineInput) (cart.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutations {
		return cart.State{}, fmt.Errorf("platform down")
	}
	for _, l := range lines {
		f.nextLine++
		f.cart.Items = append(f.cart.Items, cart.Item{
			ID:            fmt.Sprintf("gid://line/%d", f.nextLine),
			MerchandiseID: l.MerchandiseID,
			ProductHandle: f.product.Handle,
			Title:         f.product.Title,
			Quantity:      l.Quantity,
			TotalAmount:   f.lineTotal(l.MerchandiseID, l.Quantity),
			Attributes:    l.Attributes,
		})
	}
	return f.cart, nil
}

func (f *fakePlatform) UpdateLines(ctx context.Context, cartID string, lines []commerce.LineInput) (cart.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutations {
		return cart.State{}, fmt.Errorf("platform down")
	}
	for _, l := range lines {
		for i, it := range f.cart.Items {
			if it.ID == l.ID {
				f.cart.Items[i].MerchandiseID = l.MerchandiseID
				f.cart.Items[i].Quantity = l.Quantity
				f.cart.Items[i].TotalAmount = f.lineTotal(l.MerchandiseID, l.Quantity)
				f.cart.Items[i].Attributes = l.Attributes
			}
		}
	}
	return f.cart, nil
}

func (f *fakePlatform) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (cart.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutations {
		return cart.State{}, fmt.Errorf("platform down")
	}
	for _, id := range lineIDs {
		for i, it := range f.cart.Items {
			if it.ID == id {
				f.cart.Items = append(f.cart.Items[:i], f.cart.Items[i+1:]...)
				break
			}
		}
	}
	return f.cart, nil
}

func (f *fakePlatform) GetCart(ctx context.Context, cartID string) (cart.State, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cart.ID == "" || f.cart.ID != cartID {
		return cart.State{}, false, nil
	}
	return f.cart, true, nil
}

func (f *fakePlatform) lineTotal(merchandiseID string, quantity int) catalog.Money {
	for _, v := range f.product.Variants {
		if v.ID == merchandiseID {
			unit, _ := decimal.NewFromString(v.Price.Amount)
			total := unit.Mul(decimal.NewFromInt(int64(quantity)))
			return catalog.Money{Amount: total.StringFixed(2), CurrencyCode: v.Price.CurrencyCode}
		}
	}
	return catalog.Money{Amount: "0.00", CurrencyCode: "CAD"}
}

// recordingBlobs records deletes and hands out fixed upload targets.
type recordingBlobs struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	fail    bool
}

func (b *recordingBlobs) CreateUploadTarget(ctx context.Context, contentType string) (blob.UploadTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	key := fmt.Sprintf("uploads/img-%d.jpg", b.uploads)
	return blob.UploadTarget{
		UploadURL: "https://storage.test/put/" + key,
		PublicURL: "https://cdn.test/" + key,
	}, nil
}

func (b *recordingBlobs) Delete(ctx context.Context, publicURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return fmt.Errorf("storage down")
	}
	b.deleted = append(b.deleted, publicURL)
	return nil
}

func (b *recordingBlobs) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func newTestServer(t *testing.T, platform Platform, blobs blob.Store) *testutil.Client {
	t.Helper()

	cfg := &config.Config{
		Commerce: config.CommerceConfig{WebhookSecret: testWebhookSecret},
		Product:  "canvas-print",
		Locales:  []string{"en", "fr"},
	}
	logger := slog.Default()
	sessions := session.NewManager(session.NewMemoryPersister(), logger)

	srv := httpkit.New(&httpkit.Options{Name: "canvasd-test"})
	h := NewHandler(cfg, sessions, platform, blobs, srv.ReqLog, logger)
	h.Routes(srv.Router)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return testutil.NewClient(t, ts)
}

// uploadImage walks the upload flow and returns the public URL set on the
// configuration.
func uploadImage(t *testing.T, client *testutil.Client) string {
	t.Helper()

	created := client.Post("/api/upload", map[string]string{"content_type": "image/jpeg"})
	created.AssertStatus(200)
	var target struct {
		UploadURL string  `json:"upload_url"`
		PublicURL string  `json:"public_url"`
		Sequence  float64 `json:"sequence"`
	}
	created.JSON(&target)

	client.Post("/api/upload/complete", map[string]any{
		"sequence":  target.Sequence,
		"image_url": target.PublicURL,
	}).AssertStatus(200)

	return target.PublicURL
}

func TestGetConfigDefaults(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	resp := client.Get("/api/config")
	resp.AssertStatus(200)

	var body configResponse
	resp.JSON(&body)
	if body.Config.Size != "8x10" || body.Config.Frame != "none" {
		t.Errorf("seeded config = %+v", body.Config)
	}
	if body.Config.Orientation != "portrait" || body.Config.BorderStyle != "black" {
		t.Errorf("seeded config = %+v", body.Config)
	}
	if body.CanAddToCart {
		t.Error("placeholder image should not be addable to cart")
	}
	if body.Variant.ID != "v1" {
		t.Errorf("resolved variant = %q, want v1", body.Variant.ID)
	}
}

func TestPatchConfigResolvesVariantAndDeltas(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	resp := client.Patch("/api/config", map[string]string{"field": "size", "value": "16x20"})
	resp.AssertStatus(200)

	var body configResponse
	resp.JSON(&body)
	if body.Variant.ID != "v3" {
		t.Errorf("variant = %q, want v3", body.Variant.ID)
	}
	// With 16x20 selected, the black frame costs 20.00 more than none.
	if got := body.PriceDeltas["Frame"]["black"].Amount; got != "20.00" {
		t.Errorf("frame delta = %q, want 20.00", got)
	}
	// Zero deltas are suppressed.
	if _, ok := body.PriceDeltas["Frame"]["none"]; ok {
		t.Error("baseline delta should be suppressed")
	}
}

func TestPatchConfigRejectsInvalidValue(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Patch("/api/config", map[string]string{"field": "size", "value": "12x12"}).
		AssertStatus(422).
		AssertBodyContains("invalid size")

	client.Patch("/api/config", map[string]string{"field": "weight", "value": "1"}).
		AssertStatus(422)
}

func TestDeleteConfigFieldResetsToDefault(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Patch("/api/config", map[string]string{"field": "frame", "value": "black"}).AssertStatus(200)

	resp := client.Delete("/api/config/frame")
	resp.AssertStatus(200)

	var body configResponse
	resp.JSON(&body)
	if body.Config.Frame != "none" {
		t.Errorf("frame after delete = %q, want none", body.Config.Frame)
	}
	if body.Variant.ID != "v1" {
		t.Errorf("variant = %q, want v1", body.Variant.ID)
	}
}

func TestPreviewGeometry(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Patch("/api/config", map[string]string{"field": "orientation", "value": "landscape"}).AssertStatus(200)

	resp := client.Get("/api/config/preview?width=400&height=400&border=none")
	resp.AssertStatus(200)

	var layout struct {
		OuterWidth  float64 `json:"outerWidth"`
		OuterHeight float64 `json:"outerHeight"`
	}
	resp.JSON(&layout)
	// 8x10 landscape contain-fitted into 400x400: height constrains at
	// 40px/inch, so the outer rect is 320x400.
	if layout.OuterWidth != 320 || layout.OuterHeight != 400 {
		t.Errorf("outer = %gx%g, want 320x400", layout.OuterWidth, layout.OuterHeight)
	}
}

func TestPreviewRejectsBadContainer(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Get("/api/config/preview?width=abc&height=400").AssertStatus(400)
	client.Get("/api/config/preview?width=0&height=400").AssertStatus(422)
}

func TestUploadFlowEnablesCart(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	url := uploadImage(t, client)

	resp := client.Get("/api/config")
	var body configResponse
	resp.JSON(&body)
	if body.Config.ImageURL != url {
		t.Errorf("image url = %q, want %q", body.Config.ImageURL, url)
	}
	if !body.CanAddToCart {
		t.Error("expected canAddToCart after upload")
	}
}

func TestUploadStaleCompletionDiscarded(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	first := client.Post("/api/upload", map[string]string{"content_type": "image/jpeg"}).JSONMap()
	second := client.Post("/api/upload", map[string]string{"content_type": "image/jpeg"}).JSONMap()

	// The second upload finishes first; the slow first one must not clobber it.
	client.Post("/api/upload/complete", map[string]any{
		"sequence":  second["sequence"],
		"image_url": second["public_url"],
	}).AssertStatus(200)

	client.Post("/api/upload/complete", map[string]any{
		"sequence":  first["sequence"],
		"image_url": first["public_url"],
	}).AssertStatus(409)

	var body configResponse
	client.Get("/api/config").JSON(&body)
	if body.Config.ImageURL != second["public_url"] {
		t.Errorf("image url = %q, want the newest upload's", body.Config.ImageURL)
	}
}

func TestAddCartItemRequiresImage(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Post("/api/cart/items", nil).
		AssertStatus(422).
		AssertBodyContains("image")
}

func TestAddCartItem(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	url := uploadImage(t, client)
	client.Patch("/api/config", map[string]string{"field": "size", "value": "16x20"}).AssertStatus(200)

	resp := client.Post("/api/cart/items", nil)
	resp.AssertStatus(201)

	var body cartResponse
	resp.JSON(&body)
	if body.Pending != 0 {
		t.Errorf("pending = %d, want 0 after confirmed add", body.Pending)
	}
	if body.Cart.TotalQuantity != 1 || len(body.Cart.Items) != 1 {
		t.Fatalf("cart = %+v", body.Cart)
	}
	item := body.Cart.Items[0]
	if item.MerchandiseID != "v3" {
		t.Errorf("merchandise = %q, want v3", item.MerchandiseID)
	}
	if item.ID == "" || isTemporaryID(item.ID) {
		t.Errorf("item id = %q, want a platform id", item.ID)
	}
	if got := item.Attribute(cart.AttrImageURL); got != url {
		t.Errorf("imgURL attribute = %q, want %q", got, url)
	}
	if got := item.Attribute(cart.AttrBorderStyle); got != "black" {
		t.Errorf("borderStyle attribute = %q", got)
	}
	if got := item.Attribute(cart.AttrDirection); got != "portrait" {
		t.Errorf("direction attribute = %q", got)
	}
	if body.Cart.Cost.TotalAmount.Amount != "40.00" {
		t.Errorf("total = %q, want 40.00", body.Cart.Cost.TotalAmount.Amount)
	}
	if body.Cart.Cost.TotalTaxAmount.Amount != "0.00" {
		t.Errorf("tax = %q, want pinned 0.00", body.Cart.Cost.TotalTaxAmount.Amount)
	}
}

func TestAddCartItemPlatformFailureStaysPending(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	uploadImage(t, client)

	// Cart creation succeeds, then the platform goes down for the add.
	platform.failMutations = true

	resp := client.Post("/api/cart/items", nil)
	resp.AssertStatus(202)

	var body cartResponse
	resp.JSON(&body)
	if body.Pending != 1 {
		t.Errorf("pending = %d, want 1", body.Pending)
	}
	if len(body.Cart.Items) != 1 || !isTemporaryID(body.Cart.Items[0].ID) {
		t.Errorf("expected the optimistic line to stay visible, got %+v", body.Cart.Items)
	}

	// The next authoritative refresh settles the failed operation.
	platform.failMutations = false
	refreshed := client.Get("/api/cart")
	refreshed.AssertStatus(200)
	refreshed.JSON(&body)
	if body.Pending != 0 || len(body.Cart.Items) != 0 {
		t.Errorf("after refresh: pending=%d items=%d, want both 0", body.Pending, len(body.Cart.Items))
	}
}

func TestUpdateCartItemQuantity(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	uploadImage(t, client)
	client.Post("/api/cart/items", nil).AssertStatus(201)

	var body cartResponse
	client.Get("/api/cart").JSON(&body)
	itemID := body.Cart.Items[0].ID
	if !strings.Contains(itemID, "/") {
		t.Fatalf("fixture line id = %q, want a slash-bearing platform gid", itemID)
	}

	resp := client.Post(cartItemQuantityPath(itemID), map[string]string{"action": "plus"})
	resp.AssertStatus(200)
	resp.JSON(&body)
	if body.Cart.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", body.Cart.Items[0].Quantity)
	}
	if body.Cart.Items[0].TotalAmount.Amount != "40.00" {
		t.Errorf("line total = %q, want 40.00", body.Cart.Items[0].TotalAmount.Amount)
	}

	client.Post(cartItemQuantityPath(itemID), map[string]string{"action": "delete"}).AssertStatus(200)
	client.Get("/api/cart").JSON(&body)
	if len(body.Cart.Items) != 0 {
		t.Errorf("expected empty cart after delete, got %+v", body.Cart.Items)
	}
}

func TestUpdateCartItemQuantityValidation(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Post("/api/cart/items/quantity", map[string]string{"action": "plus"}).
		AssertStatus(400)
	client.Post(cartItemQuantityPath("line_1"), map[string]string{"action": "double"}).
		AssertStatus(422)
	client.Post(cartItemQuantityPath("line_1"), map[string]string{"action": "plus"}).
		AssertStatus(404)
}

func TestUpdateCartItemFromEditedConfig(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	uploadImage(t, client)
	client.Post("/api/cart/items", nil).AssertStatus(201)

	var body cartResponse
	client.Get("/api/cart").JSON(&body)
	itemID := body.Cart.Items[0].ID

	// Edit the configuration, then save it back onto the cart line.
	client.Patch("/api/config", map[string]string{"field": "size", "value": "16x20"}).AssertStatus(200)
	client.Patch("/api/config", map[string]string{"field": "frame", "value": "black"}).AssertStatus(200)

	resp := client.Patch(cartItemPath(itemID), nil)
	resp.AssertStatus(200)
	resp.JSON(&body)

	item := body.Cart.Items[0]
	if item.ID != itemID {
		t.Errorf("line id changed: %q -> %q", itemID, item.ID)
	}
	if item.MerchandiseID != "v4" {
		t.Errorf("merchandise = %q, want v4", item.MerchandiseID)
	}
	if body.Cart.Cost.TotalAmount.Amount != "60.00" {
		t.Errorf("total = %q, want 60.00", body.Cart.Cost.TotalAmount.Amount)
	}
}

func TestUpdateCartItemRescalesQuantityTotal(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	uploadImage(t, client)
	client.Post("/api/cart/items", nil).AssertStatus(201)

	var body cartResponse
	client.Get("/api/cart").JSON(&body)
	itemID := body.Cart.Items[0].ID
	client.Post(cartItemQuantityPath(itemID), map[string]string{"action": "plus"}).AssertStatus(200)

	// The platform goes down, so the response is the optimistic view; the
	// rebuilt line must keep the full two-unit total.
	platform.failMutations = true
	resp := client.Patch(cartItemPath(itemID), nil)
	resp.AssertStatus(202)
	resp.JSON(&body)

	item := body.Cart.Items[0]
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", item.Quantity)
	}
	if item.TotalAmount.Amount != "40.00" {
		t.Errorf("line total = %q, want 40.00", item.TotalAmount.Amount)
	}
	if body.Cart.Cost.TotalAmount.Amount != "40.00" {
		t.Errorf("cart total = %q, want 40.00", body.Cart.Cost.TotalAmount.Amount)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	blobs := &recordingBlobs{}
	client := newTestServer(t, newFakePlatform(), blobs)

	payload := []byte(`{"id": 1001, "line_items": [{"properties": [{"name": "_Image URL", "value": "https://cdn.test/uploads/a.jpg"}]}]}`)

	client.PostRaw("/api/webhooks/cleanup", payload, map[string]string{
		webhook.SignatureHeader: "deadbeef",
		webhook.TopicHeader:     webhook.TopicOrdersFulfilled,
	}).AssertStatus(401)

	if len(blobs.Deleted()) != 0 {
		t.Errorf("no deletes expected on signature mismatch, got %v", blobs.Deleted())
	}
}

func TestWebhookCleanupDeletesImages(t *testing.T) {
	blobs := &recordingBlobs{}
	client := newTestServer(t, newFakePlatform(), blobs)

	payload := []byte(`{"id": 1001, "line_items": [
		{"properties": [{"name": "_Image URL", "value": "https://cdn.test/uploads/a.jpg"}]},
		{"properties": [{"name": "Gift Note", "value": "hi"}]}
	]}`)

	resp := client.PostRaw("/api/webhooks/cleanup", payload, map[string]string{
		webhook.SignatureHeader: webhook.SignHex(payload, testWebhookSecret),
		webhook.TopicHeader:     webhook.TopicOrdersFulfilled,
	})
	resp.AssertStatus(200)

	deleted := blobs.Deleted()
	if len(deleted) != 1 || deleted[0] != "https://cdn.test/uploads/a.jpg" {
		t.Errorf("deleted = %v, want exactly the tagged image", deleted)
	}
}

func TestWebhookBase64Signature(t *testing.T) {
	blobs := &recordingBlobs{}
	client := newTestServer(t, newFakePlatform(), blobs)

	payload := []byte(`{"id": 7, "line_items": [{"properties": [{"key": "_Image URL", "value": "https://cdn.test/uploads/b.jpg"}]}]}`)

	client.PostRaw("/api/webhooks/cleanup", payload, map[string]string{
		webhook.SignatureHeader: webhook.SignBase64(payload, testWebhookSecret),
		webhook.TopicHeader:     webhook.TopicCartsUpdate,
	}).AssertStatus(200)

	if len(blobs.Deleted()) != 1 {
		t.Errorf("deleted = %v, want 1 delete", blobs.Deleted())
	}
}

func TestWebhookIgnoresOtherTopics(t *testing.T) {
	blobs := &recordingBlobs{}
	client := newTestServer(t, newFakePlatform(), blobs)

	payload := []byte(`{"id": 2, "line_items": [{"properties": [{"name": "_Image URL", "value": "https://cdn.test/uploads/c.jpg"}]}]}`)

	client.PostRaw("/api/webhooks/cleanup", payload, map[string]string{
		webhook.SignatureHeader: webhook.SignHex(payload, testWebhookSecret),
		webhook.TopicHeader:     "orders/create",
	}).AssertStatus(200)

	if len(blobs.Deleted()) != 0 {
		t.Errorf("no deletes expected for non-cleanup topic, got %v", blobs.Deleted())
	}
}

func TestWebhookDeleteFailureStillAcknowledges(t *testing.T) {
	blobs := &recordingBlobs{fail: true}
	client := newTestServer(t, newFakePlatform(), blobs)

	payload := []byte(`{"id": 3, "line_items": [{"properties": [{"name": "_Image URL", "value": "https://cdn.test/uploads/d.jpg"}]}]}`)

	client.PostRaw("/api/webhooks/cleanup", payload, map[string]string{
		webhook.SignatureHeader: webhook.SignHex(payload, testWebhookSecret),
		webhook.TopicHeader:     webhook.TopicCheckoutsDelete,
	}).AssertStatus(200)
}

func TestListProductsAndCaching(t *testing.T) {
	platform := newFakePlatform()
	client := newTestServer(t, platform, &recordingBlobs{})

	client.Get("/api/products?q=canvas").AssertStatus(200).AssertBodyContains("Canvas Print")
	client.Get("/api/products?q=canvas").AssertStatus(200)

	platform.mu.Lock()
	calls := platform.productCalls
	platform.mu.Unlock()
	if calls != 1 {
		t.Errorf("platform calls = %d, want 1 (second read cached)", calls)
	}
}

func TestGetProductByHandle(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Get("/api/products/canvas-print").AssertStatus(200).AssertBodyContains("16x20")
	client.Get("/api/products/unknown").AssertStatus(404)
}

func TestSessionCookieIsolation(t *testing.T) {
	platform := newFakePlatform()
	cfgClient := newTestServer(t, platform, &recordingBlobs{})

	cfgClient.Patch("/api/config", map[string]string{"field": "size", "value": "16x20"}).AssertStatus(200)

	var body configResponse
	cfgClient.Get("/api/config").JSON(&body)
	if body.Config.Size != "16x20" {
		t.Errorf("size = %q, want edit to persist across requests", body.Config.Size)
	}
}

func TestAdminEndpoints(t *testing.T) {
	client := newTestServer(t, newFakePlatform(), &recordingBlobs{})

	client.Get("/api/config").AssertStatus(200)

	health := client.Get("/admin/health")
	health.AssertStatus(200)
	if got := health.JSONMap()["sessions"]; got != float64(1) {
		t.Errorf("sessions = %v, want 1", got)
	}

	requests := client.Get("/admin/requests")
	requests.AssertStatus(200).AssertBodyContains("/api/config")

	client.Post("/admin/reset", nil).AssertStatus(200)
	if got := client.Get("/admin/health").JSONMap()["sessions"]; got != float64(0) {
		t.Errorf("sessions after reset = %v, want 0", got)
	}
}
