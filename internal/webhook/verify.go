// Package webhook verifies and models the commerce platform's webhooks.
// The platform signs each delivery with HMAC-SHA256 over the raw request
// body; the signature header may be hex- or base64-encoded depending on the
// platform's webhook version, so verification accepts either.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Header names used by the platform's webhook deliveries.
const (
	SignatureHeader = "X-Commerce-Hmac-Sha256"
	TopicHeader     = "X-Commerce-Topic"
)

// Cleanup-relevant topics. Anything else is acknowledged and ignored.
const (
	TopicOrdersFulfilled = "orders/fulfilled"
	TopicCheckoutsDelete = "checkouts/delete"
	TopicCartsUpdate     = "carts/update"
)

// ComputeSignature computes the HMAC-SHA256 of the payload under the
// secret.
func ComputeSignature(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignHex returns the hex-encoded signature for a payload. Used by tests
// and outbound tooling.
func SignHex(payload []byte, secret string) string {
	return hex.EncodeToString(ComputeSignature(payload, secret))
}

// SignBase64 returns the base64-encoded signature for a payload.
func SignBase64(payload []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(ComputeSignature(payload, secret))
}

// Verify checks a signature header against the raw body. The header value
// is tried as hex first, then standard base64; both compares are constant
// time. An empty header never verifies.
func Verify(payload []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	want := ComputeSignature(payload, secret)

	if got, err := hex.DecodeString(header); err == nil && hmac.Equal(got, want) {
		return true
	}
	if got, err := base64.StdEncoding.DecodeString(header); err == nil && hmac.Equal(got, want) {
		return true
	}
	return false
}
