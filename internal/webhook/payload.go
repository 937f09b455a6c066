package webhook

import (
	"encoding/json"
	"fmt"
)

// imageURLProperty is the line-item property the storefront attaches to
// every customized line so cleanup can find the uploaded image.
const imageURLProperty = "_Image URL"

// LineItemProperty is one custom key/value on a webhook line item. The
// platform emits "name" on order payloads and "key" on cart payloads;
// accept both.
type LineItemProperty struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LineItem is one line of an order, checkout, or cart payload.
type LineItem struct {
	Properties []LineItemProperty `json:"properties"`
}

// Payload is the subset of a webhook delivery the cleanup flow reads.
type Payload struct {
	ID        json.Number `json:"id"`
	LineItems []LineItem  `json:"line_items"`
}

// ParsePayload decodes a webhook body.
func ParsePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("decoding webhook payload: %w", err)
	}
	return p, nil
}

// ImageURLs extracts the uploaded-image URLs carried on the payload's line
// items. Lines without the property are skipped.
func (p Payload) ImageURLs() []string {
	var urls []string
	for _, li := range p.LineItems {
		for _, prop := range li.Properties {
			key := prop.Name
			if key == "" {
				key = prop.Key
			}
			if key == imageURLProperty && prop.Value != "" {
				urls = append(urls, prop.Value)
			}
		}
	}
	return urls
}

// CleanupTopic reports whether a topic triggers image cleanup.
func CleanupTopic(topic string) bool {
	switch topic {
	case TopicOrdersFulfilled, TopicCheckoutsDelete, TopicCartsUpdate:
		return true
	}
	return false
}
