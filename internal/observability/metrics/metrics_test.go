package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("queue", "gl-export"),
		attribute.String("customer_id", "456"),
		attribute.String("store_id", "store-1"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "queue" && attrs[1].Key != "queue" {
		t.Fatalf("expected queue to be retained")
	}
	if attrs[0].Key != "store_id" && attrs[1].Key != "store_id" {
		t.Fatalf("expected store_id to be retained")
	}
}
