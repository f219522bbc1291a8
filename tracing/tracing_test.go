package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInitWritesSpans(t *testing.T) {
	output := filepath.Join(t.TempDir(), "spans.json")

	if err := Init("sweep", "0.0.1", output); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "run tuning", "INTERNAL")
	span.WithAttributes(map[string]string{"runID": "run-1"})
	_, child := StartSpan(ctx, "trial 0_0", "INTERNAL")
	EndSpan(child, nil)
	EndSpan(span, nil)

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("no spans written")
	}
}
