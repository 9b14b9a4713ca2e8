package simulate

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(1, 7).Batch(20)
	b := NewGenerator(1, 7).Batch(20)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("generators with the same seed should produce the same events")
	}
}

func TestGeneratorEventShape(t *testing.T) {
	for _, e := range NewGenerator(1, 1).Batch(50) {
		if !slices.Contains(EventTypes, e.Type) {
			t.Fatalf("unexpected type %q", e.Type)
		}
		if !slices.Contains(Severities, e.Severity) {
			t.Fatalf("unexpected severity %q", e.Severity)
		}
		if !slices.Contains(Actions, e.Action) {
			t.Fatalf("unexpected action %q", e.Action)
		}
		if !strings.HasPrefix(e.Source, "192.168.1.") {
			t.Fatalf("unexpected source %q", e.Source)
		}
		score, ok := e.Details["risk_score"].(int)
		if !ok || score < 1 || score > 100 {
			t.Fatalf("risk_score out of range: %v", e.Details["risk_score"])
		}
	}
}

func TestGeneratorRate(t *testing.T) {
	ctx := context.Background()
	never := NewGenerator(0, 3)
	always := NewGenerator(1, 3)
	for i := 0; i < 100; i++ {
		if len(never.Events(ctx)) != 0 {
			t.Fatal("rate 0 must never emit")
		}
		if len(always.Events(ctx)) != 1 {
			t.Fatal("rate 1 must always emit one event")
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if len(always.Events(cancelled)) != 0 {
		t.Fatal("a cancelled context must not emit")
	}
}
