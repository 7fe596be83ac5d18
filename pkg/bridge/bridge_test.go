package bridge

import (
	"testing"

	"github.com/justyntemme/clipgrid/pkg/enginelog"
)

func testLimiter() *enginelog.Limiter {
	return enginelog.NewLimiter(enginelog.Default, "test", 1)
}

func TestCommandBridgeSendReceive(t *testing.T) {
	b := NewCommandBridge[int](4, testLimiter())
	b.Send(42)

	v, ok := b.TryReceive()
	if !ok {
		t.Fatalf("expected a value")
	}
	if v != 42 {
		t.Errorf("v = %d, want 42", v)
	}

	if _, ok := b.TryReceive(); ok {
		t.Errorf("expected empty queue after drain")
	}
}

func TestCommandBridgeOverflowDropsSilently(t *testing.T) {
	b := NewCommandBridge[int](2, testLimiter())
	for i := 0; i < 10; i++ {
		b.Send(i) // must never panic or block regardless of capacity
	}
	// At least one value should still be receivable.
	if _, ok := b.TryReceive(); !ok {
		t.Fatalf("expected at least one surviving value")
	}
}

func TestEventBridgeSendReceive(t *testing.T) {
	type event struct{ Name string }
	b := NewEventBridge[event](4, testLimiter())
	b.Send(event{Name: "stopped"})

	v, ok := b.TryReceive()
	if !ok || v.Name != "stopped" {
		t.Fatalf("TryReceive = %+v, %v", v, ok)
	}
}

func TestGarbageWrapUnwrapRoundTrip(t *testing.T) {
	type payload struct{ ID int }
	g := Wrap(payload{ID: 7})

	v, ok := Unwrap[payload](g)
	if !ok || v.ID != 7 {
		t.Fatalf("Unwrap = %+v, %v", v, ok)
	}

	if _, ok := Unwrap[string](g); ok {
		t.Fatalf("Unwrap with wrong type should fail")
	}
}

func TestDisposalBridgeCarriesGarbage(t *testing.T) {
	db := NewDisposalBridge(4, testLimiter())
	type allocation struct{ Tag string }
	db.Send(Wrap(allocation{Tag: "old-source"}))

	g, ok := db.TryReceive()
	if !ok {
		t.Fatalf("expected garbage")
	}
	v, ok := Unwrap[allocation](g)
	if !ok || v.Tag != "old-source" {
		t.Fatalf("Unwrap = %+v, %v", v, ok)
	}
}
