package judder

import "testing"

func TestWindowEvictsOldestFirst(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float32{1, 2, 3, 4} {
		w.Append(v)
	}
	if w.Len() != 3 {
		t.Fatalf("expected len 3, got %d", w.Len())
	}
	// Oldest sample (1) evicted: remaining deltas are all positive.
	if got := w.SignChanges(); got != 0 {
		t.Fatalf("expected 0 sign changes after eviction, got %d", got)
	}
}

func TestSignChangesMonotonicRamp(t *testing.T) {
	w := NewWindow(8)
	for _, v := range []float32{0.1, 0.2, 0.3, 0.4, 0.5} {
		w.Append(v)
	}
	if got := w.SignChanges(); got != 0 {
		t.Fatalf("monotonic ramp should have 0 sign changes, got %d", got)
	}
}

func TestSignChangesAlternating(t *testing.T) {
	w := NewWindow(8)
	for _, v := range []float32{0.3, 0.5, 0.3, 0.5, 0.3, 0.5} {
		w.Append(v)
	}
	// Deltas: + - + - +  → four reversals.
	if got := w.SignChanges(); got != 4 {
		t.Fatalf("expected 4 sign changes, got %d", got)
	}
}

func TestSignChangesSkipsZeroDeltas(t *testing.T) {
	w := NewWindow(8)
	for _, v := range []float32{0.3, 0.5, 0.5, 0.5, 0.3} {
		w.Append(v)
	}
	// + 0 0 -  → the zero deltas are skipped, one reversal.
	if got := w.SignChanges(); got != 1 {
		t.Fatalf("expected 1 sign change, got %d", got)
	}
}

func TestSettledValueNeverTrips(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 20; i++ {
		w.Append(0.42)
	}
	if got := w.SignChanges(); got != 0 {
		t.Fatalf("constant value should have 0 sign changes, got %d", got)
	}
}

func TestResetClearsSamples(t *testing.T) {
	w := NewWindow(4)
	w.Append(0.1)
	w.Append(0.9)
	w.Reset()
	if w.Len() != 0 {
		t.Fatalf("expected empty window after reset, got %d", w.Len())
	}
	if got := w.SignChanges(); got != 0 {
		t.Fatalf("expected 0 sign changes after reset, got %d", got)
	}
}

func TestZeroSizeWindow(t *testing.T) {
	w := NewWindow(0)
	w.Append(1.0)
	if w.Len() != 0 {
		t.Fatal("zero-size window should hold nothing")
	}
}
