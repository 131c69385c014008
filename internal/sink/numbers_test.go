package sink

import "testing"

func TestNumbersResolve(t *testing.T) {
	broker := newFakeBroker()
	numbers := NewNumbers(broker, nil)
	if err := numbers.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := broker.deliver(t, "petkit/input/+", "petkit/input/feeding_amount", "25"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if v, ok := numbers.Resolve("feeding_amount"); !ok || v != 25 {
		t.Fatalf("Resolve = %v, %v; want 25, true", v, ok)
	}

	if _, ok := numbers.Resolve("missing"); ok {
		t.Fatal("unknown input resolved")
	}

	if err := broker.deliver(t, "petkit/input/+", "petkit/input/feeding_amount", "not-a-number"); err == nil {
		t.Fatal("expected error for non-numeric payload")
	}
	// A bad payload must not clobber the last good value.
	if v, _ := numbers.Resolve("feeding_amount"); v != 25 {
		t.Fatalf("value after bad payload = %v, want 25", v)
	}

	if err := broker.deliver(t, "petkit/input/+", "petkit/input/feeding_amount", ""); err != nil {
		t.Fatalf("deliver empty: %v", err)
	}
	if _, ok := numbers.Resolve("feeding_amount"); ok {
		t.Fatal("empty payload should clear the input")
	}
}
