package ring

import "testing"

func TestRingBasic(t *testing.T) {
	r := New[int](4)
	if !r.TryPush(1) || !r.TryPush(2) {
		t.Fatal("push failed unexpectedly")
	}
	if v, ok := r.TryPop(); !ok || v != 1 {
		t.Errorf("expected first pop to be 1, got %v ok=%v", v, ok)
	}
	if v, ok := r.TryPop(); !ok || v != 2 {
		t.Errorf("expected second pop to be 2, got %v ok=%v", v, ok)
	}
	if _, ok := r.TryPop(); ok {
		t.Error("expected empty ring to return ok=false")
	}
}

func TestRingFullRejectsAndLeavesUnchanged(t *testing.T) {
	r := New[int](4) // usable capacity 3
	if !r.TryPush(1) || !r.TryPush(2) || !r.TryPush(3) {
		t.Fatal("expected 3 pushes to succeed")
	}
	if r.TryPush(4) {
		t.Fatal("expected ring to reject the 4th push")
	}
	if v, ok := r.TryPop(); !ok || v != 1 {
		t.Errorf("ring contents changed after rejected push: got %v ok=%v", v, ok)
	}
}

func TestNewPanicsOnBadCapacity(t *testing.T) {
	cases := []uint64{0, 3, 6, 100}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for capacity %d", c)
				}
			}()
			New[int](c)
		}()
	}
}

func TestRingEmptyAndSize(t *testing.T) {
	r := New[int](8)
	if !r.Empty() {
		t.Error("expected new ring to be empty")
	}
	r.TryPush(42)
	if r.Empty() {
		t.Error("expected non-empty ring after push")
	}
	if r.Size() != 1 {
		t.Errorf("expected size 1, got %d", r.Size())
	}
}

// TestRingSPSCStress pushes 10,000 sequential integers from one
// goroutine and pops them from another, and asserts the consumer
// observes exactly that sequence with no loss, duplication, or
// reorder.
func TestRingSPSCStress(t *testing.T) {
	const n = 10000
	r := New[int](256)

	done := make(chan []int, 1)
	go func() {
		got := make([]int, 0, n)
		for len(got) < n {
			if v, ok := r.TryPop(); ok {
				got = append(got, v)
			}
		}
		done <- got
	}()

	for i := 0; i < n; i++ {
		for !r.TryPush(i) {
		}
	}

	got := <-done
	if len(got) != n {
		t.Fatalf("expected %d values, got %d", n, len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at index %d: expected %d, got %d", i, i, v)
		}
	}
}
