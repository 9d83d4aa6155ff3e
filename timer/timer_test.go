package timer

import (
	"sync"
	"testing"
	"time"
)

func TestHeapFiresInOrder(t *testing.T) {
	h := NewHeap("test")
	var mu sync.Mutex
	var order []int

	record := func(n int) func() {
		return func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	t3 := h.NewTimer(0, record(3))
	t1 := h.NewTimer(0, record(1))
	t2 := h.NewTimer(0, record(2))

	t3.Start(30 * time.Millisecond)
	t1.Start(10 * time.Millisecond)
	t2.Start(20 * time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 fires, got %v", order)
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("fired out of order: %v", order)
	}
}

func TestStopPreventsFire(t *testing.T) {
	h := NewHeap("test")
	fired := false
	tm := h.NewTimer(0, func() { fired = true })
	tm.Start(10 * time.Millisecond)
	tm.Stop()

	time.Sleep(40 * time.Millisecond)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestRestartReschedules(t *testing.T) {
	h := NewHeap("test")
	var mu sync.Mutex
	count := 0
	tm := h.NewTimer(0, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	tm.Start(200 * time.Millisecond)
	tm.Start(10 * time.Millisecond) // reschedule sooner

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected exactly 1 fire after reschedule, got %d", count)
	}
}

func TestActionCanRestartItself(t *testing.T) {
	h := NewHeap("test")
	var mu sync.Mutex
	count := 0
	var tm *Timer
	tm = h.NewTimer(0, func() {
		mu.Lock()
		count++
		n := count
		mu.Unlock()
		if n < 3 {
			tm.Start(5 * time.Millisecond)
		}
	})
	tm.Start(5 * time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Errorf("expected 3 self-rescheduled fires, got %d", count)
	}
}
