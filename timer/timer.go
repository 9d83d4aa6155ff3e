// Package timer implements a shared min-heap timer service: many logical
// timers are multiplexed onto a single underlying OS timer, so a daemon
// tracking thousands of per-adjacency and per-LSP timers doesn't need
// thousands of goroutines blocked in time.Sleep.
package timer

import (
	"container/heap"
	"log"
	"math/rand"
	"sync"
	"time"
)

// Timer is one scheduled action. The zero value is not usable; obtain one
// from Heap.NewTimer.
type Timer struct {
	heap   *Heap
	jitter float64 // 0..1, fraction of the interval to randomly subtract
	action func()

	index  int // position in the heap's backing slice, -1 when not scheduled
	expire time.Time
}

// Scheduled reports whether t is currently pending expiry.
func (t *Timer) Scheduled() bool {
	t.heap.mu.Lock()
	defer t.heap.mu.Unlock()
	return t.index >= 0
}

// Start (re)schedules t to fire after interval, minus up to jitter*interval
// of random early fire. Calling Start on an already-scheduled timer reschedules it.
func (t *Timer) Start(interval time.Duration) {
	expire := time.Now().Add(interval)
	if t.jitter > 0 {
		shrink := time.Duration(float64(interval) * rand.Float64() * t.jitter)
		expire = expire.Add(-shrink)
	}
	t.heap.schedule(t, expire)
}

// Stop cancels t if scheduled. It is always safe to call, including on an
// already-stopped or already-fired timer.
func (t *Timer) Stop() {
	t.heap.unschedule(t)
}

// Remaining reports how long until t is next due to fire, or 0 if it isn't
// currently scheduled or has already fired.
func (t *Timer) Remaining() time.Duration {
	t.heap.mu.Lock()
	defer t.heap.mu.Unlock()
	if t.index < 0 {
		return 0
	}
	d := time.Until(t.expire)
	if d < 0 {
		return 0
	}
	return d
}

// pqueue is the container/heap backing store, ordered by expire time.
type pqueue []*Timer

func (q pqueue) Len() int            { return len(q) }
func (q pqueue) Less(i, j int) bool  { return q[i].expire.Before(q[j].expire) }
func (q pqueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *pqueue) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *pqueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Heap multiplexes any number of Timers onto one underlying OS timer. A
// Heap must not be copied after first use.
type Heap struct {
	desc string

	mu       sync.Mutex
	q        pqueue
	rtimer   *time.Timer
	expiring bool
}

// NewHeap creates an empty Heap. desc names the heap in the log line written
// when one of its timer actions panics.
func NewHeap(desc string) *Heap {
	return &Heap{desc: desc}
}

// NewTimer creates a Timer bound to h that runs action when it expires.
// jitter, in [0,1], is the fraction of each Start interval that may be
// randomly subtracted to avoid synchronized expiry across many timers
// started at the same moment (e.g. IIH hold timers across many adjacencies).
func (h *Heap) NewTimer(jitter float64, action func()) *Timer {
	return &Timer{heap: h, jitter: jitter, action: action, index: -1}
}

// schedule inserts or repositions t in the heap at the given expiry and
// reschedules the underlying OS timer if t is now the earliest entry.
func (h *Heap) schedule(t *Timer, expire time.Time) {
	h.mu.Lock()
	var prevTop *Timer
	if len(h.q) > 0 {
		prevTop = h.q[0]
	}
	if t.index >= 0 {
		heap.Remove(&h.q, t.index)
	}
	t.expire = expire
	heap.Push(&h.q, t)

	newTop := h.q[0]
	// t being the top again still needs a rearm: its expiry just changed.
	needsReschedule := newTop != prevTop || newTop == t
	expiring := h.expiring
	h.mu.Unlock()

	if needsReschedule && !expiring {
		h.rearm(newTop.expire)
	}
}

// unschedule removes t from the heap if present.
func (h *Heap) unschedule(t *Timer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t.index < 0 {
		return
	}
	wasTop := t.index == 0
	heap.Remove(&h.q, t.index)
	if wasTop && !h.expiring {
		if h.rtimer != nil {
			h.rtimer.Stop()
			h.rtimer = nil
		}
		if len(h.q) > 0 {
			top := h.q[0]
			h.mu.Unlock()
			h.rearm(top.expire)
			h.mu.Lock()
		}
	}
}

// rearm (re)starts the single underlying OS timer to fire h.expireReady at
// the given instant.
func (h *Heap) rearm(at time.Time) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	h.mu.Lock()
	if h.rtimer != nil {
		h.rtimer.Stop()
	}
	h.rtimer = time.AfterFunc(d, h.expireReady)
	h.mu.Unlock()
}

// expireReady runs every Timer whose expiry has passed, then reschedules
// the OS timer for whatever is now earliest. Each Timer's action runs
// outside the heap's lock so actions may themselves call Start/Stop on any
// Timer, including the one currently firing.
func (h *Heap) expireReady() {
	for {
		h.mu.Lock()
		h.expiring = true
		h.rtimer = nil

		if len(h.q) == 0 {
			h.expiring = false
			h.mu.Unlock()
			return
		}

		top := h.q[0]
		now := time.Now()
		if top.expire.After(now) {
			h.expiring = false
			remaining := top.expire
			h.mu.Unlock()
			h.rearm(remaining)
			return
		}

		expired := heap.Pop(&h.q).(*Timer)
		h.mu.Unlock()

		expired.run()
	}
}

// run invokes the timer's action, recovering from any panic so one
// misbehaving timer action cannot take down the shared heap's expiry loop.
func (t *Timer) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("timer: panic in %s timer action: %v", t.heap.desc, r)
		}
	}()
	t.action()
}
