package lsp

import (
	"testing"
	"time"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/timer"
)

func TestSegmentPurgesOnHoldExpiry(t *testing.T) {
	h := timer.NewHeap("test")
	var removed bool
	var srmSet bool
	cb := Callbacks{
		SetAllSRM: func(seg *Segment) { srmSet = true },
		Remove:    func(seg *Segment) { removed = true },
	}
	fixed := codec.LSPFixed{RemainingLife: 1, LSPID: codec.NewLSPID([6]byte{1}, 0, 0), SeqNo: 1}
	seg := NewSegment(h, cb, nil, fixed, nil, false)

	// Force a short hold interval directly to avoid a real 1s wait.
	seg.holdTimer.Start(20 * time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	if !srmSet {
		t.Error("expected SetAllSRM to be called on natural expiry")
	}
	if !seg.IsZeroLifetime() {
		t.Error("expected segment to enter zero-lifetime after natural expiry")
	}
	if removed {
		t.Error("segment should not yet be removed, it must sit in zero-age first")
	}

	// Force the zero-age timer short too.
	seg.holdTimer.Start(20 * time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if !removed {
		t.Error("expected segment to be removed after zero-age expiry")
	}
}

func TestSegmentUpdateExtendsZeroAge(t *testing.T) {
	h := timer.NewHeap("test")
	cb := Callbacks{}
	fixed := codec.LSPFixed{RemainingLife: 0, LSPID: codec.NewLSPID([6]byte{1}, 0, 0), SeqNo: 5}
	seg := NewSegment(h, cb, nil, fixed, nil, false)
	if !seg.IsZeroLifetime() {
		t.Fatal("expected a zero-lifetime LSP to start in zero-lifetime state")
	}

	fixed.SeqNo = 6
	seg.Update(nil, fixed, nil)
	if !seg.IsZeroLifetime() {
		t.Error("expected segment to remain in zero-lifetime after a refreshed purge")
	}
	if seg.SeqNo() != 6 {
		t.Errorf("expected seqno to update to 6, got %d", seg.SeqNo())
	}
}

func TestForcePurgeOursRequiresOwnership(t *testing.T) {
	h := timer.NewHeap("test")
	fixed := codec.LSPFixed{RemainingLife: 100, LSPID: codec.NewLSPID([6]byte{1}, 0, 0)}
	seg := NewSegment(h, Callbacks{}, nil, fixed, nil, false)

	defer func() {
		if recover() == nil {
			t.Error("expected panic calling ForcePurgeOurs on a non-own segment")
		}
	}()
	seg.ForcePurgeOurs()
}
