// Package lsp implements LSP segment lifecycle (hold, refresh, zero-age
// purge) and the own-LSP / pseudonode-LSP generator.
package lsp

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/metrics"
	"github.com/go-isis/isisd/timer"
)

// MaxAge is the maximum lifetime, in seconds, an LSP is ever given.
const MaxAge = 1200

// ZeroAge is how long, in seconds, a zero-lifetime (purged) LSP is retained
// in the database before final removal, per ISO 10589 §7.3.16.4.
const ZeroAge = 60

// lifetimeFieldOffset is the byte offset of the Remaining Lifetime field
// within a complete PDU (common header included), mirroring how
// codec.ChecksumFieldOffset documents its own derivation.
const lifetimeFieldOffset = codec.CommonHeaderLen + 2

// Callbacks an owning UpdateProcess supplies to a Segment so it can
// participate in flooding and database bookkeeping without importing the
// update package (which imports lsp), avoiding an import cycle.
type Callbacks struct {
	// SetAllSRM marks the LSP for re-flooding on every circuit, step (a)
	// of the zero-age purge sequence (ISO 10589 §7.3.16.4).
	SetAllSRM func(seg *Segment)
	// Remove drops seg from the owning LSDB once its zero-age timer fires.
	Remove func(seg *Segment)
	// RegenerateOwn is invoked by a refresh timer on an own LSP, asking
	// the caller to rebuild and resubmit the segment with a bumped seqno.
	RegenerateOwn func(seg *Segment)
}

// Segment is one in-memory LSP: its encoded PDU bytes plus timers governing
// its lifecycle.
type Segment struct {
	cb Callbacks

	OwnerSysID [6]byte // system ID this segment claims to originate from
	IsOurs     bool

	mu            sync.Mutex
	pdu           []byte // complete encoded PDU, including the fixed header
	fixed         codec.LSPFixed
	tlvs          []codec.RawTLV
	zeroLifetime  bool
	zeroDeadline  time.Time

	holdTimer    *timer.Timer
	refreshTimer *timer.Timer // nil unless IsOurs
}

// NewSegment wraps a decoded/generated LSP PDU, starting its hold timer
// (and, if IsOurs, its refresh timer) immediately.
func NewSegment(heap *timer.Heap, cb Callbacks, pdu []byte, fixed codec.LSPFixed, tlvs []codec.RawTLV, isOurs bool) *Segment {
	s := &Segment{
		cb:         cb,
		OwnerSysID: fixed.LSPID.SystemID(),
		IsOurs:     isOurs,
		pdu:        pdu,
		fixed:      fixed,
		tlvs:       tlvs,
	}
	s.holdTimer = heap.NewTimer(0, s.expire)
	if isOurs {
		s.refreshTimer = heap.NewTimer(0, s.refresh)
	}

	if fixed.RemainingLife == 0 {
		// A zero-lifetime LSP starts directly in zero-age retention.
		s.zeroLifetime = true
		s.zeroDeadline = time.Now().Add(ZeroAge * time.Second)
		s.holdTimer.Start(ZeroAge * time.Second)
	} else {
		s.holdTimer.Start(time.Duration(fixed.RemainingLife) * time.Second)
	}
	if isOurs && fixed.RemainingLife > 0 {
		s.refreshTimer.Start(time.Duration(fixed.RemainingLife) * 3 / 4 * time.Second)
	}
	return s
}

func (s *Segment) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("LSP(id:%s seqno:%#08x lifetime:%d cksum:%#04x)",
		s.fixed.LSPID, s.fixed.SeqNo, s.fixed.RemainingLife, s.fixed.Checksum)
}

// LSPID returns the segment's identity.
func (s *Segment) LSPID() codec.LSPID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fixed.LSPID
}

// SeqNo returns the segment's current sequence number.
func (s *Segment) SeqNo() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fixed.SeqNo
}

// Fixed returns a copy of the segment's fixed-field header.
func (s *Segment) Fixed() codec.LSPFixed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fixed
}

// PDU returns the segment's encoded bytes. The caller must not mutate the
// returned slice.
func (s *Segment) PDU() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pdu
}

// PDUForSend returns the bytes to actually put on the wire: the Remaining
// Lifetime field patched to the time the hold timer has left, re-checksummed
// over the patched buffer, per ISO 10589 §7.3.15.1 step (e)(1)'s requirement
// that a retransmitted LSP carry its current remaining lifetime, not a stale
// snapshot from whenever it was installed. A zero-lifetime (purged) segment's
// bytes never change between sends, so they're returned as-is.
func (s *Segment) PDUForSend() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixed.RemainingLife == 0 || len(s.pdu) <= lifetimeFieldOffset+2 {
		return s.pdu
	}

	remaining := uint16(s.holdTimer.Remaining() / time.Second)
	if remaining == s.fixed.RemainingLife {
		return s.pdu
	}
	if remaining == 0 {
		remaining = 1 // still held, however briefly; 0 means purged
	}

	pdu := make([]byte, len(s.pdu))
	copy(pdu, s.pdu)
	binary.BigEndian.PutUint16(pdu[lifetimeFieldOffset:], remaining)
	x, y := codec.ComputeChecksum(pdu, codec.ChecksumFieldOffset)
	pdu[codec.ChecksumFieldOffset] = x
	pdu[codec.ChecksumFieldOffset+1] = y
	return pdu
}

// TLVs returns the segment's parsed TLVs.
func (s *Segment) TLVs() []codec.RawTLV {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tlvs
}

// IsZeroLifetime reports whether the segment is in its post-purge zero-age
// retention period.
func (s *Segment) IsZeroLifetime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zeroLifetime
}

// Update replaces the segment's content with a freshly received (newer) LSP
// PDU, restarting the hold timer (and refresh timer, if ours) from its new
// remaining lifetime. If the incoming PDU is itself a purge (RemainingLife
// == 0), the segment enters or extends its zero-age retention instead.
func (s *Segment) Update(pdu []byte, fixed codec.LSPFixed, tlvs []codec.RawTLV) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pdu = pdu
	s.fixed = fixed
	s.tlvs = tlvs

	if fixed.RemainingLife == 0 {
		s.holdTimer.Stop()
		if !s.zeroLifetime {
			s.zeroLifetime = true
			s.zeroDeadline = time.Now().Add(ZeroAge * time.Second)
		} else if time.Until(s.zeroDeadline) < ZeroAge*time.Second {
			// Refreshed (e.g. a newer seqno for the same purge) while
			// already in zero-age: extend back out to the full window.
			s.zeroDeadline = time.Now().Add(ZeroAge * time.Second)
		}
		s.holdTimer.Start(time.Until(s.zeroDeadline))
		return
	}

	s.zeroLifetime = false
	s.holdTimer.Start(time.Duration(fixed.RemainingLife) * time.Second)

	if s.IsOurs {
		s.refreshTimer.Start(time.Duration(fixed.RemainingLife) * 3 / 4 * time.Second)
	}
}

// refresh is invoked by the refresh timer on an own LSP: it asks the
// owning update process to regenerate and resubmit the segment with a
// bumped sequence number.
func (s *Segment) refresh() {
	if s.cb.RegenerateOwn != nil {
		s.cb.RegenerateOwn(s)
	}
}

// purgeLocked transitions the segment into its zero-age window, per ISO
// 10589 §7.3.16.4 steps (a)-(c): the emitted buffer is truncated to the LSP
// header with lifetime and checksum both zeroed and pdu_len updated, so a
// reflood never carries the pre-purge content back out onto the wire.
// Callers must hold s.mu.
func (s *Segment) purgeLocked(zeroAge time.Duration, reason string) {
	s.fixed.RemainingLife = 0
	s.fixed.Checksum = 0
	s.zeroLifetime = true
	s.zeroDeadline = time.Now().Add(zeroAge)
	s.holdTimer.Start(zeroAge)
	s.truncateToHeaderLocked()

	metrics.PurgeCount.WithLabelValues(reason).Inc()

	if s.cb.SetAllSRM != nil {
		s.cb.SetAllSRM(s)
	}
}

// truncateToHeaderLocked drops every TLV from the encoded buffer, leaving
// only the common header and LSP fixed fields with lifetime, checksum and
// pdu_len patched to match the now-empty content. Callers must hold s.mu and
// have already zeroed s.fixed.RemainingLife/Checksum.
func (s *Segment) truncateToHeaderLocked() {
	if len(s.pdu) < codec.CommonHeaderLen {
		return
	}
	pduType := s.pdu[4] & 0x1F
	fixedLen, err := codec.FixedFieldLen(pduType)
	if err != nil || len(s.pdu) < codec.CommonHeaderLen+fixedLen {
		return
	}

	headerLen := codec.CommonHeaderLen + fixedLen
	truncated := make([]byte, headerLen)
	copy(truncated, s.pdu[:headerLen])
	binary.BigEndian.PutUint16(truncated[codec.CommonHeaderLen:], uint16(headerLen))
	binary.BigEndian.PutUint16(truncated[lifetimeFieldOffset:], 0)
	truncated[codec.ChecksumFieldOffset] = 0
	truncated[codec.ChecksumFieldOffset+1] = 0

	s.pdu = truncated
	s.tlvs = nil
}

// forcePurgeLocked is the shared body of ForcePurgeOurs and
// ForcePurgeUnsupported. Callers must hold s.mu.
func (s *Segment) forcePurgeLocked() {
	if s.fixed.RemainingLife == 0 {
		return
	}
	s.holdTimer.Stop()
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.purgeLocked(MaxAge*time.Second, "force")
}

// ForcePurgeOurs purges a segment we originate, e.g. because it's a
// pseudonode LSP whose circuit no longer exists. It uses MAX_AGE as the
// zero-age retention window, matching the Python original's "we are
// originating this" comment.
func (s *Segment) ForcePurgeOurs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.IsOurs {
		panic("lsp: ForcePurgeOurs called on a non-own segment")
	}
	s.forcePurgeLocked()
}

// ForcePurgeUnsupported purges a segment carrying our system ID that we no
// longer originate -- a segment number or pseudonode our own generator has
// stopped producing (ISO 10589 §7.3.15.1, "own-LSP unsupported segment
// received"). Unlike ForcePurgeOurs this doesn't require IsOurs: the
// segment's identity is ours, not necessarily its current authorship.
func (s *Segment) ForcePurgeUnsupported() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcePurgeLocked()
}

// BumpSeqNoFloor raises the segment's recorded sequence number to at least
// floor, without touching its content, checksum, or timers. Used when a
// newer copy of an LSP we still originate is seen on the wire: the next
// regeneration must produce a sequence number strictly greater than what's
// already circulating (ISO 10589 §7.3.15.1 step 5).
func (s *Segment) BumpSeqNoFloor(floor uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if floor > s.fixed.SeqNo {
		s.fixed.SeqNo = floor
	}
}

// expire is invoked by the hold timer. If the segment was already in its
// zero-age window, this is final removal; otherwise its lifetime has run
// out and it must be purged.
func (s *Segment) expire() {
	s.mu.Lock()
	if s.zeroLifetime && s.fixed.RemainingLife == 0 {
		s.zeroLifetime = false
		remove := s.cb.Remove
		s.mu.Unlock()
		if remove != nil {
			remove(s)
		}
		return
	}
	s.purgeLocked(ZeroAge*time.Second, "expired")
	s.mu.Unlock()
}
