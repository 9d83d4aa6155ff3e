package lsp

import (
	"sync"
	"time"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/timer"
)

// pduBudget is the maximum total PDU size (header + TLVs) a generated LSP
// segment is packed into before rolling to a new segment.
const pduBudget = 1492

// NeighborReach is one entry contributed to a generated LSP's Extended IS
// Reachability TLV: an IS-IS neighbor (real adjacency, for a non-pseudonode
// LSP, or LAN member, for a pseudonode LSP) with its metric.
type NeighborReach struct {
	Neighbor [7]byte // 6-byte system ID + pseudonode ID
	Metric   uint32
}

// NonPNContent is everything a non-pseudonode (real router) own-LSP's
// content is built from.
type NonPNContent struct {
	AreaAddrs  []codec.AreaAddress // Level 2 only
	Hostname   string
	IPv4Addrs  [][4]byte
	Neighbors  []NeighborReach
	Overload   bool
	ISType     uint8 // 1 = L1, 3 = L1L2
}

// PNContent is everything a pseudonode own-LSP's content is built from: the
// LAN's current member list from the DIS's point of view.
type PNContent struct {
	Neighbors []NeighborReach
}

// Generator builds and resubmits own-LSP segments for one instance/level,
// either the non-pseudonode LSP (Pseudonode == 0, built from NonPN) or a
// pseudonode LSP for a DIS'd LAN circuit (built from PN).
type Generator struct {
	Lindex     int
	SysID      [6]byte
	Pseudonode byte // 0 for non-PN; the local circuit ID when acting as DIS

	gentimer *timer.Timer
	genMu    sync.Mutex

	// Submit hands one segment's fixed fields and parsed TLVs to the
	// update process, which encodes the PDU, computes the checksum,
	// installs it in the LSDB (bumping seqno if one already exists for
	// this LSPID), and floods it.
	Submit func(segNum byte, fixed codec.LSPFixed, tlvs []codec.RawTLV)
	// PriorSeqNo looks up the seqno of whatever segment currently
	// occupies segNum, so regeneration doesn't regress an already
	// advertised sequence number. Returns (0, false) if none exists.
	PriorSeqNo func(segNum byte) (uint32, bool)
	// PurgeTail is invoked after a regeneration with the first segment
	// number not produced this round, so the caller can force-purge any
	// higher-numbered segments left behind when content shrinks.
	PurgeTail func(fromSegNum byte)

	// NonPN supplies the content used to build segment 0+ of the
	// non-pseudonode LSP; nil if this Generator builds a pseudonode LSP.
	NonPN func() NonPNContent
	// PN supplies the content used to build a pseudonode LSP; nil if this
	// Generator builds the non-pseudonode LSP.
	PN func() PNContent
}

// NewGenerator creates a Generator whose scheduled regeneration timer lives
// on heap.
func NewGenerator(heap *timer.Heap) *Generator {
	g := &Generator{}
	g.gentimer = heap.NewTimer(0, g.genExpire)
	return g
}

// ScheduleRegen arranges for Regenerate to run after delay, coalescing with
// any already-pending schedule (matching the Python original's gen_lock +
// "already scheduled, do nothing" behavior): a regeneration already queued
// is left alone rather than pushed further out.
func (g *Generator) ScheduleRegen(delay time.Duration) {
	g.genMu.Lock()
	defer g.genMu.Unlock()
	if g.gentimer.Scheduled() {
		return
	}
	g.gentimer.Start(delay)
}

func (g *Generator) genExpire() {
	g.Regenerate()
}

// Regenerate rebuilds every segment of this LSP (non-pseudonode or
// pseudonode) from current content and submits each to the update process.
func (g *Generator) Regenerate() {
	if g.PN != nil {
		g.regenPN()
		return
	}
	g.regenNonPN()
}

func (g *Generator) regenNonPN() {
	c := g.NonPN()

	b := newSegBuilder(g, 0)

	if g.Lindex == 1 {
		b.emitAreaAddrs(c.AreaAddrs)
	}
	b.emitHostname(c.Hostname)
	b.emitNLPID()
	b.emitIPv4Addrs(c.IPv4Addrs)
	b.emitNeighbors(c.Neighbors)
	last := b.close(c.Overload, c.ISType)
	g.purgeTailFrom(last + 1)
}

func (g *Generator) regenPN() {
	c := g.PN()

	b := newSegBuilder(g, g.Pseudonode)
	b.emitNeighbors(c.Neighbors)
	last := b.close(false, 0)
	g.purgeTailFrom(last + 1)
}

// purgeTailFrom asks the caller to force-purge any segment at or above
// segNum still present from a previous, larger generation.
func (g *Generator) purgeTailFrom(segNum byte) {
	if g.PurgeTail != nil {
		g.PurgeTail(segNum)
	}
}

