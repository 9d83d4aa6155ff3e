// Package update implements the per-level update process: the link-state
// database, SRM/SSN-flagged flooding, and CSNP/PSNP processing.
package update

import (
	"sort"
	"strconv"
	"sync"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/internal/xlog"
	"github.com/go-isis/isisd/lsp"
	"github.com/go-isis/isisd/metrics"
	"github.com/go-isis/isisd/timer"
)

// CircuitID identifies one circuit a Process floods LSPs over. The update
// process doesn't know anything about circuits beyond this opaque key and
// the flag-setting callbacks a circuit registers.
type CircuitID interface{}

// FlagOps is what a circuit supplies so the update process can mark LSPs
// for (re)transmission (SRM) or for a PSNP request/acknowledgement (SSN)
// without the update package importing the link package.
type FlagOps struct {
	SetSRM   func(lspid codec.LSPID)
	ClearSRM func(lspid codec.LSPID)
	SetSSN   func(lspid codec.LSPID)
	ClearSSN func(lspid codec.LSPID)
	IsP2P    bool
}

// entry is one LSDB record. The per-circuit flooding flags live with each
// circuit and are reached through FlagOps.
type entry struct {
	seg *lsp.Segment
}

// Process is the per-level (L1 or L2) update process: link-state database
// plus flooding control.
type Process struct {
	Lindex int

	timers *timer.Heap

	mu             sync.Mutex
	db             map[codec.LSPID]*entry
	circuits       map[CircuitID]FlagOps
	ownRegenerators map[byte]func(seg *lsp.Segment) // keyed by pseudonode ID; 0 is the router's own (non-pseudonode) LSP
}

// OwnsPseudonode reports whether this process currently originates the
// (non-)pseudonode LSP identified by pseudonode (0 for the non-pseudonode
// LSP). It's the source of truth for ReceiveLSP's "is this LSP one we still
// generate" check.
func (p *Process) OwnsPseudonode(pseudonode byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ownRegenerators[pseudonode]
	return ok
}

// SetOwnRegenerator registers the callback invoked when the own LSP
// identified by pseudonode's refresh timer fires, asking the caller (an
// lsp.Generator for this level) to rebuild and resubmit that LSP's content.
// pseudonode 0 is the router's own non-pseudonode LSP; a non-zero value is
// the pseudonode LSP of a LAN circuit this router is currently DIS for.
// Passing a nil fn removes the registration, e.g. on DIS resignation.
func (p *Process) SetOwnRegenerator(pseudonode byte, fn func(seg *lsp.Segment)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn == nil {
		delete(p.ownRegenerators, pseudonode)
		return
	}
	p.ownRegenerators[pseudonode] = fn
}

// NewProcess creates an empty update process for one level.
func NewProcess(lindex int) *Process {
	return &Process{
		Lindex:          lindex,
		timers:          timer.NewHeap("update-process"),
		db:              make(map[codec.LSPID]*entry),
		circuits:        make(map[CircuitID]FlagOps),
		ownRegenerators: make(map[byte]func(seg *lsp.Segment)),
	}
}

// Timers returns the heap backing this process's LSP segments' hold and
// refresh timers.
func (p *Process) Timers() *timer.Heap { return p.timers }

// RegisterCircuit adds a circuit this process floods over.
func (p *Process) RegisterCircuit(id CircuitID, ops FlagOps) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.circuits[id] = ops
}

// UnregisterCircuit removes a circuit, e.g. when it goes administratively
// down.
func (p *Process) UnregisterCircuit(id CircuitID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.circuits, id)
}

// Get looks up a segment by LSPID.
func (p *Process) Get(lspid codec.LSPID) (*lsp.Segment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.db[lspid]
	if !ok {
		return nil, false
	}
	return e.seg, true
}

// PriorSeqNo returns the seqno currently held for lspid, used by the
// generator to avoid regressing a sequence number across regeneration.
func (p *Process) PriorSeqNo(lspid codec.LSPID) (uint32, bool) {
	seg, ok := p.Get(lspid)
	if !ok {
		return 0, false
	}
	return seg.SeqNo(), true
}

// setAllSRM marks lspid for retransmission on every registered circuit
// except skip (if non-nil), per ISO 10589 §7.3.15.1 step (e)(1).
func (p *Process) setAllSRM(lspid codec.LSPID, skip CircuitID) {
	p.mu.Lock()
	circuits := make(map[CircuitID]FlagOps, len(p.circuits))
	for id, ops := range p.circuits {
		circuits[id] = ops
	}
	p.mu.Unlock()

	for id, ops := range circuits {
		if id == skip || ops.SetSRM == nil {
			continue
		}
		ops.SetSRM(lspid)
	}
}

// clearAllSSN clears the SSN flag for lspid on every registered circuit
// except skip.
func (p *Process) clearAllSSN(lspid codec.LSPID, skip CircuitID) {
	p.mu.Lock()
	circuits := make(map[CircuitID]FlagOps, len(p.circuits))
	for id, ops := range p.circuits {
		circuits[id] = ops
	}
	p.mu.Unlock()

	for id, ops := range circuits {
		if id == skip || ops.ClearSSN == nil {
			continue
		}
		ops.ClearSSN(lspid)
	}
}

// segmentCallbacks builds the lsp.Callbacks a new/updated Segment owned by
// this process uses for purge-triggered flooding and removal.
func (p *Process) segmentCallbacks() lsp.Callbacks {
	return lsp.Callbacks{
		SetAllSRM: func(seg *lsp.Segment) { p.setAllSRM(seg.LSPID(), nil) },
		Remove:    func(seg *lsp.Segment) { p.remove(seg.LSPID()) },
		RegenerateOwn: func(seg *lsp.Segment) {
			p.mu.Lock()
			fn := p.ownRegenerators[seg.LSPID().PseudonodeID()]
			p.mu.Unlock()
			if fn != nil {
				fn(seg)
			}
		},
	}
}

func (p *Process) remove(lspid codec.LSPID) {
	p.mu.Lock()
	delete(p.db, lspid)
	size := len(p.db)
	p.mu.Unlock()
	metrics.LSDBSize.WithLabelValues(strconv.Itoa(p.Lindex + 1)).Set(float64(size))
}

// reclaimOwnLSP handles a newer copy of an LSP we still originate showing up
// on the wire: it raises our copy's seqno floor past what's circulating and
// asks the registered generator to rebuild and resubmit, rather than
// installing the foreign bytes.
func (p *Process) reclaimOwnLSP(fixed codec.LSPFixed) {
	p.mu.Lock()
	e, exists := p.db[fixed.LSPID]
	fn := p.ownRegenerators[fixed.LSPID.PseudonodeID()]
	p.mu.Unlock()

	if exists {
		e.seg.BumpSeqNoFloor(fixed.SeqNo)
	}
	if fn != nil {
		fn(nil)
	}
}

// purgeUnsupportedOwn force-purges a segment carrying our system ID that
// we've stopped originating, installing it first if we'd never seen it, so
// the purge itself gets flooded rather than silently dropped.
func (p *Process) purgeUnsupportedOwn(fixed codec.LSPFixed, pdu []byte, tlvs []codec.RawTLV) {
	p.mu.Lock()
	e, exists := p.db[fixed.LSPID]
	p.mu.Unlock()

	if exists {
		e.seg.ForcePurgeUnsupported()
		return
	}

	seg := lsp.NewSegment(p.timers, p.segmentCallbacks(), pdu, fixed, tlvs, false)
	p.mu.Lock()
	p.db[fixed.LSPID] = &entry{seg: seg}
	size := len(p.db)
	p.mu.Unlock()
	metrics.LSDBSize.WithLabelValues(strconv.Itoa(p.Lindex + 1)).Set(float64(size))
	seg.ForcePurgeUnsupported()
}

// ReceiveLSP processes one decoded LSP PDU received on circuit from, per ISO
// 10589 §7.3.15.1. ourSysID is used to recognize our own LSPs.
func (p *Process) ReceiveLSP(from CircuitID, fixed codec.LSPFixed, pdu []byte, tlvs []codec.RawTLV, ourSysID [6]byte, isOurs func(fixed codec.LSPFixed) bool) {
	p.mu.Lock()
	e, exists := p.db[fixed.LSPID]
	ops := p.circuits[from]
	p.mu.Unlock()

	var result codec.CompareResult = codec.Newer
	if exists {
		dbFixed := e.seg.Fixed()
		result = codec.Compare(fixed.SeqNo, fixed.RemainingLife, dbFixed.SeqNo, dbFixed.RemainingLife)
	}

	switch result {
	case codec.Newer:
		pn := fixed.LSPID.PseudonodeID()
		matchesUs := fixed.LSPID.IsOwnedBy(ourSysID, pn)

		if matchesUs && isOurs(fixed) {
			// Someone flooded a newer copy of an LSP we still originate
			// (e.g. after we restarted with a lower seqno than what was
			// circulating). Reclaim it: bump our seqno floor past the
			// wire's and regenerate, rather than installing the foreign
			// bytes (ISO 10589 §7.3.15.1 step 5).
			xlog.Debugf("lsdb", "L%d: %s newer copy of our own LSP from %v, seqno %#x, reclaiming", p.Lindex+1, fixed.LSPID, from, fixed.SeqNo)
			p.reclaimOwnLSP(fixed)
			if ops.ClearSRM != nil {
				ops.ClearSRM(fixed.LSPID)
			}
			return
		}

		if matchesUs && !isOurs(fixed) {
			// Carries our system ID but names a segment or pseudonode we
			// no longer generate: force-purge it so it doesn't linger in
			// neighbors' databases (own-LSP unsupported segment received).
			xlog.Debugf("lsdb", "L%d: %s carries our system ID but we no longer originate it, purging", p.Lindex+1, fixed.LSPID)
			if fixed.RemainingLife != 0 {
				p.purgeUnsupportedOwn(fixed, pdu, tlvs)
			}
			if ops.ClearSRM != nil {
				ops.ClearSRM(fixed.LSPID)
			}
			return
		}

		xlog.Debugf("lsdb", "L%d: %s newer from %v, seqno %#x", p.Lindex+1, fixed.LSPID, from, fixed.SeqNo)
		if exists {
			e.seg.Update(pdu, fixed, tlvs)
		} else {
			if fixed.RemainingLife == 0 {
				// A purge for an LSP we've never seen is dropped:
				// it is neither installed nor acknowledged.
				return
			}
			seg := lsp.NewSegment(p.timers, p.segmentCallbacks(), pdu, fixed, tlvs, false)
			p.mu.Lock()
			p.db[fixed.LSPID] = &entry{seg: seg}
			size := len(p.db)
			p.mu.Unlock()
			metrics.LSDBSize.WithLabelValues(strconv.Itoa(p.Lindex + 1)).Set(float64(size))
		}
		p.setAllSRM(fixed.LSPID, from)
		if ops.ClearSRM != nil {
			ops.ClearSRM(fixed.LSPID)
		}
		if ops.IsP2P && ops.SetSSN != nil {
			ops.SetSSN(fixed.LSPID)
		}
		p.clearAllSSN(fixed.LSPID, from)

	case codec.Same:
		if ops.ClearSRM != nil {
			ops.ClearSRM(fixed.LSPID)
		}
		if ops.IsP2P && ops.SetSSN != nil {
			ops.SetSSN(fixed.LSPID)
		}

	case codec.Older:
		if ops.SetSRM != nil {
			ops.SetSRM(fixed.LSPID)
		}
		if ops.ClearSSN != nil {
			ops.ClearSSN(fixed.LSPID)
		}
	}
}

// ReceivePSNP processes a decoded PSNP's SNP entries, per ISO 10589
// §7.3.15.2: a PSNP only ever acknowledges (clears SRM); it never implies
// anything about entries the sender doesn't mention.
func (p *Process) ReceivePSNP(from CircuitID, entries []codec.SNPEntry) {
	ops := p.circuitOps(from)
	for _, snp := range entries {
		if _, ok := p.Get(snp.LSPID); !ok {
			continue
		}
		if ops.ClearSRM != nil {
			ops.ClearSRM(snp.LSPID)
		}
	}
}

// ReceiveCSNP processes a decoded CSNP's SNP entries and the LSPID range it
// summarizes, per ISO 10589 §7.3.15.2.
func (p *Process) ReceiveCSNP(from CircuitID, startLSPID, endLSPID codec.LSPID, entries []codec.SNPEntry) {
	ops := p.circuitOps(from)
	mentioned := make(map[codec.LSPID]bool, len(entries))

	for _, snp := range entries {
		mentioned[snp.LSPID] = true

		seg, ok := p.Get(snp.LSPID)
		var result codec.CompareResult
		if !ok {
			result = codec.Newer
		} else {
			f := seg.Fixed()
			result = codec.Compare(snp.SeqNo, snp.Lifetime, f.SeqNo, f.RemainingLife)
		}

		switch result {
		case codec.Same:
			if ops.IsP2P && ops.ClearSRM != nil {
				ops.ClearSRM(snp.LSPID)
			}
		case codec.Older:
			if ops.ClearSSN != nil {
				ops.ClearSSN(snp.LSPID)
			}
			if ops.SetSRM != nil {
				ops.SetSRM(snp.LSPID)
			}
		case codec.Newer:
			if ok {
				if ops.SetSSN != nil {
					ops.SetSSN(snp.LSPID)
				}
				if ops.IsP2P && ops.ClearSRM != nil {
					ops.ClearSRM(snp.LSPID)
				}
			} else if snp.SeqNo != 0 && snp.Lifetime != 0 && snp.Checksum != 0 {
				// A zero-seqno placeholder segment tracks the
				// entry purely so SSN can request it; it carries no
				// real content until the full LSP arrives.
				placeholder := codec.LSPFixed{LSPID: snp.LSPID, SeqNo: 0, Checksum: snp.Checksum, RemainingLife: snp.Lifetime}
				seg := lsp.NewSegment(p.timers, p.segmentCallbacks(), nil, placeholder, nil, false)
				p.mu.Lock()
				p.db[snp.LSPID] = &entry{seg: seg}
				p.mu.Unlock()
				if ops.SetSSN != nil {
					ops.SetSSN(snp.LSPID)
				}
			}
		}
	}

	// Flood anything in our DB, inside the summarized range, that the
	// neighbor's CSNP didn't mention. Zero-seqno placeholders and
	// zero-lifetime entries are not flooded here.
	p.mu.Lock()
	var toFlood []codec.LSPID
	for lspid, e := range p.db {
		if lspid.Less(startLSPID) || endLSPID.Less(lspid) {
			continue
		}
		if mentioned[lspid] {
			continue
		}
		f := e.seg.Fixed()
		if f.SeqNo == 0 || f.RemainingLife == 0 {
			continue
		}
		toFlood = append(toFlood, lspid)
	}
	p.mu.Unlock()

	if ops.SetSRM != nil {
		for _, lspid := range toFlood {
			ops.SetSRM(lspid)
		}
	}
}

func (p *Process) circuitOps(id CircuitID) FlagOps {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.circuits[id]
}

// CSNPEntries returns the full LSDB contents as SNP entries in LSPID order,
// used to build CSNPs.
func (p *Process) CSNPEntries() []codec.SNPEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]codec.LSPID, 0, len(p.db))
	for id := range p.db {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	out := make([]codec.SNPEntry, 0, len(ids))
	for _, id := range ids {
		f := p.db[id].seg.Fixed()
		out = append(out, codec.SNPEntry{
			Lifetime: f.RemainingLife,
			LSPID:    f.LSPID,
			SeqNo:    f.SeqNo,
			Checksum: f.Checksum,
		})
	}
	return out
}

// UpdateOwnLSP installs a freshly regenerated own-LSP segment into the
// database, bumping its sequence number and recomputing its checksum, then
// marks it for flooding to every circuit. Called by lsp.Generator's Submit
// callback.
func (p *Process) UpdateOwnLSP(fixed codec.LSPFixed, tlvs []codec.RawTLV, encode func(codec.LSPFixed, []codec.RawTLV) []byte) {
	p.mu.Lock()
	e, exists := p.db[fixed.LSPID]
	p.mu.Unlock()

	if exists {
		fixed.SeqNo = e.seg.Fixed().SeqNo + 1
	} else {
		fixed.SeqNo = 1
	}
	fixed.Checksum = 0
	pdu := encode(fixed, tlvs)

	if exists {
		e.seg.Update(pdu, fixed, tlvs)
	} else {
		seg := lsp.NewSegment(p.timers, p.segmentCallbacks(), pdu, fixed, tlvs, true)
		p.mu.Lock()
		p.db[fixed.LSPID] = &entry{seg: seg}
		size := len(p.db)
		p.mu.Unlock()
		metrics.LSDBSize.WithLabelValues(strconv.Itoa(p.Lindex + 1)).Set(float64(size))
	}
	metrics.OwnLSPRegenCount.WithLabelValues(strconv.Itoa(p.Lindex + 1)).Inc()
	p.setAllSRM(fixed.LSPID, nil)
}
