// Package link implements the per-circuit Link: DIS election on LAN
// circuits, the SRM/SSN flooding flags a circuit exposes to its level's
// update process, and the send-drain path that turns flagged LSPs, PSNP
// requests, and periodic IIH/CSNP generation into framed PDUs.
package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-isis/isisd/adjacency"
	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/lsp"
	"github.com/go-isis/isisd/metrics"
	"github.com/go-isis/isisd/timer"
	"github.com/go-isis/isisd/update"
)

// pduTypeLabel names a PDU type byte for metric labels.
func pduTypeLabel(t uint8) string {
	switch t {
	case codec.PDUTypeIIHLANL1:
		return "iih-lan-l1"
	case codec.PDUTypeIIHLANL2:
		return "iih-lan-l2"
	case codec.PDUTypeIIHP2P:
		return "iih-p2p"
	case codec.PDUTypeLSPL1:
		return "lsp-l1"
	case codec.PDUTypeLSPL2:
		return "lsp-l2"
	case codec.PDUTypeCSNPL1:
		return "csnp-l1"
	case codec.PDUTypeCSNPL2:
		return "csnp-l2"
	case codec.PDUTypePSNPL1:
		return "psnp-l1"
	case codec.PDUTypePSNPL2:
		return "psnp-l2"
	default:
		return "unknown"
	}
}

// Transport is what a circuit's link-layer implementation supplies to a
// Link: its MAC/IPv4 identity and a way to emit a framed PDU. linklayer
// provides the production implementation (raw AF_PACKET socket); tests use a
// fake.
type Transport interface {
	MAC() [6]byte
	IPv4Addr() [4]byte
	WriteFrame(dst [6]byte, payload []byte) error
}

const (
	defaultHelloInterval   = 10 * time.Second
	defaultHelloMultiplier = 3
	pduMTU                 = 1492
)

// Config describes one circuit as the operator configured it.
type Config struct {
	IfName      string
	CircuitType uint8 // low 2 bits: 1=L1, 2=L2, 3=L1L2
	SystemID    [6]byte
	AreaAddrs   []codec.AreaAddress
	Hostname    string
	Priority    uint8
	IsP2P       bool
	// LocalCircuitID distinguishes this circuit from others on the same
	// instance in LAN IDs and pseudonode IDs; callers assign these
	// starting from 1 across all of an instance's circuits.
	LocalCircuitID byte
}

func (c Config) isLevelEnabled(lindex int) bool {
	return c.CircuitType&(1<<uint(lindex)) != 0
}

// Link is one enabled circuit: a physical or virtual interface running
// IS-IS, with independent state for Level 1 and Level 2 if both are
// enabled.
type Link struct {
	cfg       Config
	transport Transport

	levels [2]*levelState // index 0 = L1, 1 = L2; nil where not enabled
}

// NewLink creates a Link for one circuit, wiring its enabled levels against
// the given per-level update processes. Level i's entry in processes is
// consulted only if cfg enables that level.
func NewLink(cfg Config, transport Transport, processes [2]*update.Process) *Link {
	l := &Link{cfg: cfg, transport: transport}
	if cfg.IsP2P {
		// Point-to-point adjacency tracking is out of scope; a P2P link
		// still participates at whichever levels its circuit type
		// enables, but never runs DIS election or owns a pseudonode.
	}
	for lindex := 0; lindex < 2; lindex++ {
		if !cfg.isLevelEnabled(lindex) {
			continue
		}
		lx := newLevelState(l, lindex, processes[lindex])
		l.levels[lindex] = lx
	}
	return l
}

// Start begins periodic IIH generation (and, for LAN circuits, DIS
// election) on every enabled level.
func (l *Link) Start() {
	for _, lx := range l.levels {
		if lx != nil {
			lx.start()
		}
	}
}

// Stop cancels every timer owned by this link's levels. Used on shutdown or
// administrative circuit removal.
func (l *Link) Stop() {
	for _, lx := range l.levels {
		if lx != nil {
			lx.stop()
		}
	}
}

func (l *Link) String() string { return fmt.Sprintf("Link(%s)", l.cfg.IfName) }

// HasPending reports whether any level has an LSP flagged SRM or an SNP
// entry flagged SSN, i.e. whether Drain has work to do. The transport's
// event loop uses this to decide whether to wait for write-readiness on
// this circuit's socket.
func (l *Link) HasPending() bool {
	for _, lx := range l.levels {
		if lx != nil && lx.hasPending() {
			return true
		}
	}
	return false
}

// Drain sends every currently flagged LSP and SNP entry on every enabled
// level. Called by the transport's event loop when the underlying socket is
// writable.
func (l *Link) Drain() {
	for _, lx := range l.levels {
		if lx != nil {
			lx.drain()
		}
	}
}

// ReceiveFrame dispatches one decoded PDU (the frame's payload with the LLC
// header already stripped) received from srcMAC to the appropriate level's
// handler.
func (l *Link) ReceiveFrame(srcMAC [6]byte, payload []byte) error {
	hdr, err := codec.DecodeCommonHeader(payload)
	if err != nil {
		metrics.PDUsDropped.WithLabelValues(l.cfg.IfName, "bad-header").Inc()
		return err
	}
	fixedLen, err := codec.FixedFieldLen(hdr.PDUType)
	if err != nil {
		metrics.PDUsDropped.WithLabelValues(l.cfg.IfName, "unknown-type").Inc()
		return err
	}
	if len(payload) < codec.CommonHeaderLen+fixedLen {
		metrics.PDUsDropped.WithLabelValues(l.cfg.IfName, "truncated").Inc()
		return fmt.Errorf("link: %s: PDU type %d truncated", l.cfg.IfName, hdr.PDUType)
	}
	metrics.PDUsReceived.WithLabelValues(l.cfg.IfName, pduTypeLabel(hdr.PDUType)).Inc()
	body := payload[codec.CommonHeaderLen:]
	tlvBytes := body[fixedLen:]
	tlvs, _ := codec.ParseTLVs(tlvBytes)

	switch hdr.PDUType {
	case codec.PDUTypeIIHLANL1:
		return l.levelOrNil(0).receiveIIH(srcMAC, body, tlvs)
	case codec.PDUTypeIIHLANL2:
		return l.levelOrNil(1).receiveIIH(srcMAC, body, tlvs)
	case codec.PDUTypeIIHP2P:
		return l.receiveP2PIIH(body, tlvs)
	case codec.PDUTypeLSPL1:
		return l.levelOrNil(0).receiveLSP(srcMAC, payload, tlvs)
	case codec.PDUTypeLSPL2:
		return l.levelOrNil(1).receiveLSP(srcMAC, payload, tlvs)
	case codec.PDUTypeCSNPL1:
		return l.levelOrNil(0).receiveCSNP(srcMAC, body, tlvs)
	case codec.PDUTypeCSNPL2:
		return l.levelOrNil(1).receiveCSNP(srcMAC, body, tlvs)
	case codec.PDUTypePSNPL1:
		return l.levelOrNil(0).receivePSNP(srcMAC, tlvs)
	case codec.PDUTypePSNPL2:
		return l.levelOrNil(1).receivePSNP(srcMAC, tlvs)
	default:
		return fmt.Errorf("link: %s: unhandled PDU type %d", l.cfg.IfName, hdr.PDUType)
	}
}

func (l *Link) levelOrNil(lindex int) *levelState {
	return l.levels[lindex] // nil is a valid receiver for the receive*/drain no-ops below
}

// receiveP2PIIH is a skeleton: point-to-point adjacency tracking is out of
// scope (spec Non-goals), so a received P2P hello is acknowledged by
// decoding it (to validate framing) and otherwise ignored.
func (l *Link) receiveP2PIIH(body []byte, tlvs []codec.RawTLV) error {
	_, err := codec.DecodeIIHP2PFixed(body)
	return err
}

// levelState holds everything specific to running one level (L1 or L2) of
// IS-IS over this circuit.
type levelState struct {
	link    *Link
	lindex  int
	process *update.Process
	adjDB   *adjacency.LinkDB

	ownLANID [7]byte // this circuit's own sysid+circuit-id, used whenever no other DIS is in effect

	heap      *timer.Heap
	iihTimer  *timer.Timer
	disTimer  *timer.Timer
	csnpTimer *timer.Timer

	ownGen *lsp.Generator // this router's own (non-pseudonode) LSP generator for this level

	mu        sync.Mutex
	priority  uint8
	dis       disInfo
	lanid     [7]byte
	pnGen     *lsp.Generator // non-nil only while this circuit is DIS

	flagMu sync.Mutex
	srm    map[codec.LSPID]bool
	ssn    map[codec.LSPID]bool
}

func newLevelState(l *Link, lindex int, process *update.Process) *levelState {
	lx := &levelState{
		link:     l,
		lindex:   lindex,
		process:  process,
		priority: l.cfg.Priority,
		srm:      make(map[codec.LSPID]bool),
		ssn:      make(map[codec.LSPID]bool),
	}
	lx.ownLANID = sevenByte(l.cfg.SystemID, l.cfg.LocalCircuitID)
	lx.lanid = lx.ownLANID
	lx.heap = process.Timers()
	lx.adjDB = adjacency.NewLinkDB(lindex, l.transport.MAC(), lx.onAdjacencyStateChange)
	lx.iihTimer = lx.heap.NewTimer(0.25, lx.iihExpire)
	lx.disTimer = lx.heap.NewTimer(0, lx.disElectExpire)
	lx.csnpTimer = lx.heap.NewTimer(0, lx.csnpExpire)

	lx.ownGen = lsp.NewGenerator(lx.heap)
	lx.ownGen.Lindex = lindex
	lx.ownGen.SysID = l.cfg.SystemID
	lx.ownGen.Pseudonode = 0
	lx.ownGen.NonPN = lx.buildNonPNContent
	lx.ownGen.Submit = lx.submitOwnSegment
	lx.ownGen.PriorSeqNo = func(segNum byte) (uint32, bool) {
		return process.PriorSeqNo(codec.NewLSPID(l.cfg.SystemID, 0, segNum))
	}
	lx.ownGen.PurgeTail = func(fromSegNum byte) {
		forcePurgeTail(process, l.cfg.SystemID, 0, fromSegNum)
	}
	process.SetOwnRegenerator(0, func(seg *lsp.Segment) { lx.ownGen.Regenerate() })

	circID := circuitKey{ifname: l.cfg.IfName, lindex: lindex}
	process.RegisterCircuit(circID, update.FlagOps{
		SetSRM:   lx.setSRM,
		ClearSRM: lx.clearSRM,
		SetSSN:   lx.setSSN,
		ClearSSN: lx.clearSSN,
		IsP2P:    l.cfg.IsP2P,
	})
	return lx
}

// circuitKey is the CircuitID this package registers with update.Process;
// it deliberately carries no behavior, just identity.
type circuitKey struct {
	ifname string
	lindex int
}

// forcePurgeTail force-purges every segment of the (non-)pseudonode LSP
// identified by sysID/pseudonode at or above fromSegNum, stopping at the
// first segment number not present in the database: segments are always
// numbered contiguously, so a gap means nothing further can remain from a
// previous, larger generation.
func forcePurgeTail(process *update.Process, sysID [6]byte, pseudonode byte, fromSegNum byte) {
	for segNum := int(fromSegNum); segNum < 256; segNum++ {
		lspid := codec.NewLSPID(sysID, pseudonode, byte(segNum))
		seg, ok := process.Get(lspid)
		if !ok {
			break
		}
		if seg.IsOurs {
			seg.ForcePurgeOurs()
		}
	}
}

func (lx *levelState) submitOwnSegment(segNum byte, fixed codec.LSPFixed, tlvs []codec.RawTLV) {
	lx.process.UpdateOwnLSP(fixed, tlvs, lx.encodeLSP)
}

func (lx *levelState) encodeLSP(fixed codec.LSPFixed, tlvs []codec.RawTLV) []byte {
	pduType := codec.PDUTypeLSPL1
	if lx.lindex == 1 {
		pduType = codec.PDUTypeLSPL2
	}
	return encodeLSPPDU(pduType, fixed, tlvs)
}

func (lx *levelState) buildNonPNContent() lsp.NonPNContent {
	c := lsp.NonPNContent{
		Hostname:  lx.link.cfg.Hostname,
		IPv4Addrs: [][4]byte{lx.link.transport.IPv4Addr()},
		ISType:    lx.link.cfg.CircuitType & 0x03,
	}
	if lx.lindex == 1 {
		c.AreaAddrs = lx.link.cfg.AreaAddrs
	}
	// Always include ourselves with metric 0, plus every up adjacency.
	c.Neighbors = append(c.Neighbors, lsp.NeighborReach{
		Neighbor: sevenByte(lx.link.cfg.SystemID, 0),
	})
	for _, sysid := range lx.adjDB.UpIDs() {
		c.Neighbors = append(c.Neighbors, lsp.NeighborReach{
			Neighbor: sevenByte(sysid, 0),
			Metric:   10,
		})
	}
	return c
}

func sevenByte(sysID [6]byte, pn byte) [7]byte {
	var out [7]byte
	copy(out[:6], sysID[:])
	out[6] = pn
	return out
}

func (lx *levelState) start() {
	lx.iihTimer.Start(time.Second)
	if !lx.link.cfg.IsP2P {
		lx.disTimer.Start(4 * time.Second)
	}
	lx.ownGen.ScheduleRegen(2 * time.Second)
}

func (lx *levelState) stop() {
	lx.iihTimer.Stop()
	lx.disTimer.Stop()
	lx.csnpTimer.Stop()
}

func (lx *levelState) onAdjacencyStateChange(adj *adjacency.Adjacency, old, new adjacency.State) {
	if !lx.link.cfg.IsP2P {
		lx.disElectionInfoChanged()
	}
	lx.ownGen.ScheduleRegen(time.Second)
}

func (lx *levelState) disElectionInfoChanged() {
	if lx.disTimer.Scheduled() {
		return
	}
	lx.disTimer.Start(time.Millisecond)
}

func (lx *levelState) disElectExpire() {
	lx.disElect()
}

// --- SRM/SSN flag bookkeeping, mirroring Link.set_flag/clear_flag of the
// Python original. ---

func (lx *levelState) setSRM(id codec.LSPID) {
	lx.flagMu.Lock()
	lx.srm[id] = true
	lx.flagMu.Unlock()
}

func (lx *levelState) clearSRM(id codec.LSPID) {
	lx.flagMu.Lock()
	delete(lx.srm, id)
	lx.flagMu.Unlock()
}

func (lx *levelState) setSSN(id codec.LSPID) {
	lx.flagMu.Lock()
	lx.ssn[id] = true
	lx.flagMu.Unlock()
}

func (lx *levelState) clearSSN(id codec.LSPID) {
	lx.flagMu.Lock()
	delete(lx.ssn, id)
	lx.flagMu.Unlock()
}

func (lx *levelState) hasPending() bool {
	lx.flagMu.Lock()
	defer lx.flagMu.Unlock()
	return len(lx.srm) > 0 || len(lx.ssn) > 0
}
