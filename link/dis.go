package link

import (
	"strconv"

	"github.com/go-isis/isisd/adjacency"
	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/internal/xlog"
	"github.com/go-isis/isisd/lsp"
	"github.com/go-isis/isisd/metrics"
)

// disKind distinguishes the three outcomes of a DIS election, per ISO 10589
// §8.4.5: nobody is DIS yet (no up adjacencies), we are DIS, or someone else
// is.
type disKind int

const (
	disNone disKind = iota
	disSelf
	disOther
)

func (k disKind) String() string {
	switch k {
	case disSelf:
		return "self"
	case disOther:
		return "other"
	default:
		return "none"
	}
}

type disInfo struct {
	kind  disKind
	sysID [6]byte
	lanid [7]byte
}

// sysIDGreater reports whether a sorts after b as an unsigned big-endian
// integer, the tie-breaker ISO 10589 §8.4.5 uses after priority.
func sysIDGreater(a, b [6]byte) bool {
	for i := 0; i < 6; i++ {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// electBest computes the winner of a DIS election from the current set of
// up adjacencies plus this circuit's own priority/system ID.
func (lx *levelState) electBest() disInfo {
	bestPriority := lx.currentPriority()
	bestSysID := lx.link.cfg.SystemID
	bestIsSelf := true
	count := 0

	all := lx.adjDB.All()
	for _, adj := range all {
		if adj.State() != adjacency.StateUp {
			continue
		}
		count++
		p := adj.Priority()
		if p > bestPriority || (p == bestPriority && sysIDGreater(adj.SystemID, bestSysID)) {
			bestPriority = p
			bestSysID = adj.SystemID
			bestIsSelf = false
		}
	}
	if count == 0 {
		return disInfo{kind: disNone}
	}
	if bestIsSelf {
		return disInfo{kind: disSelf, sysID: lx.link.cfg.SystemID, lanid: lx.ownLANID}
	}
	for _, adj := range all {
		if adj.SystemID == bestSysID && adj.State() == adjacency.StateUp {
			return disInfo{kind: disOther, sysID: bestSysID, lanid: adj.LANID}
		}
	}
	return disInfo{kind: disNone}
}

func (lx *levelState) currentPriority() uint8 {
	lx.mu.Lock()
	defer lx.mu.Unlock()
	return lx.priority
}

// disElect reruns DIS election and transitions pseudonode-LSP ownership if
// the winner changed, per ISO 10589 §8.4.5.
func (lx *levelState) disElect() {
	if lx.disTimer.Scheduled() {
		return
	}

	newDis := lx.electBest()

	lx.mu.Lock()
	oldDis := lx.dis
	if newDis == oldDis {
		lx.mu.Unlock()
		return
	}
	wasSelf := oldDis.kind == disSelf
	lx.dis = newDis
	xlog.Debugf("dis", "%s L%d: DIS %v -> %v", lx.link.cfg.IfName, lx.lindex+1, oldDis.kind, newDis.kind)
	metrics.DISElectionCount.WithLabelValues(lx.link.cfg.IfName, strconv.Itoa(lx.lindex+1), newDis.kind.String()).Inc()
	switch newDis.kind {
	case disNone:
		lx.lanid = lx.ownLANID
	case disSelf:
		lx.lanid = lx.ownLANID
	case disOther:
		lx.lanid = newDis.lanid
	}
	lx.mu.Unlock()

	if wasSelf {
		lx.resignSelf()
	}
	if newDis.kind == disSelf {
		lx.electSelf()
	}
}

// electSelf stands up this circuit's pseudonode LSP generator: the DIS
// originates one LSP on the level's behalf representing the whole LAN.
func (lx *levelState) electSelf() {
	pn := lx.link.cfg.LocalCircuitID

	gen := lsp.NewGenerator(lx.heap)
	gen.Lindex = lx.lindex
	gen.SysID = lx.link.cfg.SystemID
	gen.Pseudonode = pn
	gen.PN = lx.buildPNContent
	gen.Submit = lx.submitOwnSegment
	gen.PriorSeqNo = func(segNum byte) (uint32, bool) {
		return lx.process.PriorSeqNo(codec.NewLSPID(lx.link.cfg.SystemID, pn, segNum))
	}
	gen.PurgeTail = func(fromSegNum byte) {
		forcePurgeTail(lx.process, lx.link.cfg.SystemID, pn, fromSegNum)
	}

	lx.mu.Lock()
	lx.pnGen = gen
	lx.mu.Unlock()

	lx.process.SetOwnRegenerator(pn, func(seg *lsp.Segment) { gen.Regenerate() })
	gen.ScheduleRegen(0)
	lx.csnpTimer.Start(0)
}

// resignSelf tears down the pseudonode LSP this circuit was originating as
// DIS: it is purged (zero-lifetime, flooded) rather than silently dropped.
func (lx *levelState) resignSelf() {
	pn := lx.link.cfg.LocalCircuitID

	lx.csnpTimer.Stop()

	lx.mu.Lock()
	lx.pnGen = nil
	lx.mu.Unlock()

	lx.process.SetOwnRegenerator(pn, nil)
	forcePurgeTail(lx.process, lx.link.cfg.SystemID, pn, 0)
}

// buildPNContent lists every up adjacency on this circuit (plus ourselves)
// as the pseudonode's IS Neighbors, each at metric 0 per ISO 10589's LAN
// metric convention.
func (lx *levelState) buildPNContent() lsp.PNContent {
	c := lsp.PNContent{}
	c.Neighbors = append(c.Neighbors, lsp.NeighborReach{Neighbor: sevenByte(lx.link.cfg.SystemID, 0)})
	for _, sysid := range lx.adjDB.UpIDs() {
		c.Neighbors = append(c.Neighbors, lsp.NeighborReach{Neighbor: sevenByte(sysid, 0)})
	}
	return c
}
