package link

import (
	"time"

	"github.com/go-isis/isisd/adjacency"
	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/metrics"
)

func (lx *levelState) sendPDU(pdu []byte) {
	dst := codec.AllL1ISMulticast
	if lx.lindex == 1 {
		dst = codec.AllL2ISMulticast
	}
	if len(pdu) > codec.CommonHeaderLen {
		metrics.PDUsSent.WithLabelValues(lx.link.cfg.IfName, pduTypeLabel(pdu[4]&0x1F)).Inc()
	}
	_ = lx.link.transport.WriteFrame(dst, pdu)
}

// drain sends every LSP currently flagged SRM, then any SSN-flagged PSNP
// requests, mirroring Link.send_packets_lindex of the Python original.
func (lx *levelState) drain() {
	lx.flagMu.Lock()
	srmIDs := make([]codec.LSPID, 0, len(lx.srm))
	for id := range lx.srm {
		srmIDs = append(srmIDs, id)
	}
	lx.srm = make(map[codec.LSPID]bool)
	lx.flagMu.Unlock()

	for _, id := range srmIDs {
		seg, ok := lx.process.Get(id)
		if !ok {
			continue
		}
		pdu := seg.PDUForSend()
		if len(pdu) == 0 {
			continue
		}
		lx.sendPDU(pdu)
	}

	lx.sendPSNP()
}

func (lx *levelState) sourceID() [7]byte {
	var src [7]byte
	copy(src[:6], lx.link.cfg.SystemID[:])
	return src
}

// psnpBuilder packs SSN-flagged SNP entries into one or more PSNP PDUs,
// rolling to a new PDU whenever the current one fills, mirroring
// lsp.segBuilder's use of the same Emitter rollover mechanism.
type psnpBuilder struct {
	lx      *levelState
	pduType uint8
	emitter *codec.Emitter
}

func newPSNPBuilder(lx *levelState, pduType uint8) *psnpBuilder {
	b := &psnpBuilder{lx: lx, pduType: pduType}
	b.emitter = codec.NewEmitter(b.freshBuf(), pduMTU, b.roll)
	return b
}

func (b *psnpBuilder) freshBuf() *codec.Buf {
	buf := codec.NewBuf(pduMTU)
	headerLen, _ := codec.HeaderLen(b.pduType)
	codec.EncodeCommonHeader(buf, codec.IDRPDiscriminator, byte(headerLen), codec.CommonHeader{
		PDUType: b.pduType,
		Version: 1,
	})
	codec.EncodePSNPFixed(buf, codec.PSNPFixed{SourceID: b.lx.sourceID()})
	return buf
}

func (b *psnpBuilder) roll() *codec.Buf {
	b.finishCurrent()
	return b.freshBuf()
}

func (b *psnpBuilder) finishCurrent() {
	buf := b.emitter.Cur()
	buf.PatchUint16(codec.CommonHeaderLen, uint16(buf.Len()))
	b.lx.sendPDU(buf.Bytes())
}

func (lx *levelState) sendPSNP() {
	lx.flagMu.Lock()
	if len(lx.ssn) == 0 {
		lx.flagMu.Unlock()
		return
	}
	ids := make([]codec.LSPID, 0, len(lx.ssn))
	for id := range lx.ssn {
		ids = append(ids, id)
	}
	lx.ssn = make(map[codec.LSPID]bool)
	lx.flagMu.Unlock()

	var entries []codec.SNPEntry
	for _, id := range ids {
		seg, ok := lx.process.Get(id)
		if !ok {
			continue
		}
		f := seg.Fixed()
		entries = append(entries, codec.SNPEntry{Lifetime: f.RemainingLife, LSPID: f.LSPID, SeqNo: f.SeqNo, Checksum: f.Checksum})
	}
	if len(entries) == 0 {
		return
	}

	pduType := codec.PDUTypePSNPL1
	if lx.lindex == 1 {
		pduType = codec.PDUTypePSNPL2
	}
	b := newPSNPBuilder(lx, pduType)
	_ = codec.EmitSNPEntries(b.emitter, entries)
	b.finishCurrent()
}

// iihExpire builds and sends one LAN IIH for this level, then reschedules
// itself.
func (lx *levelState) iihExpire() {
	pduType := codec.PDUTypeIIHLANL1
	if lx.lindex == 1 {
		pduType = codec.PDUTypeIIHLANL2
	}

	lx.mu.Lock()
	lanid := lx.lanid
	priority := lx.priority
	lx.mu.Unlock()

	fixed := codec.IIHFixed{
		CircuitType: lx.link.cfg.CircuitType & 0x03,
		SourceID:    lx.link.cfg.SystemID,
		HoldingTime: uint16(defaultHelloMultiplier) * uint16(defaultHelloInterval/time.Second),
		Priority:    priority,
		LANID:       lanid,
	}

	var macs [][6]byte
	for _, adj := range lx.adjDB.All() {
		if adj.State() == adjacency.StateUp {
			macs = append(macs, adj.SNPA)
		}
	}

	pdu := encodeIIHLAN(pduType, fixed, func(e *codec.Emitter) {
		_ = codec.EmitAreaAddresses(e, lx.link.cfg.AreaAddrs)
		_ = codec.EmitISNeighbors(e, macs)
		_ = codec.EmitNLPID(e, []byte{codec.NLPIDIPv4})
		_ = codec.EmitIPv4InterfaceAddrs(e, [][4]byte{lx.link.transport.IPv4Addr()})
	})
	lx.sendPDU(pdu)
	lx.iihTimer.Start(defaultHelloInterval)
}

// csnpExpire builds and sends the complete CSNP range for this level's
// LSDB, splitting into multiple PDUs with contiguous LSPID ranges when the
// database is too large for one PDU, per ISO 10589 §7.3.15.2.
func (lx *levelState) csnpExpire() {
	lx.csnpTimer.Start(10 * time.Second)

	pduType := codec.PDUTypeCSNPL1
	if lx.lindex == 1 {
		pduType = codec.PDUTypeCSNPL2
	}

	entries := lx.process.CSNPEntries()
	const maxPerPDU = 90 // conservative entry count keeping one CSNP under pduMTU

	start := codec.LSPID{}
	i := 0
	for {
		end := len(entries)
		if end-i > maxPerPDU {
			end = i + maxPerPDU
		}
		chunk := entries[i:end]

		endID := codec.MaxLSPID
		if end != len(entries) {
			endID = chunk[len(chunk)-1].LSPID
		}

		pdu := encodeCSNP(pduType, codec.CSNPFixed{SourceID: lx.sourceID(), StartLSPID: start, EndLSPID: endID}, chunk)
		lx.sendPDU(pdu)

		if end == len(entries) {
			break
		}
		start = endID.Inc()
		i = end
	}
}
