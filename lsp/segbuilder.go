package lsp

import "github.com/go-isis/isisd/codec"

// segBuilder accumulates TLV content for one LSP segment chain, rolling
// into additional segments (via the generator's Submit callback) whenever
// the current segment's buffer fills, mirroring the Python original's
// buflist/get_new_buf chaining.
type segBuilder struct {
	g       *Generator
	segNum  byte
	buf     *codec.Buf
	emitter *codec.Emitter
}

func newSegBuilder(g *Generator, startSeg byte) *segBuilder {
	b := &segBuilder{g: g, segNum: startSeg}
	b.buf = codec.NewBuf(pduBudget)
	b.buf.Truncate(codec.CommonHeaderLen + 19) // reserve space for common header + LSP fixed fields
	b.emitter = codec.NewEmitter(b.buf, pduBudget, b.rollBuffer)
	return b
}

// rollBuffer is invoked by the Emitter when the current segment's TLV
// section is full: it submits the completed segment and starts a new one
// with an incremented segment number.
func (b *segBuilder) rollBuffer() *codec.Buf {
	b.submitCurrent(false)
	b.segNum++
	nb := codec.NewBuf(pduBudget)
	nb.Truncate(codec.CommonHeaderLen + 19)
	b.buf = nb
	return nb
}

func (b *segBuilder) emitAreaAddrs(addrs []codec.AreaAddress) {
	_ = codec.EmitAreaAddresses(b.emitter, addrs)
}

func (b *segBuilder) emitHostname(name string) {
	if name == "" {
		return
	}
	_ = codec.EmitHostname(b.emitter, name)
}

func (b *segBuilder) emitNLPID() {
	_ = codec.EmitNLPID(b.emitter, []byte{codec.NLPIDIPv4})
}

func (b *segBuilder) emitIPv4Addrs(addrs [][4]byte) {
	_ = codec.EmitIPv4InterfaceAddrs(b.emitter, addrs)
}

func (b *segBuilder) emitNeighbors(nbrs []NeighborReach) {
	entries := make([]codec.ExtISReachEntry, len(nbrs))
	for i, n := range nbrs {
		entries[i] = codec.ExtISReachEntry{Neighbor: n.Neighbor, Metric: n.Metric}
	}
	_ = codec.EmitExtendedISReach(b.emitter, entries)
}

// close finalizes and submits the last (or only) segment in the chain,
// returning its segment number so the caller can force-purge any
// higher-numbered segments left over from a previous, larger generation. An
// empty segment 0 is still submitted (an LSP must always have a segment
// zero, even with no content).
func (b *segBuilder) close(overload bool, isType uint8) byte {
	b.submitCurrentFinal(overload, isType)
	return b.segNum
}

func (b *segBuilder) submitCurrent(_ bool) {
	b.submitCurrentFinal(false, 0)
}

func (b *segBuilder) submitCurrentFinal(overload bool, isType uint8) {
	prevSeq, had := b.g.PriorSeqNo(b.segNum)
	seqNo := uint32(0)
	if had {
		seqNo = prevSeq
	}

	lspid := codec.NewLSPID(b.g.SysID, b.g.Pseudonode, b.segNum)
	fixed := codec.LSPFixed{
		RemainingLife:   MaxAge,
		LSPID:           lspid,
		SeqNo:           seqNo,
		AttachedDefault: true,
		OLFlag:          overload,
		ISType:          isType & 0x03,
	}

	tlvBytes := b.buf.Bytes()[codec.CommonHeaderLen+19:]
	tlvs, _ := codec.ParseTLVs(tlvBytes)

	b.g.Submit(b.segNum, fixed, tlvs)
}
