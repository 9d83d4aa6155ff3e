package link

import "github.com/go-isis/isisd/codec"

// writeTLVs appends the raw encoding of tlvs (type, length, value octets) to
// buf, used when re-emitting TLVs this package only decoded to inspect, not
// to rebuild (e.g. a received LSP's TLV section is carried through
// unmodified on regeneration of its own segment -- in practice regeneration
// always comes from segBuilder-produced TLVs, but encodeLSPPDU is generic
// over any RawTLV slice).
func writeTLVs(buf *codec.Buf, tlvs []codec.RawTLV) {
	for _, t := range tlvs {
		buf.WriteByte(t.Type)
		buf.WriteByte(byte(len(t.Value)))
		buf.Write(t.Value)
	}
}

// encodeLSPPDU builds a complete LSP PDU (common header + fixed fields +
// TLVs), computing its PDU length and Fletcher checksum.
func encodeLSPPDU(pduType uint8, fixed codec.LSPFixed, tlvs []codec.RawTLV) []byte {
	buf := codec.NewBuf(pduMTU)
	headerLen, _ := codec.HeaderLen(pduType)
	fixed.PDULength = 0 // patched below once total length is known
	fixed.Checksum = 0

	codec.EncodeCommonHeader(buf, codec.IDRPDiscriminator, byte(headerLen), codec.CommonHeader{
		PDUType: pduType,
		Version: 1,
	})
	fixedStart := buf.Len()
	codec.EncodeLSPFixed(buf, fixed)
	writeTLVs(buf, tlvs)

	total := buf.Len()
	buf.PatchUint16(fixedStart, uint16(total))

	pdu := buf.Bytes()
	if fixed.RemainingLife > 0 {
		x, y := codec.ComputeChecksum(pdu, codec.ChecksumFieldOffset)
		buf.PatchByte(codec.ChecksumFieldOffset, x)
		buf.PatchByte(codec.ChecksumFieldOffset+1, y)
	} else {
		// A purged (zero-lifetime) LSP always carries a zero checksum,
		// per ISO 10589 §7.3.16.4: the content is gone, there's nothing
		// left to check.
		buf.PatchByte(codec.ChecksumFieldOffset, 0)
		buf.PatchByte(codec.ChecksumFieldOffset+1, 0)
	}
	return buf.Bytes()
}

// encodeIIHLAN builds a complete LAN IIH PDU.
func encodeIIHLAN(pduType uint8, fixed codec.IIHFixed, tlvs func(*codec.Emitter)) []byte {
	buf := codec.NewBuf(pduMTU)
	headerLen, _ := codec.HeaderLen(pduType)
	codec.EncodeCommonHeader(buf, codec.IDRPDiscriminator, byte(headerLen), codec.CommonHeader{
		PDUType: pduType,
		Version: 1,
	})
	fixedStart := buf.Len()
	codec.EncodeIIHLANFixed(buf, fixed)

	e := codec.NewEmitter(buf, pduMTU, nil)
	tlvs(e)
	buf = e.Cur()

	buf.PatchUint16(fixedStart+9, uint16(buf.Len()))
	return buf.Bytes()
}

// encodeCSNP builds a complete CSNP PDU carrying the given SNP entries,
// encoded as SNP Entries TLVs.
func encodeCSNP(pduType uint8, fixed codec.CSNPFixed, entries []codec.SNPEntry) []byte {
	buf := codec.NewBuf(pduMTU)
	headerLen, _ := codec.HeaderLen(pduType)
	codec.EncodeCommonHeader(buf, codec.IDRPDiscriminator, byte(headerLen), codec.CommonHeader{
		PDUType: pduType,
		Version: 1,
	})
	fixedStart := buf.Len()
	codec.EncodeCSNPFixed(buf, fixed)

	e := codec.NewEmitter(buf, pduMTU, nil)
	_ = codec.EmitSNPEntries(e, entries)
	buf = e.Cur()

	buf.PatchUint16(fixedStart, uint16(buf.Len()))
	return buf.Bytes()
}

// encodePSNP builds a complete PSNP PDU. entries may be split across
// multiple PDUs by the caller if they don't fit pduMTU; encodePSNP itself
// assumes the caller has already chunked to fit.
func encodePSNP(pduType uint8, fixed codec.PSNPFixed, entries []codec.SNPEntry) []byte {
	buf := codec.NewBuf(pduMTU)
	headerLen, _ := codec.HeaderLen(pduType)
	codec.EncodeCommonHeader(buf, codec.IDRPDiscriminator, byte(headerLen), codec.CommonHeader{
		PDUType: pduType,
		Version: 1,
	})
	fixedStart := buf.Len()
	codec.EncodePSNPFixed(buf, fixed)

	e := codec.NewEmitter(buf, pduMTU, nil)
	_ = codec.EmitSNPEntries(e, entries)
	buf = e.Cur()

	buf.PatchUint16(fixedStart, uint16(buf.Len()))
	return buf.Bytes()
}
