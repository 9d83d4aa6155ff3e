package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Fixed lengths of the common header and of each PDU type's type-specific
// fixed fields, per ISO 10589 §9 and RFC 1195. Only LSPs carry a checksum
// field; its offset is ChecksumFieldOffset below.
const (
	CommonHeaderLen = 8

	iihLANFixedLen = 19
	iihP2PFixedLen = 12
	lspFixedLen    = 19
	csnpFixedLen   = 25
	psnpFixedLen   = 9
)

// CommonHeader is the 8-octet header shared by every IS-IS PDU.
type CommonHeader struct {
	IDLength    uint8 // system ID length; 0 means the default of 6
	PDUType     uint8 // low 5 bits; high 3 bits reserved, must be zero on send
	Version     uint8 // protocol version, always 1
	MaxAreaAddr uint8 // 0 means the default of 3
}

// DecodeCommonHeader parses the first 8 octets of buf. It does not validate
// the intra-domain routing protocol discriminator or length indicator octets
// beyond checking buf is long enough; the caller validates those against the
// frame that carried the PDU.
func DecodeCommonHeader(buf []byte) (CommonHeader, error) {
	var h CommonHeader
	if len(buf) < CommonHeaderLen {
		return h, fmt.Errorf("codec: common header needs %d bytes, got %d", CommonHeaderLen, len(buf))
	}
	// buf[0] protocol discriminator, buf[1] header length indicator,
	// buf[2] version/protocol ID extension -- validated by the frame layer.
	h.IDLength = buf[3]
	h.PDUType = buf[4] & 0x1F
	h.Version = buf[5]
	// buf[6] reserved
	h.MaxAreaAddr = buf[7]
	return h, nil
}

// sysIDLen returns the effective system ID length encoded by idLength: 0
// means the ISO 10589 default of 6.
func sysIDLen(idLength uint8) int {
	if idLength == 0 {
		return 6
	}
	return int(idLength)
}

// maxAreaAddr returns the effective max-area-addresses value: 0 means the
// default of 3.
func maxAreaAddr(v uint8) int {
	if v == 0 {
		return 3
	}
	return int(v)
}

// EncodeCommonHeader writes the 8-octet common header into buf, taking the
// protocol-discriminator and length-indicator octets at positions 0 and 1
// from the caller (those belong to the CLNS network layer shell, not this
// routing PDU header, but share the same byte range).
func EncodeCommonHeader(buf *Buf, discriminator, lengthIndicator byte, h CommonHeader) {
	buf.WriteByte(discriminator)
	buf.WriteByte(lengthIndicator)
	buf.WriteByte(1) // version/protocol ID extension, fixed at 1
	buf.WriteByte(h.IDLength)
	buf.WriteByte(h.PDUType & 0x1F)
	buf.WriteByte(h.Version)
	buf.WriteByte(0) // reserved
	buf.WriteByte(h.MaxAreaAddr)
}

// IIHFixed is the type-specific fixed-field block of an IIH PDU. LANID is
// populated only for LAN Level 1/2 IIHs; HoldingTime and the rest apply to
// both LAN and point-to-point forms.
type IIHFixed struct {
	CircuitType  uint8 // low 2 bits: 1=L1, 2=L2, 3=L1L2
	SourceID     [6]byte
	HoldingTime  uint16
	PDULength    uint16
	Priority     uint8  // LAN only, low 7 bits
	LANID        [7]byte // LAN only: DIS system ID + pseudonode ID
	LocalCircuit uint8   // P2P only
}

// EncodeIIHLANFixed writes the 19-octet fixed-field block of a LAN IIH.
func EncodeIIHLANFixed(buf *Buf, f IIHFixed) {
	buf.WriteByte(f.CircuitType & 0x03)
	buf.Write(f.SourceID[:])
	buf.WriteUint16(f.HoldingTime)
	buf.WriteUint16(f.PDULength)
	buf.WriteByte(f.Priority & 0x7F)
	buf.Write(f.LANID[:])
}

// DecodeIIHLANFixed parses the 19-octet fixed-field block of a LAN IIH.
func DecodeIIHLANFixed(buf []byte) (IIHFixed, error) {
	var f IIHFixed
	if len(buf) < iihLANFixedLen {
		return f, fmt.Errorf("codec: LAN IIH fixed fields need %d bytes, got %d", iihLANFixedLen, len(buf))
	}
	f.CircuitType = buf[0] & 0x03
	copy(f.SourceID[:], buf[1:7])
	f.HoldingTime = binary.BigEndian.Uint16(buf[7:9])
	f.PDULength = binary.BigEndian.Uint16(buf[9:11])
	f.Priority = buf[11] & 0x7F
	copy(f.LANID[:], buf[12:19])
	return f, nil
}

// EncodeIIHP2PFixed writes the 12-octet fixed-field block of a point-to-point
// IIH.
func EncodeIIHP2PFixed(buf *Buf, f IIHFixed) {
	buf.WriteByte(f.CircuitType & 0x03)
	buf.Write(f.SourceID[:])
	buf.WriteUint16(f.HoldingTime)
	buf.WriteUint16(f.PDULength)
	buf.WriteByte(f.LocalCircuit)
}

// DecodeIIHP2PFixed parses the 12-octet fixed-field block of a
// point-to-point IIH.
func DecodeIIHP2PFixed(buf []byte) (IIHFixed, error) {
	var f IIHFixed
	if len(buf) < iihP2PFixedLen {
		return f, fmt.Errorf("codec: P2P IIH fixed fields need %d bytes, got %d", iihP2PFixedLen, len(buf))
	}
	f.CircuitType = buf[0] & 0x03
	copy(f.SourceID[:], buf[1:7])
	f.HoldingTime = binary.BigEndian.Uint16(buf[7:9])
	f.PDULength = binary.BigEndian.Uint16(buf[9:11])
	f.LocalCircuit = buf[11]
	return f, nil
}

// LSPFixed is the 19-octet type-specific fixed-field block of an LSP PDU.
// The checksum's offset within the full PDU (common header + this block) is
// always CommonHeaderLen+16 (ChecksumFieldOffset), i.e. the checksum field
// begins right after the PDU-length, remaining-lifetime, LSPID and seqno
// fields.
type LSPFixed struct {
	PDULength       uint16
	RemainingLife   uint16
	LSPID           LSPID
	SeqNo           uint32
	Checksum        uint16
	PFlag           bool // partition repair capability
	AttachedDefault bool
	AttachedDelay   bool
	AttachedExpense bool
	AttachedError   bool
	OLFlag          bool // overload
	ISType          uint8 // low 2 bits: 1=L1, 3=L1L2
}

// ChecksumFieldOffset is the byte offset of the checksum field within a
// complete LSP PDU (common header included): header + PDULength(2) +
// RemainingLife(2) + LSPID(8) + SeqNo(4).
const ChecksumFieldOffset = CommonHeaderLen + 2 + 2 + 8 + 4

// EncodeLSPFixed writes the 19-octet fixed-field block of an LSP, leaving the
// checksum field as whatever value f.Checksum holds (callers compute and
// patch it in after the TLV section is complete).
func EncodeLSPFixed(buf *Buf, f LSPFixed) {
	buf.WriteUint16(f.PDULength)
	buf.WriteUint16(f.RemainingLife)
	buf.Write(f.LSPID[:])
	buf.WriteUint32(f.SeqNo)
	buf.WriteUint16(f.Checksum)
	var flags uint8
	if f.PFlag {
		flags |= 0x80
	}
	if f.AttachedDefault {
		flags |= 0x08
	}
	if f.AttachedDelay {
		flags |= 0x10
	}
	if f.AttachedExpense {
		flags |= 0x20
	}
	if f.AttachedError {
		flags |= 0x40
	}
	if f.OLFlag {
		flags |= 0x04
	}
	flags |= f.ISType & 0x03
	buf.WriteByte(flags)
}

// DecodeLSPFixed parses the 19-octet fixed-field block of an LSP.
func DecodeLSPFixed(buf []byte) (LSPFixed, error) {
	var f LSPFixed
	if len(buf) < lspFixedLen {
		return f, fmt.Errorf("codec: LSP fixed fields need %d bytes, got %d", lspFixedLen, len(buf))
	}
	f.PDULength = binary.BigEndian.Uint16(buf[0:2])
	f.RemainingLife = binary.BigEndian.Uint16(buf[2:4])
	copy(f.LSPID[:], buf[4:12])
	f.SeqNo = binary.BigEndian.Uint32(buf[12:16])
	f.Checksum = binary.BigEndian.Uint16(buf[16:18])
	flags := buf[18]
	f.PFlag = flags&0x80 != 0
	f.AttachedError = flags&0x40 != 0
	f.AttachedExpense = flags&0x20 != 0
	f.AttachedDelay = flags&0x10 != 0
	f.AttachedDefault = flags&0x08 != 0
	f.OLFlag = flags&0x04 != 0
	f.ISType = flags & 0x03
	return f, nil
}

// CSNPFixed is the 25-octet fixed-field block of a CSNP.
type CSNPFixed struct {
	PDULength   uint16
	SourceID    [7]byte // system ID + circuit/pseudonode ID of the sender
	StartLSPID  LSPID
	EndLSPID    LSPID
}

// EncodeCSNPFixed writes the 25-octet fixed-field block of a CSNP.
func EncodeCSNPFixed(buf *Buf, f CSNPFixed) {
	buf.WriteUint16(f.PDULength)
	buf.Write(f.SourceID[:])
	buf.Write(f.StartLSPID[:])
	buf.Write(f.EndLSPID[:])
}

// DecodeCSNPFixed parses the 25-octet fixed-field block of a CSNP.
func DecodeCSNPFixed(buf []byte) (CSNPFixed, error) {
	var f CSNPFixed
	if len(buf) < csnpFixedLen {
		return f, fmt.Errorf("codec: CSNP fixed fields need %d bytes, got %d", csnpFixedLen, len(buf))
	}
	f.PDULength = binary.BigEndian.Uint16(buf[0:2])
	copy(f.SourceID[:], buf[2:9])
	copy(f.StartLSPID[:], buf[9:17])
	copy(f.EndLSPID[:], buf[17:25])
	return f, nil
}

// PSNPFixed is the 9-octet fixed-field block of a PSNP.
type PSNPFixed struct {
	PDULength uint16
	SourceID  [7]byte
}

// EncodePSNPFixed writes the 9-octet fixed-field block of a PSNP.
func EncodePSNPFixed(buf *Buf, f PSNPFixed) {
	buf.WriteUint16(f.PDULength)
	buf.Write(f.SourceID[:])
}

// DecodePSNPFixed parses the 9-octet fixed-field block of a PSNP.
func DecodePSNPFixed(buf []byte) (PSNPFixed, error) {
	var f PSNPFixed
	if len(buf) < psnpFixedLen {
		return f, fmt.Errorf("codec: PSNP fixed fields need %d bytes, got %d", psnpFixedLen, len(buf))
	}
	f.PDULength = binary.BigEndian.Uint16(buf[0:2])
	copy(f.SourceID[:], buf[2:9])
	return f, nil
}

// ErrUnknownPDUType is returned by FixedFieldLen for a PDU type byte this
// package doesn't recognize.
var ErrUnknownPDUType = errors.New("codec: unknown PDU type")

// FixedFieldLen returns the length of the type-specific fixed-field block
// (excluding the 8-octet common header) for pduType.
func FixedFieldLen(pduType uint8) (int, error) {
	switch pduType {
	case PDUTypeIIHLANL1, PDUTypeIIHLANL2:
		return iihLANFixedLen, nil
	case PDUTypeIIHP2P:
		return iihP2PFixedLen, nil
	case PDUTypeLSPL1, PDUTypeLSPL2:
		return lspFixedLen, nil
	case PDUTypeCSNPL1, PDUTypeCSNPL2:
		return csnpFixedLen, nil
	case PDUTypePSNPL1, PDUTypePSNPL2:
		return psnpFixedLen, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPDUType, pduType)
	}
}

// IsLevel2 reports whether pduType is the Level 2 variant of its PDU kind.
func IsLevel2(pduType uint8) bool {
	switch pduType {
	case PDUTypeIIHLANL2, PDUTypeLSPL2, PDUTypeCSNPL2, PDUTypePSNPL2:
		return true
	default:
		return false
	}
}
