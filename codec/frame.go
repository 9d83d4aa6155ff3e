package codec

import (
	"errors"
	"fmt"
)

// Ethernet/LLC framing constants for IS-IS over a broadcast (LAN) circuit,
// per ISO 10589 Annex C and the 802.2 LLC/SNAP conventions it relies on.
const (
	llcHeaderLen = 3

	dsapISIS = 0xFE
	ssapISIS = 0xFE
	ctlUI    = 0x03

	ethMinPayload = 46
)

// AllL1ISMulticast and AllL2ISMulticast are the destination MAC addresses
// used for Level 1 and Level 2 LAN IIH/LSP/SNP PDUs, per ISO 10589 §8.4.2.
var (
	AllL1ISMulticast = [6]byte{0x01, 0x80, 0xC2, 0x00, 0x00, 0x14}
	AllL2ISMulticast = [6]byte{0x01, 0x80, 0xC2, 0x00, 0x00, 0x15}
)

// ErrNotISISFrame is returned when a received Ethernet frame does not carry
// an 802.2 LLC header addressed to the IS-IS SAP.
var ErrNotISISFrame = errors.New("codec: frame is not an IS-IS LLC frame")

// EthernetFrame is a decoded (or to-be-encoded) Ethernet II frame carrying an
// 802.2 LLC-framed IS-IS PDU.
type EthernetFrame struct {
	Dst     [6]byte
	Src     [6]byte
	Payload []byte // the IS-IS PDU bytes, LLC header stripped
}

// DecodeEthernetFrame validates and strips the Ethernet and 802.2 LLC
// headers from a captured frame, returning the raw PDU bytes.
func DecodeEthernetFrame(raw []byte) (EthernetFrame, error) {
	var f EthernetFrame
	const ethHeaderLen = 14
	if len(raw) < ethHeaderLen+llcHeaderLen {
		return f, fmt.Errorf("%w: frame too short (%d bytes)", ErrNotISISFrame, len(raw))
	}
	copy(f.Dst[:], raw[0:6])
	copy(f.Src[:], raw[6:12])
	length := int(raw[12])<<8 | int(raw[13])
	// An Ethernet II frame encodes an upper-layer ethertype in this field
	// instead of a length; 802.3 LLC framing requires it to read as a
	// length <= 1500, which 802.2 SAP 0xFE traffic always satisfies.
	if length > 1500 {
		return f, fmt.Errorf("%w: not an 802.3 length-framed packet", ErrNotISISFrame)
	}
	llc := raw[ethHeaderLen:]
	if len(llc) < llcHeaderLen {
		return f, fmt.Errorf("%w: LLC header truncated", ErrNotISISFrame)
	}
	if llc[0] != dsapISIS || llc[1] != ssapISIS || llc[2] != ctlUI {
		return f, fmt.Errorf("%w: DSAP/SSAP/CTL %02x/%02x/%02x", ErrNotISISFrame, llc[0], llc[1], llc[2])
	}
	f.Payload = llc[llcHeaderLen:]
	return f, nil
}

// EncodeEthernetFrame builds a complete Ethernet II frame carrying payload
// as an 802.2 LLC SAP-0xFE PDU, zero-padded to Ethernet's 64-byte minimum
// frame length when necessary.
func EncodeEthernetFrame(dst, src [6]byte, payload []byte) []byte {
	total := 14 + llcHeaderLen + len(payload)
	minTotal := 14 + ethMinPayload
	size := total
	if size < minTotal {
		size = minTotal
	}
	out := make([]byte, size)
	copy(out[0:6], dst[:])
	copy(out[6:12], src[:])
	llcLen := llcHeaderLen + len(payload)
	out[12] = byte(llcLen >> 8)
	out[13] = byte(llcLen)
	out[14] = dsapISIS
	out[15] = ssapISIS
	out[16] = ctlUI
	copy(out[17:], payload)
	return out
}
