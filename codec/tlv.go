package codec

import (
	"errors"
	"fmt"
)

// RawTLV is an unparsed type-length-value attribute: the framing is
// type(1) | length(1) | value(length). Unknown types are preserved verbatim.
type RawTLV struct {
	Type  uint8
	Value []byte
}

// Errors returned while parsing or emitting TLVs.
var (
	ErrTLVTruncated  = errors.New("codec: TLV truncated")
	ErrTLVTooLarge   = errors.New("codec: TLV entry exceeds 255 bytes")
	ErrNoRoomForTLV  = errors.New("codec: no room for TLV and no buffer callback supplied")
	ErrEntryTooLarge = errors.New("codec: single entry does not fit in an empty TLV")
)

// ParseTLVs walks buf, splitting it into a sequence of RawTLVs. A length
// byte that would run past the end of buf aborts parsing of the remaining
// bytes but returns the TLVs decoded so far along with an error, per spec §7
// ("errors in decoding a single TLV abort parsing of that PDU only").
func ParseTLVs(buf []byte) ([]RawTLV, error) {
	var out []RawTLV
	pos := 0
	for pos < len(buf) {
		if pos+2 > len(buf) {
			return out, fmt.Errorf("%w: type/length header past end at %d", ErrTLVTruncated, pos)
		}
		typ := buf[pos]
		length := int(buf[pos+1])
		valStart := pos + 2
		valEnd := valStart + length
		if valEnd > len(buf) {
			return out, fmt.Errorf("%w: type %d length %d overflows at %d", ErrTLVTruncated, typ, length, pos)
		}
		value := make([]byte, length)
		copy(value, buf[valStart:valEnd])
		out = append(out, RawTLV{Type: typ, Value: value})
		pos = valEnd
	}
	return out, nil
}

// NewBufferFunc supplies a fresh PDU buffer to an Emitter when the current
// one has no room left, e.g. the caller starts writing the common header and
// PDU-type fixed fields of a new PDU and returns its Buf.
type NewBufferFunc func() *Buf

// Emitter packs TLV entries into a buffer, automatically starting a new TLV
// of the same type when the current one would exceed 255 bytes of value, and
// invoking newBuf to start a new PDU when even a fresh TLV would not fit in
// the one currently being filled.
type Emitter struct {
	cur    *Buf
	maxLen int
	newBuf NewBufferFunc

	openType int // -1 when no TLV is currently open
	openAt   int // position of the open TLV's length octet
	openLen  int // value bytes written to the open TLV so far
}

// NewEmitter creates an Emitter writing into first, treating maxLen as the
// maximum total length (header + TLVs) of any one buffer it writes into.
func NewEmitter(first *Buf, maxLen int, newBuf NewBufferFunc) *Emitter {
	return &Emitter{cur: first, maxLen: maxLen, newBuf: newBuf, openType: -1}
}

// Cur returns the buffer currently being filled.
func (e *Emitter) Cur() *Buf { return e.cur }

// startTLV opens a new TLV of the given type in the buffer that has room for
// at least valueLen bytes of value, rolling over to a new PDU buffer via
// newBuf if the current one doesn't have room.
func (e *Emitter) startTLV(tlvType uint8, valueLen int) error {
	if e.cur.Len()+2+valueLen > e.maxLen {
		if e.newBuf == nil {
			return ErrNoRoomForTLV
		}
		e.cur = e.newBuf()
		e.openType = -1
		if 2+valueLen > e.maxLen {
			return ErrEntryTooLarge
		}
	}
	e.openType = int(tlvType)
	e.openAt = e.cur.Len() + 1
	e.cur.WriteByte(tlvType)
	e.cur.WriteByte(0)
	e.openLen = 0
	return nil
}

// EmitEntry appends one fixed- or variable-length entry to a TLV of type
// tlvType, opening a new TLV of that type (in the current or, if necessary, a
// new PDU buffer) whenever the open TLV is of a different type, would
// overflow 255 bytes of value, or would overflow the buffer's maxLen.
func (e *Emitter) EmitEntry(tlvType uint8, value []byte) error {
	if len(value) > 255 {
		return fmt.Errorf("%w: %d bytes", ErrTLVTooLarge, len(value))
	}
	needNew := e.openType != int(tlvType) ||
		e.openLen+len(value) > 255 ||
		e.cur.Len()+len(value) > e.maxLen
	if needNew {
		if err := e.startTLV(tlvType, len(value)); err != nil {
			return err
		}
	}
	e.cur.Write(value)
	e.openLen += len(value)
	e.cur.PatchByte(e.openAt, byte(e.openLen))
	return nil
}

// EmitBlob appends value as one or more TLVs of type tlvType, each a fresh
// TLV (never concatenated with a prior one of the same type), splitting into
// 255-byte chunks as needed. Used for TLVs like Hostname that carry a single
// logical value rather than a sequence of fixed-size entries.
func (e *Emitter) EmitBlob(tlvType uint8, value []byte) error {
	if len(value) == 0 {
		return e.startTLV(tlvType, 0)
	}
	for len(value) > 0 {
		n := len(value)
		if n > 255 {
			n = 255
		}
		if err := e.startTLV(tlvType, n); err != nil {
			return err
		}
		e.cur.Write(value[:n])
		e.openLen = n
		e.cur.PatchByte(e.openAt, byte(n))
		value = value[n:]
	}
	return nil
}
