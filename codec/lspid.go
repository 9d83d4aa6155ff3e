package codec

import "fmt"

// LSPID is the 8-octet identifier of an LSP segment: 6-octet system ID,
// 1-octet pseudonode ID, 1-octet fragment/segment number.
type LSPID [8]byte

// NewLSPID builds an LSPID from its three components.
func NewLSPID(sysID [6]byte, pseudonode, segment byte) LSPID {
	var l LSPID
	copy(l[0:6], sysID[:])
	l[6] = pseudonode
	l[7] = segment
	return l
}

// SystemID returns the 6-octet system ID component.
func (l LSPID) SystemID() [6]byte {
	var s [6]byte
	copy(s[:], l[0:6])
	return s
}

// PseudonodeID returns the pseudonode ID octet. Non-zero identifies a
// DIS-originated pseudonode LSP.
func (l LSPID) PseudonodeID() byte { return l[6] }

// Segment returns the fragment/segment number octet.
func (l LSPID) Segment() byte { return l[7] }

// WithSegment returns a copy of l with the segment octet replaced.
func (l LSPID) WithSegment(seg byte) LSPID {
	n := l
	n[7] = seg
	return n
}

// IsOwnedBy reports whether l's system ID and pseudonode ID components match
// sysID and pseudonode (used to test "is this our own LSP").
func (l LSPID) IsOwnedBy(sysID [6]byte, pseudonode byte) bool {
	return l.SystemID() == sysID && l.PseudonodeID() == pseudonode
}

// Less orders LSPIDs as unsigned 8-octet big-endian integers, used to walk
// the LSDB in the canonical order a CSNP range summarizes.
func (l LSPID) Less(other LSPID) bool {
	for i := 0; i < 8; i++ {
		if l[i] != other[i] {
			return l[i] < other[i]
		}
	}
	return false
}

// Inc returns l+1, treating the 8 octets as a big-endian unsigned integer
// and wrapping from all-ones back to all-zeros.
func (l LSPID) Inc() LSPID {
	var n LSPID
	copy(n[:], l[:])
	for i := 7; i >= 0; i-- {
		n[i]++
		if n[i] != 0 {
			break
		}
	}
	return n
}

// String renders the LSPID in the conventional sysid.pn-seg form.
func (l LSPID) String() string {
	return fmt.Sprintf("%02x%02x.%02x%02x.%02x%02x.%02x-%02x",
		l[0], l[1], l[2], l[3], l[4], l[5], l[6], l[7])
}

// MaxLSPID is the all-ones LSPID, used as the terminal end_lspid of a CSNP
// range.
var MaxLSPID = LSPID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// CompareResult is the result of comparing two (seqno, lifetime) states.
type CompareResult int

const (
	// Older means the left-hand operand is older than the right-hand one.
	Older CompareResult = -1
	// Same means the two are equivalent for flooding purposes.
	Same CompareResult = 0
	// Newer means the left-hand operand is newer than the right-hand one.
	Newer CompareResult = 1
)

// Compare implements the LSP (seqno, lifetime) comparison of spec §4.5:
// higher seqno is newer; for equal seqno, a zero-lifetime (purging) entry is
// newer than a still-live one, and two entries agreeing on liveness compare
// equal.
func Compare(seqA uint32, lifetimeA uint16, seqB uint32, lifetimeB uint16) CompareResult {
	switch {
	case seqA > seqB:
		return Newer
	case seqA < seqB:
		return Older
	}
	aZero, bZero := lifetimeA == 0, lifetimeB == 0
	switch {
	case aZero && !bZero:
		return Newer
	case !aZero && bZero:
		return Older
	default:
		return Same
	}
}
