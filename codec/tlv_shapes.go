package codec

import (
	"encoding/binary"
	"fmt"
)

// AreaAddress is one variable-length area address as carried in a type-1
// TLV: a length octet followed by that many octets.
type AreaAddress []byte

// DecodeAreaAddresses parses the value of a type-1 TLV into its component
// area addresses.
func DecodeAreaAddresses(value []byte) ([]AreaAddress, error) {
	var out []AreaAddress
	pos := 0
	for pos < len(value) {
		n := int(value[pos])
		if pos+1+n > len(value) {
			return out, fmt.Errorf("codec: area address overflow at %d", pos)
		}
		addr := make([]byte, n)
		copy(addr, value[pos+1:pos+1+n])
		out = append(out, addr)
		pos += 1 + n
	}
	return out, nil
}

// EmitAreaAddresses appends one type-1 TLV entry per address.
func EmitAreaAddresses(e *Emitter, addrs []AreaAddress) error {
	for _, a := range addrs {
		entry := make([]byte, 1+len(a))
		entry[0] = byte(len(a))
		copy(entry[1:], a)
		if err := e.EmitEntry(TLVAreaAddresses, entry); err != nil {
			return err
		}
	}
	return nil
}

// ISNeighborEntry is one fixed 11-byte entry of a narrow (type-2) IS
// Reachability TLV: 4 metric octets followed by a 7-byte neighbor ID
// (6-byte system ID + 1-byte pseudonode ID).
type ISNeighborEntry struct {
	DefaultMetric uint8
	DelayMetric   uint8
	ExpenseMetric uint8
	ErrorMetric   uint8
	NeighborID    [7]byte
}

// DecodeISReachNarrow parses a type-2 TLV value: a 1-byte virtual flag
// followed by 11-byte fixed entries.
func DecodeISReachNarrow(value []byte) (virtual bool, entries []ISNeighborEntry, err error) {
	if len(value) < 1 {
		return false, nil, fmt.Errorf("codec: IS Reach TLV too short")
	}
	virtual = value[0] != 0
	rest := value[1:]
	if len(rest)%11 != 0 {
		return virtual, nil, fmt.Errorf("codec: IS Reach TLV entries not a multiple of 11 bytes")
	}
	for i := 0; i < len(rest); i += 11 {
		e := ISNeighborEntry{
			DefaultMetric: rest[i],
			DelayMetric:   rest[i+1],
			ExpenseMetric: rest[i+2],
			ErrorMetric:   rest[i+3],
		}
		copy(e.NeighborID[:], rest[i+4:i+11])
		entries = append(entries, e)
	}
	return virtual, entries, nil
}

// EmitISReachNarrow emits a single type-2 TLV (virtual flag + entries); if
// entries would overflow 255 bytes the caller should split across multiple
// calls since the virtual-flag byte must lead each TLV instance.
func EmitISReachNarrow(e *Emitter, virtual bool, entries []ISNeighborEntry) error {
	vbyte := byte(0)
	if virtual {
		vbyte = 1
	}
	buf := make([]byte, 1, 1+11*len(entries))
	buf[0] = vbyte
	for _, ent := range entries {
		buf = append(buf, ent.DefaultMetric, ent.DelayMetric, ent.ExpenseMetric, ent.ErrorMetric)
		buf = append(buf, ent.NeighborID[:]...)
	}
	return e.EmitBlob(TLVISReachNarrow, buf)
}

// DecodeISNeighbors parses a type-6 TLV value into its component MACs.
func DecodeISNeighbors(value []byte) ([][6]byte, error) {
	if len(value)%6 != 0 {
		return nil, fmt.Errorf("codec: IS Neighbors TLV length %d not a multiple of 6", len(value))
	}
	out := make([][6]byte, 0, len(value)/6)
	for i := 0; i < len(value); i += 6 {
		var m [6]byte
		copy(m[:], value[i:i+6])
		out = append(out, m)
	}
	return out, nil
}

// EmitISNeighbors appends one type-6 TLV entry per MAC.
func EmitISNeighbors(e *Emitter, macs [][6]byte) error {
	for _, m := range macs {
		if err := e.EmitEntry(TLVISNeighbors, m[:]); err != nil {
			return err
		}
	}
	return nil
}

// SNPEntry is one 16-byte entry of a type-9 SNP Entries TLV.
type SNPEntry struct {
	Lifetime uint16
	LSPID    LSPID
	SeqNo    uint32
	Checksum uint16
}

// DecodeSNPEntries parses a type-9 TLV value into its component entries.
func DecodeSNPEntries(value []byte) ([]SNPEntry, error) {
	if len(value)%16 != 0 {
		return nil, fmt.Errorf("codec: SNP Entries TLV length %d not a multiple of 16", len(value))
	}
	out := make([]SNPEntry, 0, len(value)/16)
	for i := 0; i < len(value); i += 16 {
		var e SNPEntry
		e.Lifetime = binary.BigEndian.Uint16(value[i : i+2])
		copy(e.LSPID[:], value[i+2:i+10])
		e.SeqNo = binary.BigEndian.Uint32(value[i+10 : i+14])
		e.Checksum = binary.BigEndian.Uint16(value[i+14 : i+16])
		out = append(out, e)
	}
	return out, nil
}

// EmitSNPEntries appends one type-9 TLV entry per SNP entry, packing up to
// 15 entries (16 bytes each) per TLV.
func EmitSNPEntries(e *Emitter, entries []SNPEntry) error {
	for _, ent := range entries {
		b := make([]byte, 16)
		binary.BigEndian.PutUint16(b[0:2], ent.Lifetime)
		copy(b[2:10], ent.LSPID[:])
		binary.BigEndian.PutUint32(b[10:14], ent.SeqNo)
		binary.BigEndian.PutUint16(b[14:16], ent.Checksum)
		if err := e.EmitEntry(TLVSNPEntries, b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLSPBufferSize parses a type-14 TLV value.
func DecodeLSPBufferSize(value []byte) (uint16, error) {
	if len(value) != 2 {
		return 0, fmt.Errorf("codec: LSP Buffer Size TLV length %d != 2", len(value))
	}
	return binary.BigEndian.Uint16(value), nil
}

// EmitLSPBufferSize appends a type-14 TLV.
func EmitLSPBufferSize(e *Emitter, size uint16) error {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, size)
	return e.EmitEntry(TLVLSPBufferSize, b)
}

// ExtISReachEntry is one variable-length entry of an Extended IS
// Reachability (type-22) TLV.
type ExtISReachEntry struct {
	Neighbor [7]byte
	Metric   uint32 // 24-bit metric, top byte always zero
	SubTLVs  []byte // opaque, preserved but not interpreted
}

// DecodeExtendedISReach parses a type-22 TLV value into its entries.
func DecodeExtendedISReach(value []byte) ([]ExtISReachEntry, error) {
	var out []ExtISReachEntry
	pos := 0
	for pos < len(value) {
		if pos+11 > len(value) {
			return out, fmt.Errorf("codec: Extended IS Reach entry overflow at %d", pos)
		}
		var e ExtISReachEntry
		copy(e.Neighbor[:], value[pos:pos+7])
		e.Metric = uint32(value[pos+7])<<16 | uint32(value[pos+8])<<8 | uint32(value[pos+9])
		subLen := int(value[pos+10])
		if pos+11+subLen > len(value) {
			return out, fmt.Errorf("codec: Extended IS Reach sub-TLVs overflow at %d", pos)
		}
		if subLen > 0 {
			e.SubTLVs = make([]byte, subLen)
			copy(e.SubTLVs, value[pos+11:pos+11+subLen])
		}
		out = append(out, e)
		pos += 11 + subLen
	}
	return out, nil
}

// EmitExtendedISReach appends one type-22 TLV entry per neighbor.
func EmitExtendedISReach(e *Emitter, entries []ExtISReachEntry) error {
	for _, ent := range entries {
		b := make([]byte, 11+len(ent.SubTLVs))
		copy(b[0:7], ent.Neighbor[:])
		b[7] = byte(ent.Metric >> 16)
		b[8] = byte(ent.Metric >> 8)
		b[9] = byte(ent.Metric)
		b[10] = byte(len(ent.SubTLVs))
		copy(b[11:], ent.SubTLVs)
		if err := e.EmitEntry(TLVExtendedISReach, b); err != nil {
			return err
		}
	}
	return nil
}

// IPv4PrefixNarrow is one 12-byte entry of a narrow IP Reachability TLV
// (types 128/130).
type IPv4PrefixNarrow struct {
	DefaultMetric uint8
	DelayMetric   uint8
	ExpenseMetric uint8
	ErrorMetric   uint8
	Address       [4]byte
	Mask          [4]byte
}

// DecodeIPv4PrefixesNarrow parses a type-128/130 TLV value.
func DecodeIPv4PrefixesNarrow(value []byte) ([]IPv4PrefixNarrow, error) {
	if len(value)%12 != 0 {
		return nil, fmt.Errorf("codec: narrow IP Reachability TLV length %d not a multiple of 12", len(value))
	}
	out := make([]IPv4PrefixNarrow, 0, len(value)/12)
	for i := 0; i < len(value); i += 12 {
		p := IPv4PrefixNarrow{
			DefaultMetric: value[i],
			DelayMetric:   value[i+1],
			ExpenseMetric: value[i+2],
			ErrorMetric:   value[i+3],
		}
		copy(p.Address[:], value[i+4:i+8])
		copy(p.Mask[:], value[i+8:i+12])
		out = append(out, p)
	}
	return out, nil
}

// EmitIPv4PrefixesNarrow appends entries to a narrow IP Reachability TLV
// (type 128 or 130).
func EmitIPv4PrefixesNarrow(e *Emitter, tlvType uint8, entries []IPv4PrefixNarrow) error {
	for _, p := range entries {
		b := make([]byte, 12)
		b[0], b[1], b[2], b[3] = p.DefaultMetric, p.DelayMetric, p.ExpenseMetric, p.ErrorMetric
		copy(b[4:8], p.Address[:])
		copy(b[8:12], p.Mask[:])
		if err := e.EmitEntry(tlvType, b); err != nil {
			return err
		}
	}
	return nil
}

// IPv4PrefixWide is one variable-length entry of an Extended IP
// Reachability (type-135) TLV.
type IPv4PrefixWide struct {
	Metric     uint32
	UpDown     bool
	SubTLVsSet bool
	PrefixLen  uint8
	Prefix     [4]byte // only the first (PrefixLen+7)/8 bytes are significant
	SubTLVs    []byte
}

// DecodeIPv4PrefixesWide parses a type-135 TLV value, per RFC 5305.
func DecodeIPv4PrefixesWide(value []byte) ([]IPv4PrefixWide, error) {
	var out []IPv4PrefixWide
	pos := 0
	for pos < len(value) {
		if pos+5 > len(value) {
			return out, fmt.Errorf("codec: Extended IP Reachability entry overflow at %d", pos)
		}
		p := IPv4PrefixWide{
			Metric:    binary.BigEndian.Uint32(value[pos : pos+4]),
			UpDown:    value[pos+4]&0x80 != 0,
			PrefixLen: value[pos+4] &^ 0xC0,
		}
		p.SubTLVsSet = value[pos+4]&0x40 != 0
		if p.PrefixLen > 32 {
			return out, fmt.Errorf("codec: Extended IP Reachability prefix length %d > 32", p.PrefixLen)
		}
		octets := int((p.PrefixLen + 7) / 8)
		if pos+5+octets > len(value) {
			return out, fmt.Errorf("codec: Extended IP Reachability prefix overflow at %d", pos)
		}
		copy(p.Prefix[:octets], value[pos+5:pos+5+octets])
		pos += 5 + octets
		if p.SubTLVsSet {
			if pos+1 > len(value) {
				return out, fmt.Errorf("codec: Extended IP Reachability missing sub-TLV length at %d", pos)
			}
			subLen := int(value[pos])
			if pos+1+subLen > len(value) {
				return out, fmt.Errorf("codec: Extended IP Reachability sub-TLVs overflow at %d", pos)
			}
			p.SubTLVs = make([]byte, subLen)
			copy(p.SubTLVs, value[pos+1:pos+1+subLen])
			pos += 1 + subLen
		}
		out = append(out, p)
	}
	return out, nil
}

// EmitIPv4PrefixesWide appends one type-135 TLV entry per prefix.
func EmitIPv4PrefixesWide(e *Emitter, entries []IPv4PrefixWide) error {
	for _, p := range entries {
		octets := int((p.PrefixLen + 7) / 8)
		b := make([]byte, 5+octets)
		binary.BigEndian.PutUint32(b[0:4], p.Metric)
		ctl := p.PrefixLen &^ 0xC0
		if p.UpDown {
			ctl |= 0x80
		}
		if len(p.SubTLVs) > 0 {
			ctl |= 0x40
		}
		b[4] = ctl
		copy(b[5:], p.Prefix[:octets])
		if len(p.SubTLVs) > 0 {
			b = append(b, byte(len(p.SubTLVs)))
			b = append(b, p.SubTLVs...)
		}
		if err := e.EmitEntry(TLVIPv4PrefixesWide, b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeNLPID parses a type-129 TLV value into the list of supported NLPIDs.
func DecodeNLPID(value []byte) []byte {
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

// EmitNLPID appends a type-129 TLV.
func EmitNLPID(e *Emitter, nlpids []byte) error {
	return e.EmitEntry(TLVNLPID, nlpids)
}

// DecodeIPv4InterfaceAddrs parses a type-132 TLV value into its addresses.
func DecodeIPv4InterfaceAddrs(value []byte) ([][4]byte, error) {
	if len(value)%4 != 0 {
		return nil, fmt.Errorf("codec: IPv4 Interface Addresses TLV length %d not a multiple of 4", len(value))
	}
	out := make([][4]byte, 0, len(value)/4)
	for i := 0; i < len(value); i += 4 {
		var a [4]byte
		copy(a[:], value[i:i+4])
		out = append(out, a)
	}
	return out, nil
}

// EmitIPv4InterfaceAddrs appends one type-132 TLV entry per address.
func EmitIPv4InterfaceAddrs(e *Emitter, addrs [][4]byte) error {
	for _, a := range addrs {
		if err := e.EmitEntry(TLVIPv4InterfaceAddrs, a[:]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRouterID parses a type-134 TLV value.
func DecodeRouterID(value []byte) ([4]byte, error) {
	var a [4]byte
	if len(value) != 4 {
		return a, fmt.Errorf("codec: Router ID TLV length %d != 4", len(value))
	}
	copy(a[:], value)
	return a, nil
}

// EmitRouterID appends a type-134 TLV.
func EmitRouterID(e *Emitter, addr [4]byte) error {
	return e.EmitEntry(TLVRouterID, addr[:])
}

// DecodeHostname parses a type-137 TLV value.
func DecodeHostname(value []byte) string {
	return string(value)
}

// EmitHostname appends a type-137 TLV, splitting if the name somehow exceeds
// 255 bytes.
func EmitHostname(e *Emitter, name string) error {
	return e.EmitBlob(TLVHostname, []byte(name))
}

// DecodeIPv6InterfaceAddrs parses a type-232 TLV value into its addresses.
func DecodeIPv6InterfaceAddrs(value []byte) ([][16]byte, error) {
	if len(value)%16 != 0 {
		return nil, fmt.Errorf("codec: IPv6 Interface Addresses TLV length %d not a multiple of 16", len(value))
	}
	out := make([][16]byte, 0, len(value)/16)
	for i := 0; i < len(value); i += 16 {
		var a [16]byte
		copy(a[:], value[i:i+16])
		out = append(out, a)
	}
	return out, nil
}

// EmitIPv6InterfaceAddrs appends one type-232 TLV entry per address.
func EmitIPv6InterfaceAddrs(e *Emitter, addrs [][16]byte) error {
	for _, a := range addrs {
		if err := e.EmitEntry(TLVIPv6InterfaceAddrs, a[:]); err != nil {
			return err
		}
	}
	return nil
}

// IPv6Prefix is one variable-length entry of an IPv6 Reachability (type-236)
// TLV, per RFC 5308.
type IPv6Prefix struct {
	Metric     uint32
	UpDown     bool
	External   bool
	SubTLVsSet bool
	PrefixLen  uint8
	Prefix     [16]byte
	SubTLVs    []byte
}

// DecodeIPv6Prefixes parses a type-236 TLV value.
func DecodeIPv6Prefixes(value []byte) ([]IPv6Prefix, error) {
	var out []IPv6Prefix
	pos := 0
	for pos < len(value) {
		if pos+6 > len(value) {
			return out, fmt.Errorf("codec: IPv6 Reachability entry overflow at %d", pos)
		}
		p := IPv6Prefix{
			Metric:    binary.BigEndian.Uint32(value[pos : pos+4]),
			UpDown:    value[pos+4]&0x80 != 0,
			External:  value[pos+4]&0x40 != 0,
			PrefixLen: value[pos+5],
		}
		p.SubTLVsSet = value[pos+4]&0x20 != 0
		octets := int((p.PrefixLen + 7) / 8)
		if pos+6+octets > len(value) {
			return out, fmt.Errorf("codec: IPv6 Reachability prefix overflow at %d", pos)
		}
		copy(p.Prefix[:octets], value[pos+6:pos+6+octets])
		pos += 6 + octets
		if p.SubTLVsSet {
			if pos+1 > len(value) {
				return out, fmt.Errorf("codec: IPv6 Reachability missing sub-TLV length at %d", pos)
			}
			subLen := int(value[pos])
			if pos+1+subLen > len(value) {
				return out, fmt.Errorf("codec: IPv6 Reachability sub-TLVs overflow at %d", pos)
			}
			p.SubTLVs = make([]byte, subLen)
			copy(p.SubTLVs, value[pos+1:pos+1+subLen])
			pos += 1 + subLen
		}
		out = append(out, p)
	}
	return out, nil
}

// EmitIPv6Prefixes appends one type-236 TLV entry per prefix.
func EmitIPv6Prefixes(e *Emitter, entries []IPv6Prefix) error {
	for _, p := range entries {
		octets := int((p.PrefixLen + 7) / 8)
		b := make([]byte, 6+octets)
		binary.BigEndian.PutUint32(b[0:4], p.Metric)
		ctl := byte(0)
		if p.UpDown {
			ctl |= 0x80
		}
		if p.External {
			ctl |= 0x40
		}
		if len(p.SubTLVs) > 0 {
			ctl |= 0x20
		}
		b[4] = ctl
		b[5] = p.PrefixLen
		copy(b[6:], p.Prefix[:octets])
		if len(p.SubTLVs) > 0 {
			b = append(b, byte(len(p.SubTLVs)))
			b = append(b, p.SubTLVs...)
		}
		if err := e.EmitEntry(TLVIPv6Prefixes, b); err != nil {
			return err
		}
	}
	return nil
}
