package codec

import (
	"testing"

	"github.com/go-test/deep"
)

func TestParseTLVsRoundTrip(t *testing.T) {
	buf := NewBuf(64)
	e := NewEmitter(buf, 64, nil)
	if err := e.EmitEntry(TLVHostname, []byte("router1")); err != nil {
		t.Fatal(err)
	}
	if err := e.EmitEntry(TLVNLPID, []byte{NLPIDIPv4, NLPIDIPv6}); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseTLVs(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []RawTLV{
		{Type: TLVHostname, Value: []byte("router1")},
		{Type: TLVNLPID, Value: []byte{NLPIDIPv4, NLPIDIPv6}},
	}
	if diff := deep.Equal(parsed, want); diff != nil {
		t.Error(diff)
	}
}

func TestEmitterRollsOverAtEntryLimit(t *testing.T) {
	buf := NewBuf(4096)
	e := NewEmitter(buf, 4096, nil)
	entries := make([]ISNeighborEntry, 40) // 40*11 = 440 bytes, over the 255 cap
	for i := range entries {
		entries[i].NeighborID[0] = byte(i)
	}
	if err := EmitISReachNarrow(e, false, entries[:20]); err != nil {
		t.Fatal(err)
	}
	for _, ent := range entries[20:] {
		b := make([]byte, 11)
		copy(b[4:], ent.NeighborID[:])
		if err := e.EmitEntry(TLVISReachNarrow, b); err != nil {
			t.Fatal(err)
		}
	}

	parsed, err := ParseTLVs(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) < 2 {
		t.Fatalf("expected entries to roll over into at least 2 TLVs, got %d", len(parsed))
	}
	for _, tlv := range parsed {
		if tlv.Type != TLVISReachNarrow {
			t.Errorf("unexpected TLV type %d", tlv.Type)
		}
		if len(tlv.Value) > 255 {
			t.Errorf("TLV value %d bytes exceeds 255", len(tlv.Value))
		}
	}
}

func TestEmitterNewBufferCallback(t *testing.T) {
	var buffers []*Buf
	newBuf := func() *Buf {
		b := NewBuf(32)
		buffers = append(buffers, b)
		return b
	}
	first := NewBuf(32)
	buffers = append(buffers, first)
	e := NewEmitter(first, 32, newBuf)

	for i := 0; i < 10; i++ {
		if err := e.EmitEntry(TLVIPv4InterfaceAddrs, []byte{byte(i), 0, 0, 1}); err != nil {
			t.Fatal(err)
		}
	}
	if len(buffers) < 2 {
		t.Fatalf("expected newBuf to be invoked at least once, got %d buffers", len(buffers))
	}
	for _, b := range buffers {
		if b.Len() > 32 {
			t.Errorf("buffer overflowed maxLen: %d bytes", b.Len())
		}
	}
}

func TestIPv4PrefixesWideRoundTrip(t *testing.T) {
	entries := []IPv4PrefixWide{
		{Metric: 10, UpDown: false, PrefixLen: 24, Prefix: [4]byte{10, 0, 1, 0}},
		{Metric: 20, UpDown: true, PrefixLen: 32, Prefix: [4]byte{192, 168, 1, 1}, SubTLVsSet: true, SubTLVs: []byte{1, 2, 3}},
	}
	buf := NewBuf(128)
	e := NewEmitter(buf, 128, nil)
	if err := EmitIPv4PrefixesWide(e, entries); err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseTLVs(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var got []IPv4PrefixWide
	for _, tlv := range parsed {
		ps, err := DecodeIPv4PrefixesWide(tlv.Value)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ps...)
	}
	if diff := deep.Equal(got, entries); diff != nil {
		t.Error(diff)
	}
}

func TestIPv6PrefixesRoundTrip(t *testing.T) {
	entries := []IPv6Prefix{
		{Metric: 5, PrefixLen: 64, Prefix: [16]byte{0x20, 0x01, 0x0d, 0xb8}},
		{Metric: 15, External: true, PrefixLen: 128, Prefix: [16]byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, SubTLVsSet: true, SubTLVs: []byte{9}},
	}
	buf := NewBuf(128)
	e := NewEmitter(buf, 128, nil)
	if err := EmitIPv6Prefixes(e, entries); err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseTLVs(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	var got []IPv6Prefix
	for _, tlv := range parsed {
		ps, err := DecodeIPv6Prefixes(tlv.Value)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ps...)
	}
	if diff := deep.Equal(got, entries); diff != nil {
		t.Error(diff)
	}
}
