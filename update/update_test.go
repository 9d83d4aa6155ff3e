package update

import (
	"testing"

	"github.com/go-isis/isisd/codec"
)

func TestReceiveLSPAddsNewerAndFloodsOthers(t *testing.T) {
	p := NewProcess(0)

	var floodedOn1, clearedOn2 []codec.LSPID
	p.RegisterCircuit("c1", FlagOps{
		SetSRM: func(id codec.LSPID) { floodedOn1 = append(floodedOn1, id) },
	})
	p.RegisterCircuit("c2", FlagOps{
		ClearSRM: func(id codec.LSPID) { clearedOn2 = append(clearedOn2, id) },
	})

	lspid := codec.NewLSPID([6]byte{9, 9, 9, 9, 9, 9}, 0, 0)
	fixed := codec.LSPFixed{LSPID: lspid, SeqNo: 1, RemainingLife: 1200}

	p.ReceiveLSP("c2", fixed, []byte{1, 2, 3}, nil, [6]byte{1}, func(codec.LSPFixed) bool { return false })

	seg, ok := p.Get(lspid)
	if !ok {
		t.Fatal("expected LSP to be added to the database")
	}
	if seg.SeqNo() != 1 {
		t.Errorf("expected seqno 1, got %d", seg.SeqNo())
	}
	if len(floodedOn1) != 1 || floodedOn1[0] != lspid {
		t.Errorf("expected SRM set on circuit c1, got %v", floodedOn1)
	}
	if len(clearedOn2) != 1 || clearedOn2[0] != lspid {
		t.Errorf("expected SRM cleared on receiving circuit c2, got %v", clearedOn2)
	}
}

func TestReceiveLSPOlderSetsSRMOnSender(t *testing.T) {
	p := NewProcess(0)
	var srmSet []codec.LSPID
	p.RegisterCircuit("c1", FlagOps{
		SetSRM: func(id codec.LSPID) { srmSet = append(srmSet, id) },
	})

	lspid := codec.NewLSPID([6]byte{1}, 0, 0)
	fixed := codec.LSPFixed{LSPID: lspid, SeqNo: 5, RemainingLife: 1200}
	p.ReceiveLSP("other", fixed, nil, nil, [6]byte{1}, func(codec.LSPFixed) bool { return false })
	// Installing the newer copy already flooded it to c1; count only what
	// the older copy causes.
	srmSet = nil

	older := fixed
	older.SeqNo = 3
	p.ReceiveLSP("c1", older, nil, nil, [6]byte{1}, func(codec.LSPFixed) bool { return false })

	if len(srmSet) != 1 || srmSet[0] != lspid {
		t.Errorf("expected SRM set on c1 after receiving an older LSP, got %v", srmSet)
	}
	seg, _ := p.Get(lspid)
	if seg.SeqNo() != 5 {
		t.Errorf("database copy should be unchanged by an older LSP, got seqno %d", seg.SeqNo())
	}
}

func TestCSNPEntriesSortedByLSPID(t *testing.T) {
	p := NewProcess(0)
	ids := []codec.LSPID{
		codec.NewLSPID([6]byte{3}, 0, 0),
		codec.NewLSPID([6]byte{1}, 0, 0),
		codec.NewLSPID([6]byte{2}, 0, 0),
	}
	for _, id := range ids {
		p.ReceiveLSP("c1", codec.LSPFixed{LSPID: id, SeqNo: 1, RemainingLife: 1200}, nil, nil, [6]byte{9}, func(codec.LSPFixed) bool { return false })
	}

	entries := p.CSNPEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].LSPID.Less(entries[i].LSPID) {
			t.Errorf("entries not sorted at index %d", i)
		}
	}
}
