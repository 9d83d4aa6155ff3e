package codec

import "testing"

func TestLSPIDIncWraparound(t *testing.T) {
	cases := []struct {
		in, want LSPID
	}{
		{LSPID{0, 0, 0, 0, 0, 0, 0, 0}, LSPID{0, 0, 0, 0, 0, 0, 0, 1}},
		{LSPID{0, 0, 0, 0, 0, 0, 0, 0xff}, LSPID{0, 0, 0, 0, 0, 0, 1, 0}},
		{MaxLSPID, LSPID{0, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, c := range cases {
		got := c.in.Inc()
		if got != c.want {
			t.Errorf("%v.Inc() = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLSPIDString(t *testing.T) {
	l := NewLSPID([6]byte{0x19, 0x2, 0x0, 0x0, 0x0, 0x1}, 0x00, 0x03)
	want := "1902.0000.0001.00-03"
	if got := l.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLSPIDIsOwnedBy(t *testing.T) {
	sysID := [6]byte{1, 2, 3, 4, 5, 6}
	l := NewLSPID(sysID, 1, 5)
	if !l.IsOwnedBy(sysID, 1) {
		t.Error("expected IsOwnedBy to match same system ID and pseudonode")
	}
	if l.IsOwnedBy(sysID, 2) {
		t.Error("expected IsOwnedBy to reject a differing pseudonode ID")
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		seqA, seqB           uint32
		lifeA, lifeB         uint16
		want                 CompareResult
	}{
		{5, 3, 100, 100, Newer},
		{3, 5, 100, 100, Older},
		{5, 5, 100, 100, Same},
		{5, 5, 0, 100, Newer},
		{5, 5, 100, 0, Older},
		{5, 5, 0, 0, Same},
	}
	for i, c := range cases {
		got := Compare(c.seqA, c.lifeA, c.seqB, c.lifeB)
		if got != c.want {
			t.Errorf("case %d: Compare(%d,%d,%d,%d) = %v, want %v", i, c.seqA, c.lifeA, c.seqB, c.lifeB, got, c.want)
		}
	}
}
