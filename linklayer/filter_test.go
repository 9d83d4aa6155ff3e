package linklayer

import "testing"

func TestHtons(t *testing.T) {
	if got := htons(0x0003); got != 0x0300 {
		t.Errorf("htons(0x0003) = %#04x, want 0x0300", got)
	}
}

func TestIsisFilterEndsInReturns(t *testing.T) {
	if len(isisFilter) == 0 {
		t.Fatal("isisFilter must not be empty")
	}
	last := isisFilter[len(isisFilter)-1]
	if last.Code&0x07 != 0x06 { // BPF_RET low 3 bits
		t.Errorf("expected the last instruction to be a BPF_RET, got code %#x", last.Code)
	}
	if last.K != 0 {
		t.Errorf("expected the final fallthrough instruction to drop (K=0), got %#x", last.K)
	}
}
