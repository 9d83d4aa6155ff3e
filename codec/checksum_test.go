package codec

import (
	"testing"

	"github.com/go-test/deep"
)

func TestChecksumRoundTrip(t *testing.T) {
	cases := [][]byte{
		{1, 2, 3, 4, 5, 6, 7, 8},
		[]byte("the quick brown fox jumps over the lazy dog"),
		make([]byte, 10000), // exercises the 4102-byte block boundary twice
	}
	for i, payload := range cases {
		buf := make([]byte, len(payload)+2)
		copy(buf, payload)
		x, y := ComputeChecksum(buf, len(payload))
		buf[len(payload)] = x
		buf[len(payload)+1] = y
		if !VerifyChecksum(buf) {
			t.Errorf("case %d: checksum %02x%02x did not verify", i, x, y)
		}
	}
}

func TestChecksumFlipSensitive(t *testing.T) {
	payload := append([]byte("flip sensitivity check"), 0, 0)
	csumOff := len(payload) - 2
	x, y := ComputeChecksum(payload, csumOff)
	payload[csumOff] = x
	payload[csumOff+1] = y
	if !VerifyChecksum(payload) {
		t.Fatal("checksum did not verify before corruption")
	}
	payload[0] ^= 0x01
	if VerifyChecksum(payload) {
		t.Fatal("checksum verified after single-bit corruption")
	}
}

func TestChecksumAllZeroInputVerifies(t *testing.T) {
	buf := []byte{0, 0}
	x, y := ComputeChecksum(buf, 0)
	buf[0], buf[1] = x, y
	if diff := deep.Equal(VerifyChecksum(buf), true); diff != nil {
		t.Errorf("checksum of all-zero payload should self-verify: %v", diff)
	}
}
