package codec

// checksumBlock bounds how many bytes accumulate between mod-255 reductions.
// Reproduced from the reference implementation: deferring the reduction to
// this granularity (rather than after every byte) changes nothing
// mathematically, but it is the inner-loop shape the IETF-standard
// implementations use, and placement of the checksum octets must match it
// bit-for-bit for interop.
const checksumBlock = 4102

// fletcherAccumulate runs the ISO 8473 / RFC 1008 Fletcher accumulator over
// buf, folding modulo 255 every checksumBlock bytes.
func fletcherAccumulate(buf []byte) (c0, c1 int32) {
	i := 0
	for i < len(buf) {
		end := i + checksumBlock
		if end > len(buf) {
			end = len(buf)
		}
		for ; i < end; i++ {
			c0 += int32(buf[i])
			c1 += c0
		}
		c0 %= 255
		c1 %= 255
	}
	return c0, c1
}

// ComputeChecksum computes the pair of checksum octets for payload, which
// must have its two checksum octets (at byte offset csumOffset) set to zero.
// The returned bytes, written back at csumOffset, make VerifyChecksum(payload)
// true.
func ComputeChecksum(payload []byte, csumOffset int) (byte, byte) {
	c0, c1 := fletcherAccumulate(payload)
	n := len(payload)

	x := int32(n-csumOffset-1)*c0 - c1
	x %= 255
	if x <= 0 {
		x += 255
	}
	y := 510 - c0 - x
	if y > 255 {
		y -= 255
	}
	return byte(x), byte(y)
}

// VerifyChecksum reports whether payload (including its checksum octets)
// sums to zero under the Fletcher accumulator, as ISO 8473 requires.
func VerifyChecksum(payload []byte) bool {
	c0, c1 := fletcherAccumulate(payload)
	return c0 == 0 && c1 == 0
}
