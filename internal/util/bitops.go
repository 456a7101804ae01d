package util

import "math/bits"

// CanEncodeImm reports whether val fits the ARM modified immediate form:
// an 8-bit value rotated right by an even number of bits.
func CanEncodeImm(val uint32) bool {
	for rot := 0; rot < 32; rot += 2 {
		if bits.RotateLeft32(val, rot) <= 0xff {
			return true
		}
	}
	return false
}

func Slice16bits(val uint32, offsetBits int) uint32 {
	return (val >> offsetBits) & 0xffff
}
