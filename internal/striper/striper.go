// Package striper implements the byte-to-nibble-pair conversion used to
// place data across two physical flash chips in a dual-flash topology.
package striper

import "github.com/gentam/qflash/internal/qerr"

// Stripe fans input into two nibble streams, one byte of output per pair of
// input bytes. For consecutive input bytes (x, y):
//
//	bufA[i/2] = (x << 4) | (y & 0x0F)
//	bufB[i/2] = (x & 0xF0) | (y >> 4)
//
// len(input) must be even.
func Stripe(input []byte) (bufA, bufB []byte, err error) {
	if len(input)%2 != 0 {
		return nil, nil, qerr.New(qerr.InvalidInput, "stripe input length must be even")
	}
	n := len(input) / 2
	bufA = make([]byte, n)
	bufB = make([]byte, n)
	for i := 0; i < n; i++ {
		x, y := input[2*i], input[2*i+1]
		bufA[i] = (x << 4) | (y & 0x0F)
		bufB[i] = (x & 0xF0) | (y >> 4)
	}
	return bufA, bufB, nil
}

// Unstripe is the inverse of Stripe: it re-interleaves two nibble streams
// into the original byte stream. bufA and bufB must have equal length.
func Unstripe(bufA, bufB []byte) ([]byte, error) {
	if len(bufA) != len(bufB) {
		return nil, qerr.New(qerr.InvalidInput, "unstripe inputs must have equal length")
	}
	out := make([]byte, len(bufA)*2)
	for i := range bufA {
		out[2*i] = (bufB[i] & 0xF0) | (bufA[i] >> 4)
		out[2*i+1] = (bufB[i] << 4) | (bufA[i] & 0x0F)
	}
	return out, nil
}
