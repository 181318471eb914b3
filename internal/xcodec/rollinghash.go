// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (sliding_window.go head2/head3 byte-mixing
// hash shape, generalized from a fixed small key to a rolling 128-byte window).

package xcodec

// rollingMultiplier is a fixed odd 64-bit multiplier for the Rabin-style
// rolling hash. Oddness keeps the multiplier invertible mod 2^64, which is
// what makes byte-in/byte-out compensation exact.
const rollingMultiplier uint64 = 0x9E3779B97F4A7C15

// rollingPowL is rollingMultiplier^SegmentLen mod 2^64, precomputed once so
// Roll can remove the outgoing byte's contribution in O(1).
var rollingPowL = func() uint64 {
	p := uint64(1)
	for i := 0; i < SegmentLen; i++ {
		p *= rollingMultiplier
	}
	return p
}()

// RollingHash computes a 64-bit fingerprint over a trailing SegmentLen-byte
// window. Encoder and decoder within one process must agree bit-for-bit;
// the exact polynomial is not a wire compatibility surface between peers
// (spec.md §4.1) since only tags and data cross the wire.
type RollingHash struct {
	value uint64
}

// Start zeroes the hash state, ready for SegmentLen calls to Roll or a
// single call to Hash.
func (h *RollingHash) Start() { h.value = 0 }

// Roll folds in newByte and removes the contribution of oldByte, the byte
// that was leading the window SegmentLen positions ago. The caller is
// responsible for feeding zero as oldByte for the first SegmentLen calls
// after Start (no byte leaves the window until it is full, and the result
// is not meaningful before then).
func (h *RollingHash) Roll(newByte, oldByte byte) uint64 {
	h.value = h.value*rollingMultiplier + uint64(newByte) - uint64(oldByte)*rollingPowL
	return h.value
}

// Hash computes the rolling hash of window from scratch. len(window) must
// equal SegmentLen.
func (h *RollingHash) Hash(window []byte) uint64 {
	if len(window) != SegmentLen {
		panic("xcodec: Hash requires a SegmentLen window")
	}
	var v uint64
	for _, b := range window {
		v = v*rollingMultiplier + uint64(b)
	}
	h.value = v
	return v
}

// Value returns the most recently computed hash without recomputing it.
func (h *RollingHash) Value() uint64 { return h.value }

// HashSegment is a convenience wrapper for one-shot hashing of a full
// SegmentLen window, used by the decoder when it must compute a tag for an
// EXTRACT body rather than roll incrementally.
func HashSegment(window []byte) Tag {
	var h RollingHash
	return Tag(h.Hash(window))
}
