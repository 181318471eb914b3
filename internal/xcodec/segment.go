// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (buffer lifecycle shape); refcounting
// adapted from VariousForks-dedup/writer.go's buffer-pool reuse pattern.

package xcodec

import "sync/atomic"

// SegmentLen is the fixed segment length L. Spec.md fixes this as the only
// currently deployed value; it is a compile-time constant of the codec.
const SegmentLen = 128

// Tag is the 64-bit content-addressed identifier of a Segment.
type Tag uint64

// Segment is a fixed-length immutable byte block, shared by Tag across the
// encoder, decoder, and cache. Segments are reference-counted: every cache
// entry and every pipe-level hold pending ADVANCE owns one reference
// (windows store bare Tags and own none). Release must be called exactly once per Retain (including the
// implicit first reference returned by NewSegment).
type Segment struct {
	data [SegmentLen]byte
	refs int32
}

// NewSegment copies b (which must be exactly SegmentLen bytes) into a new
// Segment with one reference already held by the caller.
func NewSegment(b []byte) *Segment {
	if len(b) != SegmentLen {
		panic("xcodec: segment length must equal SegmentLen")
	}
	s := &Segment{refs: 1}
	copy(s.data[:], b)
	return s
}

// Bytes returns the segment's payload. Callers must not mutate the result.
func (s *Segment) Bytes() []byte { return s.data[:] }

// Equal reports whether s and b carry byte-identical payloads.
func (s *Segment) Equal(b []byte) bool {
	if len(b) != SegmentLen {
		return false
	}
	return s.data == [SegmentLen]byte(b)
}

// Retain adds one reference and returns s, for chaining at call sites that
// hand the same segment to a second owner (e.g. cache.Enter storing a
// segment its caller still holds).
func (s *Segment) Retain() *Segment {
	atomic.AddInt32(&s.refs, 1)
	return s
}

// Release drops one reference. It is safe to call from multiple goroutines
// sharing a cache; the final release has no observable effect beyond
// allowing s to be garbage collected once unreferenced.
func (s *Segment) Release() {
	if atomic.AddInt32(&s.refs, -1) < 0 {
		panic("xcodec: segment released more times than retained")
	}
}
