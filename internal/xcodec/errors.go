// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (errors.go shape)

package xcodec

import "errors"

// Sentinel errors for the codec and segment cache.
var (
	// ErrShortInput names a buffer that ends before a declared opcode body.
	// Decoder.Decode does not return it: it stops cleanly at such a point
	// and reports the position in DecodeStatus.Consumed.
	ErrShortInput = errors.New("xcodec: short input")
	// ErrBadOpcode is returned when the decoder reads an opcode it does not recognize.
	ErrBadOpcode = errors.New("xcodec: unknown opcode")
	// ErrBackrefMiss is returned when a BACKREF index has no entry in the sliding window.
	ErrBackrefMiss = errors.New("xcodec: backref index out of window")
	// ErrCacheFull is returned by NewCache and its variants for a negative capacity.
	ErrCacheFull = errors.New("xcodec: cache capacity must be >= 0")
	// ErrTagAbsent is returned by Cache.Replace when the tag is not already present.
	ErrTagAbsent = errors.New("xcodec: replace of absent tag")
	// ErrTagPresent is returned by Cache.Enter when the tag is already present.
	ErrTagPresent = errors.New("xcodec: enter of present tag")
)
