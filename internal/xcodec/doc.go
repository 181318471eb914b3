// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (package shape)

/*
Package xcodec implements the content-defined dedup codec: a rolling hash
over fixed-length segments, a tag-addressed segment cache with LRU eviction,
and an Encoder/Decoder pair that turn a byte stream into an opcode stream of
EXTRACT, REF, BACKREF, and ESCAPE operations and back.

# Encode

	enc := xcodec.NewEncoder(cache)
	out, err := enc.Encode(in)

# Decode

	dec := xcodec.NewDecoder(cache)
	out, status, err := dec.Decode(in)
	// status.UnknownTags is non-empty when the decoder needs a LEARN before
	// it can make further progress.
*/
package xcodec
