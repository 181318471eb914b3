// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (decompress.go's decompressCore
// opcode-dispatch cascade and cursor-advancing read helpers), generalized
// from LZO1X's M1-M4 match dispatch to XCodec's ESCAPE/EXTRACT/REF/BACKREF
// dispatch; partial-return-on-underrun relaxed from an error to a clean
// stop, per spec.md §4.4.

package xcodec

import "encoding/binary"

// DecodeStatus reports how much of the input a Decode call consumed and,
// if it stopped because of an unresolved REF, which tags the caller must
// supply via LEARN before decoding can continue.
type DecodeStatus struct {
	// Consumed is the number of leading bytes of the input that were
	// fully decoded. The caller must re-present the remainder (prefixed
	// by any newly learned segments' worth of context) on the next call.
	Consumed int
	// UnknownTags is non-empty when decoding stopped at a REF whose tag
	// the cache doesn't hold. It is the skim-collected union described in
	// spec.md §4.4, in first-seen order.
	UnknownTags []Tag
}

// Decoder is the inverse of Encoder: it turns an XCodec opcode stream back
// into the original bytes against a shared Cache.
type Decoder struct {
	cache  Cache
	window *Window

	// OnCollision, if set, is invoked whenever an EXTRACT's tag already
	// names a byte-different segment in the cache (spec.md §7 "name
	// reuse", a non-fatal event the pipe layer may want to log).
	OnCollision func(tag Tag)
}

// NewDecoder returns a Decoder bound to cache.
func NewDecoder(cache Cache) *Decoder {
	return &Decoder{cache: cache, window: NewWindow()}
}

// Window exposes the decoder's inbound sliding window.
func (d *Decoder) Window() *Window { return d.window }

// Decode consumes as much of input as it can. When it returns with
// status.UnknownTags non-empty, the REF at status.Consumed was not
// consumed; the caller must LEARN those tags into the cache and re-invoke
// Decode on input[status.Consumed:]. Resubmitting the whole slice is the
// same thing only when status.Consumed is 0; otherwise the prefix already
// decoded would be decoded, emitted and pushed into the window again.
func (d *Decoder) Decode(input []byte) ([]byte, DecodeStatus, error) {
	out := make([]byte, 0, len(input))
	pos := 0

	for pos < len(input) {
		b := input[pos]
		if b != Magic {
			out = append(out, b)
			pos++
			continue
		}
		if pos+1 >= len(input) {
			break // partial opcode header, stop cleanly
		}
		op := Opcode(input[pos+1])
		switch op {
		case OpEscape:
			out = append(out, Magic)
			pos += 2

		case OpExtract:
			const need = 2 + SegmentLen
			if pos+need > len(input) {
				goto stop
			}
			chunk := input[pos+2 : pos+2+SegmentLen]
			tag := HashSegment(chunk)
			if seg, hit := d.cache.Lookup(tag); hit {
				if seg.Equal(chunk) {
					out = append(out, seg.Bytes()...)
				} else {
					if d.OnCollision != nil {
						d.OnCollision(tag)
					}
					if err := d.cache.Replace(tag, NewSegment(chunk)); err != nil {
						return nil, DecodeStatus{Consumed: pos}, err
					}
					out = append(out, chunk...)
				}
			} else {
				if err := d.cache.Enter(tag, NewSegment(chunk)); err != nil {
					return nil, DecodeStatus{Consumed: pos}, err
				}
				out = append(out, chunk...)
			}
			d.window.Advance(tag)
			pos += need

		case OpRef:
			const need = 2 + 8
			if pos+need > len(input) {
				goto stop
			}
			tag := Tag(binary.BigEndian.Uint64(input[pos+2 : pos+2+8]))
			seg, hit := d.cache.Lookup(tag)
			if !hit {
				unknown := dedupTags(append([]Tag{tag}, skim(input[pos+need:], d.cache)...))
				return out, DecodeStatus{Consumed: pos, UnknownTags: unknown}, nil
			}
			d.window.Advance(tag)
			out = append(out, seg.Bytes()...)
			pos += need

		case OpBackref:
			const need = 2 + 1
			if pos+need > len(input) {
				goto stop
			}
			idx := int(input[pos+2])
			tag, ok := d.window.At(idx)
			if !ok {
				return nil, DecodeStatus{Consumed: pos}, ErrBackrefMiss
			}
			seg, hit := d.cache.Lookup(tag)
			if !hit {
				return nil, DecodeStatus{Consumed: pos}, ErrBackrefMiss
			}
			d.window.Advance(tag)
			out = append(out, seg.Bytes()...)
			pos += need

		default:
			return nil, DecodeStatus{Consumed: pos}, ErrBadOpcode
		}
	}
stop:
	return out, DecodeStatus{Consumed: pos}, nil
}

// skim walks the residual input after an unresolved REF, collecting
// further REF tags that are neither already cached nor defined by a later
// EXTRACT within this same buffer. It never calls Cache.Enter, Replace, or
// Lookup, and never advances the window (spec.md §4.4).
func skim(rest []byte, cache Cache) []Tag {
	// First pass: collect every tag this same buffer defines via EXTRACT,
	// regardless of whether the EXTRACT comes before or after a REF of
	// the same tag ("not defined by a later EXTRACT in the same buffer").
	defined := make(map[Tag]struct{})
	skimWalk(rest, func(op Opcode, body []byte) {
		if op == OpExtract {
			defined[HashSegment(body)] = struct{}{}
		}
	})

	// Second pass: collect REF tags that are neither cached nor defined.
	var unknown []Tag
	skimWalk(rest, func(op Opcode, body []byte) {
		if op != OpRef {
			return
		}
		tag := Tag(binary.BigEndian.Uint64(body))
		if _, known := defined[tag]; known {
			return
		}
		if _, cached := cache.Peek(tag); cached {
			return
		}
		unknown = append(unknown, tag)
	})
	return unknown
}

// skimWalk parses rest opcode-by-opcode, invoking visit with each
// well-formed opcode's body, and stops cleanly (without error) at the
// first truncated opcode or unrecognized opcode, matching the decoder's own
// partial-return discipline.
func skimWalk(rest []byte, visit func(op Opcode, body []byte)) {
	pos := 0
	for pos < len(rest) {
		b := rest[pos]
		if b != Magic {
			pos++
			continue
		}
		if pos+1 >= len(rest) {
			return
		}
		op := Opcode(rest[pos+1])
		switch op {
		case OpEscape:
			pos += 2
		case OpExtract:
			const need = 2 + SegmentLen
			if pos+need > len(rest) {
				return
			}
			visit(op, rest[pos+2:pos+2+SegmentLen])
			pos += need
		case OpRef:
			const need = 2 + 8
			if pos+need > len(rest) {
				return
			}
			visit(op, rest[pos+2:pos+2+8])
			pos += need
		case OpBackref:
			const need = 2 + 1
			if pos+need > len(rest) {
				return
			}
			pos += need
		default:
			return
		}
	}
}

func dedupTags(tags []Tag) []Tag {
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
