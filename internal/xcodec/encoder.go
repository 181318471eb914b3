// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (compress9x.go's rule-ordered match vs
// literal decision cascade and storeRun literal-escaping path), generalized
// from LZO1X match-class coding to XCodec's fixed-length EXTRACT/REF/BACKREF
// chunking.

package xcodec

import "encoding/binary"

// greedyStreak is the number of consecutive EXTRACTs that trips the
// short-circuit heuristic of spec.md §4.3. The encoder sets its greedy
// flag once this many EXTRACTs occur in a row and clears it whenever it
// emits a raw byte. The flag does not change the scan: in every mode, a
// position with a full SegmentLen window resolves via rule 1, 2 or 3 and
// advances by SegmentLen (rule 4 only fires for a shortage of bytes or an
// out-of-band refusal), and each window's tag is computed from scratch
// with HashSegment. Output is therefore identical with the flag set or
// clear.
const greedyStreak = 3

// Encoder turns a byte stream into XCodec's opcode-tagged stream against a
// shared Cache, per spec.md §4.3.
type Encoder struct {
	cache  Cache
	window *Window

	consecutiveExtracts int
	greedy              bool

	lastTags []Tag
}

// NewEncoder returns an Encoder bound to cache. cache is not owned
// exclusively; the same cache may back a decoder on the peer-facing side
// of a pipe.
func NewEncoder(cache Cache) *Encoder {
	return &Encoder{cache: cache, window: NewWindow()}
}

// Window exposes the encoder's outbound sliding window, read-only from the
// pipe layer's perspective (it only ever calls Advance through Encode).
func (e *Encoder) Window() *Window { return e.window }

// Encode runs the full rule cascade over input and returns the encoded
// opcode stream.
func (e *Encoder) Encode(input []byte) ([]byte, error) {
	out := make([]byte, 0, len(input))
	e.lastTags = e.lastTags[:0]
	pos := 0
	for pos < len(input) {
		if len(input)-pos < SegmentLen {
			out = e.emitRaw(out, input[pos])
			pos++
			continue
		}

		chunk := input[pos : pos+SegmentLen]
		tag := HashSegment(chunk)
		seg, hit := e.cache.Lookup(tag)

		switch {
		case hit && seg.Equal(chunk):
			if idx, inWindow := e.window.IndexOf(tag); inWindow {
				out = appendBackref(out, idx)
			} else {
				out = appendRef(out, tag)
			}
			e.window.Advance(tag)
			e.lastTags = append(e.lastTags, tag)
			e.consecutiveExtracts = 0
			pos += SegmentLen

		case hit && !seg.Equal(chunk):
			if e.cache.OutOfBand() {
				out = e.emitRaw(out, input[pos])
				pos++
				continue
			}
			newSeg := NewSegment(chunk)
			if err := e.cache.Replace(tag, newSeg); err != nil {
				return nil, err
			}
			out = appendExtract(out, chunk)
			e.window.Advance(tag)
			e.lastTags = append(e.lastTags, tag)
			e.consecutiveExtracts++
			if e.consecutiveExtracts >= greedyStreak {
				e.greedy = true
			}
			pos += SegmentLen

		default: // miss
			if e.cache.OutOfBand() {
				e.greedy = false
				e.consecutiveExtracts = 0
				out = e.emitRaw(out, input[pos])
				pos++
				continue
			}
			newSeg := NewSegment(chunk)
			if err := e.cache.Enter(tag, newSeg); err != nil {
				return nil, err
			}
			out = appendExtract(out, chunk)
			e.window.Advance(tag)
			e.lastTags = append(e.lastTags, tag)
			e.consecutiveExtracts++
			if e.consecutiveExtracts >= greedyStreak {
				e.greedy = true
			}
			pos += SegmentLen
		}
	}
	return out, nil
}

// Greedy reports whether the short-circuit flag is currently set.
func (e *Encoder) Greedy() bool { return e.greedy }

// LastTags returns the set of tags the most recent Encode call referenced,
// in emission order. The pipe layer records this alongside a FRAME's id so
// ADVANCE can release exactly the right segments later.
func (e *Encoder) LastTags() []Tag {
	out := make([]Tag, len(e.lastTags))
	copy(out, e.lastTags)
	return out
}

func (e *Encoder) emitRaw(out []byte, b byte) []byte {
	e.consecutiveExtracts = 0
	e.greedy = false
	if b == Magic {
		return append(out, Magic, byte(OpEscape))
	}
	return append(out, b)
}

func appendBackref(out []byte, idx int) []byte {
	return append(out, Magic, byte(OpBackref), byte(idx))
}

func appendRef(out []byte, tag Tag) []byte {
	out = append(out, Magic, byte(OpRef))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(tag))
	return append(out, buf[:]...)
}

func appendExtract(out []byte, chunk []byte) []byte {
	out = append(out, Magic, byte(OpExtract))
	return append(out, chunk...)
}
