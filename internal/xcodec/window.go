// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (sliding_window.go insertPos/scanPos
// wrap-around arithmetic, generalized from a byte ring to a tag ring).

package xcodec

// WindowSize is the number of BACKREF-addressable slots, W. Positions
// 0..WindowSize-1 are valid BACKREF indices into the window.
const WindowSize = 256

// Window is the codec-local backref ring: the last W tags seen by an
// encoder or a decoder, in emission/consumption order. Encoder and decoder
// must Advance it identically on every segment or the two sides desync
// (spec.md §3).
type Window struct {
	slots [WindowSize]Tag
	valid [WindowSize]bool
	next  int
	count int
}

// NewWindow returns an empty window.
func NewWindow() *Window {
	return &Window{}
}

// Advance pushes tag into the window, evicting the oldest entry once the
// window is full. It does not retain or release any Segment; callers that
// key windows by Tag alone leave Segment lifetime to the Cache.
func (w *Window) Advance(tag Tag) {
	w.slots[w.next] = tag
	w.valid[w.next] = true
	w.next = (w.next + 1) % WindowSize
	if w.count < WindowSize {
		w.count++
	}
}

// At returns the tag stored at BACKREF index idx and whether that slot has
// ever been written. idx is relative to the most recently advanced tag
// being index 0, counting backward.
func (w *Window) At(idx int) (Tag, bool) {
	if idx < 0 || idx >= WindowSize || idx >= w.count {
		return 0, false
	}
	pos := (w.next - 1 - idx + WindowSize) % WindowSize
	return w.slots[pos], w.valid[pos]
}

// IndexOf returns the smallest BACKREF index that currently holds tag, and
// whether tag is present in the window at all. Ties favor the most
// recently advanced occurrence, matching the encoder's preference for the
// cheapest (smallest) backref index.
func (w *Window) IndexOf(tag Tag) (int, bool) {
	for idx := 0; idx < w.count; idx++ {
		t, ok := w.At(idx)
		if ok && t == tag {
			return idx, true
		}
	}
	return 0, false
}

// Len reports how many valid slots the window currently holds.
func (w *Window) Len() int { return w.count }

// Reset empties the window. Nothing in the pipe layer calls it; a pipe
// keeps one window per direction for its whole life.
func (w *Window) Reset() {
	*w = Window{}
}
