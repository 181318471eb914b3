// SPDX-License-Identifier: GPL-2.0-only
// Source: vasic-digital-SuperAgent/internal/cache/tiered_cache.go (L1/L2
// promote-on-miss shape), adapted from in-memory+Redis to two Cache values
// of this package so either tier can itself be a memCache or a remote one.
// The primary-hit-touches-secondary step in Lookup is grounded directly on
// _examples/original_source/xcodec/xcodec_cache.h's
// XCodecCachePair::lookup ("If a primary lookup succeeds, would like to let
// the secondary cache know... usage from the memory cache [can] refresh old
// entries in the disk cache which are due to be overwritten.").

package xcodec

// Pair is a two-tier Cache: Primary is checked first, and a Secondary hit
// is promoted into Primary so it survives Primary's own eviction policy at
// the top tier. Both tiers must agree on OutOfBand for the composite
// OutOfBand invariant spec.md §4.2 requires: the Pair reports OutOfBand
// only when both tier caches do.
type Pair struct {
	Primary   Cache
	Secondary Cache
	promotes  uint64
}

// NewPair wires two existing caches into a tiered Pair. Neither cache is
// constructed here; callers choose capacities and hooks per tier.
func NewPair(primary, secondary Cache) *Pair {
	return &Pair{Primary: primary, Secondary: secondary}
}

func (p *Pair) Peek(tag Tag) (*Segment, bool) {
	if seg, ok := p.Primary.Peek(tag); ok {
		return seg, true
	}
	return p.Secondary.Peek(tag)
}

func (p *Pair) Lookup(tag Tag) (*Segment, bool) {
	if seg, ok := p.Primary.Lookup(tag); ok {
		p.Secondary.Touch(tag)
		return seg, true
	}
	seg, ok := p.Secondary.Lookup(tag)
	if !ok {
		return nil, false
	}
	if err := p.Primary.Enter(tag, seg); err == nil {
		p.promotes++
	}
	return seg, true
}

func (p *Pair) Enter(tag Tag, seg *Segment) error {
	if err := p.Primary.Enter(tag, seg); err != nil {
		return err
	}
	return p.Secondary.Enter(tag, seg)
}

func (p *Pair) Replace(tag Tag, seg *Segment) error {
	errPrimary := p.Primary.Replace(tag, seg)
	errSecondary := p.Secondary.Replace(tag, seg)
	if errPrimary != nil {
		return errPrimary
	}
	return errSecondary
}

func (p *Pair) Touch(tag Tag) bool {
	a := p.Primary.Touch(tag)
	b := p.Secondary.Touch(tag)
	return a || b
}

func (p *Pair) OutOfBand() bool {
	return p.Primary.OutOfBand() && p.Secondary.OutOfBand()
}

// Stats sums both tiers' Len, Capacity and Evicted counts. Promotions are
// not included; Promotes reports them.
func (p *Pair) Stats() CacheStats {
	a, b := p.Primary.Stats(), p.Secondary.Stats()
	return CacheStats{
		Len:      a.Len + b.Len,
		Capacity: a.Capacity + b.Capacity,
		Evicted:  a.Evicted + b.Evicted,
	}
}

// Promotes reports how many Secondary hits have been copied up to Primary.
func (p *Pair) Promotes() uint64 { return p.promotes }
