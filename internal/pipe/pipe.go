// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (Reader-oriented streaming API shape,
// decompress_reader.go), generalized from a single-direction byte stream
// to the full-duplex ASK/LEARN interlock spec.md §4.5 requires.

package pipe

import (
	"context"
	"sync"

	"github.com/DaEun2Lee/wanops/internal/channel"
	"github.com/DaEun2Lee/wanops/internal/xcodec"
)

// unackedFrame records the tags one outbound FRAME referenced, so a later
// ADVANCE can release exactly the right holds.
type unackedFrame struct {
	tags []xcodec.Tag
}

// Pipe is one full-duplex codec connection: an Encoder for outbound data,
// a Decoder for inbound data, and the HELLO/ASK/LEARN/ADVANCE/EOS
// bookkeeping layered over a single Channel (spec.md §4.5).
type Pipe struct {
	ch      channel.Channel
	cache   xcodec.Cache
	enc     *xcodec.Encoder
	dec     *xcodec.Decoder
	session *Session

	selfUUID [16]byte
	peerUUID [16]byte

	mu      sync.Mutex
	unacked []unackedFrame
	held    map[xcodec.Tag]*heldSegment

	pendingAsk    map[xcodec.Tag]struct{}
	pendingInput  []byte // undecoded tail, including any unresolved REF
	pendingOutput []byte // decoded prefix held back during a suspend
	suspended     bool
}

type heldSegment struct {
	seg  *xcodec.Segment
	refs int
}

// NewPipe returns a Pipe bound to ch and cache, ready for Handshake.
func NewPipe(ch channel.Channel, cache xcodec.Cache, selfUUID [16]byte) *Pipe {
	return &Pipe{
		ch:         ch,
		cache:      cache,
		enc:        xcodec.NewEncoder(cache),
		dec:        xcodec.NewDecoder(cache),
		session:    NewSession(),
		selfUUID:   selfUUID,
		held:       make(map[xcodec.Tag]*heldSegment),
		pendingAsk: make(map[xcodec.Tag]struct{}),
	}
}

// Session exposes the handshake/half-close state machine for inspection.
func (p *Pipe) Session() *Session { return p.session }

// PeerUUID returns the UUID the peer presented in its HELLO. Only valid
// after a successful Handshake.
func (p *Pipe) PeerUUID() [16]byte { return p.peerUUID }

// HeldCount reports how many distinct tags this pipe is currently holding
// an extra reference on, pending ADVANCE. Exposed for tests.
func (p *Pipe) HeldCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.held)
}

// UnackedCount reports how many outbound FRAMEs are awaiting ADVANCE.
func (p *Pipe) UnackedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.unacked)
}

// Handshake exchanges HELLO frames. The first frame on either side of a
// pipe must be HELLO, exactly once (spec.md §4.5); Handshake enforces the
// send side of that and validates the receive side.
func (p *Pipe) Handshake(ctx context.Context) error {
	if err := p.session.OnSendHello(); err != nil {
		return err
	}
	if err := WriteFrame(p.ch, Hello(p.selfUUID)); err != nil {
		p.session.Fail()
		return err
	}
	f, err := ReadFrame(p.ch)
	if err != nil {
		p.session.Fail()
		return err
	}
	if f.Op != OpHello {
		p.session.Fail()
		return ErrNotHello
	}
	if err := p.session.OnRecvHello(); err != nil {
		return err
	}
	p.peerUUID = f.HelloUUID
	return nil
}

// Send encodes payload and writes it as a FRAME, recording the tags it
// referenced against a monotonic position in the unacked queue so a later
// ADVANCE can release them (spec.md §4.5 "ADVANCE accounting").
func (p *Pipe) Send(payload []byte) error {
	encoded, err := p.enc.Encode(payload)
	if err != nil {
		return err
	}
	tags := p.enc.LastTags()
	p.retain(tags)

	p.mu.Lock()
	p.unacked = append(p.unacked, unackedFrame{tags: tags})
	p.mu.Unlock()

	return WriteFrame(p.ch, DataFrame(encoded))
}

// retain adds a pipe-level hold on each tag's segment, independent of the
// cache's own LRU lifetime, so a future ASK can always be answered until
// the corresponding ADVANCE arrives.
func (p *Pipe) retain(tags []xcodec.Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tag := range tags {
		if h, ok := p.held[tag]; ok {
			h.refs++
			continue
		}
		seg, ok := p.cache.Peek(tag)
		if !ok {
			continue // shouldn't happen: Encode only returns tags it just bound
		}
		p.held[tag] = &heldSegment{seg: seg.Retain(), refs: 1}
	}
}

func (p *Pipe) releaseHold(tag xcodec.Tag) {
	h, ok := p.held[tag]
	if !ok {
		return
	}
	h.refs--
	if h.refs <= 0 {
		h.seg.Release()
		delete(p.held, tag)
	}
}

// SendEOS signals the end of this pipe's outbound data.
func (p *Pipe) SendEOS() error {
	if err := p.session.OnSendEOS(); err != nil {
		return err
	}
	return WriteFrame(p.ch, EOS())
}

// HandleFrame processes one frame already read from the channel (typically
// via ReadFrame in a caller-owned read loop) and returns any reconstructed
// plaintext ready for delivery to a sink. It may also write reply frames
// (LEARN in answer to ASK, ASK in answer to an unresolved REF, EOS_ACK)
// directly to the channel.
func (p *Pipe) HandleFrame(f *Frame) ([]byte, error) {
	switch f.Op {
	case OpHello:
		// A second HELLO after the handshake is always a protocol error.
		return nil, p.session.OnRecvHello()

	case OpFrame:
		return p.handleData(f.Payload)

	case OpAsk:
		return nil, p.handleAsk(f.Tags)

	case OpLearn:
		return p.handleLearn(f.Segments)

	case OpAdvance:
		p.handleAdvance(f.Count)
		return nil, nil

	case OpEOS:
		if err := p.session.OnRecvEOS(); err != nil {
			return nil, err
		}
		if err := p.session.OnSendEOSAck(); err != nil {
			return nil, err
		}
		return nil, WriteFrame(p.ch, EOSAck())

	case OpEOSAck:
		return nil, p.session.OnRecvEOSAck()

	default:
		return nil, ErrUnknownOp
	}
}

func (p *Pipe) handleData(payload []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	input := append(p.pendingInput, payload...)
	p.pendingInput = nil

	out, status, err := p.dec.Decode(input)
	if err != nil {
		return nil, err
	}

	if len(status.UnknownTags) == 0 {
		p.pendingInput = input[status.Consumed:]
		if p.suspended {
			// shouldn't normally happen (LEARN resolves suspends
			// explicitly), but stay consistent if it does.
			delivered := append(p.pendingOutput, out...)
			p.pendingOutput = nil
			p.suspended = false
			return delivered, nil
		}
		return out, nil
	}

	// Suspend: buffer the decoded prefix, remember the unresolved tail,
	// and ask for whatever of the unknown tags isn't already in flight.
	p.suspended = true
	p.pendingOutput = append(p.pendingOutput, out...)
	p.pendingInput = input[status.Consumed:]

	var toAsk []xcodec.Tag
	for _, tag := range status.UnknownTags {
		if _, inFlight := p.pendingAsk[tag]; inFlight {
			continue
		}
		p.pendingAsk[tag] = struct{}{}
		toAsk = append(toAsk, tag)
	}
	if len(toAsk) > 0 {
		if err := WriteFrame(p.ch, Ask(toAsk)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (p *Pipe) handleLearn(segments [][]byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, body := range segments {
		tag := xcodec.HashSegment(body)
		if seg, hit := p.cache.Lookup(tag); hit {
			if !seg.Equal(body) {
				if err := p.cache.Replace(tag, xcodec.NewSegment(body)); err != nil {
					return nil, err
				}
			}
		} else {
			if err := p.cache.Enter(tag, xcodec.NewSegment(body)); err != nil {
				return nil, err
			}
		}
		delete(p.pendingAsk, tag)
	}

	if !p.suspended || len(p.pendingAsk) > 0 {
		return nil, nil
	}

	// All outstanding asks for this suspend are satisfied; resume.
	input := p.pendingInput
	p.pendingInput = nil
	out, status, err := p.dec.Decode(input)
	if err != nil {
		return nil, err
	}
	delivered := append(p.pendingOutput, out...)
	p.pendingOutput = nil
	p.pendingInput = input[status.Consumed:]

	if len(status.UnknownTags) == 0 {
		p.suspended = false
		return delivered, nil
	}

	// Spec.md's skim-sufficiency invariant says this shouldn't happen for
	// a correctly-answered ASK, but a peer could still send a partial
	// LEARN; keep suspending and ask for the remainder.
	p.pendingOutput = delivered
	var toAsk []xcodec.Tag
	for _, tag := range status.UnknownTags {
		if _, inFlight := p.pendingAsk[tag]; inFlight {
			continue
		}
		p.pendingAsk[tag] = struct{}{}
		toAsk = append(toAsk, tag)
	}
	if len(toAsk) > 0 {
		if err := WriteFrame(p.ch, Ask(toAsk)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// handleAsk answers an ASK for each tag from this pipe's own holds first
// (spec.md §4.5: a sender must hold every referenced segment indefinitely
// until ADVANCE releases it, so a future ASK can always be satisfied). A
// held tag can otherwise be LRU-evicted from the shared Cache's index by
// unrelated traffic while p.held still reports it held — falling through to
// p.cache.Peek alone would then wrongly fail the ASK. Only tags this pipe
// never held are looked up in the shared cache.
func (p *Pipe) handleAsk(tags []xcodec.Tag) error {
	p.mu.Lock()
	segments := make([][]byte, 0, len(tags))
	var missing []xcodec.Tag
	for _, tag := range tags {
		if h, ok := p.held[tag]; ok {
			segments = append(segments, append([]byte{}, h.seg.Bytes()...))
			continue
		}
		missing = append(missing, tag)
	}
	p.mu.Unlock()

	for _, tag := range missing {
		seg, ok := p.cache.Peek(tag)
		if !ok {
			return ErrUnknownTagAsk
		}
		segments = append(segments, append([]byte{}, seg.Bytes()...))
	}
	return WriteFrame(p.ch, Learn(segments))
}

func (p *Pipe) handleAdvance(count uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := int(count)
	if n > len(p.unacked) {
		n = len(p.unacked)
	}
	for i := 0; i < n; i++ {
		for _, tag := range p.unacked[i].tags {
			p.releaseHold(tag)
		}
	}
	p.unacked = p.unacked[n:]
}
