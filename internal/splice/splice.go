// SPDX-License-Identifier: GPL-2.0-only

package splice

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/DaEun2Lee/wanops/internal/channel"
	"github.com/DaEun2Lee/wanops/internal/pipe"
	"golang.org/x/sync/errgroup"
)

const bufSize = 32 * 1024

// isShutdown reports whether err is the expected consequence of this splice
// closing its own endpoint (via shutdown), as opposed to a genuine transport
// failure. Both legs are torn down together on any termination, so the pump
// that didn't trigger the shutdown always observes one of these.
func isShutdown(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed)
}

// Splice pumps bytes between a wire-side channel and a plain-side channel.
// When codec is non-nil, wire carries the framed dedup protocol (HELLO/
// FRAME/ASK/LEARN/ADVANCE/EOS) and codec decodes/encodes across it; plain
// carries raw application bytes. When codec is nil, Splice degenerates to a
// direct byte pump between wire and plain.
type Splice struct {
	wire  channel.Channel
	plain channel.Channel
	codec *pipe.Pipe

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New returns a Splice. If codec is non-nil it must already be wired to the
// same underlying connection as wire (i.e. constructed with
// pipe.NewPipe(wire, ...)); Splice reads frames off wire itself to drive
// codec.HandleFrame and relies on codec.Send to write outbound frames.
func New(wire, plain channel.Channel, codec *pipe.Pipe) *Splice {
	return &Splice{wire: wire, plain: plain, codec: codec}
}

// Run blocks until both directions have stopped — because one side closed,
// because of an unrecoverable error, or because ctx was cancelled (or Cancel
// was called) — then tears down both legs and returns the first error seen
// (nil on a clean close). It is safe to call Cancel concurrently with Run.
func (s *Splice) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	var g errgroup.Group
	// A pump that fails closes both legs, so its sibling (possibly blocked
	// in Read) unwinds too instead of running on alone.
	goPump := func(pump func() error) {
		g.Go(func() error {
			err := pump()
			if err != nil {
				s.shutdown()
			}
			return err
		})
	}
	if s.codec != nil {
		goPump(s.pumpWireToPlain)
		goPump(s.pumpPlainToWire)
	} else {
		goPump(func() error { return s.pumpRaw(s.wire, s.plain) })
		goPump(func() error { return s.pumpRaw(s.plain, s.wire) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-runCtx.Done():
		// Either an explicit Cancel or the caller's ctx ended first; force
		// both legs closed so the pumps (blocked in Read) unwind, then wait
		// for them so we never report completion before cleanup finishes.
		s.shutdown()
		<-done
		return runCtx.Err()
	case err := <-done:
		s.shutdown()
		return err
	}
}

// Cancel aborts an in-progress Run, forcing both legs closed. Safe to call
// before Run returns; a no-op once Run has already returned.
func (s *Splice) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Splice) shutdown() {
	_ = s.wire.Close()
	_ = s.plain.Close()
}

// pumpRaw copies bytes from src to dst until EOF, then half-closes dst for
// writing. Used when no codec sits between the two legs.
func (s *Splice) pumpRaw(src, dst channel.Channel) error {
	buf := make([]byte, bufSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				_ = dst.CloseWrite()
				return nil
			}
			if isShutdown(rerr) {
				return nil
			}
			return rerr
		}
	}
}

// pumpWireToPlain reads frames off the wire, decodes them through codec, and
// forwards any reconstructed plaintext to plain. An inbound EOS half-closes
// plain for writing but does not itself stop the read loop, since the peer
// may still send ASK/LEARN/ADVANCE/EOS_ACK after closing its data direction.
func (s *Splice) pumpWireToPlain() error {
	for {
		f, err := pipe.ReadFrame(s.wire)
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = s.plain.CloseWrite()
				return nil
			}
			if isShutdown(err) {
				return nil
			}
			return err
		}

		wasEOS := f.Op == pipe.OpEOS
		out, err := s.codec.HandleFrame(f)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			if _, werr := s.plain.Write(out); werr != nil {
				return werr
			}
		}
		if wasEOS {
			_ = s.plain.CloseWrite()
		}
	}
}

// pumpPlainToWire reads application bytes off plain and encodes them through
// codec onto the wire. EOF on plain triggers an outbound EOS.
func (s *Splice) pumpPlainToWire() error {
	buf := make([]byte, bufSize)
	for {
		n, rerr := s.plain.Read(buf)
		if n > 0 {
			if err := s.codec.Send(buf[:n]); err != nil {
				return err
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return s.codec.SendEOS()
			}
			if isShutdown(rerr) {
				return nil
			}
			return rerr
		}
	}
}
