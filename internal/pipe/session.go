// SPDX-License-Identifier: GPL-2.0-only
// Source: other_examples pricillapb-contract p2p/rlpx/framing.go
// (handshake-then-stream session shape), generalized to spec.md §4.5's
// explicit per-side state diagram.

package pipe

import "sync"

// State names one node of the per-pipe-direction state machine of
// spec.md §4.5.
type State int

const (
	StateInit State = iota
	StateWaitHello
	StateRunning
	StateHalfClosedTx    // we sent EOS, awaiting the peer's
	StateHalfClosedRx    // peer sent EOS, we haven't sent ours
	StateAwaitingTxClose // we've ack'd the peer's EOS, awaiting our own close
	StateClosing         // both sides have sent EOS, awaiting the ack exchange
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWaitHello:
		return "WAIT_HELLO"
	case StateRunning:
		return "RUNNING"
	case StateHalfClosedTx:
		return "HALF_CLOSED_TX"
	case StateHalfClosedRx:
		return "HALF_CLOSED_RX"
	case StateAwaitingTxClose:
		return "AWAITING_TX_CLOSE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Session tracks one pipe's handshake and half-close progress. It holds
// no I/O of its own; Pipe drives it as frames are sent and received.
type Session struct {
	mu         sync.Mutex
	state      State
	ackSent    bool
	ackRecv    bool
	helloCount int
}

// NewSession returns a Session in StateInit.
func NewSession() *Session {
	return &Session{state: StateInit}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fail transitions unconditionally to StateFailed; double-fail is a no-op.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
}

func (s *Session) OnSendHello() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInit {
		return ErrBadState
	}
	s.state = StateWaitHello
	return nil
}

// OnRecvHello validates that HELLO appears exactly once, at position 0
// (spec.md §4.5), and advances to StateRunning.
func (s *Session) OnRecvHello() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.helloCount++
	if s.helloCount > 1 {
		s.state = StateFailed
		return ErrHelloTwice
	}
	if s.state != StateWaitHello {
		s.state = StateFailed
		return ErrNotHello
	}
	s.state = StateRunning
	return nil
}

func (s *Session) OnSendEOS() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		s.state = StateHalfClosedTx
	case StateAwaitingTxClose:
		s.state = StateClosing
	default:
		return ErrBadState
	}
	return nil
}

func (s *Session) OnRecvEOS() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		s.state = StateHalfClosedRx
	case StateHalfClosedTx:
		s.state = StateClosing
	default:
		return ErrBadState
	}
	return nil
}

func (s *Session) OnSendEOSAck() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateHalfClosedRx:
		s.ackSent = true
		s.state = StateAwaitingTxClose
	case StateClosing:
		s.ackSent = true
		if s.ackRecv {
			s.state = StateClosed
		}
	default:
		return ErrBadState
	}
	return nil
}

func (s *Session) OnRecvEOSAck() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosing {
		return ErrBadState
	}
	s.ackRecv = true
	if s.ackSent {
		s.state = StateClosed
	}
	return nil
}
