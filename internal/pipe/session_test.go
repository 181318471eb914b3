// SPDX-License-Identifier: GPL-2.0-only

package pipe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionHandshakeAndFullClose(t *testing.T) {
	s := NewSession()
	require.Equal(t, StateInit, s.State())

	require.NoError(t, s.OnSendHello())
	require.Equal(t, StateWaitHello, s.State())

	require.NoError(t, s.OnRecvHello())
	require.Equal(t, StateRunning, s.State())

	// We close first.
	require.NoError(t, s.OnSendEOS())
	require.Equal(t, StateHalfClosedTx, s.State())

	require.NoError(t, s.OnRecvEOS())
	require.Equal(t, StateClosing, s.State())

	require.NoError(t, s.OnSendEOSAck())
	require.Equal(t, StateClosing, s.State())

	require.NoError(t, s.OnRecvEOSAck())
	require.Equal(t, StateClosed, s.State())
}

func TestSessionPeerClosesFirst(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.OnSendHello())
	require.NoError(t, s.OnRecvHello())

	require.NoError(t, s.OnRecvEOS())
	require.Equal(t, StateHalfClosedRx, s.State())

	require.NoError(t, s.OnSendEOSAck())
	require.Equal(t, StateAwaitingTxClose, s.State())

	require.NoError(t, s.OnSendEOS())
	require.Equal(t, StateClosing, s.State())

	require.NoError(t, s.OnRecvEOSAck())
	require.Equal(t, StateClosed, s.State())
}

func TestSessionSecondHelloFails(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.OnSendHello())
	require.NoError(t, s.OnRecvHello())
	require.ErrorIs(t, s.OnRecvHello(), ErrHelloTwice)
	require.Equal(t, StateFailed, s.State())
}

func TestSessionEOSBeforeHelloFails(t *testing.T) {
	s := NewSession()
	require.ErrorIs(t, s.OnSendEOS(), ErrBadState)
}

func TestSessionFailIsTerminal(t *testing.T) {
	s := NewSession()
	s.Fail()
	require.Equal(t, StateFailed, s.State())
}
