// SPDX-License-Identifier: GPL-2.0-only

package pipe

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/DaEun2Lee/wanops/internal/channel"
	"github.com/DaEun2Lee/wanops/internal/xcodec"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newPipePair(t *testing.T) (*Pipe, *Pipe) {
	t.Helper()
	connA, connB := net.Pipe()

	cacheA, err := xcodec.NewCache(64)
	require.NoError(t, err)
	cacheB, err := xcodec.NewCache(64)
	require.NoError(t, err)

	var uuidA, uuidB [16]byte
	uuidA[0], uuidB[0] = 0xAA, 0xBB

	pA := NewPipe(channel.New(connA), cacheA, uuidA)
	pB := NewPipe(channel.New(connB), cacheB, uuidB)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return pA.Handshake(ctx) })
	g.Go(func() error { return pB.Handshake(ctx) })
	require.NoError(t, g.Wait())

	require.Equal(t, uuidB, pA.PeerUUID())
	require.Equal(t, uuidA, pB.PeerUUID())
	require.Equal(t, StateRunning, pA.Session().State())
	require.Equal(t, StateRunning, pB.Session().State())
	return pA, pB
}

// drive reads exactly one frame from the peer side and feeds it to h,
// returning whatever plaintext it yielded.
func drive(t *testing.T, ch channel.Channel, h *Pipe) []byte {
	t.Helper()
	f, err := ReadFrame(ch)
	require.NoError(t, err)
	out, err := h.HandleFrame(f)
	require.NoError(t, err)
	return out
}

func TestPipeHandshakeAndSimpleDataFlow(t *testing.T) {
	pA, pB := newPipePair(t)

	payload := []byte("no repeats here, just plain bytes")
	done := make(chan []byte, 1)
	go func() {
		f, err := ReadFrame(pB.ch)
		require.NoError(t, err)
		out, err := pB.HandleFrame(f)
		require.NoError(t, err)
		done <- out
	}()

	require.NoError(t, pA.Send(payload))
	got := <-done
	require.Equal(t, payload, got)
}

func TestPipeASKLearnInterlock(t *testing.T) {
	pA, pB := newPipePair(t)

	// A sends two copies of one segment. The wire carries EXTRACT then
	// BACKREF, which B resolves on its own, so B delivers both copies.
	seg := bytes.Repeat([]byte{0x42}, xcodec.SegmentLen)
	first := append(append([]byte{}, seg...), seg...) // two copies: EXTRACT then BACKREF/REF path
	require.NoError(t, pA.Send(first))

	recvErrs := make(chan error, 1)
	recvOut := make(chan []byte, 1)
	go func() {
		f, err := ReadFrame(pB.ch)
		if err != nil {
			recvErrs <- err
			return
		}
		out, err := pB.HandleFrame(f)
		recvErrs <- err
		recvOut <- out
	}()
	require.NoError(t, <-recvErrs)
	require.Equal(t, first, <-recvOut)

	// Exercise the ASK side of the interlock by handing B a hand-built REF
	// frame for a tag it has never seen, simulating what happens when two
	// pipes share a cache ID but start from different histories. No LEARN
	// is delivered here: the test checks that B suspends and sends ASK, and
	// that A, which never bound the tag, fails the ASK.
	unknownTag := xcodec.HashSegment(bytes.Repeat([]byte{0x99}, xcodec.SegmentLen))
	raw := []byte{xcodec.Magic, byte(xcodec.OpRef)}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(unknownTag))
	raw = append(raw, buf[:]...)

	handleDone := make(chan struct{})
	var out []byte
	var handleErr error
	go func() {
		defer close(handleDone)
		out, handleErr = pB.HandleFrame(DataFrame(raw))
	}()

	// B's HandleFrame blocks writing its ASK until A reads it off the wire.
	askFrame, err := ReadFrame(pA.ch)
	require.NoError(t, err)
	require.Equal(t, OpAsk, askFrame.Op)

	<-handleDone
	require.NoError(t, handleErr)
	require.Empty(t, out, "decode must suspend, not deliver, until LEARN arrives")

	_, err = pA.HandleFrame(askFrame)
	require.ErrorIs(t, err, ErrUnknownTagAsk, "A never bound this tag either, so it cannot answer the ASK")
}

func TestPipeAdvanceReleasesHolds(t *testing.T) {
	pA, pB := newPipePair(t)

	seg := bytes.Repeat([]byte{0x11}, xcodec.SegmentLen)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = drive(t, pB.ch, pB)
	}()
	require.NoError(t, pA.Send(seg))
	<-done

	require.Equal(t, 1, pA.UnackedCount())
	require.Equal(t, 1, pA.HeldCount())

	// B acknowledges: the receiver sends ADVANCE back to the sender.
	advanceDone := make(chan struct{})
	go func() {
		defer close(advanceDone)
		require.NoError(t, WriteFrame(pB.ch, Advance(1)))
	}()
	f, err := ReadFrame(pA.ch)
	require.NoError(t, err)
	_, err = pA.HandleFrame(f)
	require.NoError(t, err)
	<-advanceDone

	require.Equal(t, 0, pA.UnackedCount())
	require.Equal(t, 0, pA.HeldCount())
}

func TestHandleAskServesHeldSegmentEvictedFromCache(t *testing.T) {
	connA, connB := net.Pipe()

	// A's own cache has capacity 1: the second Send below forces the cache
	// to evict the first segment's tag from its own index while A is still
	// holding it pending ADVANCE.
	cacheA, err := xcodec.NewCache(1)
	require.NoError(t, err)
	cacheB, err := xcodec.NewCache(64)
	require.NoError(t, err)

	var uuidA, uuidB [16]byte
	uuidA[0], uuidB[0] = 0xAA, 0xBB
	pA := NewPipe(channel.New(connA), cacheA, uuidA)
	pB := NewPipe(channel.New(connB), cacheB, uuidB)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return pA.Handshake(ctx) })
	g.Go(func() error { return pB.Handshake(ctx) })
	require.NoError(t, g.Wait())

	segX := bytes.Repeat([]byte{0x01}, xcodec.SegmentLen)
	segY := bytes.Repeat([]byte{0x02}, xcodec.SegmentLen)
	tagX := xcodec.HashSegment(segX)

	done := make(chan struct{})
	go func() { defer close(done); _ = drive(t, pB.ch, pB) }()
	require.NoError(t, pA.Send(segX))
	<-done
	require.Equal(t, 1, pA.HeldCount())

	done2 := make(chan struct{})
	go func() { defer close(done2); _ = drive(t, pB.ch, pB) }()
	require.NoError(t, pA.Send(segY))
	<-done2
	require.Equal(t, 2, pA.HeldCount())

	_, stillCached := cacheA.Peek(tagX)
	require.False(t, stillCached, "expected tagX to be LRU-evicted from the capacity-1 cache")

	// B asks A for tagX; A must still answer from its own hold even though
	// the shared cache no longer has it.
	askDone := make(chan error, 1)
	go func() { askDone <- WriteFrame(pB.ch, Ask([]xcodec.Tag{tagX})) }()
	f, err := ReadFrame(pA.ch)
	require.NoError(t, err)
	require.Equal(t, OpAsk, f.Op)
	require.NoError(t, <-askDone)

	learnFrame := make(chan *Frame, 1)
	go func() {
		lf, lerr := ReadFrame(pB.ch)
		require.NoError(t, lerr)
		learnFrame <- lf
	}()
	_, err = pA.HandleFrame(f)
	require.NoError(t, err, "A must serve the ASK from its own hold even though the cache evicted the tag")
	require.Equal(t, [][]byte{segX}, (<-learnFrame).Segments)
}
