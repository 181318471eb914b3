// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.8 ("the connector owns the destination resolve + dial
// + wiring") and §2's control-flow line connecting SOCKS, the codec pipe(s),
// and Splice for one accepted connection.

package connector

import (
	"context"
	"errors"
	"net"

	"github.com/DaEun2Lee/wanops/internal/channel"
	"github.com/DaEun2Lee/wanops/internal/pipe"
	"github.com/DaEun2Lee/wanops/internal/socks"
	"github.com/DaEun2Lee/wanops/internal/splice"
)

// ErrMissingUpstream is returned when EncodeDownstream is set but no fixed
// Upstream target was configured — that role never runs SOCKS, so it has no
// other way to learn its destination.
var ErrMissingUpstream = errors.New("connector: EncodeDownstream requires a fixed Upstream target")

// handleConn resolves, dials, and splices one accepted connection per opts.
// It owns conn for the duration of the call. The caller (Server.Serve)
// closes conn after handleConn returns; when a Splice runs, its teardown
// closes conn as well.
func handleConn(ctx context.Context, conn net.Conn, opts Options) error {
	if opts.EncodeDownstream {
		return handlePeerSide(ctx, conn, opts)
	}
	return handleClientSide(ctx, conn, opts)
}

// handlePeerSide treats the accepted connection itself as the codec wire
// (its first frame is HELLO) and relays decoded bytes to a fixed plain
// upstream. This is the receiving end of a WAN link.
func handlePeerSide(ctx context.Context, conn net.Conn, opts Options) error {
	if opts.Upstream == "" {
		return ErrMissingUpstream
	}

	wireCh := channel.New(conn)
	upstreamCh, err := dial(ctx, opts, opts.Upstream)
	if err != nil {
		return err
	}
	defer upstreamCh.Close()

	p, err := newCodecPipe(ctx, wireCh, opts)
	if err != nil {
		return err
	}

	return splice.New(wireCh, upstreamCh, p).Run(ctx)
}

// handleClientSide runs the SOCKS front-end to learn the destination, dials
// it (or opts.Upstream, when pinned), and relays — optionally compressing
// the upstream leg. This is the sending end of a WAN link, or a plain relay
// when neither Encode flag is set.
func handleClientSide(ctx context.Context, conn net.Conn, opts Options) error {
	clientCh := channel.New(conn)

	req, err := socks.Negotiate(clientCh)
	if err != nil {
		return err
	}

	target := req.Address()
	if opts.Upstream != "" {
		target = opts.Upstream
	}

	upstreamCh, err := dial(ctx, opts, target)
	if err != nil {
		return err
	}
	defer upstreamCh.Close()

	if !opts.EncodeUpstream {
		return splice.New(upstreamCh, clientCh, nil).Run(ctx)
	}

	p, err := newCodecPipe(ctx, upstreamCh, opts)
	if err != nil {
		return err
	}
	return splice.New(upstreamCh, clientCh, p).Run(ctx)
}

func dial(ctx context.Context, opts Options, target string) (channel.Channel, error) {
	dialCtx := ctx
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	return channel.DialContext(dialCtx, "tcp", target)
}

// newCodecPipe looks up this process's cache and completes the HELLO
// handshake on wireCh, the leg that will carry the codec protocol.
func newCodecPipe(ctx context.Context, wireCh channel.Channel, opts Options) (*pipe.Pipe, error) {
	cache, err := opts.Registry.Lookup(opts.SelfUUID)
	if err != nil {
		return nil, err
	}
	p := pipe.NewPipe(wireCh, cache, opts.SelfUUID)
	if err := p.Handshake(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
