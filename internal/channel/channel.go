// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §9 "polymorphic channels" design note, shaped like a thin
// net.Conn wrapper (cf. other_examples pascaldekloe-websocket conn.go)
// exposing only the small capability set the core actually needs.

// Package channel defines the abstract stream endpoint the codec and
// splice layers operate over, independent of any concrete transport.
package channel

import (
	"context"
	"io"
	"net"
)

// Channel is everything the core needs from a byte stream endpoint:
// read, write, close, and a half-close shutdown, plus naming for logging.
// Concrete implementations (OS sockets, user-space TCP stacks) are swapped
// in at construction; this package's net.Conn adapter is the one provided
// here.
type Channel interface {
	io.Reader
	io.Writer

	// Close tears down both directions immediately.
	Close() error
	// CloseRead half-closes the read side: further Read calls return io.EOF.
	CloseRead() error
	// CloseWrite half-closes the write side, signalling EOS to the peer.
	CloseWrite() error

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// halfCloser is satisfied by *net.TCPConn and *net.UnixConn.
type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

// connChannel adapts a net.Conn to Channel. If the underlying conn
// supports half-close (TCP, Unix), CloseRead/CloseWrite use it; otherwise
// they fall back to a full Close, which is the best a channel like a TLS
// stream can offer.
type connChannel struct {
	net.Conn
}

// New wraps conn as a Channel.
func New(conn net.Conn) Channel {
	return &connChannel{Conn: conn}
}

func (c *connChannel) CloseRead() error {
	if hc, ok := c.Conn.(halfCloser); ok {
		return hc.CloseRead()
	}
	return c.Conn.Close()
}

func (c *connChannel) CloseWrite() error {
	if hc, ok := c.Conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return c.Conn.Close()
}

// DialContext resolves and connects to addr over network, returning a
// Channel. This is the construction seam a deployment's Connector uses.
func DialContext(ctx context.Context, network, addr string) (Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}
