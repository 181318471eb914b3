// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §9's recorded Open Question decision ("the original leaks
// a socket on listen-bind failure; the rewrite must instead close it") —
// generalized here to any configuration error discovered after a successful
// bind, not just the bind call itself.

package connector

import (
	"errors"
	"net"
)

// ErrCodecRoleNeedsRegistry is returned by Listen when EncodeUpstream or
// EncodeDownstream is set without a Registry to bind cache lookups against.
var ErrCodecRoleNeedsRegistry = errors.New("connector: EncodeUpstream/EncodeDownstream requires a Registry")

// ErrExclusiveCodecRoles is returned when both Encode flags are set; a
// connector sits at exactly one end of at most one codec pipe.
var ErrExclusiveCodecRoles = errors.New("connector: EncodeUpstream and EncodeDownstream are mutually exclusive")

// Listen binds network/addr and validates opts before returning a Server.
// Any failure found after the bind succeeds closes the listener rather than
// leaking it.
func Listen(network, addr string, opts Options) (*Server, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}

	if opts.EncodeUpstream && opts.EncodeDownstream {
		_ = ln.Close()
		return nil, ErrExclusiveCodecRoles
	}
	if (opts.EncodeUpstream || opts.EncodeDownstream) && opts.Registry == nil {
		_ = ln.Close()
		return nil, ErrCodecRoleNeedsRegistry
	}
	if opts.EncodeDownstream && opts.Upstream == "" {
		_ = ln.Close()
		return nil, ErrMissingUpstream
	}

	return NewServer(ln, opts), nil
}
