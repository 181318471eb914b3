// SPDX-License-Identifier: GPL-2.0-only

package connector

import (
	"time"

	"github.com/DaEun2Lee/wanops/internal/pipe"
	"go.uber.org/zap"
)

// Options configures how a Server's accepted connections are wired once a
// destination has been parsed off the client's SOCKS request.
type Options struct {
	// Upstream, when non-empty, overrides the SOCKS-parsed destination with
	// a fixed "host:port" — the shape a WAN-side proxy uses to always dial
	// its paired peer process rather than whatever address the original
	// client asked for.
	Upstream string

	// EncodeUpstream wires the dialed upstream leg through an XCodec pipe
	// (HELLO/FRAME/ASK/LEARN/ADVANCE/EOS); the accepted client leg stays
	// plain bytes. This is the "client-side" proxy role: a local SOCKS
	// front-end compresses outbound traffic before it crosses the WAN.
	//
	// EncodeUpstream and EncodeDownstream are mutually exclusive — a single
	// connector sits at one end of one codec pipe. Neither set means a
	// plain, uncompressed relay.
	EncodeUpstream bool

	// EncodeDownstream wires the accepted client leg through an XCodec pipe
	// instead. This is the "peer-side" proxy role: it receives a codec pipe
	// from the WAN and forwards decoded bytes on to a plain upstream.
	EncodeDownstream bool

	// Registry supplies the process-wide UUID→Cache lookup a codec leg
	// binds against (spec.md §3, §9). Required when either Encode* flag is
	// set.
	Registry *pipe.Registry

	// SelfUUID identifies this process's cache namespace in HELLO frames.
	// Required when either Encode* flag is set.
	SelfUUID [16]byte

	// DialTimeout bounds the upstream dial. Zero means no timeout beyond
	// the parent context's.
	DialTimeout time.Duration

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
