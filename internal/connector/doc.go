// SPDX-License-Identifier: GPL-2.0-only

// Package connector provides the accept loop and per-connection wiring
// (SOCKS negotiate, upstream dial, optional XCodec pipe, Splice) that turns
// a net.Listener into a running wanops proxy endpoint.
package connector
