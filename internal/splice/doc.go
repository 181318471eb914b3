// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (none directly; the pipeline shape is
// generalized from VariousForks-dedup/writer.go's goroutine-per-stage design,
// read→hash→write, here collapsed to read→codec→write per direction) and
// golang.org/x/sync/errgroup's cancel-propagates-to-siblings semantics.

// Package splice wires two channel.Channel endpoints together, optionally
// passing the wire leg's traffic, in both directions, through a pipe.Pipe for the content-defined
// dedup codec. It owns no protocol knowledge of its own: it is a bidirectional
// byte pump with backpressure and coordinated half-close.
package splice
