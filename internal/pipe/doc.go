// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (package shape)

/*
Package pipe implements the full-duplex, framed inter-proxy protocol that
carries XCodec-encoded stream data between two wanops proxies: HELLO
handshake, ASK/LEARN segment negotiation, FRAME delivery, ADVANCE
acknowledgement, and the EOS/EOS_ACK half-close sequence.

A Pipe wraps one internal/channel.Channel and drives one internal/xcodec
Encoder on the outbound side and one Decoder on the inbound side, resolving
unknown tags against a shared Cache looked up by UUID in a process-wide
Registry.
*/
package pipe
