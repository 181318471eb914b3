// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (errors.go shape)

package pipe

import "errors"

// Sentinel errors for frame parsing and protocol sequencing.
var (
	// ErrShortFrame names a buffer that ends before a declared frame body.
	// ReadFrame does not return it; it passes on the reader's own error
	// (io.EOF or io.ErrUnexpectedEOF).
	ErrShortFrame = errors.New("pipe: short frame")
	// ErrUnknownOp is returned for a frame opcode byte outside the catalogue.
	ErrUnknownOp = errors.New("pipe: unknown frame opcode")
	// ErrNotHello is returned when the first frame of a direction is not HELLO.
	ErrNotHello = errors.New("pipe: first frame must be HELLO")
	// ErrHelloTwice is returned if HELLO appears after position 0.
	ErrHelloTwice = errors.New("pipe: HELLO must appear exactly once, at position 0")
	// ErrLearnTooLarge is returned when LEARN.count exceeds 65535.
	ErrLearnTooLarge = errors.New("pipe: LEARN count exceeds limit")
	// ErrFrameTooLarge is returned when FRAME.length exceeds the configured cap.
	ErrFrameTooLarge = errors.New("pipe: FRAME length exceeds limit")
	// ErrUnknownTagAsk is returned when an ASK requests a tag the responder cannot supply.
	ErrUnknownTagAsk = errors.New("pipe: ASK for unknown tag")
	// ErrBadState is returned when a frame arrives that the session state machine does not accept.
	ErrBadState = errors.New("pipe: frame not valid in current state")
	// ErrHelloPayload is returned when a HELLO frame's payload is malformed.
	ErrHelloPayload = errors.New("pipe: malformed HELLO payload")
)
