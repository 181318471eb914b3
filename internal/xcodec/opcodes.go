// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (format_constants.go's marker-constant
// shape), generalized from LZO1X's M1-M4 offset-class markers to XCodec's
// EXTRACT/REF/BACKREF/ESCAPE opcode set.

package xcodec

// Magic is the sentinel byte that introduces every codec opcode in the
// encoded stream. A raw input byte equal to Magic is escaped as
// Magic, OpEscape rather than emitted literally (spec.md §4.3 rule 4).
const Magic = 0xFE

// Opcode identifies what follows a Magic byte in the encoded stream.
type Opcode byte

const (
	// OpExtract introduces an inlined SegmentLen-byte segment.
	OpExtract Opcode = 0x01
	// OpRef introduces a u64 big-endian tag referencing a cached segment.
	OpRef Opcode = 0x02
	// OpBackref introduces a u8 sliding-window index.
	OpBackref Opcode = 0x03
	// OpEscape stands for a literal Magic byte in the original input.
	OpEscape Opcode = 0x04
)

func (op Opcode) String() string {
	switch op {
	case OpExtract:
		return "EXTRACT"
	case OpRef:
		return "REF"
	case OpBackref:
		return "BACKREF"
	case OpEscape:
		return "ESCAPE"
	default:
		return "UNKNOWN"
	}
}
