// SPDX-License-Identifier: GPL-2.0-only
// Source: other_examples Generativebots-ocx-backend-go-svc internal/protocol
// frame.go (Marshal/Unmarshal/ReadFrame/WriteFrame over encoding/binary,
// CRC-16 header check), adapted from a fixed 110-byte envelope to the
// per-opcode self-delimited framing spec.md §4.5/§6 requires.

package pipe

import (
	"encoding/binary"
	"io"

	"github.com/DaEun2Lee/wanops/internal/xcodec"
)

// Op identifies a pipe-level frame. These are distinct from, and framed
// independently of, the xcodec.Opcode stream they may carry as FRAME
// payload.
type Op byte

const (
	OpAdvance Op = 0x01
	OpFrame   Op = 0x02
	OpAsk     Op = 0xf0
	OpLearn   Op = 0xf1
	OpEOSAck  Op = 0xfb
	OpEOS     Op = 0xfc
	OpHello   Op = 0xff
)

func (op Op) String() string {
	switch op {
	case OpAdvance:
		return "ADVANCE"
	case OpFrame:
		return "FRAME"
	case OpAsk:
		return "ASK"
	case OpLearn:
		return "LEARN"
	case OpEOSAck:
		return "EOS_ACK"
	case OpEOS:
		return "EOS"
	case OpHello:
		return "HELLO"
	default:
		return "UNKNOWN"
	}
}

// MaxLearnCount is the wire limit on LEARN.count (spec.md §4.5).
const MaxLearnCount = 65535

// MaxFrameLength is the recommended cap on FRAME.length (spec.md §4.5).
// Implementers may enforce a lower cap; wanops enforces exactly this one.
const MaxFrameLength = 1 << 24

// helloPayloadLen is len(uuid) + len(flags) + len(crc16).
const helloPayloadLen = 16 + 1 + 2

// Frame is the decoded form of one pipe-level wire frame. Only the fields
// relevant to Op are populated; this mirrors spec.md §9's "tagged variant"
// note — the wire form (Marshal) is canonical, this struct is a decoded
// convenience.
type Frame struct {
	Op Op

	// HELLO
	HelloUUID  [16]byte
	HelloFlags byte

	// LEARN: raw SegmentLen-byte bodies, receiver hashes them itself.
	Segments [][]byte

	// ASK
	Tags []xcodec.Tag

	// FRAME
	Payload []byte

	// ADVANCE
	Count uint32
}

// Hello builds a HELLO frame for uuid with no flags set.
func Hello(uuid [16]byte) *Frame {
	return &Frame{Op: OpHello, HelloUUID: uuid}
}

// Learn builds a LEARN frame from raw segment bodies.
func Learn(segments [][]byte) *Frame {
	return &Frame{Op: OpLearn, Segments: segments}
}

// Ask builds an ASK frame requesting tags.
func Ask(tags []xcodec.Tag) *Frame {
	return &Frame{Op: OpAsk, Tags: tags}
}

// DataFrame builds a FRAME carrying an encoded payload chunk.
func DataFrame(payload []byte) *Frame {
	return &Frame{Op: OpFrame, Payload: payload}
}

// Advance builds an ADVANCE frame acknowledging count outstanding FRAMEs.
func Advance(count uint32) *Frame {
	return &Frame{Op: OpAdvance, Count: count}
}

// EOS builds an end-of-stream frame.
func EOS() *Frame { return &Frame{Op: OpEOS} }

// EOSAck builds an end-of-stream acknowledgement frame.
func EOSAck() *Frame { return &Frame{Op: OpEOSAck} }

// Marshal encodes f into its wire form, including the leading Op byte.
func (f *Frame) Marshal() ([]byte, error) {
	switch f.Op {
	case OpHello:
		body := make([]byte, helloPayloadLen)
		copy(body[0:16], f.HelloUUID[:])
		body[16] = f.HelloFlags
		binary.BigEndian.PutUint16(body[17:19], crc16(body[0:17]))
		out := make([]byte, 0, 2+len(body))
		out = append(out, byte(OpHello), byte(len(body)))
		return append(out, body...), nil

	case OpLearn:
		if len(f.Segments) > MaxLearnCount {
			return nil, ErrLearnTooLarge
		}
		out := make([]byte, 0, 3+len(f.Segments)*xcodec.SegmentLen)
		out = append(out, byte(OpLearn))
		var cnt [2]byte
		binary.BigEndian.PutUint16(cnt[:], uint16(len(f.Segments)))
		out = append(out, cnt[:]...)
		for _, seg := range f.Segments {
			if len(seg) != xcodec.SegmentLen {
				return nil, ErrHelloPayload
			}
			out = append(out, seg...)
		}
		return out, nil

	case OpAsk:
		if len(f.Tags) > MaxLearnCount {
			return nil, ErrLearnTooLarge
		}
		out := make([]byte, 0, 3+len(f.Tags)*8)
		out = append(out, byte(OpAsk))
		var cnt [2]byte
		binary.BigEndian.PutUint16(cnt[:], uint16(len(f.Tags)))
		out = append(out, cnt[:]...)
		var buf [8]byte
		for _, tag := range f.Tags {
			binary.BigEndian.PutUint64(buf[:], uint64(tag))
			out = append(out, buf[:]...)
		}
		return out, nil

	case OpFrame:
		if len(f.Payload) > MaxFrameLength {
			return nil, ErrFrameTooLarge
		}
		out := make([]byte, 0, 5+len(f.Payload))
		out = append(out, byte(OpFrame))
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(f.Payload)))
		out = append(out, length[:]...)
		return append(out, f.Payload...), nil

	case OpAdvance:
		out := make([]byte, 5)
		out[0] = byte(OpAdvance)
		binary.BigEndian.PutUint32(out[1:5], f.Count)
		return out, nil

	case OpEOS:
		return []byte{byte(OpEOS)}, nil

	case OpEOSAck:
		return []byte{byte(OpEOSAck)}, nil

	default:
		return nil, ErrUnknownOp
	}
}

// WriteFrame marshals f and writes it to w.
func WriteFrame(w io.Writer, f *Frame) error {
	b, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadFrame reads exactly one frame from r, blocking until the header and
// body are available or r returns an error (including io.EOF on a clean
// close between frames).
func ReadFrame(r io.Reader) (*Frame, error) {
	var opByte [1]byte
	if _, err := io.ReadFull(r, opByte[:]); err != nil {
		return nil, err
	}
	op := Op(opByte[0])

	switch op {
	case OpHello:
		var lenByte [1]byte
		if _, err := io.ReadFull(r, lenByte[:]); err != nil {
			return nil, err
		}
		if lenByte[0] != helloPayloadLen {
			return nil, ErrHelloPayload
		}
		body := make([]byte, lenByte[0])
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		if binary.BigEndian.Uint16(body[17:19]) != crc16(body[0:17]) {
			return nil, ErrHelloPayload
		}
		var f Frame
		f.Op = OpHello
		copy(f.HelloUUID[:], body[0:16])
		f.HelloFlags = body[16]
		return &f, nil

	case OpLearn:
		count, err := readU16(r)
		if err != nil {
			return nil, err
		}
		if count > MaxLearnCount {
			return nil, ErrLearnTooLarge
		}
		segs := make([][]byte, count)
		for i := range segs {
			seg := make([]byte, xcodec.SegmentLen)
			if _, err := io.ReadFull(r, seg); err != nil {
				return nil, err
			}
			segs[i] = seg
		}
		return &Frame{Op: OpLearn, Segments: segs}, nil

	case OpAsk:
		count, err := readU16(r)
		if err != nil {
			return nil, err
		}
		if count > MaxLearnCount {
			return nil, ErrLearnTooLarge
		}
		tags := make([]xcodec.Tag, count)
		for i := range tags {
			v, err := readU64(r)
			if err != nil {
				return nil, err
			}
			tags[i] = xcodec.Tag(v)
		}
		return &Frame{Op: OpAsk, Tags: tags}, nil

	case OpFrame:
		length, err := readU32(r)
		if err != nil {
			return nil, err
		}
		if length > MaxFrameLength {
			return nil, ErrFrameTooLarge
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		return &Frame{Op: OpFrame, Payload: payload}, nil

	case OpAdvance:
		count, err := readU32(r)
		if err != nil {
			return nil, err
		}
		return &Frame{Op: OpAdvance, Count: count}, nil

	case OpEOS:
		return &Frame{Op: OpEOS}, nil

	case OpEOSAck:
		return &Frame{Op: OpEOSAck}, nil

	default:
		return nil, ErrUnknownOp
	}
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// crc16 computes CRC-16/CCITT-FALSE over data, matching the ocx-backend
// frame header's checksum shape. HELLO is the only frame that carries one,
// protecting the sender's cache UUID against bit-flip corruption that
// self-delimited length fields alone wouldn't catch. The receiving Pipe
// records that UUID as PeerUUID; cache lookup does not use it, since the
// Registry is keyed by the local SelfUUID.
func crc16(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
