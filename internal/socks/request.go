// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (decompress.go's decompressCore exact-
// read-size cursor stepping: every field is read with a dedicated helper
// that either returns exactly the requested bytes or a sentinel error,
// generalized here from an in-memory byte-slice cursor to reads off a live
// channel.Channel).

// Package socks implements the exact-byte SOCKS4 and SOCKS5 CONNECT
// negotiation a front-end needs before handing a client connection to a
// connector: read the request, write the reply, return the destination.
package socks

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
)

const (
	version4 = 0x04
	version5 = 0x05

	socks4Connect = 0x01
	socks5Connect = 0x01

	noAuth = 0x00

	addrIPv4   = 0x01
	addrDomain = 0x03
	addrIPv6   = 0x04

	// maxUserIDLen bounds the SOCKS4 NUL-terminated user id field so a
	// client that never sends the terminator cannot hold a read loop open
	// indefinitely.
	maxUserIDLen = 255
)

// AddrType identifies how a Request's destination was encoded on the wire.
type AddrType byte

// Request is a parsed, not-yet-dialed CONNECT destination.
type Request struct {
	Version  byte
	AddrType AddrType
	IP       net.IP // set for AddrType IPv4/IPv6
	Name     string // set for AddrType Domain
	Port     uint16
}

// Host returns the string a net.Dialer can resolve: the literal IP for
// IPv4/IPv6 requests, or the raw hostname for domain requests.
func (r *Request) Host() string {
	if r.AddrType == addrDomain {
		return r.Name
	}
	return r.IP.String()
}

// Address returns "host:port", ready for net.Dialer.DialContext.
func (r *Request) Address() string {
	return net.JoinHostPort(r.Host(), strconv.Itoa(int(r.Port)))
}

// Negotiate drives the SOCKS front-end state machine to completion on ch:
// it reads exactly one CONNECT request (performing a SOCKS5 no-auth
// handshake first if required), writes the corresponding reply, and
// returns the parsed destination. Any protocol violation is returned as an
// error and the caller must close ch; Negotiate never closes it itself.
func Negotiate(ch io.ReadWriter) (*Request, error) {
	authenticated := false
	for {
		version, err := readByte(ch)
		if err != nil {
			return nil, err
		}
		switch version {
		case version4:
			return negotiateSocks4(ch)
		case version5:
			if !authenticated {
				if err := negotiateSocks5Auth(ch); err != nil {
					return nil, err
				}
				authenticated = true
				continue
			}
			return negotiateSocks5Command(ch)
		default:
			return nil, ErrUnsupportedVersion
		}
	}
}

func negotiateSocks4(ch io.ReadWriter) (*Request, error) {
	cmd, err := readByte(ch)
	if err != nil {
		return nil, err
	}
	if cmd != socks4Connect {
		return nil, ErrUnsupportedCommand
	}

	port, err := readU16BE(ch)
	if err != nil {
		return nil, err
	}

	ipBytes, err := readN(ch, net.IPv4len)
	if err != nil {
		return nil, err
	}

	if err := skipNULTerminated(ch, maxUserIDLen); err != nil {
		return nil, err
	}

	reply := []byte{0x00, 0x5a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, err := ch.Write(reply); err != nil {
		return nil, err
	}

	return &Request{Version: version4, AddrType: addrIPv4, IP: net.IP(ipBytes), Port: port}, nil
}

func negotiateSocks5Auth(ch io.ReadWriter) error {
	n, err := readByte(ch)
	if err != nil {
		return err
	}
	methods, err := readN(ch, int(n))
	if err != nil {
		return err
	}

	offered := false
	for _, m := range methods {
		if m == noAuth {
			offered = true
			break
		}
	}
	if !offered {
		return ErrNoAcceptableAuthMethod
	}

	_, err = ch.Write([]byte{version5, noAuth})
	return err
}

func negotiateSocks5Command(ch io.ReadWriter) (*Request, error) {
	cmd, err := readByte(ch)
	if err != nil {
		return nil, err
	}
	if cmd != socks5Connect {
		return nil, ErrUnsupportedCommand
	}

	reserved, err := readByte(ch)
	if err != nil {
		return nil, err
	}
	if reserved != 0x00 {
		return nil, ErrMalformedRequest
	}

	addrType, err := readByte(ch)
	if err != nil {
		return nil, err
	}

	req := &Request{Version: version5, AddrType: AddrType(addrType)}
	var addrField []byte // the exact bytes echoed back in the reply's address portion

	switch addrType {
	case addrIPv4:
		ip, err := readN(ch, net.IPv4len)
		if err != nil {
			return nil, err
		}
		req.IP = net.IP(ip)
		addrField = ip

	case addrDomain:
		nameLen, err := readByte(ch)
		if err != nil {
			return nil, err
		}
		name, err := readN(ch, int(nameLen))
		if err != nil {
			return nil, err
		}
		req.Name = string(name)
		addrField = append([]byte{nameLen}, name...)

	case addrIPv6:
		ip, err := readN(ch, net.IPv6len)
		if err != nil {
			return nil, err
		}
		req.IP = net.IP(ip)
		addrField = ip

	default:
		return nil, ErrUnsupportedAddrType
	}

	port, err := readU16BE(ch)
	if err != nil {
		return nil, err
	}
	req.Port = port

	reply := make([]byte, 0, 4+len(addrField)+2)
	reply = append(reply, version5, 0x00, 0x00, addrType)
	reply = append(reply, addrField...)
	var portBytes [2]byte
	binary.BigEndian.PutUint16(portBytes[:], port)
	reply = append(reply, portBytes[:]...)

	if _, err := ch.Write(reply); err != nil {
		return nil, err
	}
	return req, nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readU16BE(r io.Reader) (uint16, error) {
	b, err := readN(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// skipNULTerminated reads and discards bytes until a NUL, failing once max
// bytes have been read without one (SOCKS4's user id field has no length
// prefix).
func skipNULTerminated(r io.Reader, max int) error {
	for i := 0; i < max; i++ {
		b, err := readByte(r)
		if err != nil {
			return err
		}
		if b == 0x00 {
			return nil
		}
	}
	return ErrMalformedRequest
}
