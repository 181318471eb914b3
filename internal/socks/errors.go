// SPDX-License-Identifier: GPL-2.0-only

package socks

import "errors"

var (
	// ErrUnsupportedVersion is returned when the first byte of a request is
	// neither 0x04 nor 0x05.
	ErrUnsupportedVersion = errors.New("socks: unsupported version byte")
	// ErrUnsupportedCommand is returned for any command other than CONNECT.
	ErrUnsupportedCommand = errors.New("socks: unsupported command")
	// ErrUnsupportedAddrType is returned for a SOCKS5 address type outside {1,3,4}.
	ErrUnsupportedAddrType = errors.New("socks: unsupported address type")
	// ErrNoAcceptableAuthMethod is returned when a SOCKS5 client's method list
	// does not offer no-auth (0x00), the only method this front-end supports.
	ErrNoAcceptableAuthMethod = errors.New("socks: no acceptable auth method")
	// ErrMalformedRequest is returned for a structurally invalid request
	// (e.g. a non-zero SOCKS5 reserved byte, or a SOCKS4 user id that never
	// terminates within the length cap).
	ErrMalformedRequest = errors.New("socks: malformed request")
)
