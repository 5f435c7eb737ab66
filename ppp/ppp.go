// Package ppp implements the PPP link-layer encapsulator and
// demultiplexer: protocol-field compression, HDLC
// address/control omission (ACFC), MRU enforcement and dispatch by
// protocol number.
package ppp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Protocol numbers this stack understands.
const (
	ProtoLCP    = 0xc021
	ProtoPAP    = 0xc023
	ProtoIPCP   = 0x8021
	ProtoIPv6CP = 0x8057
	ProtoIPv4   = 0x0021
	ProtoIPv6   = 0x0057
)

const (
	hdlcAddress = 0xff
	hdlcControl = 0x03
)

// ErrTooLong is returned when an outbound payload would exceed the
// peer's advertised MRU.
var ErrTooLong = errors.New("ppp: payload exceeds peer MRU")

// ErrBadPacket is returned for a malformed inbound HDLC payload:
// a non-FF/03 address/control pair, or too few bytes to hold a
// protocol field.
var ErrBadPacket = errors.New("ppp: malformed packet")

// Encap is the L2 encapsulator/demultiplexer for one interface. It is
// driven by the worker event loop (package iface); it holds no
// concurrency primitives of its own.
type Encap struct {
	// PFC is true once Protocol-Field-Compression has been negotiated:
	// outbound protocol numbers <0x100 are sent as a single byte.
	PFC bool
	// ACFC is true once Address-and-Control-Field-Compression has been
	// negotiated: address/control are omitted entirely on send.
	ACFC bool
	// PeerMRU is the MRU the peer has told us to respect on send.
	PeerMRU int
	// LocalMRU is the MRU we enforce on receive.
	LocalMRU int
}

// New returns an Encap with RFC 1661 defaults (no compression, 1500
// byte MRU both ways).
func New() *Encap {
	return &Encap{PeerMRU: 1500, LocalMRU: 1500}
}

// protocolFieldLen returns how many bytes the protocol field takes on
// the wire for proto, given the current PFC setting.
func (e *Encap) protocolFieldLen(proto uint16) int {
	if e.PFC && proto < 0x100 {
		return 1
	}
	return 2
}

// Send builds the HDLC chunk list (address/control if not ACFC'd, the
// protocol field, then payload) ready to hand to hdlc.Framer.Frame.
// It returns ErrTooLong without touching the framer if the resulting
// PPP packet (protocol field + payload) would exceed PeerMRU.
func (e *Encap) Send(proto uint16, payload []byte) ([][]byte, error) {
	protoLen := e.protocolFieldLen(proto)
	if protoLen+len(payload) > e.PeerMRU {
		return nil, fmt.Errorf("%w: %d bytes, MRU %d", ErrTooLong, protoLen+len(payload), e.PeerMRU)
	}

	var protoField []byte
	if protoLen == 1 {
		protoField = []byte{byte(proto)}
	} else {
		protoField = []byte{byte(proto >> 8), byte(proto)}
	}

	if e.ACFC {
		return [][]byte{protoField, payload}, nil
	}
	return [][]byte{{hdlcAddress, hdlcControl}, protoField, payload}, nil
}

// Recv strips address/control (if present) and the protocol field
// from a deframed HDLC payload, returning the protocol number and the
// remaining payload. It enforces LocalMRU and validates an address/
// control pair if one is present.
func (e *Encap) Recv(frame []byte) (proto uint16, payload []byte, err error) {
	if !e.ACFC {
		if len(frame) < 2 || frame[0] != hdlcAddress || frame[1] != hdlcControl {
			return 0, nil, fmt.Errorf("%w: bad address/control", ErrBadPacket)
		}
		frame = frame[2:]
	} else if len(frame) >= 2 && frame[0] == hdlcAddress && frame[1] == hdlcControl {
		// Peers may still send the uncompressed address/control pair
		// even after ACFC is negotiated; tolerate it.
		frame = frame[2:]
	}

	if len(frame) < 1 {
		return 0, nil, fmt.Errorf("%w: empty after address/control", ErrBadPacket)
	}

	if frame[0]&0x01 == 1 {
		proto = uint16(frame[0])
		frame = frame[1:]
	} else {
		if len(frame) < 2 {
			return 0, nil, fmt.Errorf("%w: truncated protocol field", ErrBadPacket)
		}
		proto = binary.BigEndian.Uint16(frame[:2])
		frame = frame[2:]
	}

	if len(frame) > e.LocalMRU {
		return 0, nil, fmt.Errorf("%w: %d bytes exceeds local MRU %d", ErrBadPacket, len(frame), e.LocalMRU)
	}

	return proto, frame, nil
}

// Target names the component an inbound packet should be routed to
// (the protocol dispatch table).
type Target int

const (
	// TargetUnknown means protocol didn't match any known number; the
	// caller should emit a Protocol-Reject via LCP.
	TargetUnknown Target = iota
	TargetLCP
	TargetPAP
	TargetIPCP
	TargetIPv6CP
	TargetNetworkIPv4
	TargetNetworkIPv6
)

// RouteByProtocol maps a protocol number to its Target.
func RouteByProtocol(proto uint16) Target {
	switch proto {
	case ProtoLCP:
		return TargetLCP
	case ProtoPAP:
		return TargetPAP
	case ProtoIPCP:
		return TargetIPCP
	case ProtoIPv6CP:
		return TargetIPv6CP
	case ProtoIPv4:
		return TargetNetworkIPv4
	case ProtoIPv6:
		return TargetNetworkIPv6
	default:
		return TargetUnknown
	}
}
