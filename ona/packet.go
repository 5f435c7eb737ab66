package ona

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBadPacket is returned when a control-protocol packet's length
// field disagrees with the bytes actually available, or its option
// list overruns.
var ErrBadPacket = errors.New("ona: malformed control packet")

// Packet is a control-protocol packet: a Code/Id/Length header plus a
// body that is either a TLV option list (Configure-*) or an opaque
// payload (Terminate-*, Code-Reject, Echo-*).
type Packet struct {
	Code Code
	ID   byte
	Data []byte
}

const packetHeaderLen = 4

// ParsePacket decodes a control-protocol packet, validating that the
// length field matches the bytes available. Trailing padding beyond
// the declared length is discarded, per HDLC/PPP practice.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < packetHeaderLen {
		return Packet{}, fmt.Errorf("%w: short header", ErrBadPacket)
	}
	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length < packetHeaderLen || length > len(b) {
		return Packet{}, fmt.Errorf("%w: length %d disagrees with %d available bytes", ErrBadPacket, length, len(b))
	}
	return Packet{
		Code: Code(b[0]),
		ID:   b[1],
		Data: append([]byte(nil), b[packetHeaderLen:length]...),
	}, nil
}

// Bytes serializes p to its wire form.
func (p Packet) Bytes() []byte {
	out := make([]byte, packetHeaderLen+len(p.Data))
	out[0] = byte(p.Code)
	out[1] = p.ID
	binary.BigEndian.PutUint16(out[2:4], uint16(packetHeaderLen+len(p.Data)))
	copy(out[packetHeaderLen:], p.Data)
	return out
}

// isCatastrophic reports whether a rejected code falls in the range
// RFC 1661 treats as fatal to negotiation (Configure-Request through
// Terminate-Ack) versus merely informational (Echo/Discard).
func isCatastrophic(c Code) bool {
	return c >= CodeConfigureRequest && c <= CodeTerminateAck
}
