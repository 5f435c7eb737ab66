package ppp

import (
	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/hdlc"
)

// Writer is the byte-oriented transport collaborator a Link writes
// framed bytes to (the "byte transport... write(bytes)" collaborator).
type Writer interface {
	Write(p []byte) (int, error)
}

// Link composes the L2 encapsulator with the L1 framer and a
// transport writer, giving every control/data protocol above it one
// call to go from (protocol number, payload) to bytes on the wire.
type Link struct {
	Encap  *Encap
	Framer *hdlc.Framer
	Writer Writer
	Clock  clock.Clock
}

// NewLink builds a Link with default encap/framer settings.
func NewLink(w Writer, c clock.Clock) *Link {
	return &Link{
		Encap:  New(),
		Framer: hdlc.New(),
		Writer: w,
		Clock:  c,
	}
}

// Send encapsulates payload for proto, frames it and writes the
// result to the transport.
func (l *Link) Send(proto uint16, payload []byte) error {
	chunks, err := l.Encap.Send(proto, payload)
	if err != nil {
		return err
	}
	wire := l.Framer.Frame(l.Clock.NowUS(), chunks...)
	_, err = l.Writer.Write(wire)
	return err
}
