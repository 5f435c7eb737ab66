// Package hdlc implements the HDLC-like byte-stuffed framing codec
// described in the link spec: byte stuffing/unstuffing under a
// configurable ACCM, FCS-16 computation, flag detection and frame
// assembly.
//
// Framer itself is a pure, single-threaded state machine (so it is
// directly property-testable). The
// single-producer/single-consumer handoff from an ISR-equivalent byte
// source to the worker that drives Framer is RXRing: the
// transport callback only ever pushes raw bytes (zero allocation, no
// FSM calls), and the worker pops them and calls
// PushByte, which does the actual unstuffing, FCS checking and frame
// assembly.
package hdlc

import (
	"sync/atomic"
	"time"
)

const (
	flagByte byte = 0x7e
	escByte  byte = 0x7d
	escXOR   byte = 0x20

	// minFrameBytes is the fewest bytes (address+control+protocol+FCS,
	// unstuffed) a frame can legally carry between flags (invariant 3).
	minFrameBytes = 4

	// defaultIdleThreshold is the gap after which the next transmitted
	// frame gets a leading flag (tracked via "last_xmit_us").
	defaultIdleThreshold = 100 * time.Millisecond

	// MaxFrameLen bounds a single assembled frame; it exists purely to
	// keep a malformed/never-ending stream from growing memory
	// without bound and is well above any realistic PPP MRU.
	MaxFrameLen = 8192
)

// rxState is the deframer's current position within a frame, per the
// state table below.
type rxState int

const (
	rxIdle rxState = iota
	rxStart
	rxAddress
	rxControl
	rxData
)

// Stats are observability counters, bumped from whichever goroutine
// touches them (ISR-equivalent callback or worker), hence atomic.
// Grounded on the BertoldVdb-go-misc HDLC framer's atomic stats block.
type Stats struct {
	FramesReceivedOK     atomic.Uint64
	FramesReceivedBadFCS atomic.Uint64
	FramesReceivedShort  atomic.Uint64
	FramesSent           atomic.Uint64
	BytesSent            atomic.Uint64
	BytesReceived        atomic.Uint64
}

// Framer holds per-direction framer state for one link.
type Framer struct {
	TxAccm Accm
	RxAccm Accm

	IdleThreshold time.Duration
	lastXmitUS    uint64

	Stats Stats

	rxState rxState
	rxFCS   uint16
	rxEsc   bool
	rxBuf   []byte
}

// New returns a Framer with both ACCMs at their RFC 1661 default
// (escape everything below 0x20) and the default idle threshold.
func New() *Framer {
	return &Framer{
		TxAccm:        DefaultAccm,
		RxAccm:        DefaultAccm,
		IdleThreshold: defaultIdleThreshold,
	}
}

// ---- TX ----

// Frame byte-stuffs the concatenation of chunks (e.g. address, control
// and info — or just info, when the caller has omitted address/control
// under ACFC), appends the little-endian FCS-16 and wraps the result
// in flags, returning the bytes ready to hand to the transport. nowUS
// is used to decide whether a leading flag is needed (idle-gap rule)
// and to update lastXmitUS. Taking an iovec-style chunk list rather
// than a single concatenated buffer lets L2 hand over address,
// protocol and payload without copying them together first.
func (f *Framer) Frame(nowUS uint64, chunks ...[]byte) []byte {
	size := 4
	for _, c := range chunks {
		size += len(c)
	}
	out := make([]byte, 0, size)

	if f.lastXmitUS != 0 && nowUS-f.lastXmitUS >= uint64(f.IdleThreshold.Microseconds()) {
		out = append(out, flagByte)
	}

	fcs := InitFCS16
	appendEscaped := func(b byte) {
		fcs = UpdateFCS16(fcs, b)
		if mustEscape(f.TxAccm, b) {
			out = append(out, escByte, b^escXOR)
		} else {
			out = append(out, b)
		}
	}

	for _, chunk := range chunks {
		for _, b := range chunk {
			appendEscaped(b)
		}
	}

	fcs = ^fcs // complement before transmission
	lo := byte(fcs & 0xff)
	hi := byte(fcs >> 8)
	for _, b := range []byte{lo, hi} {
		if mustEscape(f.TxAccm, b) {
			out = append(out, escByte, b^escXOR)
		} else {
			out = append(out, b)
		}
	}

	out = append(out, flagByte)

	f.lastXmitUS = nowUS
	f.Stats.FramesSent.Add(1)
	f.Stats.BytesSent.Add(uint64(len(out)))
	return out
}

// ---- RX ----

// PushByte feeds one raw (still stuffed) byte from the wire into the
// deframer's state machine. When a complete, FCS-valid frame has just
// been recognized, frame holds its unstuffed bytes (address, control,
// protocol/info — FCS stripped) and ok is true. PushByte never blocks;
// it allocates only to grow the in-progress frame buffer and to copy
// out a completed frame.
func (f *Framer) PushByte(b byte) (frame []byte, ok bool) {
	f.Stats.BytesReceived.Add(1)

	if b == flagByte {
		defer func() {
			f.rxState = rxAddress
			f.rxFCS = InitFCS16
			f.rxEsc = false
		}()

		if f.rxState >= rxControl && len(f.rxBuf) >= minFrameBytes && f.rxFCS == GoodFCS16 {
			f.Stats.FramesReceivedOK.Add(1)
			out := make([]byte, len(f.rxBuf)-2) // drop trailing FCS
			copy(out, f.rxBuf)
			f.rxBuf = nil
			return out, true
		}
		if f.rxState >= rxControl && len(f.rxBuf) >= minFrameBytes {
			f.Stats.FramesReceivedBadFCS.Add(1)
		} else if len(f.rxBuf) > 0 {
			f.Stats.FramesReceivedShort.Add(1)
		}
		f.rxBuf = nil
		return nil, false
	}

	if b == escByte {
		f.rxEsc = true
		return nil, false
	}

	if f.RxAccm.IsSet(b) {
		// Dropped unconditionally, even mid-escape.
		return nil, false
	}

	if f.rxEsc {
		b ^= escXOR
		f.rxEsc = false
	}

	switch f.rxState {
	case rxIdle, rxStart:
		f.rxFCS = InitFCS16
		f.rxState = rxAddress
	case rxAddress:
		f.rxState = rxControl
	case rxControl:
		f.rxState = rxData
	case rxData:
		// stays rxData
	}

	f.rxFCS = UpdateFCS16(f.rxFCS, b)
	if len(f.rxBuf) >= MaxFrameLen {
		// Runaway frame; drop state rather than grow without bound.
		f.rxState = rxIdle
		f.rxBuf = nil
		return nil, false
	}
	f.rxBuf = append(f.rxBuf, b)
	return nil, false
}

// Reset clears in-progress receive state, e.g. after a transport
// reopen.
func (f *Framer) Reset() {
	f.rxState = rxIdle
	f.rxEsc = false
	f.rxBuf = nil
}
