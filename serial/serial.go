// Package serial is the L0 transport: a byte-oriented async serial
// line to a modem, opened/written/read over github.com/pkg/term, with
// the read side driving a caller-supplied callback per received byte.
package serial

import (
	"fmt"
	"sync"

	"github.com/pkg/term"
)

// Port is one open serial line.
type Port struct {
	t *term.Term

	mu      sync.Mutex
	onByte  func(byte)
	closeCh chan struct{}
}

// Open opens devicename at baud (0 leaves the current speed alone;
// any rate other than 1200, 2400, 4800, 9600, 19200, 38400, 57600 or
// 115200 is set as 4800) and starts a background reader goroutine that calls onByte for
// every byte received, the way the link spec's transport RX callback
// behaves: no allocation or FSM reentrancy of its own, just feeding
// bytes up one at a time.
func Open(devicename string, baud int, onByte func(byte)) (*Port, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", devicename, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serial: set speed %d: %w", baud, err)
		}
	default:
		if err := t.SetSpeed(4800); err != nil {
			t.Close()
			return nil, fmt.Errorf("serial: set speed %d: %w", baud, err)
		}
	}

	p := &Port{t: t, onByte: onByte, closeCh: make(chan struct{})}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	buf := make([]byte, 1)
	for {
		select {
		case <-p.closeCh:
			return
		default:
		}
		n, err := p.t.Read(buf)
		if err != nil {
			return
		}
		if n == 1 && p.onByte != nil {
			p.onByte(buf[0])
		}
	}
}

// Write sends data to the serial line.
func (p *Port) Write(data []byte) (int, error) {
	n, err := p.t.Write(data)
	if err != nil {
		return n, fmt.Errorf("serial: write: %w", err)
	}
	if n != len(data) {
		return n, fmt.Errorf("serial: short write %d of %d bytes", n, len(data))
	}
	return n, nil
}

// Close stops the reader and closes the underlying device.
func (p *Port) Close() error {
	close(p.closeCh)
	return p.t.Close()
}
