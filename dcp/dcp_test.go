package dcp

import (
	"testing"

	"github.com/ppplink/ppp/clock"
	"github.com/stretchr/testify/assert"
)

type fakeLinker struct {
	opened, closed int
}

func (f *fakeLinker) Open()  { f.opened++ }
func (f *fakeLinker) Close() { f.closed++ }

type fakeProber struct {
	ids []byte
}

func (f *fakeProber) SendEchoRequest(id byte) error {
	f.ids = append(f.ids, id)
	return nil
}

func TestOnTransportUpOpensLCPAndIPCP(t *testing.T) {
	lcp, ipcp, echo := &fakeLinker{}, &fakeLinker{}, &fakeProber{}
	fc := clock.NewFake()
	d := New(fc, lcp, ipcp, echo)

	d.OnTransportUp()
	assert.Equal(t, 1, lcp.opened)
	assert.Equal(t, 1, ipcp.opened)
}

func TestMonitorSendsEchoRequestsAndStaysAliveWithReplies(t *testing.T) {
	lcp, ipcp, echo := &fakeLinker{}, &fakeLinker{}, &fakeProber{}
	fc := clock.NewFake()
	d := New(fc, lcp, ipcp, echo)
	linkDown := false
	d.OnLinkDown = func() { linkDown = true }

	d.OnTransportUp()
	for i := 0; i < 20; i++ {
		fc.Advance(monitorInterval)
		d.OnLinkAlive()
	}

	assert.False(t, linkDown)
	assert.Equal(t, 0, lcp.closed)
	assert.Len(t, echo.ids, 20)
}

func TestMonitorDeclaresLinkDownAfterFiveMissedReplies(t *testing.T) {
	lcp, ipcp, echo := &fakeLinker{}, &fakeLinker{}, &fakeProber{}
	fc := clock.NewFake()
	d := New(fc, lcp, ipcp, echo)
	linkDown := false
	d.OnLinkDown = func() { linkDown = true }

	d.OnTransportUp()
	// deadThreshold ticks send deadThreshold unanswered Echo-Requests;
	// the next tick declares the link down.
	for i := 0; i <= deadThreshold; i++ {
		fc.Advance(monitorInterval)
	}

	assert.Len(t, echo.ids, deadThreshold)
	assert.True(t, linkDown)
	assert.Equal(t, 1, lcp.closed)
}

func TestOnTransportDownStopsMonitor(t *testing.T) {
	lcp, ipcp, echo := &fakeLinker{}, &fakeLinker{}, &fakeProber{}
	fc := clock.NewFake()
	d := New(fc, lcp, ipcp, echo)

	d.OnTransportUp()
	d.OnTransportDown()
	fc.Advance(monitorInterval * 10)

	assert.Empty(t, echo.ids)
	assert.Equal(t, 1, lcp.closed)
	assert.Equal(t, 1, ipcp.closed)
}
