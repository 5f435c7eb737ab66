// Package dcp implements the driver control protocol: a purely
// internal supervisor that brings LCP/IPCP up when the transport
// comes up, probes liveness with periodic LCP Echo-Requests, and
// tears the link down if the peer stops answering them.
package dcp

import (
	"time"

	"github.com/ppplink/ppp/clock"
)

const (
	monitorInterval = 10 * time.Second
	deadThreshold   = 5
)

// Linker is the subset of LCP/IPCP this supervisor drives: Open/Close
// on the option negotiation automaton. The Echo-Request probe is
// Prober.
type Linker interface {
	Open()
	Close()
}

// Prober sends an Echo-Request and is asked for a fresh id each time.
type Prober interface {
	SendEchoRequest(id byte) error
}

// DCP is one liveness supervisor for an interface.
type DCP struct {
	Clock clock.Clock
	LCP   Linker
	IPCP  Linker
	Echo  Prober

	// OnLinkDown fires on the first monitor tick after deadThreshold
	// consecutive Echo-Requests went unanswered; LCP is closed first.
	OnLinkDown func()

	deadCount int
	echoID    byte
	timer     clock.Timer
	running   bool
}

// New builds a DCP wired to lcp/ipcp/echo, all normally satisfied by
// the same *lcp.LCP value (LCP is both the Linker Open/Close target
// and the Echo-Request prober).
func New(c clock.Clock, lcpLink, ipcpLink Linker, echo Prober) *DCP {
	return &DCP{Clock: c, LCP: lcpLink, IPCP: ipcpLink, Echo: echo}
}

// OnTransportUp is called when the transport comes up: open LCP and
// IPCP and start the monitor.
func (d *DCP) OnTransportUp() {
	d.LCP.Open()
	d.IPCP.Open()
	d.startMonitor()
}

// OnTransportDown tears everything down and stops monitoring.
func (d *DCP) OnTransportDown() {
	d.stopMonitor()
	d.LCP.Close()
	d.IPCP.Close()
}

func (d *DCP) startMonitor() {
	if d.running {
		return
	}
	d.running = true
	d.deadCount = 0
	d.armMonitor()
}

func (d *DCP) stopMonitor() {
	d.running = false
	if d.timer != nil {
		d.timer.Cancel()
		d.timer = nil
	}
}

func (d *DCP) armMonitor() {
	d.timer = d.Clock.ArmTimer(monitorInterval, d.onMonitor)
}

func (d *DCP) onMonitor() {
	if !d.running {
		return
	}
	if d.deadCount >= deadThreshold {
		d.running = false
		d.LCP.Close()
		if d.OnLinkDown != nil {
			d.OnLinkDown()
		}
		return
	}
	d.deadCount++
	d.echoID++
	d.Echo.SendEchoRequest(d.echoID)
	d.armMonitor()
}

// OnLinkAlive is called whenever LCP observes an Echo-Reply (or
// Discard-Request) from the peer: it resets the dead-counter.
func (d *DCP) OnLinkAlive() {
	d.deadCount = 0
}
