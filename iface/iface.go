// Package iface is the glue layer: one Interface per physical link,
// running a single-threaded cooperative event loop fed by a bounded
// message queue, owning the transport, framer, RX ring and exactly
// one instance each of LCP, IPCP/IPv6CP, PAP and DCP.
package iface

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/dcp"
	"github.com/ppplink/ppp/hdlc"
	"github.com/ppplink/ppp/ipcp"
	"github.com/ppplink/ppp/ipv6cp"
	"github.com/ppplink/ppp/lcp"
	"github.com/ppplink/ppp/ona"
	"github.com/ppplink/ppp/pap"
	"github.com/ppplink/ppp/ppp"
)

// defaultQueueDepth is the worker's bounded message queue size.
const defaultQueueDepth = 20

// Errors the control surface (Set/Get) can return to a caller.
var (
	ErrNoDevice        = errors.New("iface: no device")
	ErrInvalidArgument = errors.New("iface: invalid argument")
	ErrNotSupported    = errors.New("iface: option not supported")
)

// Transport is the byte-oriented collaborator an Interface drives.
type Transport interface {
	Write(p []byte) (int, error)
	Close() error
}

// Dialer additionally knows how to bring the physical carrier up and
// down, for DIAL_UP / DIAL_UP=nil handling.
type Dialer interface {
	Transport
	Dial(code string) error
	HangUp() error
}

// msgKind tags what a queued worker message carries.
type msgKind int

const (
	msgRXByte msgKind = iota
	msgCall
)

type msg struct {
	kind msgKind
	fn   func()
}

// Option identifies a control-surface option for Set/Get.
type Option int

const (
	OptAccmRX Option = iota
	OptAccmTX
	OptAPNName
	OptDialUp
	OptHDLCControl
	OptHDLCStationID
	OptIsWired
	OptDeviceType
	OptLCPState
	OptAuthState
	OptIPCPState
	OptIsIPv6Ready
)

// DeviceTypePPPOS is the value OptDeviceType reads back as.
const DeviceTypePPPOS = "PPPOS"

// Interface is one PPP link: exactly the substate an interface needs, run
// from a single dedicated goroutine.
type Interface struct {
	Link  *ppp.Link
	Clock clock.Clock
	Log   *log.Logger

	LCP    *lcp.LCP
	IPCP   *ipcp.IPCP
	IPv6CP *ipv6cp.IPv6CP
	PAP    *pap.PAP
	DCP    *dcp.DCP

	ring *hdlc.RXRing
	q    chan msg
	done chan struct{}

	dialed bool
}

// New builds an Interface over transport t, wiring LCP/IPCP/IPv6CP/PAP/
// DCP together: LCP's tlu starts PAP,
// PAP's success delivers Up to IPCP/IPv6CP, and DCP supervises liveness once
// the transport is up.
func New(t Transport, c clock.Clock, username, password string, localV4 net.IP, localIID uint64, localMRU int) *Interface {
	link := &ppp.Link{Encap: ppp.New(), Framer: hdlc.New(), Writer: t, Clock: c}

	ifc := &Interface{
		Link:  link,
		Clock: c,
		Log:   log.New(os.Stderr),
		ring:  hdlc.NewRXRing(4096),
		q:     make(chan msg, defaultQueueDepth),
		done:  make(chan struct{}),
	}

	ifc.LCP = lcp.New(link, c, localMRU)
	ifc.IPCP = ipcp.New(link, c, localV4)
	ifc.IPv6CP = ipv6cp.New(link, c, localIID)
	ifc.PAP = pap.New(link, c, username, password)
	ifc.DCP = dcp.New(c, ifc.LCP, ifc.IPCP, ifc.LCP)

	ifc.LCP.OnUp = func() { ifc.PAP.Start() }
	ifc.LCP.OnDown = func() { ifc.IPCP.NotifyLowerDown(); ifc.IPv6CP.NotifyLowerDown() }
	ifc.LCP.OnEchoReply = func() { ifc.DCP.OnLinkAlive() }
	ifc.PAP.OnUp = func() { ifc.IPCP.NotifyLowerUp(); ifc.IPv6CP.NotifyLowerUp() }
	ifc.PAP.OnDown = func() { ifc.LCP.Close() }
	ifc.IPCP.OnUp = func() { ifc.Log.Info("ipcp up", "peer", ifc.IPCP.PeerAddr) }
	ifc.DCP.OnLinkDown = func() { ifc.Log.Warn("link down: liveness check failed") }

	return ifc
}

// OnByte is the transport RX callback. It must do nothing beyond
// buffering, so it only pushes into the ring and enqueues a wakeup —
// the worker does all the real work.
func (ifc *Interface) OnByte(b byte) {
	if !ifc.ring.Push(b) {
		ifc.Log.Warn("rx ring full, dropping byte")
		return
	}
	select {
	case ifc.q <- msg{kind: msgRXByte}:
	default:
		// Queue full: the byte is already in the ring and will be
		// drained by whichever wakeup does arrive — drop the newest
		// message, not data, per the backpressure rule.
	}
}

// Run drains the worker's message queue until Stop is called. It
// should run on its own goroutine; there is no other way into this
// Interface's state.
func (ifc *Interface) Run() {
	ifc.DCP.OnTransportUp()
	ifc.IPv6CP.Open()
	for {
		select {
		case m := <-ifc.q:
			ifc.handle(m)
		case <-ifc.done:
			return
		}
	}
}

// Stop ends Run's loop.
func (ifc *Interface) Stop() {
	close(ifc.done)
}

func (ifc *Interface) handle(m msg) {
	switch m.kind {
	case msgRXByte:
		ifc.drainRing()
	case msgCall:
		if m.fn != nil {
			m.fn()
		}
	}
}

func (ifc *Interface) drainRing() {
	for {
		b, ok := ifc.ring.Pop()
		if !ok {
			return
		}
		frame, ok := ifc.Link.Framer.PushByte(b)
		if !ok {
			continue
		}
		ifc.dispatchFrame(frame)
	}
}

func (ifc *Interface) dispatchFrame(frame []byte) {
	proto, payload, err := ifc.Link.Encap.Recv(frame)
	if err != nil {
		ifc.Log.Debug("bad frame", "err", err)
		return
	}

	switch ppp.RouteByProtocol(proto) {
	case ppp.TargetLCP:
		if err := ifc.LCP.Recv(payload); err != nil {
			ifc.Log.Debug("lcp recv error", "err", err)
		}
	case ppp.TargetIPCP:
		if err := ifc.IPCP.Recv(payload); err != nil {
			ifc.Log.Debug("ipcp recv error", "err", err)
		}
	case ppp.TargetIPv6CP:
		if err := ifc.IPv6CP.Recv(payload); err != nil {
			ifc.Log.Debug("ipv6cp recv error", "err", err)
		}
	case ppp.TargetPAP:
		if err := ifc.PAP.Recv(payload); err != nil {
			ifc.Log.Debug("pap recv error", "err", err)
		}
	case ppp.TargetNetworkIPv4, ppp.TargetNetworkIPv6:
		ifc.Log.Debug("inbound network datagram", "proto", fmt.Sprintf("0x%04x", proto), "bytes", len(payload))
	default:
		pkt := ona.Packet{Code: ona.CodeProtocolReject, ID: 0, Data: append([]byte{byte(proto >> 8), byte(proto)}, payload...)}
		ifc.LCP.Send(pkt.Code, pkt.ID, pkt.Data)
	}
}

// call runs fn on the worker goroutine and blocks until it has run,
// giving Set/Get the same single-writer guarantee every other
// mutation of interface state has.
func (ifc *Interface) call(fn func()) {
	done := make(chan struct{})
	ifc.q <- msg{kind: msgCall, fn: func() { fn(); close(done) }}
	<-done
}

// Set implements the control surface's set(opt, value).
func (ifc *Interface) Set(opt Option, value []byte) error {
	var err error
	ifc.call(func() { err = ifc.doSet(opt, value) })
	return err
}

func (ifc *Interface) doSet(opt Option, value []byte) error {
	switch opt {
	case OptAccmRX:
		if len(value) != 4 {
			return ErrInvalidArgument
		}
		ifc.Link.Framer.RxAccm = hdlc.Accm(beUint32(value))
		return nil
	case OptAccmTX:
		if len(value) != 4 {
			return ErrInvalidArgument
		}
		ifc.Link.Framer.TxAccm = hdlc.Accm(beUint32(value))
		return nil
	case OptDialUp:
		return ifc.doDial(value)
	case OptAPNName, OptHDLCControl, OptHDLCStationID:
		return nil
	default:
		return ErrNotSupported
	}
}

func (ifc *Interface) doDial(value []byte) error {
	dialer, ok := ifc.dialer()
	if !ok {
		return ErrNotSupported
	}
	if value == nil {
		if !ifc.dialed {
			return nil
		}
		ifc.dialed = false
		ifc.LCP.Close()
		return dialer.HangUp()
	}
	ifc.dialed = true
	return dialer.Dial(string(value))
}

func (ifc *Interface) dialer() (Dialer, bool) {
	d, ok := ifc.Link.Writer.(Dialer)
	return d, ok
}

// Get implements the control surface's get(opt).
func (ifc *Interface) Get(opt Option) (any, error) {
	var result any
	var err error
	ifc.call(func() { result, err = ifc.doGet(opt) })
	return result, err
}

func (ifc *Interface) doGet(opt Option) (any, error) {
	switch opt {
	case OptIsWired:
		return false, nil
	case OptDeviceType:
		return DeviceTypePPPOS, nil
	case OptLCPState:
		return ifc.LCP.Automaton.State, nil
	case OptAuthState:
		return ifc.PAP.State, nil
	case OptIPCPState:
		return ifc.IPCP.Automaton.State, nil
	case OptIsIPv6Ready:
		return ifc.IPv6CP.Automaton.State == ona.StateOpened, nil
	default:
		return nil, ErrNotSupported
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
