// Package lcp instantiates the generic option negotiation automaton
// (package ona) for the Link Control Protocol: protocol number
// 0xC021, the MRU/ACCM/Auth-Protocol/PFC/ACFC option table, and the
// tlu/tld hooks that start authentication and notify the network
// control protocols above it.
package lcp

import (
	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/hdlc"
	"github.com/ppplink/ppp/ona"
	"github.com/ppplink/ppp/ppp"
)

const (
	optMRU           = 1
	optACCM          = 2
	optAuthProtocol  = 3
	optPFC           = 7
	optACFC          = 8

	defaultMRU   = 1500
	maxMRU       = 2000
	defaultAuth  = uint32(ppp.ProtoPAP)
)

// LCP is one LCP instance for an interface. It satisfies ona.Protocol
// and ona.EchoHandler, so an *ona.Automaton drives it directly.
type LCP struct {
	Automaton *ona.Automaton
	Link      *ppp.Link
	conf      *ona.ConfigTable

	// OnUp/OnDown fire after the automaton's tlu/tld; LCP's own
	// contract is to notify the authentication layer
	// (PAP) that the link is ready once it comes up.
	OnUp   func()
	OnDown func()

	// OnEchoReply is called whenever an Echo-Reply or Discard-Request
	// is observed (the ser action), so the liveness supervisor (DCP)
	// can reset its dead-counter.
	OnEchoReply func()
}

// New builds an LCP instance wired to link and clock c, offering
// localMRU (clamped to maxMRU) as the local MRU option. Pass 0 to use
// defaultMRU.
func New(link *ppp.Link, c clock.Clock, localMRU int) *LCP {
	if localMRU <= 0 {
		localMRU = defaultMRU
	}
	if localMRU > maxMRU {
		localMRU = maxMRU
	}

	l := &LCP{Link: link}
	l.conf = ona.NewConfigTable(
		&ona.ConfigEntry{
			Type: optMRU, Size: 2, Default: uint32(localMRU), Enabled: true, Value: uint32(localMRU),
			Validate: func(o ona.Option) bool { return optValue(o) <= maxMRU },
			BuildNak: func() ona.Option { return optValueOf(optMRU, 2, defaultMRU) },
			Apply: func(o ona.Option, isPeer bool) {
				if isPeer {
					link.Encap.PeerMRU = int(optValue(o))
				} else {
					link.Encap.LocalMRU = int(optValue(o))
				}
			},
		},
		&ona.ConfigEntry{
			Type: optACCM, Size: 4, Default: uint32(hdlc.DefaultAccm), Enabled: true, Value: uint32(hdlc.DefaultAccm),
			Validate: func(o ona.Option) bool { return true },
			BuildNak: func() ona.Option { return optValueOf(optACCM, 4, uint32(hdlc.DefaultAccm)) },
			Apply: func(o ona.Option, isPeer bool) {
				if isPeer {
					link.Framer.TxAccm = hdlc.Accm(optValue(o))
				} else {
					link.Framer.RxAccm = hdlc.Accm(optValue(o))
				}
			},
		},
		&ona.ConfigEntry{
			Type: optAuthProtocol, Size: 2, Default: defaultAuth, Enabled: true, Value: defaultAuth,
			Validate: func(o ona.Option) bool { return optValue(o) == defaultAuth },
			BuildNak: func() ona.Option { return optValueOf(optAuthProtocol, 2, defaultAuth) },
			Apply:    func(o ona.Option, isPeer bool) {},
		},
		&ona.ConfigEntry{
			Type: optPFC, Size: 0, Default: 0, Enabled: false,
			Validate: func(o ona.Option) bool { return true },
			BuildNak: func() ona.Option { return ona.Option{Type: optPFC} },
			Apply:    func(o ona.Option, isPeer bool) { link.Encap.PFC = true },
		},
		&ona.ConfigEntry{
			Type: optACFC, Size: 0, Default: 0, Enabled: false,
			Validate: func(o ona.Option) bool { return true },
			BuildNak: func() ona.Option { return ona.Option{Type: optACFC} },
			Apply:    func(o ona.Option, isPeer bool) { link.Encap.ACFC = true },
		},
	)

	a := ona.NewAutomaton(l, c)
	a.RestartTimer = 3_000_000_000 // 3s, expressed in ona's time.Duration unit (ns)
	l.Automaton = a
	return l
}

func optValue(o ona.Option) uint32 {
	var v uint32
	for _, b := range o.Value {
		v = v<<8 | uint32(b)
	}
	return v
}

func optValueOf(typ byte, size int, v uint32) ona.Option {
	buf := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return ona.Option{Type: typ, Value: buf}
}

// Open drives this instance's automaton through Up+Open, starting
// negotiation.
func (l *LCP) Open() {
	l.Automaton.Trigger(ona.EventUp, nil)
	l.Automaton.Trigger(ona.EventOpen, nil)
}

// Close drives this instance's automaton through Close.
func (l *LCP) Close() {
	l.Automaton.Trigger(ona.EventClose, nil)
}

// Conf implements ona.Protocol.
func (l *LCP) Conf() *ona.ConfigTable { return l.conf }

// Send implements ona.Protocol: LCP control packets travel as PPP
// protocol 0xC021.
func (l *LCP) Send(code ona.Code, id byte, data []byte) error {
	pkt := ona.Packet{Code: code, ID: id, Data: data}
	return l.Link.Send(ppp.ProtoLCP, pkt.Bytes())
}

// OnLayerUp implements ona.Protocol (tlu).
func (l *LCP) OnLayerUp() {
	if l.OnUp != nil {
		l.OnUp()
	}
}

// OnLayerDown implements ona.Protocol (tld).
func (l *LCP) OnLayerDown() {
	if l.OnDown != nil {
		l.OnDown()
	}
}

// OnLowerStarted implements ona.Protocol (tls): LCP's lower layer is
// the transport, which this stack assumes is already open, so there
// is nothing further to start.
func (l *LCP) OnLowerStarted() {}

// OnLowerFinished implements ona.Protocol (tlf).
func (l *LCP) OnLowerFinished() {}

// HandleEcho implements ona.EchoHandler: replying to Echo-Request is
// handled generically by the automaton (ser); here LCP only needs to
// tell the liveness supervisor about any reply/discard it observed.
func (l *LCP) HandleEcho(code ona.Code, id byte, data []byte) {
	if code == ona.CodeEchoReply || code == ona.CodeDiscardRequest {
		if l.OnEchoReply != nil {
			l.OnEchoReply()
		}
	}
}

// Recv feeds an inbound PPP payload (protocol 0xC021) through
// classification and the automaton.
func (l *LCP) Recv(payload []byte) error {
	pkt, err := ona.ParsePacket(payload)
	if err != nil {
		return err
	}
	event, ok := l.Automaton.Classify(pkt)
	if !ok {
		return nil
	}
	l.Automaton.Trigger(event, &pkt)
	return nil
}

// SendEchoRequest emits an LCP Echo-Request with a zero Magic-Number
// field, used by DCP to probe liveness.
func (l *LCP) SendEchoRequest(id byte) error {
	return l.Send(ona.CodeEchoRequest, id, []byte{0, 0, 0, 0})
}
