// Package ipcp instantiates the option negotiation automaton for the
// IPv4 Network Control Protocol: protocol number 0x8021 and a single
// negotiable option, IP-Address, where a peer-sent 0.0.0.0 means
// "please assign me an address."
package ipcp

import (
	"encoding/binary"
	"net"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ona"
	"github.com/ppplink/ppp/ppp"
)

const optIPAddress = 3

// IPCP is one IPCP instance for an interface.
type IPCP struct {
	Automaton *ona.Automaton
	Link      *ppp.Link
	conf      *ona.ConfigTable

	// LocalAddr is offered to the peer in our own Configure-Request;
	// PeerAddr is learned from the peer's Configure-Request once
	// negotiation accepts it.
	LocalAddr net.IP
	PeerAddr  net.IP

	OnUp   func()
	OnDown func()
}

// New builds an IPCP instance. local is this side's IPv4 address, or
// nil/0.0.0.0 to ask the peer to assign one.
func New(link *ppp.Link, c clock.Clock, local net.IP) *IPCP {
	ip := &IPCP{Link: link, LocalAddr: local}
	ip.conf = ona.NewConfigTable(
		&ona.ConfigEntry{
			Type: optIPAddress, Size: 4, Default: ipToUint32(local), Enabled: true, Value: ipToUint32(local),
			Validate: func(o ona.Option) bool { return len(o.Value) == 4 && optValue(o) != 0 },
			BuildNak: func() ona.Option { return ona.Option{Type: optIPAddress, Value: ip.LocalAddr.To4()} },
			Apply: func(o ona.Option, isPeer bool) {
				addr := uint32ToIP(optValue(o))
				if isPeer {
					ip.PeerAddr = addr
				} else {
					ip.LocalAddr = addr
				}
			},
		},
	)

	a := ona.NewAutomaton(ip, c)
	ip.Automaton = a
	return ip
}

func optValue(o ona.Option) uint32 {
	if len(o.Value) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(o.Value)
}

func ipToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}

func uint32ToIP(v uint32) net.IP {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// Open marks IPCP administratively desired up (the DCP-driven event);
// negotiation only actually starts once NotifyLowerUp is also called,
// which the iface wiring does once PAP has authenticated the link.
func (ip *IPCP) Open() {
	ip.Automaton.Trigger(ona.EventOpen, nil)
}

// Close drives this instance's automaton through Close.
func (ip *IPCP) Close() {
	ip.Automaton.Trigger(ona.EventClose, nil)
}

// NotifyLowerUp delivers the Up event: LCP has reached Opened (and,
// once PAP has authenticated), so IPCP may begin negotiating.
func (ip *IPCP) NotifyLowerUp() {
	ip.Automaton.Trigger(ona.EventUp, nil)
}

// NotifyLowerDown delivers the Down event: the link below IPCP is
// gone.
func (ip *IPCP) NotifyLowerDown() {
	ip.Automaton.Trigger(ona.EventDown, nil)
}

// Conf implements ona.Protocol.
func (ip *IPCP) Conf() *ona.ConfigTable { return ip.conf }

// Send implements ona.Protocol: IPCP control packets travel as PPP
// protocol 0x8021.
func (ip *IPCP) Send(code ona.Code, id byte, data []byte) error {
	pkt := ona.Packet{Code: code, ID: id, Data: data}
	return ip.Link.Send(ppp.ProtoIPCP, pkt.Bytes())
}

// OnLayerUp implements ona.Protocol (tlu).
func (ip *IPCP) OnLayerUp() {
	if ip.OnUp != nil {
		ip.OnUp()
	}
}

// OnLayerDown implements ona.Protocol (tld).
func (ip *IPCP) OnLayerDown() {
	if ip.OnDown != nil {
		ip.OnDown()
	}
}

// OnLowerStarted implements ona.Protocol (tls): nothing to start here;
// the iface wiring delivers Up through NotifyLowerUp once LCP is open
// and PAP has authenticated.
func (ip *IPCP) OnLowerStarted() {}

// OnLowerFinished implements ona.Protocol (tlf).
func (ip *IPCP) OnLowerFinished() {}

// Recv feeds an inbound PPP payload (protocol 0x8021) through
// classification and the automaton.
func (ip *IPCP) Recv(payload []byte) error {
	pkt, err := ona.ParsePacket(payload)
	if err != nil {
		return err
	}
	event, ok := ip.Automaton.Classify(pkt)
	if !ok {
		return nil
	}
	ip.Automaton.Trigger(event, &pkt)
	return nil
}
