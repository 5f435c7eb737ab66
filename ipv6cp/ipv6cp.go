// Package ipv6cp instantiates the option negotiation automaton for
// the IPv6 Network Control Protocol: protocol number 0x8057 and the
// Interface-Identifier option, which on acceptance combines with
// FE80::/10 to form each side's link-local address.
package ipv6cp

import (
	"encoding/binary"
	"net"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ona"
	"github.com/ppplink/ppp/ppp"
)

const optInterfaceIdentifier = 1

// IPv6CP is one IPv6CP instance for an interface.
type IPv6CP struct {
	Automaton *ona.Automaton
	Link      *ppp.Link
	conf      *ona.ConfigTable

	LocalIID uint64
	PeerIID  uint64

	OnUp   func()
	OnDown func()
}

// New builds an IPv6CP instance offering localIID as this side's
// interface identifier.
func New(link *ppp.Link, c clock.Clock, localIID uint64) *IPv6CP {
	cp := &IPv6CP{Link: link, LocalIID: localIID}
	cp.conf = ona.NewConfigTable(
		&ona.ConfigEntry{
			// ConfigEntry.Value is a uint32 scratch field the generic
			// table uses for 1-4 byte options; the 8-byte identifier
			// itself lives in LocalIID/PeerIID and is read/written
			// directly by Apply/BuildNak below, bypassing it.
			Type: optInterfaceIdentifier, Size: 8, Default: 0, Enabled: true,
			Validate: func(o ona.Option) bool { return len(o.Value) == 8 },
			BuildNak: func() ona.Option { return ona.Option{Type: optInterfaceIdentifier, Value: iidBytes(localIID)} },
			Apply: func(o ona.Option, isPeer bool) {
				iid := iidValue(o.Value)
				if isPeer {
					cp.PeerIID = iid
				} else {
					cp.LocalIID = iid
				}
			},
		},
	)

	a := ona.NewAutomaton(cp, c)
	cp.Automaton = a
	return cp
}

func iidBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func iidValue(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// LinkLocal builds the FE80::/10 link-local address for interface
// identifier iid.
func LinkLocal(iid uint64) net.IP {
	addr := make(net.IP, 16)
	addr[0] = 0xfe
	addr[1] = 0x80
	binary.BigEndian.PutUint64(addr[8:], iid)
	return addr
}

// LocalLinkLocal returns this side's link-local address.
func (cp *IPv6CP) LocalLinkLocal() net.IP { return LinkLocal(cp.LocalIID) }

// PeerLinkLocal returns the peer's link-local address.
func (cp *IPv6CP) PeerLinkLocal() net.IP { return LinkLocal(cp.PeerIID) }

// Open marks IPv6CP administratively desired up (the DCP-driven
// event); negotiation only actually starts once NotifyLowerUp is also
// called, which the iface wiring does once PAP has authenticated the
// link.
func (cp *IPv6CP) Open() {
	cp.Automaton.Trigger(ona.EventOpen, nil)
}

// Close drives this instance's automaton through Close.
func (cp *IPv6CP) Close() {
	cp.Automaton.Trigger(ona.EventClose, nil)
}

// NotifyLowerUp delivers the Up event: LCP has reached Opened, so
// IPv6CP may begin negotiating.
func (cp *IPv6CP) NotifyLowerUp() {
	cp.Automaton.Trigger(ona.EventUp, nil)
}

// NotifyLowerDown delivers the Down event: the link below IPv6CP is
// gone.
func (cp *IPv6CP) NotifyLowerDown() {
	cp.Automaton.Trigger(ona.EventDown, nil)
}

// Conf implements ona.Protocol.
func (cp *IPv6CP) Conf() *ona.ConfigTable { return cp.conf }

// Send implements ona.Protocol: IPv6CP control packets travel as PPP
// protocol 0x8057.
func (cp *IPv6CP) Send(code ona.Code, id byte, data []byte) error {
	pkt := ona.Packet{Code: code, ID: id, Data: data}
	return cp.Link.Send(ppp.ProtoIPv6CP, pkt.Bytes())
}

// OnLayerUp implements ona.Protocol (tlu).
func (cp *IPv6CP) OnLayerUp() {
	if cp.OnUp != nil {
		cp.OnUp()
	}
}

// OnLayerDown implements ona.Protocol (tld).
func (cp *IPv6CP) OnLayerDown() {
	if cp.OnDown != nil {
		cp.OnDown()
	}
}

// OnLowerStarted implements ona.Protocol (tls).
func (cp *IPv6CP) OnLowerStarted() {}

// OnLowerFinished implements ona.Protocol (tlf).
func (cp *IPv6CP) OnLowerFinished() {}

// Recv feeds an inbound PPP payload (protocol 0x8057) through
// classification and the automaton.
func (cp *IPv6CP) Recv(payload []byte) error {
	pkt, err := ona.ParsePacket(payload)
	if err != nil {
		return err
	}
	event, ok := cp.Automaton.Classify(pkt)
	if !ok {
		return nil
	}
	cp.Automaton.Trigger(event, &pkt)
	return nil
}
