// Package pap implements the Password Authentication Protocol
// (protocol number 0xC023). Unlike LCP/IPCP/IPv6CP it is a simple
// two-packet protocol, not an instance of the generic option
// negotiation automaton, so it gets its own small state machine
// instead of being forced into ona.Automaton's shape.
package pap

import (
	"errors"
	"time"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ppp"
)

// State is PAP's own four-state machine.
type State int

const (
	StateInitial State = iota
	StateStarted
	StateUp
	StateDown
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateStarted:
		return "Started"
	case StateUp:
		return "Up"
	case StateDown:
		return "Down"
	default:
		return "Unknown"
	}
}

const (
	codeAuthenticateRequest = 1
	codeAuthenticateAck     = 2
	codeAuthenticateNak     = 3
)

const (
	maxRetries  = 3
	retryPeriod = 3 * time.Second
)

var ErrBadPacket = errors.New("pap: malformed packet")

// PAP is one PAP instance for an interface.
type PAP struct {
	Link  *ppp.Link
	Clock clock.Clock

	Username string
	Password string

	State State

	// OnUp fires once, on the transition to Up, so the network control
	// protocols above PAP can start.
	OnUp func()
	// OnDown fires on a Nak or exhausted retries, so LCP can be told
	// authentication failed.
	OnDown func()

	id       byte
	retries  int
	timer    clock.Timer
}

// New builds a PAP instance in state Initial.
func New(link *ppp.Link, c clock.Clock, username, password string) *PAP {
	return &PAP{Link: link, Clock: c, Username: username, Password: password, State: StateInitial}
}

// Start is called once LCP signals the link is ready: send an
// Authenticate-Request and arm the retry timer.
func (p *PAP) Start() {
	if p.State == StateUp || p.State == StateStarted {
		return
	}
	p.State = StateStarted
	p.retries = 0
	p.sendRequest()
}

func (p *PAP) sendRequest() {
	p.id++
	p.retries++
	body := encodeRequest(p.Username, p.Password)
	p.send(codeAuthenticateRequest, p.id, body)
	p.cancelTimer()
	p.timer = p.Clock.ArmTimer(retryPeriod, p.onTimeout)
}

func (p *PAP) onTimeout() {
	if p.State != StateStarted {
		return
	}
	if p.retries >= maxRetries {
		p.toDown()
		return
	}
	p.sendRequest()
}

func (p *PAP) send(code byte, id byte, data []byte) {
	pkt := make([]byte, 4+len(data))
	pkt[0] = code
	pkt[1] = id
	pkt[2] = byte(len(pkt) >> 8)
	pkt[3] = byte(len(pkt))
	copy(pkt[4:], data)
	p.Link.Send(ppp.ProtoPAP, pkt)
}

func (p *PAP) cancelTimer() {
	if p.timer != nil {
		p.timer.Cancel()
		p.timer = nil
	}
}

func (p *PAP) toUp() {
	p.cancelTimer()
	p.State = StateUp
	if p.OnUp != nil {
		p.OnUp()
	}
}

func (p *PAP) toDown() {
	p.cancelTimer()
	p.State = StateDown
	if p.OnDown != nil {
		p.OnDown()
	}
}

// Recv feeds an inbound PPP payload (protocol 0xC023) into the state
// machine. This implementation is the authenticating client side only
// (it sends Requests and expects Ack/Nak); it does not play a server
// role answering a peer's Request.
func (p *PAP) Recv(payload []byte) error {
	if len(payload) < 4 {
		return ErrBadPacket
	}
	code := payload[0]
	id := payload[1]
	length := int(payload[2])<<8 | int(payload[3])
	if length > len(payload) {
		return ErrBadPacket
	}

	if p.State != StateStarted || id != p.id {
		return nil
	}

	switch code {
	case codeAuthenticateAck:
		p.toUp()
	case codeAuthenticateNak:
		p.toDown()
	}
	return nil
}

func encodeRequest(user, pass string) []byte {
	out := make([]byte, 0, 2+len(user)+len(pass))
	out = append(out, byte(len(user)))
	out = append(out, user...)
	out = append(out, byte(len(pass)))
	out = append(out, pass...)
	return out
}
