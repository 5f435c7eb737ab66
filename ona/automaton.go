package ona

import (
	"time"

	"github.com/ppplink/ppp/clock"
)

// Protocol is the capability surface one ONA instantiation (LCP,
// IPCP, IPv6CP) provides to the generic automaton that drives it —
// the "handle_event, get_conf_by_code, on_up, on_down" capability
// interface the option table and upper/lower layer notifications are
// reached through, so the automaton itself stays protocol-agnostic.
type Protocol interface {
	// Conf returns this protocol instance's negotiable-option table.
	Conf() *ConfigTable
	// Send transmits one control packet for this protocol.
	Send(code Code, id byte, data []byte) error
	// OnLayerUp/OnLayerDown are tlu/tld: this protocol has just come
	// up (all options agreed) or gone down.
	OnLayerUp()
	OnLayerDown()
	// OnLowerStarted/OnLowerFinished are tls/tlf: ask the layer below
	// (the transport, or for NCPs, LCP) to start or may now stop.
	OnLowerStarted()
	OnLowerFinished()
}

// EchoHandler is implemented by protocols that also carry Echo-
// Request/Reply/Discard-Request traffic (LCP); ser passes it every
// RXR packet so it can notify a liveness monitor (DCP). The
// Echo-Reply to an Echo-Request is sent by the automaton itself.
type EchoHandler interface {
	HandleEcho(code Code, id byte, data []byte)
}

const defaultRestartTimer = 3 * time.Second

// Automaton drives one RFC 1661 option-negotiation instance. It holds
// no protocol-specific knowledge: everything protocol-specific is
// reached through Protocol.
type Automaton struct {
	Proto Protocol
	Clock clock.Clock

	State State

	// MaxConfigure/MaxTerminate are the restart counter ceilings irc
	// chooses between (default 10 / 2).
	MaxConfigure int
	MaxTerminate int
	// RestartTimer is how long scr/str wait before a TO+/TO- event.
	RestartTimer time.Duration

	// SupportedCodes is a bitmask of Code values this instance will
	// classify into events rather than bounce as RUC.
	SupportedCodes uint32

	restartCounter int
	timer          clock.Timer

	crSentID       byte
	crSentOpts     []byte
	trSentID       byte
	codeRejectID   byte
	ircConfiguring bool
}

// actionListHas reports whether act appears in list.
func actionListHas(list []Action, act Action) bool {
	for _, a := range list {
		if a == act {
			return true
		}
	}
	return false
}

// NewAutomaton returns an Automaton in state Initial, with RFC 1661's
// default restart parameters.
func NewAutomaton(p Protocol, c clock.Clock) *Automaton {
	return &Automaton{
		Proto:          p,
		Clock:          c,
		State:          StateInitial,
		MaxConfigure:   10,
		MaxTerminate:   2,
		RestartTimer:   defaultRestartTimer,
		SupportedCodes: DefaultSupportedCodes(),
	}
}

// Trigger applies event to the automaton, running whatever actions
// RFC 1661's table prescribes for (State, event) and moving to the
// resulting state. An event undefined for the current state is
// silently ignored, per the automaton's failure semantics. pkt is
// the inbound packet that produced the event, if any (nil for
// Up/Down/Open/Close/TO+/TO-).
func (a *Automaton) Trigger(event Event, pkt *Packet) {
	t, ok := lookupTransition(a.State, event)
	if !ok {
		return
	}
	a.ircConfiguring = !actionListHas(t.actions, ActionSTR)
	for _, act := range t.actions {
		a.runAction(act, pkt)
	}
	a.State = t.next

	switch a.State {
	case StateInitial, StateClosed, StateStopped, StateOpened:
		a.cancelTimer()
	}
}

func (a *Automaton) cancelTimer() {
	if a.timer != nil {
		a.timer.Cancel()
		a.timer = nil
	}
}

func (a *Automaton) armTimer() {
	a.cancelTimer()
	a.timer = a.Clock.ArmTimer(a.RestartTimer, func() {
		if a.restartCounter > 0 {
			a.Trigger(EventTOPlus, nil)
		} else {
			a.Trigger(EventTOMinus, nil)
		}
	})
}

func (a *Automaton) runAction(act Action, pkt *Packet) {
	switch act {
	case ActionTLU:
		a.Proto.OnLayerUp()
	case ActionTLD:
		a.Proto.Conf().Reset()
		a.Proto.OnLayerDown()
	case ActionTLS:
		a.Proto.OnLowerStarted()
	case ActionTLF:
		a.Proto.OnLowerFinished()
	case ActionIRC:
		if a.ircConfiguring {
			a.restartCounter = a.MaxConfigure
		} else {
			a.restartCounter = a.MaxTerminate
		}
	case ActionZRC:
		a.restartCounter = 0
		a.armTimer()
	case ActionSCR:
		a.restartCounter--
		opts := a.Proto.Conf().RequestOptions()
		data := OptionsBytes(opts)
		a.crSentID++
		a.crSentOpts = data
		a.Proto.Send(CodeConfigureRequest, a.crSentID, data)
		a.armTimer()
	case ActionSCA:
		if pkt != nil {
			a.Proto.Send(CodeConfigureAck, pkt.ID, pkt.Data)
		}
	case ActionSCN:
		a.runSCN(pkt)
	case ActionSTR:
		a.trSentID++
		a.Proto.Send(CodeTerminateRequest, a.trSentID, nil)
		a.armTimer()
	case ActionSTA:
		if pkt != nil {
			a.Proto.Send(CodeTerminateAck, pkt.ID, pkt.Data)
		}
	case ActionSCJ:
		if pkt != nil {
			a.codeRejectID++
			a.Proto.Send(CodeCodeReject, a.codeRejectID, pkt.Bytes())
		}
	case ActionSER:
		a.runSER(pkt)
	}
}

func (a *Automaton) runSCN(pkt *Packet) {
	if pkt == nil {
		return
	}
	opts, err := ParseOptions(pkt.Data)
	if err != nil {
		return
	}
	_, rejectOpts, nakOpts := a.Proto.Conf().EvaluateRequest(opts)
	if len(rejectOpts) > 0 {
		a.Proto.Send(CodeConfigureReject, pkt.ID, OptionsBytes(rejectOpts))
		return
	}
	a.Proto.Send(CodeConfigureNak, pkt.ID, OptionsBytes(nakOpts))
}

func (a *Automaton) runSER(pkt *Packet) {
	if pkt == nil {
		return
	}
	if h, ok := a.Proto.(EchoHandler); ok {
		h.HandleEcho(pkt.Code, pkt.ID, pkt.Data)
	}
	if pkt.Code == CodeEchoRequest {
		a.Proto.Send(CodeEchoReply, pkt.ID, pkt.Data)
	}
}

// Classify turns an inbound control packet into the event it
// represents for this automaton, per RFC 1661's classification
// rules. ok is false when the packet raises no event: a malformed
// options body or Code-Reject, a Configure-Ack whose id or options
// don't match the last Configure-Request sent, or a Configure-Nak/
// Reject or Terminate-Ack whose id doesn't match. A code outside
// SupportedCodes classifies as RUC.
func (a *Automaton) Classify(pkt Packet) (Event, bool) {
	if a.SupportedCodes&codeBit(pkt.Code) == 0 {
		return EventRUC, true
	}

	switch pkt.Code {
	case CodeConfigureRequest:
		opts, err := ParseOptions(pkt.Data)
		if err != nil {
			return 0, false
		}
		accept, _, _ := a.Proto.Conf().EvaluateRequest(opts)
		if accept {
			a.Proto.Conf().ApplyRequest(opts)
			return EventRCRPlus, true
		}
		return EventRCRMinus, true

	case CodeConfigureAck:
		if pkt.ID != a.crSentID || !EqualOptions(pkt.Data, a.crSentOpts) {
			return 0, false
		}
		if opts, err := ParseOptions(pkt.Data); err == nil {
			a.Proto.Conf().ApplyAck(opts)
		}
		return EventRCA, true

	case CodeConfigureNak, CodeConfigureReject:
		if pkt.ID != a.crSentID {
			return 0, false
		}
		opts, err := ParseOptions(pkt.Data)
		if err != nil {
			return 0, false
		}
		a.Proto.Conf().ApplyNak(opts, pkt.Code == CodeConfigureReject)
		return EventRCN, true

	case CodeTerminateRequest:
		return EventRTR, true

	case CodeTerminateAck:
		if pkt.ID != a.trSentID {
			return 0, false
		}
		return EventRTA, true

	case CodeCodeReject:
		if len(pkt.Data) == 0 {
			return 0, false
		}
		if isCatastrophic(Code(pkt.Data[0])) {
			return EventRXJMinus, true
		}
		return EventRXJPlus, true

	case CodeEchoRequest, CodeEchoReply, CodeDiscardRequest:
		return EventRXR, true

	default:
		return EventRUC, true
	}
}
