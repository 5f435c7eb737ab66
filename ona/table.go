package ona

// transition is one cell of the RFC 1661 §4.1 state table: the state
// to move to and the ordered set of actions to run first.
type transition struct {
	next    State
	actions []Action
}

// transitionTable is the full 10-state/16-event table from RFC 1661
// §4.1. It is a contract of the protocol this package implements:
// every cell present here is exactly the one the RFC specifies: a
// missing (state, event) pair means the event is silently ignored in
// that state.
var transitionTable = map[State]map[Event]transition{
	StateInitial: {
		EventUp:    {StateClosed, nil},
		EventOpen:  {StateStarting, []Action{ActionTLS}},
		EventClose: {StateInitial, nil},
	},
	StateStarting: {
		EventUp:    {StateReqSent, []Action{ActionIRC, ActionSCR}},
		EventClose: {StateInitial, []Action{ActionTLF}},
	},
	StateClosed: {
		EventDown:      {StateInitial, nil},
		EventOpen:      {StateReqSent, []Action{ActionIRC, ActionSCR}},
		EventClose:     {StateClosed, nil},
		EventRCRPlus:   {StateClosed, []Action{ActionSTA}},
		EventRCRMinus:  {StateClosed, []Action{ActionSTA}},
		EventRCA:       {StateClosed, []Action{ActionSTA}},
		EventRCN:       {StateClosed, []Action{ActionSTA}},
		EventRTR:       {StateClosed, []Action{ActionSTA}},
		EventRTA:       {StateClosed, nil},
		EventRUC:       {StateClosed, []Action{ActionSCJ}},
		EventRXJPlus:   {StateClosed, nil},
		EventRXJMinus:  {StateClosed, []Action{ActionTLF}},
	},
	StateStopped: {
		EventDown:     {StateStarting, []Action{ActionTLS}},
		EventOpen:     {StateStopped, nil},
		EventClose:    {StateClosed, nil},
		EventRCRPlus:  {StateAckSent, []Action{ActionIRC, ActionSCR, ActionSCA}},
		EventRCRMinus: {StateReqSent, []Action{ActionIRC, ActionSCR, ActionSCN}},
		EventRCA:      {StateStopped, []Action{ActionSTA}},
		EventRCN:      {StateStopped, []Action{ActionSTA}},
		EventRTR:      {StateStopped, []Action{ActionSTA}},
		EventRTA:      {StateStopped, nil},
		EventRUC:      {StateStopped, []Action{ActionSCJ}},
		EventRXJPlus:  {StateStopped, nil},
		EventRXJMinus: {StateStopped, []Action{ActionTLF}},
	},
	StateClosing: {
		EventDown:     {StateInitial, nil},
		EventOpen:     {StateStopping, nil},
		EventClose:    {StateClosing, nil},
		EventTOPlus:   {StateClosing, []Action{ActionSTR}},
		EventTOMinus:  {StateClosed, []Action{ActionTLF}},
		EventRCRPlus:  {StateClosing, nil},
		EventRCRMinus: {StateClosing, nil},
		EventRCA:      {StateClosing, nil},
		EventRCN:      {StateClosing, nil},
		EventRTR:      {StateClosing, []Action{ActionSTA}},
		EventRTA:      {StateClosed, []Action{ActionTLF}},
		EventRUC:      {StateClosing, []Action{ActionSCJ}},
		EventRXJPlus:  {StateClosing, nil},
		EventRXJMinus: {StateClosed, []Action{ActionTLF}},
	},
	StateStopping: {
		EventDown:     {StateStarting, nil},
		EventOpen:     {StateStopping, nil},
		EventClose:    {StateClosing, nil},
		EventTOPlus:   {StateStopping, []Action{ActionSTR}},
		EventTOMinus:  {StateStopped, []Action{ActionTLF}},
		EventRCRPlus:  {StateStopping, nil},
		EventRCRMinus: {StateStopping, nil},
		EventRCA:      {StateStopping, nil},
		EventRCN:      {StateStopping, nil},
		EventRTR:      {StateStopping, []Action{ActionSTA}},
		EventRTA:      {StateStopped, []Action{ActionTLF}},
		EventRUC:      {StateStopping, []Action{ActionSCJ}},
		EventRXJPlus:  {StateStopping, nil},
		EventRXJMinus: {StateStopped, []Action{ActionTLF}},
	},
	StateReqSent: {
		EventDown:     {StateStarting, nil},
		EventOpen:     {StateReqSent, nil},
		EventClose:    {StateClosing, []Action{ActionIRC, ActionSTR}},
		EventTOPlus:   {StateReqSent, []Action{ActionSCR}},
		EventTOMinus:  {StateStopped, []Action{ActionTLF}},
		EventRCRPlus:  {StateAckSent, []Action{ActionSCA}},
		EventRCRMinus: {StateReqSent, []Action{ActionSCN}},
		EventRCA:      {StateAckRcvd, []Action{ActionIRC}},
		EventRCN:      {StateReqSent, []Action{ActionIRC, ActionSCR}},
		EventRTR:      {StateReqSent, []Action{ActionSTA}},
		EventRTA:      {StateReqSent, nil},
		EventRUC:      {StateReqSent, []Action{ActionSCJ}},
		EventRXJPlus:  {StateReqSent, nil},
		EventRXJMinus: {StateStopped, []Action{ActionTLF}},
	},
	StateAckRcvd: {
		EventDown:     {StateStarting, nil},
		EventOpen:     {StateAckRcvd, nil},
		EventClose:    {StateClosing, []Action{ActionIRC, ActionSTR}},
		EventTOPlus:   {StateReqSent, []Action{ActionSCR}},
		EventTOMinus:  {StateStopped, []Action{ActionTLF}},
		EventRCRPlus:  {StateOpened, []Action{ActionSCA, ActionTLU}},
		EventRCRMinus: {StateAckRcvd, []Action{ActionSCN}},
		EventRCA:      {StateReqSent, []Action{ActionSCR}},
		EventRCN:      {StateReqSent, []Action{ActionSCR}},
		EventRTR:      {StateReqSent, []Action{ActionSTA}},
		EventRTA:      {StateReqSent, nil},
		EventRUC:      {StateAckRcvd, []Action{ActionSCJ}},
		EventRXJPlus:  {StateAckRcvd, nil},
		EventRXJMinus: {StateStopped, []Action{ActionTLF}},
	},
	StateAckSent: {
		EventDown:     {StateStarting, nil},
		EventOpen:     {StateAckSent, nil},
		EventClose:    {StateClosing, []Action{ActionIRC, ActionSTR}},
		EventTOPlus:   {StateAckSent, []Action{ActionSCR}},
		EventTOMinus:  {StateStopped, []Action{ActionTLF}},
		EventRCRPlus:  {StateAckSent, []Action{ActionSCA}},
		EventRCRMinus: {StateReqSent, []Action{ActionSCN}},
		EventRCA:      {StateOpened, []Action{ActionIRC, ActionTLU}},
		EventRCN:      {StateAckSent, []Action{ActionIRC, ActionSCR}},
		EventRTR:      {StateReqSent, []Action{ActionSTA}},
		EventRTA:      {StateAckSent, nil},
		EventRUC:      {StateAckSent, []Action{ActionSCJ}},
		EventRXJPlus:  {StateAckSent, nil},
		EventRXJMinus: {StateStopped, []Action{ActionTLF}},
	},
	StateOpened: {
		EventDown:     {StateStarting, []Action{ActionTLD}},
		EventClose:    {StateClosing, []Action{ActionTLD, ActionIRC, ActionSTR}},
		EventRCRPlus:  {StateAckSent, []Action{ActionTLD, ActionSCR, ActionSCA}},
		EventRCRMinus: {StateReqSent, []Action{ActionTLD, ActionSCR, ActionSCN}},
		EventRCA:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
		EventRCN:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
		EventRTR:      {StateStopping, []Action{ActionTLD, ActionZRC, ActionSTA}},
		EventRTA:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
		EventRUC:      {StateOpened, []Action{ActionSCJ}},
		EventRXJMinus: {StateClosing, []Action{ActionTLD, ActionIRC, ActionSTR}},
		EventRXR:      {StateOpened, []Action{ActionSER}},
	},
}

// lookupTransition returns the transition for (state, event), and
// false if that event is not defined in that state (the event must
// be silently ignored, per invariant and the automaton's failure
// semantics).
func lookupTransition(s State, e Event) (transition, bool) {
	row, ok := transitionTable[s]
	if !ok {
		return transition{}, false
	}
	t, ok := row[e]
	return t, ok
}
