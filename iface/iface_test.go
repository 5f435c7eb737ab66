package iface

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	buf bytes.Buffer
	dialed  string
	hungUp  bool
	dialErr error
}

func (f *fakeTransport) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeTransport) Close() error                { return nil }
func (f *fakeTransport) Dial(code string) error {
	if f.dialErr != nil {
		return f.dialErr
	}
	f.dialed = code
	f.hungUp = false
	return nil
}
func (f *fakeTransport) HangUp() error {
	f.hungUp = true
	return nil
}

func newTestInterface(t *testing.T) (*Interface, *fakeTransport) {
	tr := &fakeTransport{}
	ifc := New(tr, clock.NewFake(), "alice", "hunter2", net.IPv4(10, 0, 0, 1), 1, 0)
	go ifc.Run()
	t.Cleanup(ifc.Stop)
	return ifc, tr
}

func TestOnByteDrainsThroughToLCPConfigureRequest(t *testing.T) {
	ifc, tr := newTestInterface(t)

	// Feed a minimal LCP Configure-Request, framed, one byte at a time:
	// 7E FF 03 C0 21 01 01 00 04 <fcs> 7E.
	frame := ifc.Link.Framer.Frame(0, []byte{0xff, 0x03}, []byte{0xc0, 0x21}, []byte{0x01, 0x01, 0x00, 0x04})
	for _, b := range frame {
		ifc.OnByte(b)
	}

	// Get() is processed by the same single worker queue as the RX
	// bytes just enqueued, so its return is a barrier: by the time it
	// completes, the frame above has already been drained and
	// classified against the automaton, which was already in ReqSent
	// (DCP opens LCP as soon as the worker starts) and should have
	// accepted the empty Configure-Request and moved to AckSent.
	state, err := ifc.Get(OptLCPState)
	require.NoError(t, err)
	assert.Equal(t, ona.StateAckSent, state)
	assert.NotZero(t, tr.buf.Len())
}

func TestSetAccmRXUpdatesFramer(t *testing.T) {
	ifc, _ := newTestInterface(t)
	err := ifc.Set(OptAccmRX, []byte{0, 0, 0, 0})
	require.NoError(t, err)

	var got uint32
	require.Eventually(t, func() bool {
		got = uint32(ifc.Link.Framer.RxAccm)
		return got == 0
	}, time.Second, time.Millisecond)
}

func TestSetAccmRXRejectsWrongLength(t *testing.T) {
	ifc, _ := newTestInterface(t)
	err := ifc.Set(OptAccmRX, []byte{0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetIsWiredAndDeviceType(t *testing.T) {
	ifc, _ := newTestInterface(t)

	wired, err := ifc.Get(OptIsWired)
	require.NoError(t, err)
	assert.Equal(t, false, wired)

	devType, err := ifc.Get(OptDeviceType)
	require.NoError(t, err)
	assert.Equal(t, DeviceTypePPPOS, devType)
}

func TestGetLCPStateReflectsAutomaton(t *testing.T) {
	ifc, _ := newTestInterface(t)
	state, err := ifc.Get(OptLCPState)
	require.NoError(t, err)
	assert.Equal(t, ona.StateReqSent, state)
}

func TestSetDialUpDialsAndHangUpClosesLink(t *testing.T) {
	ifc, tr := newTestInterface(t)

	err := ifc.Set(OptDialUp, []byte("*99#"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return tr.dialed == "*99#" }, time.Second, time.Millisecond)

	err = ifc.Set(OptDialUp, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return tr.hungUp }, time.Second, time.Millisecond)
}

func TestSetUnsupportedOptionIgnoredButNoError(t *testing.T) {
	ifc, _ := newTestInterface(t)
	err := ifc.Set(OptAPNName, []byte("internet"))
	assert.NoError(t, err)
}

func TestGetUnsupportedOptionErrors(t *testing.T) {
	ifc, _ := newTestInterface(t)
	_, err := ifc.Get(Option(999))
	assert.True(t, errors.Is(err, ErrNotSupported))
}
