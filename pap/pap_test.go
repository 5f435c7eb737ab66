package pap

import (
	"bytes"
	"testing"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ppp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPAP() (*PAP, *bytes.Buffer, *clock.FakeClock) {
	var buf bytes.Buffer
	fc := clock.NewFake()
	link := ppp.NewLink(&buf, fc)
	return New(link, fc, "alice", "hunter2"), &buf, fc
}

func TestStartSendsAuthenticateRequest(t *testing.T) {
	p, buf, _ := newTestPAP()
	p.Start()

	assert.Equal(t, StateStarted, p.State)
	assert.NotZero(t, buf.Len())
}

func TestStartTwiceIsIdempotent(t *testing.T) {
	p, buf, _ := newTestPAP()
	p.Start()
	n := buf.Len()
	p.Start()
	assert.Equal(t, n, buf.Len())
}

func TestRecvAckTransitionsUp(t *testing.T) {
	p, _, _ := newTestPAP()
	upCalled := false
	p.OnUp = func() { upCalled = true }
	p.Start()

	ack := []byte{codeAuthenticateAck, p.id, 0, 4}
	err := p.Recv(ack)
	require.NoError(t, err)
	assert.Equal(t, StateUp, p.State)
	assert.True(t, upCalled)
}

func TestRecvNakTransitionsDown(t *testing.T) {
	p, _, _ := newTestPAP()
	downCalled := false
	p.OnDown = func() { downCalled = true }
	p.Start()

	nak := []byte{codeAuthenticateNak, p.id, 0, 4}
	err := p.Recv(nak)
	require.NoError(t, err)
	assert.Equal(t, StateDown, p.State)
	assert.True(t, downCalled)
}

func TestRecvWrongIDIgnored(t *testing.T) {
	p, _, _ := newTestPAP()
	p.Start()

	ack := []byte{codeAuthenticateAck, p.id + 1, 0, 4}
	err := p.Recv(ack)
	require.NoError(t, err)
	assert.Equal(t, StateStarted, p.State)
}

func TestRecvTruncatedPacketErrors(t *testing.T) {
	p, _, _ := newTestPAP()
	err := p.Recv([]byte{1, 2})
	assert.ErrorIs(t, err, ErrBadPacket)
}

func TestRetriesThreeTimesThenDown(t *testing.T) {
	p, buf, fc := newTestPAP()
	downCalled := false
	p.OnDown = func() { downCalled = true }
	p.Start()

	for i := 0; i < maxRetries; i++ {
		buf.Reset()
		fc.Advance(retryPeriod)
	}

	assert.Equal(t, StateDown, p.State)
	assert.True(t, downCalled)
}

func TestEncodeRequestLengthPrefixedFields(t *testing.T) {
	body := encodeRequest("ab", "cde")
	assert.Equal(t, []byte{2, 'a', 'b', 3, 'c', 'd', 'e'}, body)
}
