package ppp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/hdlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSendWritesFramedBytes(t *testing.T) {
	var buf bytes.Buffer
	l := NewLink(&buf, clock.NewFake())

	err := l.Send(ProtoIPv4, []byte{0xaa, 0xbb})
	require.NoError(t, err)

	d := hdlc.New()
	var frame []byte
	var ok bool
	for _, b := range buf.Bytes() {
		frame, ok = d.PushByte(b)
		if ok {
			break
		}
	}
	require.True(t, ok)

	proto, payload, err := l.Encap.Recv(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(ProtoIPv4), proto)
	assert.Equal(t, []byte{0xaa, 0xbb}, payload)
}

func TestLinkSendPropagatesTooLong(t *testing.T) {
	var buf bytes.Buffer
	l := NewLink(&buf, clock.NewFake())
	l.Encap.PeerMRU = 1

	err := l.Send(ProtoIPv4, make([]byte, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLong))
	assert.Zero(t, buf.Len())
}
