package ipv6cp

import (
	"bytes"
	"testing"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/ona"
	"github.com/ppplink/ppp/ppp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIPv6CP(localIID uint64) (*IPv6CP, *bytes.Buffer) {
	var buf bytes.Buffer
	link := ppp.NewLink(&buf, clock.NewFake())
	return New(link, clock.NewFake(), localIID), &buf
}

func TestLinkLocalCombinesFE80Prefix(t *testing.T) {
	addr := LinkLocal(0x0203040506070809)
	require.Len(t, addr, 16)
	assert.Equal(t, byte(0xfe), addr[0])
	assert.Equal(t, byte(0x80), addr[1])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, []byte(addr[2:8]))
	assert.Equal(t, []byte{0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, []byte(addr[8:]))
}

func TestRecvConfigureRequestLearnsPeerIID(t *testing.T) {
	cp, _ := newTestIPv6CP(0x1)
	peerIID := uint64(0xaabbccddeeff0011)
	opts := []ona.Option{{Type: optInterfaceIdentifier, Value: iidBytes(peerIID)}}
	pkt := ona.Packet{Code: ona.CodeConfigureRequest, ID: 1, Data: ona.OptionsBytes(opts)}

	err := cp.Recv(pkt.Bytes())
	require.NoError(t, err)
	assert.Equal(t, peerIID, cp.PeerIID)
	assert.Equal(t, LinkLocal(peerIID), cp.PeerLinkLocal())
}

func TestOpenWaitsForNotifyLowerUpBeforeNegotiating(t *testing.T) {
	cp, buf := newTestIPv6CP(0x1)
	cp.Open()
	assert.Equal(t, ona.StateStarting, cp.Automaton.State)
	assert.Zero(t, buf.Len())

	cp.NotifyLowerUp()
	assert.Equal(t, ona.StateReqSent, cp.Automaton.State)
	assert.NotZero(t, buf.Len())
}

func TestLocalLinkLocalUsesOfferedIID(t *testing.T) {
	cp, _ := newTestIPv6CP(0x42)
	assert.Equal(t, LinkLocal(0x42), cp.LocalLinkLocal())
}
