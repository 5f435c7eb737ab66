package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func frameAndDeframe(t *rapid.T, f *Framer, d *Framer, address, control byte, info []byte) []byte {
	wire := f.Frame(1, []byte{address}, []byte{control}, info)

	var got []byte
	var ok bool
	for _, b := range wire {
		got, ok = d.PushByte(b)
		if ok {
			break
		}
	}
	if !ok {
		t.Fatalf("deframer never produced a frame for input %v (wire %v)", info, wire)
	}
	return got
}

// P1: framer round-trip.
func TestFramerRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		info := rapid.SliceOfN(rapid.Byte(), 0, 1400).Draw(t, "info")

		f := New()
		d := New()

		got := frameAndDeframe(t, f, d, 0xff, 0x03, info)

		want := append([]byte{0xff, 0x03}, info...)
		assert.Equal(t, want, got)
		assert.Equal(t, uint64(1), d.Stats.FramesReceivedOK.Load())
	})
}

// P2: ACCM-mapped control characters never appear unescaped on the
// wire, and are dropped if fed straight into the deframer's input.
func TestFramerACCM(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		accmBits := rapid.Uint32().Draw(t, "accm")
		accm := Accm(accmBits)
		info := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "info")

		f := New()
		f.TxAccm = accm
		wire := f.Frame(1, []byte{0xff}, []byte{0x03}, info)

		for b := byte(0); b < 0x20; b++ {
			if accm.IsSet(b) {
				for i, w := range wire {
					if w == b {
						t.Fatalf("unescaped mapped byte %#x found at offset %d in %v", b, i, wire)
					}
				}
			}
		}

		// Flag and escape are always escaped, regardless of accm.
		interior := wire[1 : len(wire)-1]
		for _, w := range interior {
			assert.NotEqual(t, flagByte, w)
		}

		// Feeding a mapped byte straight into the deframer drops it.
		if accmBits != 0 {
			var mapped byte
			found := false
			for b := byte(0); b < 0x20; b++ {
				if accm.IsSet(b) {
					mapped = b
					found = true
					break
				}
			}
			if found {
				d := New()
				d.RxAccm = accm
				d.PushByte(flagByte)
				_, ok := d.PushByte(mapped)
				assert.False(t, ok)
				assert.Empty(t, d.rxBuf)
			}
		}
	})
}

func TestFramerFlagAndEscapeAlwaysEscaped(t *testing.T) {
	f := New()
	f.TxAccm = 0 // nothing in the configured map
	wire := f.Frame(1, []byte{0xff}, []byte{0x03}, []byte{flagByte, escByte})

	interior := wire[1 : len(wire)-1]
	// 0x7E and 0x7D must appear only as part of an escape sequence.
	for i := 0; i < len(interior); i++ {
		if interior[i] == escByte {
			i++ // skip escaped byte
			continue
		}
		assert.NotEqual(t, flagByte, interior[i])
		assert.NotEqual(t, escByte, interior[i])
	}
}

func TestFramerBadFCSDropped(t *testing.T) {
	d := New()
	wire := []byte{flagByte, 0xff, 0x03, 0xc0, 0x21, 0x01, 0x01, 0x00, 0x04, 0x00, 0x00, flagByte}

	var ok bool
	for _, b := range wire {
		_, ok = d.PushByte(b)
	}
	assert.False(t, ok)
	assert.Equal(t, uint64(1), d.Stats.FramesReceivedBadFCS.Load())
	assert.Equal(t, uint64(0), d.Stats.FramesReceivedOK.Load())
}

func TestFramerShortFrameDroppedSilently(t *testing.T) {
	d := New()
	// Fewer than 4 bytes between flags.
	wire := []byte{flagByte, 0xff, 0x03, flagByte}

	var ok bool
	for _, b := range wire {
		_, ok = d.PushByte(b)
	}
	assert.False(t, ok)
	assert.Equal(t, uint64(1), d.Stats.FramesReceivedShort.Load())
	assert.Equal(t, uint64(0), d.Stats.FramesReceivedBadFCS.Load())
}

// Literal LCP Configure-Request bytes, byte-stuffed and FCS'd.
func TestScenarioLCPConfigureRequestMinimumForm(t *testing.T) {
	payload := []byte{0xff, 0x03, 0xc0, 0x21, 0x01, 0x01, 0x00, 0x04}
	fcs := ComputeFCS16(payload)
	fcs = ^fcs
	wire := []byte{flagByte}
	unstuffed := append(append([]byte(nil), payload...), byte(fcs&0xff), byte(fcs>>8))
	for _, b := range unstuffed {
		if mustEscape(DefaultAccm, b) {
			wire = append(wire, escByte, b^escXOR)
		} else {
			wire = append(wire, b)
		}
	}
	wire = append(wire, flagByte)

	d := New()
	var got []byte
	var ok bool
	for _, b := range wire {
		got, ok = d.PushByte(b)
	}
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0x03, 0xc0, 0x21, 0x01, 0x01, 0x00, 0x04}, got)
}
