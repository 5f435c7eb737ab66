package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRXRingFIFOOrder(t *testing.T) {
	r := NewRXRing(8)
	for _, b := range []byte{1, 2, 3} {
		require.True(t, r.Push(b))
	}
	for _, want := range []byte{1, 2, 3} {
		got, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := r.Pop()
	assert.False(t, ok)
}

func TestRXRingDropsOnFull(t *testing.T) {
	r := NewRXRing(1)
	require.True(t, r.Push(1))
	assert.False(t, r.Push(2), "ring sized for 1 usable byte should reject a second push")
}

func TestPropertyRXRingPreservesOrderAndLen(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(t, "capacity")
		r := NewRXRing(capacity)
		bytes := rapid.SliceOfN(rapid.Byte(), 0, capacity).Draw(t, "bytes")

		var pushed []byte
		for _, b := range bytes {
			if r.Push(b) {
				pushed = append(pushed, b)
			}
		}
		assert.Equal(t, len(pushed), r.Len())

		var popped []byte
		for {
			b, ok := r.Pop()
			if !ok {
				break
			}
			popped = append(popped, b)
		}
		assert.Equal(t, pushed, popped)
	})
}
