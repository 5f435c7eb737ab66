package pktbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocSize(t *testing.T) {
	s := Alloc(128, TypeHDLC)
	require.NotNil(t, s)
	assert.Equal(t, 128, s.Len())
	assert.Equal(t, TypeHDLC, s.Type)
}

func TestAllocOversized(t *testing.T) {
	s := Alloc(poolChunkSize+1, TypeNetwork)
	assert.Equal(t, poolChunkSize+1, s.Len())
}

func TestMarkAliases(t *testing.T) {
	s := Alloc(16, TypeHDLC)
	copy(s.Bytes(), []byte("0123456789abcdef"))

	m := Mark(s, 4, 4, TypePPP)
	assert.Equal(t, []byte("4567"), m.Bytes())

	m.Bytes()[0] = 'X'
	assert.Equal(t, byte('X'), s.Bytes()[4], "Mark should alias the parent's backing array")
}

func TestReallocGrowShrink(t *testing.T) {
	s := Alloc(4, TypeUndefined)
	copy(s.Bytes(), []byte("abcd"))

	grown := Realloc(s, poolChunkSize+10)
	assert.Equal(t, poolChunkSize+10, grown.Len())
	assert.Equal(t, []byte("abcd"), grown.Bytes()[:4])

	shrunk := Realloc(grown, 2)
	assert.Equal(t, 2, shrunk.Len())
}

func TestReleaseNilIsSafe(t *testing.T) {
	assert.NotPanics(t, func() { Release(nil) })
}
