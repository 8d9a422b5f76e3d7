package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRingPushPop(t *testing.T) {
	r := NewPacketRing(4)
	require.NoError(t, r.Push([]byte("hello")))
	require.NoError(t, r.Push([]byte("world")))
	assert.Equal(t, 2, r.Len())

	buf := make([]byte, maxPacketLen)
	out, ok := r.Pop(buf)
	require.True(t, ok)
	assert.Equal(t, "hello", string(out))

	out, ok = r.Pop(buf)
	require.True(t, ok)
	assert.Equal(t, "world", string(out))

	_, ok = r.Pop(buf)
	assert.False(t, ok)
}

func TestPacketRingRejectsOnFull(t *testing.T) {
	r := NewPacketRing(2)
	require.NoError(t, r.Push([]byte("a")))
	require.NoError(t, r.Push([]byte("b")))

	err := r.Push([]byte("c"))
	assert.ErrorIs(t, err, ErrRingFull)
}

func TestPacketRingCapRoundsUpToPowerOfTwo(t *testing.T) {
	r := NewPacketRing(3)
	assert.Equal(t, 4, r.Cap())
}

func TestPacketRingRejectsOversizePacket(t *testing.T) {
	r := NewPacketRing(4)
	err := r.Push(make([]byte, maxPacketLen+1))
	assert.ErrorIs(t, err, ErrRingFull)
}
