package bitswap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInvolution verifies spec property 1: swap(swap(b)) == b for every byte.
func TestInvolution(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		require.Equal(t, b, Byte(Byte(b)), "byte %#x did not round-trip", b)
	}
}

func TestKnownValues(t *testing.T) {
	require.Equal(t, byte(0x00), Byte(0x00))
	require.Equal(t, byte(0xFF), Byte(0xFF))
	require.Equal(t, byte(0x01), Byte(0x80))
	require.Equal(t, byte(0x80), Byte(0x01))
	require.Equal(t, byte(0xA5), Byte(0xA5)) // palindromic bit pattern
}

func TestBytesAndCopy(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03}
	cp := Copy(src)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, src, "Copy must not mutate input")
	require.Equal(t, []byte{0x80, 0x40, 0xC0}, cp)

	Bytes(src)
	require.Equal(t, []byte{0x80, 0x40, 0xC0}, src, "Bytes mutates in place")
}
