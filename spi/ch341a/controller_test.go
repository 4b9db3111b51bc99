package ch341a

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mklimuk/ch341prog/usbtransport"
)

// TestPacketizeConservation verifies spec §8 property 2: packet payloads
// concatenate back to exactly the input, split into chunks of at most
// MaxPacketPayload bytes each, covering every byte exactly once.
func TestPacketizeConservation(t *testing.T) {
	payload := make([]byte, 120)
	for i := range payload {
		payload[i] = byte(i)
	}

	packets := Packetize(payload)

	var recombined []byte
	for _, p := range packets {
		require.LessOrEqual(t, len(p), usbtransport.MaxPacketPayload)
		recombined = append(recombined, p...)
	}
	require.Equal(t, payload, recombined)

	wantPackets := (len(payload) + usbtransport.MaxPacketPayload - 1) / usbtransport.MaxPacketPayload
	require.Len(t, packets, wantPackets)
}

func TestPacketizeEmpty(t *testing.T) {
	require.Nil(t, Packetize(nil))
}

func TestPacketizeExactMultiple(t *testing.T) {
	payload := make([]byte, usbtransport.MaxPacketPayload*3)
	packets := Packetize(payload)
	require.Len(t, packets, 3)
	for _, p := range packets {
		require.Len(t, p, usbtransport.MaxPacketPayload)
	}
}
