package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type fakeBus struct {
	txs [][]byte
}

func (b *fakeBus) String() string { return "fake" }
func (b *fakeBus) Halt() error    { return nil }
func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.txs = append(b.txs, append([]byte(nil), w...))
	return nil
}
func (b *fakeBus) SetSpeed(f physic.Frequency) error { return nil }

func TestWriteChunksAtPageBoundary(t *testing.T) {
	chip, ok := Lookup("24C02")
	require.True(t, ok)
	bus := &fakeBus{}
	f := Open(bus, 0x50, chip)
	data := make([]byte, chip.PageSize+3)
	require.NoError(t, f.Write(context.Background(), 0, data))
	// one tx per page chunk plus one ack-poll per chunk
	require.GreaterOrEqual(t, len(bus.txs), 2)
}

func TestWriteUnsupportedWithoutPageSize(t *testing.T) {
	f := Open(&fakeBus{}, 0x50, ChipInfo{Name: "unknown", Size: 256})
	err := f.Write(context.Background(), 0, []byte{0x01})
	require.ErrorIs(t, err, ErrWriteUnsupported)
}
