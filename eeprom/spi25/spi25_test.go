package spi25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSPI struct {
	writes [][]byte
	reads  [][]byte
}

func (f *fakeSPI) ChipSelect(ctx context.Context, low bool) error { return nil }

func (f *fakeSPI) WriteOneByte(ctx context.Context, b byte) error {
	f.writes = append(f.writes, []byte{b})
	return nil
}

func (f *fakeSPI) WriteNByte(ctx context.Context, buf []byte) error {
	f.writes = append(f.writes, append([]byte(nil), buf...))
	return nil
}

func (f *fakeSPI) ReadNByte(ctx context.Context, n int) ([]byte, error) {
	if len(f.reads) == 0 {
		return make([]byte, n), nil
	}
	r := f.reads[0]
	f.reads = f.reads[1:]
	return r, nil
}

func TestAddrFraming9BitFoldsA8IntoOpcode(t *testing.T) {
	chip, ok := Lookup("25040")
	require.True(t, ok)
	f := Open(&fakeSPI{}, chip)
	opcode, addr := f.addrFraming(opREAD, 0x1FF)
	require.Equal(t, byte(opREAD|0x08), opcode)
	require.Equal(t, []byte{0xFF}, addr)
}

func TestWriteChunksAtPageBoundary(t *testing.T) {
	chip, ok := Lookup("25320")
	require.True(t, ok)
	s := &fakeSPI{}
	f := Open(s, chip)
	data := make([]byte, pageSize+3)
	require.NoError(t, f.Write(context.Background(), 0, data))
	// at least two page_write calls, each followed by a status poll
	require.GreaterOrEqual(t, len(s.writes), 4)
}

func TestReadBoundsExceed(t *testing.T) {
	chip, ok := Lookup("25010")
	require.True(t, ok)
	f := Open(&fakeSPI{}, chip)
	err := f.Read(context.Background(), make([]byte, 10), chip.TotalBytes)
	require.ErrorIs(t, err, ErrBoundsExceed)
}
