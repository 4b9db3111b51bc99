package protocol

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
	r := f.reads[0]
	f.reads = f.reads[1:]
	return r, nil
}

func TestReadID(t *testing.T) {
	f := &fakeSPI{reads: [][]byte{{0xc8, 0x51, 0x00}}}
	id, err := ReadID(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, ID{Mfr: 0xc8, Dev: 0x51, Dev2: 0x00}, id)
	require.Equal(t, []byte{opReadID}, f.writes[0])
	require.Equal(t, []byte{0x00}, f.writes[1])
}

func TestReadID3SkipsDummyByte(t *testing.T) {
	f := &fakeSPI{reads: [][]byte{{0x00}, {0xc8, 0x51}}}
	id, err := ReadID3(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, ID{Mfr: 0xc8, Dev: 0x51}, id)
}

func TestBlockEraseShiftsRowAddress(t *testing.T) {
	f := &fakeSPI{}
	require.NoError(t, BlockErase(context.Background(), f, 3))
	require.Equal(t, []byte{opBlockErase}, f.writes[0])
	row := uint32(3) << blockRowAddressShift
	require.Equal(t, []byte{byte(row >> 16)}, f.writes[1])
	require.Equal(t, []byte{byte(row >> 8)}, f.writes[2])
	require.Equal(t, []byte{byte(row)}, f.writes[3])
}

func TestPlaneSelectAddrHigh(t *testing.T) {
	require.Equal(t, byte(0x12), planeSelectAddrHigh(0x1234, false, 0))
	require.Equal(t, byte(0x12&0xef), planeSelectAddrHigh(0x1234, true, 0))
	require.Equal(t, byte(0x12|0x10), planeSelectAddrHigh(0x1234, true, 1))
}

func TestDieSelect2TogglesMicronBit(t *testing.T) {
	f := &fakeSPI{reads: [][]byte{{0x00}}}
	require.NoError(t, DieSelect2(context.Background(), f, 1))
	// SetFeature writes opcode, addr, data in sequence.
	last := f.writes[len(f.writes)-1]
	require.Equal(t, []byte{DieSelectBitMicron}, last)

	f2 := &fakeSPI{reads: [][]byte{{DieSelectBitMicron}}}
	require.NoError(t, DieSelect2(context.Background(), f2, 0))
	last2 := f2.writes[len(f2.writes)-1]
	require.Equal(t, []byte{0x00}, last2)
}

func TestProgramLoadAndReadFromCacheRoundTrip(t *testing.T) {
	f := &fakeSPI{}
	data := []byte{0x01, 0x02, 0x03}
	require.NoError(t, ProgramLoad(context.Background(), f, 0x0100, data, false, 0))

	f.reads = [][]byte{{0x01, 0x02, 0x03}}
	buf := make([]byte, 3)
	require.NoError(t, ReadFromCache(context.Background(), f, 0x0100, buf, false, 0, DummyNone))
	require.Equal(t, data, buf)
}
