package nand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// comment 4: unaligned byte offsets are no longer rejected, they go
// through WritePage's read-modify-write overlay.
func TestByteDeviceWriteOverlaysUnalignedAccess(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{reads: [][]byte{
		{0x00}, pageBufOf(chip, 0xFF), // loadPageCache: waitOIP, read_from_cache
		{0x00}, // WritePage's waitOIP after program_execute
	}}
	flash := &Flash{spi: f, chip: chip}
	d := NewByteDevice(flash)
	require.NoError(t, d.Write(context.Background(), 1, []byte{0x42}))
	require.True(t, flash.cache.valid)
	require.Equal(t, byte(0x42), flash.cache.data[1])
}

func TestByteDeviceReadUnalignedAccess(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	page := pageBufOf(chip, 0x7A)
	f := &fakeSPI{reads: [][]byte{{0x00}, page}}
	flash := &Flash{spi: f, chip: chip}
	d := NewByteDevice(flash)
	out := make([]byte, 4)
	require.NoError(t, d.Read(context.Background(), out, 1))
	require.Equal(t, page[1:5], out)
}

func TestByteDeviceSize(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	flash := &Flash{spi: &fakeSPI{}, chip: chip}
	d := NewByteDevice(flash)
	require.Equal(t, chip.NumBlocks()*chip.PagesPerBlock()*(chip.PageSize+chip.OOBSize), d.Size())
}
