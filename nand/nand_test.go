package nand

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

func pageBufOf(chip ChipInfo, fill byte) []byte {
	buf := make([]byte, chip.PageSize+chip.OOBSize)
	for i := range buf {
		buf[i] = fill
	}
	return buf
}

// scenario (c): GigaDevice probe and unlock.
func TestProbeAndOpenGigaDevice(t *testing.T) {
	f := &fakeSPI{reads: [][]byte{
		{mfrGigaDevice, 0xF1, 0x00}, // ReadID
		{0x00},                     // GetFeature(AddrProtection) in applyOnce
		{0x00},                     // GetFeature(AddrFeature)
	}}
	flash, err := Open(context.Background(), f, BadBlockPolicy{})
	require.NoError(t, err)
	require.Equal(t, "GD5F1GQ4UAYIG", flash.Chip().Name)
}

func TestProbeNotDetected(t *testing.T) {
	f := &fakeSPI{reads: [][]byte{
		{0x00, 0x00, 0x00}, // ReadID
		{0x00, 0x00, 0x00}, // ReadID2
		{0x00}, {0x00, 0x00}, // ReadID3 (dummy, then mfr/dev)
	}}
	_, err := Probe(context.Background(), f)
	require.ErrorIs(t, err, ErrNotDetected)
}

// property 5: writing an all-0xFF page issues no transfer.
func TestWritePageAllFFSkipsTransfer(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{}
	flash := &Flash{spi: f, chip: chip}
	buf := pageBufOf(chip, 0xFF)
	require.NoError(t, flash.WritePage(context.Background(), 0, 0, buf))
	require.Empty(t, f.writes)
}

// property 6: a written page is served from the cache on the next read
// of the same page number, without reissuing page_read/read_from_cache.
func TestWritePageThenReadPageServedFromCache(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{reads: [][]byte{{0x00}}} // status3 clear for write's waitOIP
	flash := &Flash{spi: f, chip: chip}
	buf := pageBufOf(chip, 0xAB)
	require.NoError(t, flash.WritePage(context.Background(), 0, 0, buf))

	// no further fake reads queued: a cache hit must not touch the bus.
	out := make([]byte, chip.PageSize+chip.OOBSize)
	require.NoError(t, flash.ReadPage(context.Background(), 0, out))
	require.Equal(t, buf, out)
	require.Empty(t, f.reads)
}

// cache consistency: a read of a different page invalidates and
// reloads, issuing a real page_read/read_from_cache pair.
func TestReadPageDifferentPageReloadsCache(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	other := pageBufOf(chip, 0x55)
	f := &fakeSPI{reads: [][]byte{
		{0x00}, // write's waitOIP
		{0x00}, other, // page_read's waitOIP, then read_from_cache for page 1
	}}
	flash := &Flash{spi: f, chip: chip}
	require.NoError(t, flash.WritePage(context.Background(), 0, 0, pageBufOf(chip, 0xAB)))

	out := make([]byte, chip.PageSize+chip.OOBSize)
	require.NoError(t, flash.ReadPage(context.Background(), 1, out))
	require.Equal(t, other, out)
}

// scenario (d): Mira PSU1GS20BN ECC decode reports an uncorrectable
// error as a bad block.
func TestReadPageUncorrectableECCReportsBadBlock(t *testing.T) {
	chip, ok := Lookup(mfrMira, 0x21)
	require.True(t, ok)
	shape := eccShapeFor(chip.MfrID, chip.DevID)
	status := byte(shape.threshold<<shape.shift) & shape.mask
	f := &fakeSPI{reads: [][]byte{{status}, pageBufOf(chip, 0)}}
	flash := &Flash{spi: f, chip: chip}
	out := make([]byte, chip.PageSize+chip.OOBSize)
	err := flash.ReadPage(context.Background(), 0, out)
	require.ErrorIs(t, err, ErrBadBlock)
}

func TestWritePageProgramFailureReportsErrProgramFailed(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{reads: [][]byte{{0x08}}} // status3 program-fail bit set
	flash := &Flash{spi: f, chip: chip}
	err := flash.WritePage(context.Background(), 0, 0, pageBufOf(chip, 0xAB))
	require.ErrorIs(t, err, ErrProgramFailed)
	require.NotErrorIs(t, err, ErrEraseFailed)
}

func TestEraseBlockFailureSkippedUnderPolicy(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{reads: [][]byte{{0x04}}} // status3 erase-fail bit set
	flash := &Flash{spi: f, chip: chip, policy: BadBlockPolicy{SkipBadPage: true}}
	err := flash.EraseBlock(context.Background(), 0)
	require.NoError(t, err)
}

func TestReadAtBoundsExceed(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	f := &fakeSPI{}
	flash := &Flash{spi: f, chip: chip}
	total := chip.NumBlocks() * chip.PagesPerBlock()
	err := flash.ReadAt(context.Background(), total, 1, nil)
	require.ErrorIs(t, err, ErrBoundsExceed)
}

// scenario (e): skip-bad write. Writing 3 pages of one block where the
// middle page reports ProgramFail still writes the other two pages and
// returns no error under SkipBadPage, with written_bytes == 2 * page stride.
func TestWriteAtSkipsBadPageUnderPolicy(t *testing.T) {
	chip, ok := Lookup(mfrMXIC, 0x51)
	require.True(t, ok)
	stride := int(chip.PageSize + chip.OOBSize)
	src := make([]byte, 3*stride)
	for i := range src {
		src[i] = 0xAB
	}
	f := &fakeSPI{reads: [][]byte{
		{0x00}, // EraseBlock's waitOIP
		{0x00}, // page 0 program's waitOIP
		{0x08}, // page 1 program's waitOIP: program fail
		{0x00}, // page 2 program's waitOIP
	}}
	flash := &Flash{spi: f, chip: chip, policy: BadBlockPolicy{SkipBadPage: true}}
	written, err := flash.WriteAt(context.Background(), 0, 3, src)
	require.NoError(t, err)
	require.Equal(t, uint32(2*stride), written)
}

// die select: a dual-die chip issues die_select only when the page
// being addressed crosses into the other die.
func TestReadPageSelectsDieOnChange(t *testing.T) {
	chip, ok := Lookup(mfrWinbond, 0xAA)
	require.True(t, ok)
	totalPages := chip.NumBlocks() * chip.PagesPerBlock()
	secondDiePage := totalPages / 2
	f := &fakeSPI{reads: [][]byte{
		{0x00}, pageBufOf(chip, 0xFF), // page on die 0
		{0x00}, pageBufOf(chip, 0xFF), // page on die 1
	}}
	flash := &Flash{spi: f, chip: chip}
	buf := make([]byte, chip.PageSize+chip.OOBSize)
	require.NoError(t, flash.ReadPage(context.Background(), 0, buf))
	require.NoError(t, flash.ReadPage(context.Background(), secondDiePage, buf))

	var dieSelects int
	for _, w := range f.writes {
		if len(w) == 1 && w[0] == 0xC2 {
			dieSelects++
		}
	}
	require.Equal(t, 2, dieSelects)
}
