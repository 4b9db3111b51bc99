package nand

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/ch341prog/nand/protocol"
)

// Errors returned by Flash operations.
var (
	ErrNotDetected   = errors.New("nand: chip not detected")
	ErrEraseFailed   = errors.New("nand: block erase reported failure")
	ErrProgramFailed = errors.New("nand: page program reported failure")
	ErrBadBlock      = errors.New("nand: uncorrectable ECC error (bad block)")
	ErrBoundsExceed  = errors.New("nand: access exceeds chip size")
)

// BadBlockPolicy controls how Read/Write react to a bad block.
// IgnoreECC and SkipBadPage are mutually exclusive: setting both is a
// programming error and IgnoreECC wins.
type BadBlockPolicy struct {
	// IgnoreECC reads the page anyway and returns the data ECC decoded
	// even when the status indicates an uncorrectable error.
	IgnoreECC bool
	// SkipBadPage skips the page entirely on a bad-block read/write
	// instead of returning ErrBadBlock/ErrEraseFailed/ErrProgramFailed.
	SkipBadPage bool
}

// pageCache mirrors the chip's own internal cache register: the last
// page loaded by page_read (or loaded for an in-progress program),
// along with its raw data+OOB bytes. A read for the same page the
// cache already holds skips page_read/read_from_cache entirely, and a
// sub-page write reads this cache's content to overlay instead of
// reissuing a cache load.
type pageCache struct {
	valid bool
	page  uint32
	data  []byte
}

// Flash is a probed, ready-to-use SPI NAND chip.
type Flash struct {
	spi        protocol.SPI
	chip       ChipInfo
	policy     BadBlockPolicy
	cache      pageCache
	currentDie byte
	dieValid   bool
}

// Probe reads the chip ID and looks it up in the chip table, trying
// the three read-ID framings the source supports in turn: plain ReadID
// first, then ReadID2 and ReadID3 when the ID read so far is not in the
// table.
func Probe(ctx context.Context, s protocol.SPI) (ChipInfo, error) {
	id, err := protocol.ReadID(ctx, s)
	if err != nil {
		return ChipInfo{}, err
	}
	if chip, ok := Lookup(id.Mfr, id.Dev); ok {
		return chip, nil
	}
	id2, err := protocol.ReadID2(ctx, s)
	if err == nil {
		if chip, ok := Lookup(id2.Mfr, id2.Dev); ok {
			return chip, nil
		}
	}
	id3, err := protocol.ReadID3(ctx, s)
	if err == nil {
		if chip, ok := Lookup(id3.Mfr, id3.Dev); ok {
			return chip, nil
		}
	}
	return ChipInfo{}, ErrNotDetected
}

// Open probes the chip and runs its vendor unlock/quad-enable sequence.
func Open(ctx context.Context, s protocol.SPI, policy BadBlockPolicy) (*Flash, error) {
	chip, err := Probe(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := unlock(ctx, s, chip); err != nil {
		return nil, fmt.Errorf("nand: unlock %s: %w", chip.Name, err)
	}
	return &Flash{spi: s, chip: chip, policy: policy}, nil
}

// Chip returns the detected chip descriptor.
func (f *Flash) Chip() ChipInfo { return f.chip }

func (f *Flash) pageOf(addr uint32) (block, page uint32) {
	pageSize := f.chip.PageSize
	absPage := addr / pageSize
	return absPage / f.chip.PagesPerBlock(), absPage
}

func (f *Flash) pageBytes() int { return int(f.chip.PageSize + f.chip.OOBSize) }

// dieOf computes which die pageNumber lives on, splitting the chip's
// address space evenly across its dies (Winbond/Micron-style parts in
// this table are all dual-die).
func (f *Flash) dieOf(pageNumber uint32) byte {
	totalPages := f.chip.NumBlocks() * f.chip.PagesPerBlock()
	if totalPages == 0 {
		return 0
	}
	if pageNumber >= totalPages/2 {
		return 1
	}
	return 0
}

// selectDie issues the chip's die-select mechanism when pageNumber
// falls on a different die than the last selected one, matching
// spec §4.5's "issue the select when the current die changes".
func (f *Flash) selectDie(ctx context.Context, pageNumber uint32) error {
	if f.chip.Feature&(FeatureDieSelect1|FeatureDieSelect2) == 0 {
		return nil
	}
	die := f.dieOf(pageNumber)
	if f.dieValid && f.currentDie == die {
		return nil
	}
	var err error
	switch {
	case f.chip.Feature&FeatureDieSelect1 != 0:
		err = protocol.DieSelect1(ctx, f.spi, die)
	case f.chip.Feature&FeatureDieSelect2 != 0:
		err = protocol.DieSelect2(ctx, f.spi, die)
	}
	if err != nil {
		return err
	}
	f.currentDie = die
	f.dieValid = true
	return nil
}

func (f *Flash) status3(ctx context.Context) (byte, error) {
	return protocol.GetFeature(ctx, f.spi, protocol.AddrStatus)
}

func (f *Flash) waitOIP(ctx context.Context) (byte, error) {
	for {
		s, err := f.status3(ctx)
		if err != nil {
			return 0, err
		}
		if s&protocol.StatusOIP == 0 {
			return s, nil
		}
	}
}

func (f *Flash) planeArgs(pageNumber uint32) (bool, byte) {
	hasPlane := f.chip.Feature&FeaturePlaneSelect != 0
	if !hasPlane {
		return false, 0
	}
	return true, byte(pageNumber & 0x01)
}

// loadPageCache loads pageNumber into the chip's cache and into our
// own mirror of it, unless our mirror already holds that page.
func (f *Flash) loadPageCache(ctx context.Context, pageNumber uint32) error {
	if f.cache.valid && f.cache.page == pageNumber {
		return nil
	}
	if err := f.selectDie(ctx, pageNumber); err != nil {
		return err
	}
	if err := protocol.PageRead(ctx, f.spi, pageNumber); err != nil {
		return err
	}
	status, err := f.waitOIP(ctx)
	if err != nil {
		return err
	}
	hasPlane, planeBit := f.planeArgs(pageNumber)
	buf := make([]byte, f.pageBytes())
	if err := protocol.ReadFromCache(ctx, f.spi, 0, buf, hasPlane, planeBit, protocol.DummyNone); err != nil {
		return err
	}
	shape := eccShapeFor(f.chip.MfrID, f.chip.DevID)
	if shape.uncorrectable(status) {
		if !f.policy.IgnoreECC {
			return ErrBadBlock
		}
	}
	f.cache = pageCache{valid: true, page: pageNumber, data: buf}
	return nil
}

// ReadPage reads one full page (data + OOB) into buf, which must be at
// least PageSize+OOBSize bytes. A request for the page already held in
// the cache is served without re-issuing page_read/read_from_cache,
// satisfying the cache-consistency property.
func (f *Flash) ReadPage(ctx context.Context, pageNumber uint32, buf []byte) error {
	total := f.pageBytes()
	if len(buf) < total {
		return fmt.Errorf("nand: read buffer too small, need %d got %d", total, len(buf))
	}
	if err := f.loadPageCache(ctx, pageNumber); err != nil {
		return err
	}
	copy(buf, f.cache.data)
	return nil
}

// WritePage programs a page, accepting data shorter than a full page:
// pageOffset/data describe a sub-page region to overlay. The existing
// page content is loaded through the cache (read-modify-write) and
// merged with data before the overlay is programmed, so callers never
// need to supply a full PageSize+OOBSize buffer for a partial update.
// Skips the transfer entirely when the merged page is all 0xFF: a NAND
// page already reads back as 0xFF after erase, so there is nothing to
// program.
func (f *Flash) WritePage(ctx context.Context, pageNumber uint32, pageOffset uint32, data []byte) error {
	total := f.pageBytes()
	if int(pageOffset)+len(data) > total {
		return fmt.Errorf("nand: write overruns page, offset %d len %d page %d", pageOffset, len(data), total)
	}
	merged := make([]byte, total)
	if pageOffset != 0 || len(data) != total {
		if err := f.loadPageCache(ctx, pageNumber); err != nil && !errors.Is(err, ErrBadBlock) {
			return err
		}
		if f.cache.valid && f.cache.page == pageNumber {
			copy(merged, f.cache.data)
		} else {
			for i := range merged {
				merged[i] = 0xFF
			}
		}
	}
	copy(merged[pageOffset:], data)

	if isAllFF(merged) {
		f.cache = pageCache{valid: true, page: pageNumber, data: merged}
		return nil
	}

	if err := f.selectDie(ctx, pageNumber); err != nil {
		return err
	}
	hasPlane, planeBit := f.planeArgs(pageNumber)
	if err := protocol.WriteEnable(ctx, f.spi); err != nil {
		return err
	}
	if err := protocol.ProgramLoad(ctx, f.spi, 0, merged, hasPlane, planeBit); err != nil {
		return err
	}
	if err := protocol.ProgramExecute(ctx, f.spi, pageNumber); err != nil {
		return err
	}
	status, err := f.waitOIP(ctx)
	if err != nil {
		return err
	}
	if status&protocol.StatusProgramFail != 0 {
		f.cache = pageCache{}
		return fmt.Errorf("nand: program page %d: %w", pageNumber, ErrProgramFailed)
	}
	f.cache = pageCache{valid: true, page: pageNumber, data: merged}
	return nil
}

// EraseBlock erases the block containing blockIdx.
func (f *Flash) EraseBlock(ctx context.Context, blockIdx uint32) error {
	firstPage := blockIdx * f.chip.PagesPerBlock()
	if err := f.selectDie(ctx, firstPage); err != nil {
		return err
	}
	if err := protocol.WriteEnable(ctx, f.spi); err != nil {
		return err
	}
	if err := protocol.BlockErase(ctx, f.spi, blockIdx); err != nil {
		return err
	}
	status, err := f.waitOIP(ctx)
	if err != nil {
		return err
	}
	if f.cache.valid {
		block, _ := f.pageOf(f.cache.page * f.chip.PageSize)
		if block == blockIdx {
			f.cache = pageCache{}
		}
	}
	if status&protocol.StatusEraseFail != 0 {
		if f.policy.SkipBadPage {
			return nil
		}
		return fmt.Errorf("nand: erase block %d: %w", blockIdx, ErrEraseFailed)
	}
	return nil
}

// EraseAll erases every block on the chip.
func (f *Flash) EraseAll(ctx context.Context) error {
	for b := uint32(0); b < f.chip.NumBlocks(); b++ {
		if err := f.EraseBlock(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// ReadAt reads nPages consecutive pages starting at pageNumber into
// dst, which must be nPages*(PageSize+OOBSize) bytes. A bad block
// encountered mid-range stops the read unless SkipBadPage is set, in
// which case that page's slot is left unfilled and the read continues.
func (f *Flash) ReadAt(ctx context.Context, pageNumber uint32, nPages uint32, dst []byte) error {
	if pageNumber+nPages > f.chip.NumBlocks()*f.chip.PagesPerBlock() {
		return ErrBoundsExceed
	}
	pageBytes := f.pageBytes()
	for i := uint32(0); i < nPages; i++ {
		buf := dst[int(i)*pageBytes : int(i+1)*pageBytes]
		err := f.ReadPage(ctx, pageNumber+i, buf)
		if errors.Is(err, ErrBadBlock) && f.policy.SkipBadPage {
			continue
		}
		if err != nil {
			return fmt.Errorf("nand: read page %d: %w", pageNumber+i, err)
		}
	}
	return nil
}

// WriteAt programs nPages consecutive pages starting at pageNumber
// from src, erasing each destination block before its first page is
// written. With SkipBadPage set, a page whose program reports
// ErrProgramFailed is skipped instead of aborting the rest of the
// range. A block erase failure is not reported under SkipBadPage
// (EraseBlock returns nil), so that block's pages are still programmed.
func (f *Flash) WriteAt(ctx context.Context, pageNumber uint32, nPages uint32, src []byte) (writtenBytes uint32, err error) {
	if pageNumber+nPages > f.chip.NumBlocks()*f.chip.PagesPerBlock() {
		return 0, ErrBoundsExceed
	}
	pageBytes := f.pageBytes()
	erased := make(map[uint32]bool)
	for i := uint32(0); i < nPages; i++ {
		page := pageNumber + i
		block, _ := f.pageOf(page * f.chip.PageSize)
		if !erased[block] {
			if eraseErr := f.EraseBlock(ctx, block); eraseErr != nil {
				if f.policy.SkipBadPage && errors.Is(eraseErr, ErrEraseFailed) {
					continue
				}
				return writtenBytes, eraseErr
			}
			erased[block] = true
		}
		buf := src[int(i)*pageBytes : int(i+1)*pageBytes]
		writeErr := f.WritePage(ctx, page, 0, buf)
		if writeErr != nil {
			if f.policy.SkipBadPage && (errors.Is(writeErr, ErrProgramFailed) || errors.Is(writeErr, ErrBadBlock)) {
				continue
			}
			return writtenBytes, fmt.Errorf("nand: write page %d: %w", page, writeErr)
		}
		writtenBytes += uint32(pageBytes)
	}
	return writtenBytes, nil
}

func isAllFF(buf []byte) bool {
	for _, b := range buf {
		if b != 0xFF {
			return false
		}
	}
	return true
}
