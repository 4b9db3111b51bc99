package nand

import (
	"context"
	"fmt"
)

// ByteDevice adapts a Flash's page-granularity operations to the
// byte-addressed Erase/Write/Read surface flashcmd.Device expects,
// mirroring how flash_cmd_init wires snand_erase/snand_write/snand_read
// onto the generic flash_cmd function pointers.
type ByteDevice struct{ f *Flash }

// NewByteDevice wraps f for byte-addressed access.
func NewByteDevice(f *Flash) *ByteDevice { return &ByteDevice{f: f} }

// Size returns the chip's total raw capacity including OOB.
func (d *ByteDevice) Size() uint32 {
	pageStride := d.f.chip.PageSize + d.f.chip.OOBSize
	return d.f.chip.NumBlocks() * d.f.chip.PagesPerBlock() * pageStride
}

func (d *ByteDevice) pageStride() uint32 { return d.f.chip.PageSize + d.f.chip.OOBSize }

// Erase erases every block touched by [offset, offset+length).
func (d *ByteDevice) Erase(ctx context.Context, offset, length uint32) error {
	stride := d.pageStride()
	firstPage := offset / stride
	lastPage := (offset + length - 1) / stride
	seen := map[uint32]bool{}
	for p := firstPage; p <= lastPage; p++ {
		block, _ := d.f.pageOf(p * d.f.chip.PageSize)
		if !seen[block] {
			if err := d.f.EraseBlock(ctx, block); err != nil {
				return err
			}
			seen[block] = true
		}
	}
	return nil
}

// Write programs data starting at byte offset. offset and len(data) need
// not be page-aligned: each page touched is read-modify-written through
// Flash's page cache, overlaying data at the right in-page offset, the
// same way flash_cmd's byte-addressed write path works on top of a
// page-addressed chip.
func (d *ByteDevice) Write(ctx context.Context, offset uint32, data []byte) error {
	stride := d.pageStride()
	written := uint32(0)
	for written < uint32(len(data)) {
		page := (offset + written) / stride
		inPage := (offset + written) % stride
		space := stride - inPage
		chunk := data[written:]
		if uint32(len(chunk)) > space {
			chunk = chunk[:space]
		}
		if err := d.f.WritePage(ctx, page, inPage, chunk); err != nil {
			return fmt.Errorf("nand: write at byte offset %d: %w", offset+written, err)
		}
		written += uint32(len(chunk))
	}
	return nil
}

// Read fills buf starting at byte offset, which need not be page-aligned.
func (d *ByteDevice) Read(ctx context.Context, buf []byte, offset uint32) error {
	stride := d.pageStride()
	pageBuf := make([]byte, stride)
	read := uint32(0)
	for read < uint32(len(buf)) {
		page := (offset + read) / stride
		inPage := (offset + read) % stride
		space := stride - inPage
		remain := uint32(len(buf)) - read
		if remain > space {
			remain = space
		}
		if err := d.f.ReadPage(ctx, page, pageBuf); err != nil {
			return fmt.Errorf("nand: read at byte offset %d: %w", offset+read, err)
		}
		copy(buf[read:read+remain], pageBuf[inPage:inPage+remain])
		read += remain
	}
	return nil
}
