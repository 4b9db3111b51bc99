// Package i2c implements the 24-series I2C EEPROM collaborator
// (component C7a): chip identification by name, bulk read, erase
// (fill with 0xFF), and page-boundary-aware write with ack polling
// for the internal write cycle.
//
// Grounded on original_source/src/i2c_eeprom.c and ch341a_i2c.c, which
// marshal a bespoke CH341-specific I2C-stream USB frame per
// transaction; this port expresses the same address/size semantics
// over periph.io/x/conn/v3's generic i2c.Dev transaction interface
// instead of reproducing that frame byte for byte, since periph.io is
// already the pack's chosen abstraction for I2C.
package i2c

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// ErrWriteUnsupported is returned by Write for chips whose page-write
// boundary this package does not know (a ChipInfo with PageSize zero,
// which no entry in chips has), since writing without the right boundary risks corrupting
// neighboring bytes on real hardware.
var ErrWriteUnsupported = errors.New("i2c: write not supported for this chip")

// ChipInfo describes one 24-series part.
type ChipInfo struct {
	Name      string
	Size      uint32
	AddrSize  int  // 1 or 2 address bytes on the wire
	PageSize  uint32
	AddrMask  byte // bits of the device address carrying high address bits, for 1-address-byte parts over 256 bytes
}

// chips is a curated set of common 24-series EEPROMs; the bridge's own
// chip list in the source is not included in original_source (only
// ch341a_i2c.c/i2c_eeprom.c are), so these entries reflect the parts'
// well-known public datasheets rather than a transcription.
var chips = []ChipInfo{
	{"24C01", 128, 1, 8, 0},
	{"24C02", 256, 1, 8, 0},
	{"24C04", 512, 1, 16, 0x01},
	{"24C08", 1024, 1, 16, 0x03},
	{"24C16", 2048, 1, 16, 0x07},
	{"24C32", 4096, 2, 32, 0},
	{"24C64", 8192, 2, 32, 0},
	{"24C128", 16384, 2, 64, 0},
	{"24C256", 32768, 2, 64, 0},
	{"24C512", 65536, 2, 128, 0},
}

// Lookup finds a ChipInfo by its datasheet name.
func Lookup(name string) (ChipInfo, bool) {
	for _, c := range chips {
		if c.Name == name {
			return c, true
		}
	}
	return ChipInfo{}, false
}

// List returns every chip the table carries, for the CLI's list
// subcommand.
func List() []ChipInfo {
	out := make([]ChipInfo, len(chips))
	copy(out, chips)
	return out
}

// Flash is a ready-to-use 24-series EEPROM over an I2C bus.
type Flash struct {
	dev  *i2c.Dev
	chip ChipInfo
}

// Open binds chip to an I2C device address on bus.
func Open(bus i2c.Bus, addr uint16, chip ChipInfo) *Flash {
	return &Flash{dev: &i2c.Dev{Bus: bus, Addr: addr}, chip: chip}
}

func (f *Flash) Chip() ChipInfo { return f.chip }
func (f *Flash) Size() uint32   { return f.chip.Size }

func (f *Flash) addrBytes(offset uint32) []byte {
	if f.chip.AddrSize == 2 {
		return []byte{byte(offset >> 8), byte(offset)}
	}
	return []byte{byte(offset)}
}

// Read reads len(buf) bytes starting at byte offset from.
func (f *Flash) Read(ctx context.Context, buf []byte, from uint32) error {
	if from+uint32(len(buf)) > f.chip.Size {
		return fmt.Errorf("i2c: read exceeds chip size")
	}
	return f.dev.Tx(f.addrBytes(from), buf)
}

// Erase fills [offset, offset+length) with 0xFF.
func (f *Flash) Erase(ctx context.Context, offset, length uint32) error {
	blank := make([]byte, length)
	for i := range blank {
		blank[i] = 0xFF
	}
	return f.Write(ctx, offset, blank)
}

// Write programs data starting at byte offset to, chunked at the
// chip's page boundary and polled for write-cycle completion with a
// one-byte (0x00) probe write, a form of 24-series ack polling.
func (f *Flash) Write(ctx context.Context, to uint32, data []byte) error {
	if f.chip.PageSize == 0 {
		return ErrWriteUnsupported
	}
	if to+uint32(len(data)) > f.chip.Size {
		return fmt.Errorf("i2c: write exceeds chip size")
	}
	for written := uint32(0); written < uint32(len(data)); {
		pageOffset := (to + written) % f.chip.PageSize
		chunk := f.chip.PageSize - pageOffset
		if remaining := uint32(len(data)) - written; chunk > remaining {
			chunk = remaining
		}
		addr := to + written
		payload := append(f.addrBytes(addr), data[written:written+chunk]...)
		if err := f.dev.Tx(payload, nil); err != nil {
			return fmt.Errorf("i2c: write page at 0x%x: %w", addr, err)
		}
		if err := f.waitWriteCycle(ctx); err != nil {
			return err
		}
		written += chunk
	}
	return nil
}

// waitWriteCycle polls the device with a one-byte (0x00) write until
// it acks, or for at most 10ms, to detect a 24-series chip's internal
// write-cycle completion without a fixed delay.
func (f *Flash) waitWriteCycle(ctx context.Context) error {
	deadline := time.Now().Add(10 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := f.dev.Tx([]byte{0x00}, nil); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return fmt.Errorf("i2c: write cycle did not complete")
}
