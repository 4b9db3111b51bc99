// Package microwire implements the 93Cxx Microwire EEPROM collaborator
// (component C7c): a bit-bang driver over four GPIO lines instead of a
// shift-register stream mode, since the bridge has no native Microwire
// support the way it does for SPI and I2C.
//
// Grounded on original_source/src/bitbang_microwire.h for the pin
// assignment and chip size table, and mw_eeprom.c for the read/erase/write
// semantics: every access goes through a full-chip scratch buffer, since
// a 93Cxx part is small enough that byte-addressed random access gains
// nothing over whole-image round trips. The bit-level START/opcode/
// address framing below is the standard public 93Cxx command set (no
// bitbang_microwire.c survived source filtering to ground the exact
// clock-edge timing against), applied on top of ch341a_gpio.c's UIO
// stream opcodes via the GPIO interface.
package microwire

import (
	"context"
	"errors"
	"fmt"
)

// Pin assignment, from mw_eeprom.c's mw_gpio_init: CS/DI/CLK drive as
// outputs, DO is sampled as an input.
const (
	pinCS  = 1 << 0
	pinDI  = 1 << 5
	pinCLK = 1 << 3
	pinDO  = 1 << 7

	outputMask = pinCS | pinDI | pinCLK
)

// 93Cxx command opcodes, 2 bits following the mandatory start bit.
const (
	opRead  = 0x2 // 10
	opWrite = 0x1 // 01
	opErase = 0x3 // 11

	// Extended opcodes: start bit, 00, then these 2 bits select the op.
	opExtEWDS = 0x0 // 00 00xxxx - erase/write disable
	opExtWRAL = 0x1 // 00 01xxxx - write all
	opExtERAL = 0x2 // 00 10xxxx - erase all
	opExtEWEN = 0x3 // 00 11xxxx - erase/write enable
)

// ErrBoundsExceed is returned when an access falls outside the chip.
var ErrBoundsExceed = errors.New("microwire: access exceeds chip size")

// GPIO is the raw pin-level interface microwire bit-bangs over. Satisfied
// structurally by *ch341a.GPIOBus.
type GPIO interface {
	SetDir(ctx context.Context, outputMask byte) error
	SetBits(ctx context.Context, bits byte) error
	GetBits(ctx context.Context) (byte, error)
}

// ChipInfo describes one 93Cxx part, mirroring struct MW_EEPROM plus the
// address width each size implies under 8-bit organization.
type ChipInfo struct {
	Name      string
	SizeBytes uint32
	AddrBits  int
}

var chips = []ChipInfo{
	{"93c06", 32, 5},
	{"93c16", 64, 6},
	{"93c46", 128, 7},
	{"93c56", 256, 8},
	{"93c66", 512, 9},
	{"93c76", 1024, 10},
	{"93c86", 2048, 11},
	{"93c96", 4096, 12},
}

// Lookup finds a chip by name, as listed in support_mw_eeprom_list.
func Lookup(name string) (ChipInfo, bool) {
	for _, c := range chips {
		if c.Name == name {
			return c, true
		}
	}
	return ChipInfo{}, false
}

// List returns every chip the table carries, for the CLI's list
// subcommand (support_mw_eeprom_list in bitbang_microwire.h).
func List() []ChipInfo {
	out := make([]ChipInfo, len(chips))
	copy(out, chips)
	return out
}

// Flash is an open 93Cxx Microwire EEPROM.
type Flash struct {
	gpio  GPIO
	chip  ChipInfo
	state byte // last output bits driven on CS/DI/CLK
}

// Open wraps an already pin-configured GPIO bus for chip.
func Open(gpio GPIO, chip ChipInfo) *Flash {
	return &Flash{gpio: gpio, chip: chip}
}

func (f *Flash) Chip() ChipInfo { return f.chip }
func (f *Flash) Size() uint32   { return f.chip.SizeBytes }

func (f *Flash) setBits(ctx context.Context, bits byte) error {
	f.state = bits
	return f.gpio.SetBits(ctx, bits)
}

func (f *Flash) clockPulse(ctx context.Context) error {
	if err := f.setBits(ctx, f.state|pinCLK); err != nil {
		return err
	}
	return f.setBits(ctx, f.state&^byte(pinCLK))
}

func (f *Flash) sendBit(ctx context.Context, bit bool) error {
	base := f.state &^ byte(pinDI)
	if bit {
		base |= pinDI
	}
	if err := f.setBits(ctx, base); err != nil {
		return err
	}
	return f.clockPulse(ctx)
}

func (f *Flash) sendBits(ctx context.Context, value uint32, nbits int) error {
	for i := nbits - 1; i >= 0; i-- {
		if err := f.sendBit(ctx, value&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flash) readBit(ctx context.Context) (bool, error) {
	if err := f.clockPulse(ctx); err != nil {
		return false, err
	}
	bits, err := f.gpio.GetBits(ctx)
	if err != nil {
		return false, err
	}
	return bits&pinDO != 0, nil
}

func (f *Flash) selectChip(ctx context.Context) error {
	return f.setBits(ctx, pinCS)
}

func (f *Flash) deselectChip(ctx context.Context) error {
	return f.setBits(ctx, 0)
}

// issueCommand drives CS high, the start bit, opcode and address, leaving
// CS asserted for the caller to clock data in or out.
func (f *Flash) issueCommand(ctx context.Context, opcode uint32, addr uint32) error {
	if err := f.selectChip(ctx); err != nil {
		return err
	}
	if err := f.sendBit(ctx, true); err != nil { // start bit
		return err
	}
	if err := f.sendBits(ctx, opcode, 2); err != nil {
		return err
	}
	return f.sendBits(ctx, addr, f.chip.AddrBits)
}

// waitReady polls DO for the chip to finish an internal write/erase
// cycle, the self-timed completion 93Cxx parts signal by driving DO high.
func (f *Flash) waitReady(ctx context.Context) error {
	if err := f.setBits(ctx, pinCS); err != nil {
		return err
	}
	for {
		bits, err := f.gpio.GetBits(ctx)
		if err != nil {
			return err
		}
		if bits&pinDO != 0 {
			return f.deselectChip(ctx)
		}
	}
}

func (f *Flash) setWriteEnable(ctx context.Context, enable bool) error {
	op := opExtEWDS
	if enable {
		op = opExtEWEN
	}
	if err := f.issueCommand(ctx, 0x0, uint32(op)<<uint(f.chip.AddrBits-2)); err != nil {
		return err
	}
	return f.deselectChip(ctx)
}

func (f *Flash) readWord(ctx context.Context, addr uint32) (byte, error) {
	if err := f.issueCommand(ctx, opRead, addr); err != nil {
		return 0, err
	}
	var b byte
	for i := 0; i < 8; i++ {
		bit, err := f.readBit(ctx)
		if err != nil {
			return 0, err
		}
		b <<= 1
		if bit {
			b |= 1
		}
	}
	return b, f.deselectChip(ctx)
}

func (f *Flash) writeWord(ctx context.Context, addr uint32, data byte) error {
	if err := f.issueCommand(ctx, opWrite, addr); err != nil {
		return err
	}
	if err := f.sendBits(ctx, uint32(data), 8); err != nil {
		return err
	}
	return f.waitReady(ctx)
}

// readAll pulls the whole chip into one scratch buffer, mirroring
// Read_EEPROM_3wire's full-image read.
func (f *Flash) readAll(ctx context.Context) ([]byte, error) {
	if err := f.gpio.SetDir(ctx, outputMask); err != nil {
		return nil, fmt.Errorf("microwire: set pin direction: %w", err)
	}
	buf := make([]byte, f.chip.SizeBytes)
	for addr := uint32(0); addr < f.chip.SizeBytes; addr++ {
		b, err := f.readWord(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("microwire: read word %d: %w", addr, err)
		}
		buf[addr] = b
	}
	return buf, nil
}

// writeAll erases the whole chip then programs buf word by word,
// mirroring mw_eeprom_write/mw_eeprom_erase's erase-then-rewrite shape.
func (f *Flash) writeAll(ctx context.Context, buf []byte) error {
	if err := f.gpio.SetDir(ctx, outputMask); err != nil {
		return fmt.Errorf("microwire: set pin direction: %w", err)
	}
	if err := f.setWriteEnable(ctx, true); err != nil {
		return fmt.Errorf("microwire: erase/write enable: %w", err)
	}
	// ERAL erases every word in one shot; like EWEN/EWDS its 2-bit opcode
	// selector rides in the top bits of the address field.
	if err := f.issueCommand(ctx, 0x0, uint32(opExtERAL)<<uint(f.chip.AddrBits-2)); err != nil {
		return err
	}
	if err := f.waitReady(ctx); err != nil {
		return fmt.Errorf("microwire: erase all: %w", err)
	}
	for addr, b := range buf {
		if err := f.writeWord(ctx, uint32(addr), b); err != nil {
			return fmt.Errorf("microwire: write word %d: %w", addr, err)
		}
	}
	return f.setWriteEnable(ctx, false)
}

// Read fills buf starting at byte offset from.
func (f *Flash) Read(ctx context.Context, buf []byte, from uint32) error {
	if from+uint32(len(buf)) > f.chip.SizeBytes {
		return ErrBoundsExceed
	}
	all, err := f.readAll(ctx)
	if err != nil {
		return err
	}
	copy(buf, all[from:])
	return nil
}

// Erase fills [offset, offset+length) with 0xFF, round-tripping the rest
// of the chip unchanged through the same full-image buffer.
func (f *Flash) Erase(ctx context.Context, offset, length uint32) error {
	if offset+length > f.chip.SizeBytes {
		return ErrBoundsExceed
	}
	all, err := f.readAll(ctx)
	if err != nil {
		return err
	}
	for i := offset; i < offset+length; i++ {
		all[i] = 0xFF
	}
	return f.writeAll(ctx, all)
}

// Write programs data starting at byte offset to.
func (f *Flash) Write(ctx context.Context, to uint32, data []byte) error {
	if to+uint32(len(data)) > f.chip.SizeBytes {
		return ErrBoundsExceed
	}
	all, err := f.readAll(ctx)
	if err != nil {
		return err
	}
	copy(all[to:], data)
	return f.writeAll(ctx, all)
}
