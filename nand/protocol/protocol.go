// Package protocol implements the SPI NAND command primitives
// (component C4): get/set feature, write enable/disable, page read,
// read-from-cache, program load/execute, block erase, the three
// read-ID variants, and both die-select mechanisms.
//
// Grounded on original_source/src/spi_nand_flash_protocol.c and
// spi_nand_flash_defs.h.
package protocol

import (
	"context"
	"fmt"
)

// Opcodes, from spi_nand_flash_defs.h.
const (
	opGetFeature       = 0x0F
	opSetFeature       = 0x1F
	opPageRead         = 0x13
	opReadFromCache    = 0x03
	opReadFromCacheDur = 0x3B // dual
	opReadFromCacheQud = 0x6B // quad
	opWriteEnable      = 0x06
	opWriteDisable     = 0x04
	opProgramLoad      = 0x02
	opProgramLoadQuad  = 0x32
	opProgramExecute   = 0x10
	opReadID           = 0x9F
	opBlockErase       = 0xD8
	opReset            = 0xFF
	opDieSelect        = 0xC2
)

// Feature register addresses.
const (
	AddrProtection = 0xA0
	AddrFeature    = 0xB0 // status register 2
	AddrStatus     = 0xC0 // status register 3
	AddrFeature4   = 0xD0 // status register 4, Micron die select
	AddrStatus5    = 0xE0
)

// Status register 3 bits.
const (
	StatusOIP         = 0x01 // operation in progress
	StatusEraseFail   = 0x04
	StatusProgramFail = 0x08
)

// DieSelectBitMicron is the bit toggled in status register 4 by the
// Micron-style die_select_2 mechanism.
const DieSelectBitMicron = 0x40

const blockRowAddressShift = 6

// ReadMode selects the cache-read transfer speed. Only Single is used
// by this engine; Dual/Quad are kept to mirror the source's enum.
// ReadFromCache takes no ReadMode and always issues the single-speed
// opcode.
type ReadMode int

const (
	ReadSingle ReadMode = iota
	ReadDual
	ReadQuad
)

// DummyByte controls whether ReadFromCache inserts a dummy byte before
// or after the column address, matching the vendor-specific framing
// spi_nand_flash.c selects per chip.
type DummyByte int

const (
	DummyNone DummyByte = iota
	DummyPrepend
	DummyAppend
)

// SPI is the bus this package needs, the same shape as nor.SPI.
type SPI interface {
	ChipSelect(ctx context.Context, low bool) error
	WriteOneByte(ctx context.Context, b byte) error
	WriteNByte(ctx context.Context, buf []byte) error
	ReadNByte(ctx context.Context, n int) ([]byte, error)
}

// ID is the three-byte identification response: manufacturer ID plus
// one or two device ID bytes, matching struct SPI_NAND_FLASH_INFO_T's
// mfr_id/dev_id/dev_id_2 fields.
type ID struct {
	Mfr   byte
	Dev   byte
	Dev2  byte
}

func txn(ctx context.Context, s SPI, fn func() error) error {
	if err := s.ChipSelect(ctx, true); err != nil {
		return err
	}
	defer s.ChipSelect(ctx, false)
	return fn()
}

// GetFeature reads one byte from the given feature register address.
func GetFeature(ctx context.Context, s SPI, addr byte) (byte, error) {
	var val byte
	err := txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opGetFeature); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, addr); err != nil {
			return err
		}
		buf, err := s.ReadNByte(ctx, 1)
		if err != nil {
			return err
		}
		val = buf[0]
		return nil
	})
	return val, err
}

// SetFeature writes one byte to the given feature register address.
func SetFeature(ctx context.Context, s SPI, addr, data byte) error {
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opSetFeature); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, addr); err != nil {
			return err
		}
		return s.WriteOneByte(ctx, data)
	})
}

// WriteEnable sets the write-enable latch.
func WriteEnable(ctx context.Context, s SPI) error {
	return txn(ctx, s, func() error { return s.WriteOneByte(ctx, opWriteEnable) })
}

// WriteDisable clears the write-enable latch.
func WriteDisable(ctx context.Context, s SPI) error {
	return txn(ctx, s, func() error { return s.WriteOneByte(ctx, opWriteDisable) })
}

// BlockErase erases the block containing blockIdx, shifting it into a
// row address the way _SPI_NAND_BLOCK_ROW_ADDRESS_OFFSET does.
func BlockErase(ctx context.Context, s SPI, blockIdx uint32) error {
	row := blockIdx << blockRowAddressShift
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opBlockErase); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, byte(row>>16)); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, byte(row>>8)); err != nil {
			return err
		}
		return s.WriteOneByte(ctx, byte(row))
	})
}

// ReadID issues 0x9F followed by the manufacturer-ID address byte,
// matching spi_nand_protocol_read_id.
func ReadID(ctx context.Context, s SPI) (ID, error) {
	var id ID
	err := txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opReadID); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, 0x00); err != nil { // _SPI_NAND_ADDR_MANUFACTURE_ID
			return err
		}
		buf, err := s.ReadNByte(ctx, 3)
		if err != nil {
			return err
		}
		id = ID{Mfr: buf[0], Dev: buf[1], Dev2: buf[2]}
		return nil
	})
	return id, err
}

// ReadID2 issues 0x9F with no address byte, for chips that return ID
// bytes immediately, matching spi_nand_protocol_read_id_2.
func ReadID2(ctx context.Context, s SPI) (ID, error) {
	var id ID
	err := txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opReadID); err != nil {
			return err
		}
		buf, err := s.ReadNByte(ctx, 3)
		if err != nil {
			return err
		}
		id = ID{Mfr: buf[0], Dev: buf[1], Dev2: buf[2]}
		return nil
	})
	return id, err
}

// ReadID3 issues 0x9F with one dummy byte before the ID bytes, and
// returns only mfr/dev (no second device byte), matching
// spi_nand_protocol_read_id_3.
func ReadID3(ctx context.Context, s SPI) (ID, error) {
	var id ID
	err := txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opReadID); err != nil {
			return err
		}
		if _, err := s.ReadNByte(ctx, 1); err != nil { // dummy
			return err
		}
		buf, err := s.ReadNByte(ctx, 2)
		if err != nil {
			return err
		}
		id = ID{Mfr: buf[0], Dev: buf[1]}
		return nil
	})
	return id, err
}

// PageRead loads pageNumber into the chip's internal cache.
func PageRead(ctx context.Context, s SPI, pageNumber uint32) error {
	return txn(ctx, s, func() error {
		cmd := []byte{opPageRead, byte(pageNumber >> 16), byte(pageNumber >> 8), byte(pageNumber)}
		return s.WriteNByte(ctx, cmd)
	})
}

// planeSelectAddrHigh computes the high address byte for cache
// read/write given whether the chip has a plane-select bit and which
// plane is currently selected, matching the bit-masking chosen by
// spi_nand_protocol_read_from_cache / program_load.
func planeSelectAddrHigh(offset uint32, hasPlaneSelect bool, planeSelectBit byte) byte {
	if !hasPlaneSelect {
		return byte(offset >> 8)
	}
	if planeSelectBit == 0 {
		return byte(offset>>8) & 0xef
	}
	return byte(offset>>8) | 0x10
}

// ReadFromCache reads len(buf) bytes from the cache at column address
// dataOffset, always with the single-speed opcode (nothing in this
// engine negotiates multi-IO mode with the controller).
func ReadFromCache(ctx context.Context, s SPI, dataOffset uint32, buf []byte, hasPlaneSelect bool, planeSelectBit byte, dummy DummyByte) error {
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opReadFromCache); err != nil {
			return err
		}
		if dummy == DummyPrepend {
			if err := s.WriteOneByte(ctx, 0xff); err != nil {
				return err
			}
		}
		addrHigh := planeSelectAddrHigh(dataOffset, hasPlaneSelect, planeSelectBit)
		addrLow := byte(dataOffset)
		if err := s.WriteOneByte(ctx, addrHigh); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, addrLow); err != nil {
			return err
		}
		if dummy == DummyAppend {
			if err := s.WriteOneByte(ctx, 0xff); err != nil {
				return err
			}
		}
		got, err := s.ReadNByte(ctx, len(buf))
		if err != nil {
			return err
		}
		copy(buf, got)
		return nil
	})
}

// ProgramLoad writes data into the cache at column address addr,
// single speed, resetting the rest of the cache to 0xFF the way the
// non-random program-load opcode does.
func ProgramLoad(ctx context.Context, s SPI, addr uint32, data []byte, hasPlaneSelect bool, planeSelectBit byte) error {
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opProgramLoad); err != nil {
			return err
		}
		addrHigh := planeSelectAddrHigh(addr, hasPlaneSelect, planeSelectBit)
		addrLow := byte(addr)
		if err := s.WriteOneByte(ctx, addrHigh); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, addrLow); err != nil {
			return err
		}
		return s.WriteNByte(ctx, data)
	})
}

// ProgramExecute commits the cache to the page at addr.
func ProgramExecute(ctx context.Context, s SPI, addr uint32) error {
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opProgramExecute); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, byte(addr>>16)); err != nil {
			return err
		}
		if err := s.WriteOneByte(ctx, byte(addr>>8)); err != nil {
			return err
		}
		return s.WriteOneByte(ctx, byte(addr))
	})
}

// DieSelect1 issues the dedicated 0xC2 die-select opcode used by most
// multi-die vendors (Winbond, ESMT's die-selecting group, and others).
func DieSelect1(ctx context.Context, s SPI, dieID byte) error {
	return txn(ctx, s, func() error {
		if err := s.WriteOneByte(ctx, opDieSelect); err != nil {
			return err
		}
		return s.WriteOneByte(ctx, dieID)
	})
}

// DieSelect2 is Micron's alternative: the die is selected through a
// bit in status register 4 rather than a dedicated opcode.
func DieSelect2(ctx context.Context, s SPI, dieID byte) error {
	feature, err := GetFeature(ctx, s, AddrFeature4)
	if err != nil {
		return fmt.Errorf("protocol: die_select_2 get status reg 4: %w", err)
	}
	if dieID == 0 {
		feature &^= DieSelectBitMicron
	} else {
		feature |= DieSelectBitMicron
	}
	return SetFeature(ctx, s, AddrFeature4, feature)
}
