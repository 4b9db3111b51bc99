package nand

import (
	"context"

	"github.com/mklimuk/ch341prog/nand/protocol"
)

// ECC status decode shapes. Masks/shifts/thresholds are transcribed
// from spi_nand_flash_defs.h's _SPI_NAND_VAL_ECC_STATUS_* constants.
const (
	eccMask30   = 0x30
	eccMask70   = 0x70
	eccMaskF0   = 0xF0
	eccMask3C   = 0x3C
	eccShift4   = 4
	eccShift2   = 2
	eccThresh2  = 0x2
	eccThresh3  = 0x7
	eccThreshXA = 0x8
	eccThreshXC = 0xF
)

// eccShape is one (mask, shift, uncorrectable-threshold) decode rule.
type eccShape struct {
	mask, shift, threshold byte
}

var (
	ecc2Bit  = eccShape{eccMask30, eccShift4, eccThresh2}
	ecc3Bit  = eccShape{eccMask70, eccShift4, eccThresh3}
	eccXTXC  = eccShape{eccMaskF0, eccShift4, eccThreshXC}
	eccXTXA  = eccShape{eccMask3C, eccShift2, eccThreshXA}
	eccMicro = eccShape{eccMask70, eccShift4, eccThresh2} // Micron: 0x70 mask, 0x2 threshold
)

// uncorrectable reports whether status (status register 3) indicates
// an uncorrectable ECC error under shape.
func (s eccShape) uncorrectable(status byte) bool {
	return (status&s.mask)>>s.shift == s.threshold
}

// eccShapeFor returns the ECC decode shape for (mfr, dev), keyed by
// the pair rather than manufacturer alone where one manufacturer byte
// covers devices with different mask/threshold rules (XTX C- vs
// A-series, FM G-series vs PN), which is the Open Question #3
// resolution recorded in DESIGN.md.
func eccShapeFor(mfr, dev byte) eccShape {
	switch {
	case mfr == mfrMicron:
		return eccMicro
	case mfr == mfrXTX && dev == 0xE1: // XT26G02B, "C-series" 4-bit shape
		return eccXTXC
	case mfr == mfrXTX:
		return eccXTXA
	case mfr == mfrForesee || mfr == mfrFison:
		return ecc3Bit
	case mfr == mfrFM && dev == 0x20: // FM25G01B, G-series 3-bit shape
		return ecc3Bit
	default:
		return ecc2Bit
	}
}

// unlockPlan describes the set_feature writes one vendor family issues
// to clear block-protect bits and, where applicable, enable quad mode,
// reproducing spi_nand_manufacturer_init's per-vendor branches as data
// instead of a conditional cascade (grounded on gpio/mcp23017.go's
// table-indexed-by-bank pattern).
type unlockPlan struct {
	// match reports whether this plan applies to (mfr, dev).
	match func(mfr, dev byte) bool
	// maskSR1 clears these bits out of status register 1 (0 means
	// "set fixed value" instead, see fixedSR1).
	maskSR1   byte
	fixedSR1  bool
	enableSR2 bool // OR 0x01 into status register 2 (quad mode)
	// dieSelectWinbond true reproduces Winbond's modify-enable dance
	// (status2=0x58, sr1 value, status2=0x18) per die.
	dieSelectWinbond bool
	// dieSelectESMT true applies dieSelect1 per die before writing a
	// fixed status register 1 value (ESMT's die-aware group).
	dieSelectESMT bool
}

var unlockPlans = []unlockPlan{
	{ // GigaDevice + MXIC: mask 0xC1, enable quad mode.
		match: func(mfr, dev byte) bool {
			return mfr == mfrMXIC || (mfr == mfrGigaDevice && (dev == 0xF1 || dev == 0x91))
		},
		maskSR1: 0xC1, enableSR2: true,
	},
	{ // Winbond: die-select dance per die, modify-enable/disable around sr1=0x81.
		match:            func(mfr, dev byte) bool { return mfr == mfrWinbond },
		fixedSR1:         true,
		dieSelectWinbond: true,
	},
	{ // ESMT no-die-select group: mask 0xC7.
		match: func(mfr, dev byte) bool {
			return mfr == mfrESMT && (dev == 0x20 || dev == 0x21)
		},
		maskSR1: 0xC7,
	},
	{ // ESMT die-select group: fixed 0x83 per die.
		match: func(mfr, dev byte) bool {
			return mfr == mfrESMT && (dev == 0x11 || dev == 0x01 || dev == 0x0A)
		},
		fixedSR1: true, dieSelectESMT: true,
	},
	{ // Zentel: mask 0xC7.
		match:   func(mfr, dev byte) bool { return mfr == mfrZentel && (dev == 0x20 || dev == 0x21) },
		maskSR1: 0xC7,
	},
	{ // Etron: mask 0xC1, enable quad.
		match: func(mfr, dev byte) bool { return mfr == mfrEtron }, maskSR1: 0xC1, enableSR2: true,
	},
	{ // Toshiba: mask 0xC7.
		match: func(mfr, dev byte) bool { return mfr == mfrToshiba }, maskSR1: 0xC7,
	},
	{ // Micron: die_select_2 per die, mask status1 &0x83.
		match: func(mfr, dev byte) bool { return mfr == mfrMicron }, maskSR1: 0x83,
	},
	{ // Heyang (both manufacturer bytes): mask 0xC7, enable quad.
		match:     func(mfr, dev byte) bool { return mfr == mfrHeyang || mfr == mfrHeyang2 },
		maskSR1:   0xC7,
		enableSR2: true,
	},
	{ // PN: mask 0xC7, enable quad. PN shares the 0xA1 byte with FM.
		match: func(mfr, dev byte) bool { return mfr == mfrPN && dev == 0x21 }, maskSR1: 0xC7, enableSR2: true,
	},
	{ // ATO + ATO_2: mask 0xC7 only.
		match: func(mfr, dev byte) bool { return mfr == mfrATO || mfr == mfrATO2 }, maskSR1: 0xC7,
	},
	{ // FM S-series: mask 0x87.
		match: func(mfr, dev byte) bool { return mfr == mfrFM && dev == 0x71 }, maskSR1: 0x87,
	},
	{ // FM G-series: mask 0xC7, enable quad.
		match:     func(mfr, dev byte) bool { return mfr == mfrFM && dev != 0x71 },
		maskSR1:   0xC7,
		enableSR2: true,
	},
	{ // XTX: mask 0xC7, enable quad.
		match: func(mfr, dev byte) bool { return mfr == mfrXTX }, maskSR1: 0xC7, enableSR2: true,
	},
	{ // Mira: mask 0xC7 only.
		match: func(mfr, dev byte) bool { return mfr == mfrMira }, maskSR1: 0xC7,
	},
	{ // Biwin: mask 0xC7, enable quad.
		match: func(mfr, dev byte) bool { return mfr == mfrBiwin }, maskSR1: 0xC7, enableSR2: true,
	},
	{ // FORESEE: mask 0xC7, enable quad.
		match: func(mfr, dev byte) bool { return mfr == mfrForesee }, maskSR1: 0xC7, enableSR2: true,
	},
	{ // DS: mask 0xC7.
		match: func(mfr, dev byte) bool { return mfr == mfrDS }, maskSR1: 0xC7,
	},
	{ // Fison: mask 0xC7.
		match: func(mfr, dev byte) bool { return mfr == mfrFison }, maskSR1: 0xC7,
	},
	{ // TYM: mask 0xC7.
		match: func(mfr, dev byte) bool { return mfr == mfrTYM }, maskSR1: 0xC7,
	},
}

// defaultUnlockPlan is the catch-all for manufacturers the source
// lists no special case for: mask 0xC1, enable quad mode.
var defaultUnlockPlan = unlockPlan{maskSR1: 0xC1, enableSR2: true}

func planFor(mfr, dev byte) unlockPlan {
	for _, p := range unlockPlans {
		if p.match(mfr, dev) {
			return p
		}
	}
	return defaultUnlockPlan
}

// unlock runs the per-vendor block-unlock and quad-mode-enable
// sequence for chip, reproducing spi_nand_manufacturer_init.
func unlock(ctx context.Context, s protocol.SPI, chip ChipInfo) error {
	plan := planFor(chip.MfrID, chip.DevID)

	applyOnce := func() error {
		if plan.fixedSR1 {
			return protocol.SetFeature(ctx, s, protocol.AddrProtection, 0x81)
		}
		sr1, err := protocol.GetFeature(ctx, s, protocol.AddrProtection)
		if err != nil {
			return err
		}
		if err := protocol.SetFeature(ctx, s, protocol.AddrProtection, sr1&plan.maskSR1); err != nil {
			return err
		}
		if plan.enableSR2 {
			sr2, err := protocol.GetFeature(ctx, s, protocol.AddrFeature)
			if err != nil {
				return err
			}
			return protocol.SetFeature(ctx, s, protocol.AddrFeature, sr2|0x01)
		}
		return nil
	}

	dies := []byte{0}
	if chip.Feature&FeatureDieSelect1 != 0 {
		dies = []byte{0, 1}
	}

	switch {
	case plan.dieSelectWinbond:
		for _, die := range dies {
			if chip.Feature&FeatureDieSelect1 != 0 {
				if err := protocol.DieSelect1(ctx, s, die); err != nil {
					return err
				}
			}
			if err := protocol.SetFeature(ctx, s, protocol.AddrFeature, 0x58); err != nil {
				return err
			}
			if err := protocol.SetFeature(ctx, s, protocol.AddrProtection, 0x81); err != nil {
				return err
			}
			if err := protocol.SetFeature(ctx, s, protocol.AddrFeature, 0x18); err != nil {
				return err
			}
		}
		return nil
	case plan.dieSelectESMT:
		for _, die := range dies {
			if err := protocol.DieSelect1(ctx, s, die); err != nil {
				return err
			}
			if err := applyOnce(); err != nil {
				return err
			}
		}
		return nil
	case chip.Feature&FeatureDieSelect2 != 0:
		if err := protocol.DieSelect2(ctx, s, 0); err != nil {
			return err
		}
		if err := applyOnce(); err != nil {
			return err
		}
		if err := protocol.DieSelect2(ctx, s, 1); err != nil {
			return err
		}
		return applyOnce()
	default:
		return applyOnce()
	}
}
