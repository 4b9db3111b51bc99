// Package config implements the programmer's session configuration
// record (bus speed, protocol selection, bad-block policy overrides)
// loaded from a YAML file, the same tagged-struct/yaml.v3 shape
// adapter/mcp2221.go uses for its GPIOConfig.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/ch341prog/nand"
	"github.com/mklimuk/ch341prog/spi/ch341a"
)

// Programmer holds the settings cmd/ch341prog reads before opening the
// bridge: which protocol family to force (empty means probe every
// backend in priority order), the bridge clock, and the NAND bad-block
// policy to apply once a chip is open.
type Programmer struct {
	Protocol    string `yaml:"protocol"`    // "", "nor", "nand", "i2c", "spi25", "microwire"
	ClockSpeed  byte   `yaml:"clock_speed"` // ch341a.ClockSpeed value
	IgnoreECC   bool   `yaml:"ignore_ecc"`
	SkipBadPage bool   `yaml:"skip_bad_page"`
	I2CAddress  uint16 `yaml:"i2c_address"`
	ChipName    string `yaml:"chip_name"` // table name for the i2c, spi25 and microwire backends, which do not probe
}

// Default returns the zero-config programmer: probe every backend,
// the bridge's fastest clock, and a conservative bad-block policy.
func Default() Programmer {
	return Programmer{ClockSpeed: byte(ch341a.Clock750kHz)}
}

// Load reads a Programmer record from path.
func Load(path string) (Programmer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Programmer{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	p := Default()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Programmer{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as YAML.
func Save(path string, p Programmer) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// BadBlockPolicy adapts the YAML-level flags to nand.BadBlockPolicy.
func (p Programmer) BadBlockPolicy() nand.BadBlockPolicy {
	return nand.BadBlockPolicy{IgnoreECC: p.IgnoreECC, SkipBadPage: p.SkipBadPage}
}
