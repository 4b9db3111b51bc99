// Package flashcmd implements the priority dispatcher (component C6):
// try SPI NOR, then SPI NAND, then the three EEPROM collaborators, and
// expose whichever one initialized through one uniform interface.
//
// Grounded on original_source/src/flashcmd_api.c's flash_cmd_init and
// support_flash_list.
package flashcmd

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoDevice is returned when no backend could initialize.
var ErrNoDevice = errors.New("flashcmd: no flash or EEPROM device found")

// Device is the uniform surface flash_cmd_init wires cmd->flash_erase/
// flash_write/flash_read onto, regardless of which backend answered.
type Device interface {
	Size() uint32
	Erase(ctx context.Context, offset, length uint32) error
	Write(ctx context.Context, offset uint32, data []byte) error
	Read(ctx context.Context, buf []byte, offset uint32) error
}

// Backend opens one candidate device kind, returning ok=false (with a
// nil error) when that kind simply was not found, reserving the error
// return for a probe that started but failed partway.
type Backend struct {
	Name string
	Open func(ctx context.Context) (Device, bool, error)
}

// Init tries each backend in the order given and returns the first one
// that opens successfully; the priority is the caller's slice order.
// cmd/ch341prog passes SPI NOR, then SPI NAND, then I2C EEPROM, SPI
// EEPROM 25-series and Microwire EEPROM.
func Init(ctx context.Context, backends []Backend) (string, Device, error) {
	for _, b := range backends {
		dev, ok, err := b.Open(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("flashcmd: %s: %w", b.Name, err)
		}
		if ok {
			return b.Name, dev, nil
		}
	}
	return "", nil, ErrNoDevice
}
