package ch341a

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// I2C stream opcodes, from ch341a_spi.c's CH341A_CMD_I2C_STM_* constants
// (cmdI2CStream itself is declared in controller.go).
const (
	i2cStart = 0x74
	i2cStop  = 0x75
	i2cOut   = 0x80
	i2cIn    = 0xC0
	i2cMax   = 0x3F
	i2cEnd   = 0x00
)

// I2CBus drives the bridge's I2C stream mode over the same USB session a
// Controller uses for SPI, implementing periph.io/x/conn/v3/i2c.Bus so the
// same Controller can back either an eeprom/spi25 or an eeprom/i2c backend.
// Grounded on ch341a_i2c.c's STA/OUT/IN/STO framing, generalized into one
// Tx instead of ch341ReadCmdMarshall's single-EEPROM fixed command blob
// (that file's "Frame 2"/"Frame 3" byte dumps are undocumented capture
// artifacts specific to one EEPROM session, not part of the stream
// protocol itself, so they are not reproduced here).
type I2CBus struct {
	ctrl *Controller
}

var _ i2c.Bus = (*I2CBus)(nil)

// NewI2CBus wraps an already-open Controller for I2C stream transfers.
func NewI2CBus(ctrl *Controller) *I2CBus { return &I2CBus{ctrl: ctrl} }

func (b *I2CBus) String() string { return "ch341a-i2c" }

// Halt is a no-op: the bridge has no per-bus teardown beyond closing the
// Controller's own USB session.
func (b *I2CBus) Halt() error { return nil }

// SetSpeed only validates the request: nothing in the stream protocol
// exposes a per-transaction clock override, the bridge always runs the
// rate configureClock set at Open.
func (b *I2CBus) SetSpeed(f physic.Frequency) error {
	if f > 750*physic.KiloHertz {
		return fmt.Errorf("ch341a: i2c bus cannot run at %s, max 750kHz", f)
	}
	return nil
}

// Tx issues a write of w (if any) followed by a repeated-start read of r
// (if any) to the 7-bit address addr, one combined STA...STO command.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	cmd := []byte{cmdI2CStream, i2cStart}
	if len(w) > 0 {
		cmd = appendI2COut(cmd, append([]byte{byte(addr << 1)}, w...))
	}
	if len(r) > 0 {
		if len(w) > 0 {
			cmd = append(cmd, i2cStart) // repeated start before the read
		}
		cmd = appendI2COut(cmd, []byte{byte(addr<<1) | 1})
		cmd = appendI2CIn(cmd, len(r))
	}
	cmd = append(cmd, i2cStop, i2cEnd)

	resp, err := b.ctrl.i2cTransfer(context.Background(), cmd, len(r))
	if err != nil {
		return fmt.Errorf("ch341a: i2c tx to 0x%x: %w", addr, err)
	}
	if len(r) > 0 {
		copy(r, resp[len(resp)-len(r):])
	}
	return nil
}

func appendI2COut(cmd, payload []byte) []byte {
	for off := 0; off < len(payload); off += i2cMax {
		end := off + i2cMax
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[off:end]
		cmd = append(cmd, i2cOut|byte(len(chunk)))
		cmd = append(cmd, chunk...)
	}
	return cmd
}

func appendI2CIn(cmd []byte, n int) []byte {
	for n > 0 {
		chunk := n
		if chunk > i2cMax {
			chunk = i2cMax
		}
		cmd = append(cmd, i2cIn|byte(chunk))
		n -= chunk
	}
	return cmd
}

// i2cTransfer sends cmd as a raw stream and reads back readLen bytes,
// reusing the same mutex-guarded USB session SendCommand uses for SPI.
func (c *Controller) i2cTransfer(ctx context.Context, cmd []byte, readLen int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return nil, ErrNotOpen
	}
	return c.session.Transfer(ctx, cmd, readLen)
}
