package ch341a

import (
	"context"
	"fmt"
)

// UIO stream sub-opcodes the microwire bit-bang driver layers directly on
// top of, distinct from the SPI chip-select framing ChipSelect/EnablePins
// use. Grounded on ch341a_gpio.c's ch341a_gpio_setdir/setbits/getbits.
const (
	uioStmIn  = 0x00 // request a read of the current pin levels
	uioStmDir = 0x40 // OR'd with a 6-bit output-enable mask
	uioStmOut = 0x80 // OR'd with the 6-bit output level to drive
)

// GPIOBus drives the bridge's raw D0-D5 pins for bit-bang protocols that
// have no native stream mode, such as 93Cxx microwire EEPROMs. It shares
// the Controller's USB session and mutex with the SPI/I2C stream modes;
// callers must not mix GPIOBus and SPI/I2C calls on the same Controller
// without an intervening SetDir, since all three modes reconfigure the
// same six pins.
type GPIOBus struct {
	ctrl *Controller
}

// NewGPIOBus wraps an already-open Controller for raw pin bit-banging.
func NewGPIOBus(ctrl *Controller) *GPIOBus { return &GPIOBus{ctrl: ctrl} }

// SetDir configures which of D0-D5 drive outputs; bits not in outputMask
// are left as inputs. outputMask is masked to the low 6 bits, matching
// DIR_MASK's "D6,D7 input, D0-D5 output" comment.
func (g *GPIOBus) SetDir(ctx context.Context, outputMask byte) error {
	cmd := []byte{cmdUIOStream, uioStmDir | (outputMask & 0x3F), uioStreamEnd}
	c := g.ctrl
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return ErrNotOpen
	}
	if _, err := c.session.Transfer(ctx, cmd, 0); err != nil {
		return fmt.Errorf("ch341a: gpio set dir: %w", err)
	}
	return nil
}

// SetBits drives bits on the pins configured as outputs by SetDir.
func (g *GPIOBus) SetBits(ctx context.Context, bits byte) error {
	cmd := []byte{cmdUIOStream, uioStmOut | bits, uioStreamEnd}
	c := g.ctrl
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return ErrNotOpen
	}
	if _, err := c.session.Transfer(ctx, cmd, 0); err != nil {
		return fmt.Errorf("ch341a: gpio set bits: %w", err)
	}
	return nil
}

// GetBits latches and returns the current level of all eight D0-D7 pins.
func (g *GPIOBus) GetBits(ctx context.Context) (byte, error) {
	cmd := []byte{cmdUIOStream, uioStmIn, uioStreamEnd}
	c := g.ctrl
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return 0, ErrNotOpen
	}
	if _, err := c.session.Transfer(ctx, cmd, 0); err != nil {
		return 0, fmt.Errorf("ch341a: gpio request bits: %w", err)
	}
	resp, err := c.session.Transfer(ctx, nil, 1)
	if err != nil {
		return 0, fmt.Errorf("ch341a: gpio read bits: %w", err)
	}
	if len(resp) == 0 {
		return 0, fmt.Errorf("ch341a: gpio read bits: empty response")
	}
	return resp[0], nil
}
