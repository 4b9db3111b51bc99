// Package ch341a implements the CH341A SPI controller (component C2): the
// pin/clock state machine and the command packetiser layered directly on
// top of usbtransport. Grounded on original_source/src/ch341a_spi.c; the
// mutex-guarded handle and connect/open state tracking follow the shape of
// adapter/mcp2221.go's MCP2221 struct.
package ch341a

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/ch341prog/internal/bitswap"
	"github.com/mklimuk/ch341prog/usbtransport"
)

// Wire command bytes, reproduced from spec §6 "External Interfaces".
const (
	cmdI2CStream  = 0xAA // configure I2C/SPI clock stream
	cmdUIOStream  = 0xAB // UIO stream: CS/SCK/MOSI + pin direction
	cmdSPIStream  = 0xA8 // SPI data burst, bit-reversed payload
	uioStreamEnd  = 0x20
	dirOutputMask = 0x3F // all six UIO pins as outputs
)

// ClockSpeed selects the I2C/SPI stream clock divider. Level 3 is the
// bridge's highest rate, 750kHz, and is what the source always requests.
type ClockSpeed byte

const (
	Clock100kHz ClockSpeed = 0
	Clock200kHz ClockSpeed = 1
	Clock400kHz ClockSpeed = 2
	Clock750kHz ClockSpeed = 3
)

type state int

const (
	stateClosed state = iota
	stateOpen
	statePinsEnabled
	statePinsDisabled
)

// ErrNotOpen is returned by controller operations attempted before Open.
var ErrNotOpen = errors.New("ch341a: controller not open")

// Controller drives a single CH341A SPI session. Only one caller may use a
// Controller at a time; the internal mutex enforces that serialization in
// the same style as MCP2221's request/response buffer guard.
type Controller struct {
	mu      sync.Mutex
	session *usbtransport.Session
	state   state
	speed   ClockSpeed
}

// Open claims the bridge and transitions closed -> open -> pins_enabled,
// mirroring ch341a_spi_init's claim-interface + config_stream(750kHz) +
// enable_pins sequence.
func Open(ctx context.Context, speed ClockSpeed) (*Controller, error) {
	sess, err := usbtransport.Open()
	if err != nil {
		return nil, err
	}
	c := &Controller{session: sess, state: stateOpen, speed: speed}
	if err := c.configureClock(ctx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	if err := c.EnablePins(ctx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return c, nil
}

// Close walks the state machine in reverse and releases the USB session.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return nil
	}
	if c.state == statePinsEnabled {
		_ = c.disablePinsLocked(ctx)
	}
	c.state = stateClosed
	return c.session.Close()
}

func (c *Controller) configureClock(ctx context.Context) error {
	cmd := []byte{cmdI2CStream, 0x60, byte(c.speed) & 0x07, 0x00}
	_, err := c.session.Transfer(ctx, cmd, 0)
	if err != nil {
		return fmt.Errorf("ch341a: configure clock stream: %w", err)
	}
	return nil
}

// EnablePins sets CS0 active-low idle-high, SCK low, and all six UIO pins
// to output direction, transitioning pins_disabled/open -> pins_enabled.
func (c *Controller) EnablePins(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return ErrNotOpen
	}
	cmd := []byte{cmdUIOStream, 0x80 | 0x37, 0x40 | dirOutputMask, uioStreamEnd}
	_, err := c.session.Transfer(ctx, cmd, 0)
	if err != nil {
		return fmt.Errorf("ch341a: enable pins: %w", err)
	}
	c.state = statePinsEnabled
	return nil
}

// DisablePins releases the UIO pins back to inputs with CS idle-high.
func (c *Controller) DisablePins(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disablePinsLocked(ctx)
}

func (c *Controller) disablePinsLocked(ctx context.Context) error {
	if c.state == stateClosed {
		return ErrNotOpen
	}
	cmd := []byte{cmdUIOStream, 0x80 | 0x37, 0x40, uioStreamEnd}
	_, err := c.session.Transfer(ctx, cmd, 0)
	if err != nil {
		return fmt.Errorf("ch341a: disable pins: %w", err)
	}
	c.state = statePinsDisabled
	return nil
}

// ChipSelect drives CS0. low == true asserts the chip (active-low).
func (c *Controller) ChipSelect(ctx context.Context, low bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != statePinsEnabled {
		return ErrNotOpen
	}
	bits := byte(0x80 | 0x37)
	if low {
		bits = byte(0x80 | 0x36) // CS0 held low, other pins unchanged
	}
	cmd := []byte{cmdUIOStream, bits, 0x40 | dirOutputMask, uioStreamEnd}
	_, err := c.session.Transfer(ctx, cmd, 0)
	if err != nil {
		return fmt.Errorf("ch341a: chip select: %w", err)
	}
	return nil
}

// WriteOneByte is a convenience wrapper issuing a single-byte SPI write
// with no response, used throughout the NOR/NAND engines for opcodes.
func (c *Controller) WriteOneByte(ctx context.Context, b byte) error {
	_, err := c.SendCommand(ctx, []byte{b}, 0)
	return err
}

// ReadNByte reads n bytes with no preceding write payload, used when the
// caller has already written the opcode and address via WriteOneByte.
func (c *Controller) ReadNByte(ctx context.Context, n int) ([]byte, error) {
	return c.SendCommand(ctx, nil, n)
}

// WriteNByte writes buf with no trailing read.
func (c *Controller) WriteNByte(ctx context.Context, buf []byte) error {
	_, err := c.SendCommand(ctx, buf, 0)
	return err
}

// SendCommand packetises write into chunks of at most MaxPacketPayload
// bytes, each prefixed with the 0xA8 SPI-stream command byte, bit-reverses
// the outbound payload (the bridge is LSB-first on the wire), appends
// 0xFF filler bytes for readLen, and bit-reverses the response before
// returning it. This is the packetiser spec §4.2 and §8 property 2/
// scenario (f) describe.
func (c *Controller) SendCommand(ctx context.Context, write []byte, readLen int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != statePinsEnabled {
		return nil, ErrNotOpen
	}

	total := len(write) + readLen
	clocked := make([]byte, total)
	copy(clocked, write)
	for i := len(write); i < total; i++ {
		clocked[i] = 0xFF
	}
	bitswap.Bytes(clocked)

	packets := Packetize(clocked)
	var combined []byte
	for _, p := range packets {
		pkt := make([]byte, 0, len(p)+1)
		pkt = append(pkt, cmdSPIStream)
		pkt = append(pkt, p...)
		combined = append(combined, pkt...)
	}

	// The bridge echoes exactly `total` clocked bytes regardless of how
	// many packets the request was split across; we request that many
	// raw bytes back and keep only the read_len tail.
	resp, err := c.session.Transfer(ctx, combined, total)
	if err != nil {
		return nil, fmt.Errorf("ch341a: send command: %w", err)
	}
	if readLen == 0 {
		return nil, nil
	}
	tail := resp[len(resp)-readLen:]
	return bitswap.Bytes(tail), nil
}

// Packetize splits payload into chunks of at most MaxPacketPayload bytes,
// in order, covering every byte exactly once (spec §8 property 2's
// "concatenation of packet payloads equals the ... input" half).
func Packetize(payload []byte) [][]byte {
	if len(payload) == 0 {
		return nil
	}
	var packets [][]byte
	for off := 0; off < len(payload); off += usbtransport.MaxPacketPayload {
		end := off + usbtransport.MaxPacketPayload
		if end > len(payload) {
			end = len(payload)
		}
		packets = append(packets, payload[off:end])
	}
	return packets
}
