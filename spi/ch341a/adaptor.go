package ch341a

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/spi"
)

// Adaptor implements gobot.io/x/gobot/v2/drivers/spi.Connector over a
// Controller, so the SPI NOR engine and the 25-series SPI EEPROM
// collaborator can reuse memory/25aa1024.go's Transfer/pageWrite/
// waitUntilReady shape unmodified, the same way that file consumes a
// sysfs-backed spi.Connector.
type Adaptor struct {
	ctrl *Controller
	name string
}

var _ spi.Connector = (*Adaptor)(nil)
var _ gobot.Adaptor = (*Adaptor)(nil)

// NewAdaptor wraps an already-open Controller as a gobot SPI connector.
func NewAdaptor(ctrl *Controller) *Adaptor {
	return &Adaptor{ctrl: ctrl, name: "ch341a"}
}

func (a *Adaptor) Name() string       { return a.name }
func (a *Adaptor) SetName(n string)   { a.name = n }
func (a *Adaptor) Connect() error     { return nil } // Controller is opened by the caller
func (a *Adaptor) Finalize() error    { return nil } // Controller is closed by the caller
func (a *Adaptor) GetSpiDefaultBus() int {
	return 0
}
func (a *Adaptor) GetSpiDefaultChip() int    { return 0 }
func (a *Adaptor) GetSpiDefaultMode() int    { return 0 }
func (a *Adaptor) GetSpiDefaultMaxSpeed() int64 {
	return 750_000 // matches Clock750kHz
}

// GetSpiConnection returns a Connection backed by the CH341A controller,
// ignoring bus/chip/mode/bits/maxSpeed entirely, since this bridge has
// exactly one SPI chip-select and its clock is fixed by Controller.Open.
func (a *Adaptor) GetSpiConnection(busNum, chipNum, mode, bits int, maxSpeedHz int64) (gobot.Connection, error) {
	if a.ctrl == nil {
		return nil, fmt.Errorf("ch341a: adaptor has no controller")
	}
	return &connection{ctrl: a.ctrl}, nil
}

// connection implements the minimal subset of gobot's spi.Connection
// interface that memory/25aa1024.go's locally-defined spiOps interface
// needs: ReadCommandData and WriteBytes, both full-duplex over one CS
// assertion.
type connection struct {
	ctrl *Controller
}

// ReadCommandData asserts CS, writes command, reads len(data) bytes into
// data, then releases CS.
func (c *connection) ReadCommandData(command []byte, data []byte) error {
	ctx := context.Background()
	if err := c.ctrl.ChipSelect(ctx, true); err != nil {
		return err
	}
	defer c.ctrl.ChipSelect(ctx, false)

	resp, err := c.ctrl.SendCommand(ctx, command, len(data))
	if err != nil {
		return err
	}
	copy(data, resp)
	return nil
}

// WriteBytes asserts CS, writes data with no response expected, releases CS.
func (c *connection) WriteBytes(data []byte) error {
	ctx := context.Background()
	if err := c.ctrl.ChipSelect(ctx, true); err != nil {
		return err
	}
	defer c.ctrl.ChipSelect(ctx, false)
	_, err := c.ctrl.SendCommand(ctx, data, 0)
	return err
}

func (c *connection) Close() error { return nil }
