// Package usbtransport implements the asynchronous bulk-USB transport to
// the CH341A bridge (component C1). It is grounded on two donors: the
// claim-interface / bulk-endpoint dance in guiperry-HASHER's
// internal/driver/device/usb_device.go (which talks to a different bulk-USB
// ASIC the same shape as the CH341A), and the original C implementation's
// ch341a_spi.c usb_transfer/usb_transfer_cancel pump, whose slot-ring
// bookkeeping is mirrored here even though gousb's context-based Read/Write
// already provide synchronous cancellation under the hood.
package usbtransport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

const (
	// VendorID and ProductID identify the CH341A in its SPI/I2C mode.
	VendorID  = 0x1A86
	ProductID = 0x5512

	interfaceNum = 0
	altSetting   = 0
	outEndpoint  = 0x02
	inEndpoint   = 0x82

	// MaxPacketPayload is the largest data chunk a single bulk packet can
	// carry once the command byte is accounted for.
	MaxPacketPayload = 31

	// inSlotCount mirrors the source's recommended pool size: the bridge
	// echoes one fewer data byte than each 32-byte packet reserves, so
	// sustaining throughput needs several in-flight IN requests.
	inSlotCount = 32

	pumpTimeout = time.Second
)

// slotState is the state of one asynchronous IN transfer, per spec §5's
// ring-of-states recommendation. gousb's InEndpoint.ReadContext performs
// the submit/wait/cancel sequence for us, so here the ring only tracks
// bookkeeping (how many slots are in flight, how many bytes each yielded)
// rather than raw libusb transfer handles.
type slotState int

const (
	slotIdle slotState = iota
	slotActive
	slotCompleted
	slotFailed
)

type inSlot struct {
	state slotState
	n     int
}

// Session is the process-wide handle to the open bridge: the claimed
// interface plus the OUT/IN endpoint pair and the IN slot ring. Only one
// Session may exist at a time, matching spec §3's "SPI Session" data model.
type Session struct {
	mu sync.Mutex

	ctx   *gousb.Context
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface

	out *gousb.OutEndpoint
	in  *gousb.InEndpoint

	slots   [inSlotCount]inSlot
	freeIdx int
	inIdx   int

	closed bool
}

// ErrNoDevice is returned by Open when no CH341A is attached.
var ErrNoDevice = errors.New("usbtransport: no CH341A device found")

// Open claims the CH341A's SPI/I2C interface and prepares the transport for
// transfer calls. Equivalent to the source's usb_init; the stream clock
// is configured afterwards by spi/ch341a's Open.
func Open() (*Session, error) {
	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: open device: %w", err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, ErrNoDevice
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: detach kernel driver: %w", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: claim config: %w", err)
	}

	iface, err := cfg.Interface(interfaceNum, altSetting)
	if err != nil {
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: claim interface %d: %w", interfaceNum, err)
	}

	outEP, err := iface.OutEndpoint(outEndpoint)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: open out endpoint: %w", err)
	}

	inEP, err := iface.InEndpoint(inEndpoint)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("usbtransport: open in endpoint: %w", err)
	}

	return &Session{
		ctx:   usbCtx,
		dev:   dev,
		cfg:   cfg,
		iface: iface,
		out:   outEP,
		in:    inEP,
	}, nil
}

// Close tears down the session in reverse order of Open, walking
// pins_enabled -> pins_disabled -> closed per spec §4.2's state machine
// (pin state itself lives in the spi/ch341a controller layer above this
// one; Close here only releases the USB resources).
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.iface.Close()
	s.cfg.Close()
	err := s.dev.Close()
	s.ctx.Close()
	return err
}

// Transfer writes write to the OUT endpoint (if non-empty) and reads
// exactly readLen bytes back from the IN endpoint, pumping the IN slot ring
// in packets of at most MaxPacketPayload bytes. Any failure cancels the
// remaining ring entries and returns a transport error; by the time
// Transfer returns, no slot is left active, matching the cancellation
// invariant in spec §4.1 and §5.
func (s *Session) Transfer(ctx context.Context, write []byte, readLen int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("usbtransport: session closed")
	}

	for i := range s.slots {
		s.slots[i] = inSlot{state: slotIdle}
	}
	s.freeIdx, s.inIdx = 0, 0

	if len(write) > 0 {
		wctx, cancel := context.WithTimeout(ctx, pumpTimeout)
		n, err := s.out.WriteContext(wctx, write)
		cancel()
		if err != nil || n != len(write) {
			return nil, fmt.Errorf("usbtransport: out transfer failed (%d/%d bytes): %w", n, len(write), err)
		}
	}

	if readLen == 0 {
		return nil, nil
	}

	out := make([]byte, 0, readLen)
	remaining := readLen
	for remaining > 0 {
		chunk := remaining
		if chunk > MaxPacketPayload {
			chunk = MaxPacketPayload
		}

		slotIdx := s.freeIdx % inSlotCount
		s.slots[slotIdx].state = slotActive
		s.freeIdx++

		buf := make([]byte, chunk)
		rctx, cancel := context.WithTimeout(ctx, pumpTimeout)
		n, err := s.in.ReadContext(rctx, buf)
		cancel()

		if err != nil {
			s.slots[slotIdx].state = slotFailed
			s.cancelRemaining()
			return nil, fmt.Errorf("usbtransport: in transfer failed at slot %d: %w", slotIdx, err)
		}

		s.slots[slotIdx].state = slotCompleted
		s.slots[slotIdx].n = n
		s.inIdx++

		out = append(out, buf[:n]...)
		remaining -= n
		if n == 0 {
			return nil, errors.New("usbtransport: in transfer stalled (zero bytes)")
		}
	}

	return out, nil
}

// cancelRemaining marks every slot that has not yet completed or failed as
// failed, emulating the source's synchronous cancel-and-drain error path:
// by the time the caller sees the error, nothing is left in flight.
func (s *Session) cancelRemaining() {
	for i := range s.slots {
		if s.slots[i].state == slotActive || s.slots[i].state == slotIdle {
			s.slots[i].state = slotFailed
		}
	}
	s.freeIdx = s.inIdx
}
