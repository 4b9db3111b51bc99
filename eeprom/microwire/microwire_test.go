package microwire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGPIO reconstructs the bit stream a real 93Cxx part would sample by
// watching for CLK rising edges and capturing the DI level at that
// instant, the same edge a chip would latch data on.
type fakeGPIO struct {
	dir        byte
	bits       byte
	capturedDI []bool
	doQueue    []bool
}

func (f *fakeGPIO) SetDir(ctx context.Context, mask byte) error {
	f.dir = mask
	return nil
}

func (f *fakeGPIO) SetBits(ctx context.Context, bits byte) error {
	risingEdge := bits&pinCLK != 0 && f.bits&pinCLK == 0
	if risingEdge {
		f.capturedDI = append(f.capturedDI, bits&pinDI != 0)
	}
	f.bits = bits
	return nil
}

func (f *fakeGPIO) GetBits(ctx context.Context) (byte, error) {
	out := f.bits &^ byte(pinDO)
	if len(f.doQueue) > 0 {
		if f.doQueue[0] {
			out |= pinDO
		}
		f.doQueue = f.doQueue[1:]
	}
	return out, nil
}

func bitsToUint(bits []bool) uint32 {
	var v uint32
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

func TestLookupKnownAndUnknownChip(t *testing.T) {
	chip, ok := Lookup("93c46")
	require.True(t, ok)
	require.EqualValues(t, 128, chip.SizeBytes)
	require.Equal(t, 7, chip.AddrBits)

	_, ok = Lookup("93c99")
	require.False(t, ok)
}

func TestIssueCommandFramesStartOpcodeAddress(t *testing.T) {
	chip, _ := Lookup("93c46")
	fake := &fakeGPIO{}
	f := Open(fake, chip)

	require.NoError(t, f.issueCommand(context.Background(), opRead, 0x2A))

	require.GreaterOrEqual(t, len(fake.capturedDI), 1+2+chip.AddrBits)
	require.True(t, fake.capturedDI[0], "start bit must be 1")

	opcodeBits := fake.capturedDI[1:3]
	require.Equal(t, uint32(opRead), bitsToUint(opcodeBits))

	addrBits := fake.capturedDI[3 : 3+chip.AddrBits]
	require.Equal(t, uint32(0x2A), bitsToUint(addrBits))
}

func TestReadWordReconstructsByteFromClockedBits(t *testing.T) {
	chip, _ := Lookup("93c46")
	fake := &fakeGPIO{}
	// readBit clocks once then samples DO; queue 0xB7 MSB-first.
	want := byte(0xB7)
	for i := 7; i >= 0; i-- {
		fake.doQueue = append(fake.doQueue, want&(1<<uint(i)) != 0)
	}
	f := Open(fake, chip)

	got, err := f.readWord(context.Background(), 0x05)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSizeReflectsChip(t *testing.T) {
	chip, _ := Lookup("93c86")
	f := Open(&fakeGPIO{}, chip)
	require.EqualValues(t, 2048, f.Size())
}
