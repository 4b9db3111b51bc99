package flashcmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDevice struct{ name string }

func (d *fakeDevice) Size() uint32                                              { return 1024 }
func (d *fakeDevice) Erase(ctx context.Context, offset, length uint32) error     { return nil }
func (d *fakeDevice) Write(ctx context.Context, offset uint32, data []byte) error { return nil }
func (d *fakeDevice) Read(ctx context.Context, buf []byte, offset uint32) error  { return nil }

func notFound(ctx context.Context) (Device, bool, error) { return nil, false, nil }

func TestInitReturnsFirstMatchingBackend(t *testing.T) {
	want := &fakeDevice{name: "nand"}
	backends := []Backend{
		{Name: "nor", Open: notFound},
		{Name: "nand", Open: func(ctx context.Context) (Device, bool, error) { return want, true, nil }},
		{Name: "i2c", Open: notFound},
	}
	name, dev, err := Init(context.Background(), backends)
	require.NoError(t, err)
	require.Equal(t, "nand", name)
	require.Same(t, want, dev)
}

func TestInitStopsOnProbeError(t *testing.T) {
	probeErr := errors.New("usb timeout")
	backends := []Backend{
		{Name: "nor", Open: func(ctx context.Context) (Device, bool, error) { return nil, false, probeErr }},
		{Name: "nand", Open: func(ctx context.Context) (Device, bool, error) {
			t.Fatal("nand backend should not be tried after nor errored")
			return nil, false, nil
		}},
	}
	_, _, err := Init(context.Background(), backends)
	require.ErrorIs(t, err, probeErr)
}

func TestInitNoBackendFound(t *testing.T) {
	backends := []Backend{{Name: "nor", Open: notFound}, {Name: "nand", Open: notFound}}
	_, _, err := Init(context.Background(), backends)
	require.ErrorIs(t, err, ErrNoDevice)
}
