package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
)

// usbLsCmd lists every HID and raw USB device visible to the host,
// independent of whether it is the CH341A bridge this CLI actually
// drives, adapted from cmd/sensors/usb.go's usbLsCmd for bridge
// discovery/diagnosis before a probe is attempted.
var usbLsCmd = &cli.Command{
	Name:  "usb-ls",
	Usage: "list HID/USB devices visible to the host",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, '.', tabwriter.AlignRight|tabwriter.Debug)
		for _, d := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#04x\t%#04x\t%s\t%s\n", d.Path, d.Serial, d.VendorID, d.ProductID, d.Manufacturer, d.Product)
		}
		return w.Flush()
	},
}
