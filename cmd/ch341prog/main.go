// Command ch341prog is the end-user flash programmer CLI (component C8,
// the cmd/ entry point flashcmd was missing a call site for), adapted
// from cmd/sensors/main.go and cmd/sensors/command/memory.go's
// cli/v2 flag/Action shape, wired to flashcmd.Init instead of a single
// hardcoded SPI driver.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ch341prog/config"
	"github.com/mklimuk/ch341prog/eeprom/i2c"
	"github.com/mklimuk/ch341prog/eeprom/microwire"
	"github.com/mklimuk/ch341prog/eeprom/spi25"
	"github.com/mklimuk/ch341prog/flashcmd"
	"github.com/mklimuk/ch341prog/internal/progress"
	"github.com/mklimuk/ch341prog/nand"
	"github.com/mklimuk/ch341prog/nor"
	"github.com/mklimuk/ch341prog/spi/ch341a"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	app := &cli.App{
		Name:    "ch341prog",
		Usage:   "CH341A SPI/I2C flash and EEPROM programmer",
		Version: fmt.Sprintf("%s-%s-%s", version, date, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a programmer config YAML file"},
		},
		Commands: []*cli.Command{probeCmd, readCmd, writeCmd, eraseCmd, usbLsCmd, listCmd},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(c *cli.Context) config.Programmer {
	path := c.String("config")
	if path == "" {
		return config.Default()
	}
	p, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to defaults\n", err)
		return config.Default()
	}
	return p
}

// openDevice claims the bridge and runs flashcmd's priority cascade: SPI
// NOR and SPI NAND auto-probe unless a specific protocol is forced; the
// I2C and SPI EEPROM backends require the chip to be named explicitly,
// since neither family exposes a JEDEC-style self-identification opcode.
func openDevice(ctx context.Context, p config.Programmer) (string, flashcmd.Device, func(), error) {
	ctrl, err := ch341a.Open(ctx, ch341a.ClockSpeed(p.ClockSpeed))
	if err != nil {
		return "", nil, nil, fmt.Errorf("open bridge: %w", err)
	}
	closeFn := func() { _ = ctrl.Close(ctx) }

	wantsOnly := func(name string) bool { return p.Protocol != "" && p.Protocol != name }

	backends := []flashcmd.Backend{
		{Name: "nor", Open: func(ctx context.Context) (flashcmd.Device, bool, error) {
			if wantsOnly("nor") {
				return nil, false, nil
			}
			f, _, err := nor.ProbeAndOpen(ctx, ctrl)
			if errors.Is(err, nor.ErrNotDetected) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return f, true, nil
		}},
		{Name: "nand", Open: func(ctx context.Context) (flashcmd.Device, bool, error) {
			if wantsOnly("nand") {
				return nil, false, nil
			}
			f, err := nand.Open(ctx, ctrl, p.BadBlockPolicy())
			if errors.Is(err, nand.ErrNotDetected) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return nand.NewByteDevice(f), true, nil
		}},
		{Name: "i2c", Open: func(ctx context.Context) (flashcmd.Device, bool, error) {
			if p.Protocol != "i2c" {
				return nil, false, nil
			}
			chip, ok := i2c.Lookup(p.ChipName)
			if !ok {
				return nil, false, fmt.Errorf("i2c: unknown chip %q", p.ChipName)
			}
			return i2c.Open(ch341a.NewI2CBus(ctrl), p.I2CAddress, chip), true, nil
		}},
		{Name: "spi25", Open: func(ctx context.Context) (flashcmd.Device, bool, error) {
			if p.Protocol != "spi25" {
				return nil, false, nil
			}
			chip, ok := spi25.Lookup(p.ChipName)
			if !ok {
				return nil, false, fmt.Errorf("spi25: unknown chip %q", p.ChipName)
			}
			return spi25.Open(ctrl, chip), true, nil
		}},
		{Name: "microwire", Open: func(ctx context.Context) (flashcmd.Device, bool, error) {
			if p.Protocol != "microwire" {
				return nil, false, nil
			}
			chip, ok := microwire.Lookup(p.ChipName)
			if !ok {
				return nil, false, fmt.Errorf("microwire: unknown chip %q", p.ChipName)
			}
			return microwire.Open(ch341a.NewGPIOBus(ctrl), chip), true, nil
		}},
	}

	name, dev, err := flashcmd.Init(ctx, backends)
	if err != nil {
		closeFn()
		return "", nil, nil, err
	}
	return name, dev, closeFn, nil
}

var probeCmd = &cli.Command{
	Name:  "probe",
	Usage: "identify the attached flash or EEPROM",
	Action: func(c *cli.Context) error {
		name, dev, closeFn, err := openDevice(context.Background(), loadConfig(c))
		if err != nil {
			return err
		}
		defer closeFn()
		fmt.Printf("detected %s device, %d bytes\n", name, dev.Size())
		return nil
	},
}

var readCmd = &cli.Command{
	Name:      "read",
	Usage:     "read flash contents to a file",
	ArgsUsage: "<output-file>",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "offset"},
		&cli.UintFlag{Name: "length", Required: true},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("read: expected exactly one output file argument")
		}
		ctx := context.Background()
		_, dev, closeFn, err := openDevice(ctx, loadConfig(c))
		if err != nil {
			return err
		}
		defer closeFn()

		timer := progress.Start()
		buf := make([]byte, c.Uint("length"))
		if err := dev.Read(ctx, buf, uint32(c.Uint("offset"))); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if err := os.WriteFile(c.Args().Get(0), buf, 0o644); err != nil {
			return err
		}
		fmt.Printf("read %d bytes. %s\n", len(buf), timer)
		return nil
	},
}

var writeCmd = &cli.Command{
	Name:      "write",
	Usage:     "program a file's contents onto the flash",
	ArgsUsage: "<input-file>",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "offset"},
		&cli.BoolFlag{Name: "no-erase", Usage: "skip the pre-write erase pass"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("write: expected exactly one input file argument")
		}
		ctx := context.Background()
		_, dev, closeFn, err := openDevice(ctx, loadConfig(c))
		if err != nil {
			return err
		}
		defer closeFn()

		data, err := os.ReadFile(c.Args().Get(0))
		if err != nil {
			return err
		}
		timer := progress.Start()
		offset := uint32(c.Uint("offset"))
		if !c.Bool("no-erase") {
			if err := dev.Erase(ctx, offset, uint32(len(data))); err != nil {
				return fmt.Errorf("erase before write: %w", err)
			}
		}
		if err := dev.Write(ctx, offset, data); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		fmt.Printf("wrote %d bytes. %s\n", len(data), timer)
		return nil
	},
}

var eraseCmd = &cli.Command{
	Name:  "erase",
	Usage: "erase a region, or the whole chip when --length is omitted",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "offset"},
		&cli.UintFlag{Name: "length"},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		_, dev, closeFn, err := openDevice(ctx, loadConfig(c))
		if err != nil {
			return err
		}
		defer closeFn()

		timer := progress.Start()
		length := uint32(c.Uint("length"))
		if length == 0 {
			length = dev.Size()
		}
		if err := dev.Erase(ctx, uint32(c.Uint("offset")), length); err != nil {
			return fmt.Errorf("erase: %w", err)
		}
		fmt.Printf("erased %d bytes. %s\n", length, timer)
		return nil
	},
}
