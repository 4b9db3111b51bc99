package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ch341prog/eeprom/i2c"
	"github.com/mklimuk/ch341prog/eeprom/microwire"
	"github.com/mklimuk/ch341prog/eeprom/spi25"
	"github.com/mklimuk/ch341prog/nand"
	"github.com/mklimuk/ch341prog/nor"
)

// listCmd prints every chip table this programmer supports, one family
// per section, adapted from flashcmd_api.c's support_*_list functions.
var listCmd = &cli.Command{
	Name:  "list",
	Usage: "list every chip this programmer recognizes by name",
	Action: func(c *cli.Context) error {
		fmt.Println("SPI NOR:")
		for _, chip := range nor.List() {
			fmt.Printf("  %s\n", chip.Name)
		}
		fmt.Println("SPI NAND:")
		for _, chip := range nand.List() {
			fmt.Printf("  %s\n", chip.Name)
		}
		fmt.Println("I2C EEPROM:")
		for _, chip := range i2c.List() {
			fmt.Printf("  %s\n", chip.Name)
		}
		fmt.Println("SPI EEPROM (25-series):")
		for _, chip := range spi25.List() {
			fmt.Printf("  %s\n", chip.Name)
		}
		fmt.Println("Microwire EEPROM:")
		for _, chip := range microwire.List() {
			fmt.Printf("  %s\n", chip.Name)
		}
		return nil
	},
}
