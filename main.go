package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/janch32/kendryte-flash/discover"
	"github.com/janch32/kendryte-flash/flashmode"
	"github.com/janch32/kendryte-flash/isp"
	"github.com/janch32/kendryte-flash/terminal"
)

func main() {
	flagListPorts := flag.Bool("list", false, "List connected K210 boards")
	flagTerm := flag.Bool("term", false, "Open a terminal on the board (after flashing, if -firmware is given)")
	flagPort := flag.String("port", "", "Serial port of the board (default: first board found)")
	flagBaud := flag.Int("baud", isp.InitialBaudRate, "Line rate used for flash writes")
	flagFirmware := flag.String("firmware", "", "Firmware to flash (.bin, .kfpkg or .hex)")
	flagBootloader := flag.String("bootloader", "", "Flash bootloader image (isp_flash.bin)")
	flagChip := flag.Uint("chip", flashmode.DefaultChip, "Flash chip profile")
	flagRetries := flag.Int("retries", isp.DefaultAttempts, "Sends per rejected chunk")
	flagTimeout := flag.Duration("timeout", isp.DefaultReadTimeout, "Serial read timeout")

	flag.Parse()
	defer glog.Flush()

	if *flagListPorts {
		if err := discover.PrintDevices(os.Stdout); err != nil {
			glog.Exit(err)
		}
		return
	}

	if *flagFirmware == "" && !*flagTerm {
		fmt.Println("Run with -help to show available flags")
		return
	}

	if *flagPort == "" {
		fmt.Println("Port not specified, running auto port discovery...")
		port, err := discover.FirstDevice()
		if err != nil {
			glog.Exit(err)
		}
		*flagPort = port.Name
	}

	if *flagFirmware != "" {
		chip, err := chipID(*flagChip)
		if err != nil {
			glog.Exit(err)
		}

		err = Flash(flashSettings{
			Port:       *flagPort,
			BaudRate:   *flagBaud,
			Firmware:   *flagFirmware,
			Bootloader: *flagBootloader,
			Chip:       chip,
			Retries:    *flagRetries,
			Timeout:    *flagTimeout,
		})

		if err != nil {
			glog.Exitf("Flashing failed: %v", err)
		}
	}

	if *flagTerm {
		fmt.Println("Connecting to: " + *flagPort)
		if err := terminal.Open(*flagPort, terminal.DefaultBaudRate, os.Stdin, os.Stdout); err != nil {
			glog.Exit(err)
		}
	}
}
