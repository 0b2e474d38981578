// Package discover finds serial ports that are likely K210 boards, by the
// USB IDs of the bridges those boards carry.
package discover

import (
	"fmt"
	"io"
	"strings"

	"github.com/albenik/go-serial/v2"
	"github.com/albenik/go-serial/v2/enumerator"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Bridge - USB to serial chip found on K210 boards
type Bridge struct {
	VID  string
	PID  string
	Name string
}

// KnownBridges - Bridges of the supported boards
var KnownBridges = []Bridge{
	{VID: "1A86", PID: "7523", Name: "CH340"},  // KD233, most Maix modules
	{VID: "0403", PID: "6010", Name: "FT2232"}, // MAIXGO, Sipeed dual UART
	{VID: "1A86", PID: "55D4", Name: "CH9102"}, // Maix Bit revisions
	{VID: "10C4", PID: "EA60", Name: "CP2102"}, // Generic boards
}

// Port - Candidate serial port
type Port struct {
	Name         string // Device to pass to the flasher
	Bridge       string // Bridge name, empty if the port was not identified
	SerialNumber string
}

func (p Port) String() string {
	if p.Bridge == "" {
		return p.Name
	}
	if p.SerialNumber == "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.Bridge)
	}
	return fmt.Sprintf("%s (%s, %s)", p.Name, p.Bridge, p.SerialNumber)
}

// Match - Known bridge behind a port, if any
func Match(port *enumerator.PortDetails) (Bridge, bool) {
	if port == nil || !port.IsUSB {
		return Bridge{}, false
	}

	for _, b := range KnownBridges {
		if strings.EqualFold(port.VID, b.VID) && strings.EqualFold(port.PID, b.PID) {
			return b, true
		}
	}

	return Bridge{}, false
}

func filter(ports []*enumerator.PortDetails) []Port {
	found := []Port{}

	for _, port := range ports {
		if b, ok := Match(port); ok {
			found = append(found, Port{
				Name:         port.Name,
				Bridge:       b.Name,
				SerialNumber: port.SerialNumber,
			})
		}
	}

	return found
}

// Candidates lists ports behind a known bridge. Where USB details are not
// available every serial port is returned, unidentified.
func Candidates() ([]Port, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err == nil {
		return filter(ports), nil
	}

	glog.Warningf("USB port details unavailable: %v", err)

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}

	found := []Port{}
	for _, name := range names {
		found = append(found, Port{Name: name})
	}

	return found, nil
}

// FirstDevice - First candidate port
func FirstDevice() (*Port, error) {
	ports, err := Candidates()
	if err != nil {
		return nil, err
	}

	if len(ports) == 0 {
		return nil, errors.New("no K210 board found")
	}

	return &ports[0], nil
}

// PrintDevices writes one line per candidate port.
func PrintDevices(w io.Writer) error {
	ports, err := Candidates()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Fprintln(w, "No K210 board found")
		return nil
	}

	for _, p := range ports {
		fmt.Fprintln(w, p)
	}

	return nil
}
