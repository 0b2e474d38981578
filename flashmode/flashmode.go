// Package flashmode drives the flash agent, the second stage program that
// runs from SRAM and writes the external SPI flash.
package flashmode

import (
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
	"github.com/janch32/kendryte-flash/isp"
)

// ChunkSize - Payload bytes per flash write packet
const ChunkSize = 4096 * 16

// DefaultChip - Flash chip profile passed to InitializeFlash by default
const DefaultChip = 3

// Agent - Flash agent functions on top of an isp.Instance
type Agent struct {
	isp *isp.Instance
}

// New - Wrap an instance whose device already runs the flash agent
func New(inst *isp.Instance) *Agent {
	return &Agent{isp: inst}
}

// Greeting - Check that the flash agent is alive
func (a *Agent) Greeting() error {
	return errors.Wrap(a.isp.Greet(isp.OpFlashNop), "flash greeting")
}

// ChangeBaudRate asks the agent to switch its line rate and reopens the
// local port at the same rate. The agent does not answer the request.
func (a *Agent) ChangeBaudRate(rate int) error {
	if rate < isp.MinBaudRate {
		return errors.Errorf("baud rate %d is below %d", rate, isp.MinBaudRate)
	}

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(rate))

	err := a.isp.Send(isp.Packet{
		Operation: isp.OpUarthsBaudrateSet,
		Payload:   payload,
	})
	if err != nil {
		return errors.Wrap(err, "request baud rate change")
	}

	return a.isp.SetBaudRate(rate)
}

// InitializeFlash selects the flash chip profile. It is sent once, any
// answer other than success is fatal.
func (a *Agent) InitializeFlash(chip uint32) error {
	_, err := a.isp.Request(isp.Packet{
		Operation: isp.OpFlashInit,
		Address:   chip,
	})

	return errors.Wrapf(err, "initialize flash chip %d", chip)
}

// WriteFlash writes a prepared image starting at address in ChunkSize
// frames. The address advances by ChunkSize per frame even for the short
// last one. progress gets the number of bytes written after every frame.
func (a *Agent) WriteFlash(address uint32, pack []byte, progress func(written int)) error {
	written := 0

	for _, chunk := range firmware.Split(pack, ChunkSize) {
		_, err := a.isp.Transact(isp.Packet{
			Operation: isp.OpFlashWrite,
			Address:   address,
			Payload:   chunk,
		})

		if err != nil {
			return errors.Wrapf(err, "write flash at 0x%08X", address)
		}

		address += ChunkSize
		written += len(chunk)

		if progress != nil {
			progress(written)
		}
	}

	glog.V(1).Infof("Wrote %d bytes to flash", written)
	return nil
}
