// Package isp talks to the Kendryte K210 ROM bootloader over a serial line:
// packet construction, response decoding, board specific reset sequences
// and the in-system programming operations of the ROM.
package isp

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
)

// Greet sends the fixed greeting of op (OpNop for the ROM, OpFlashNop for
// the flash agent) and checks the answer.
func (b *Instance) Greet(op Operation) error {
	resp, err := b.Exchange(greetingBody(op))
	if err != nil {
		return err
	}

	if !resp.Code.Success() {
		return &RejectionError{Operation: op, Code: resp.Code, Attempts: 1}
	}

	return nil
}

// Greeting - Probe the ROM bootloader
func (b *Instance) Greeting() error {
	return b.Greet(OpNop)
}

// WriteMemory writes data to SRAM starting at address in MemoryChunkSize
// frames. progress gets the number of bytes written after every frame.
func (b *Instance) WriteMemory(address uint32, data []byte, progress func(written int)) error {
	written := 0

	for _, chunk := range firmware.Split(data, MemoryChunkSize) {
		_, err := b.Transact(Packet{
			Operation: OpMemoryWrite,
			Address:   address,
			Payload:   chunk,
		})

		if err != nil {
			return errors.Wrapf(err, "write memory at 0x%08X", address)
		}

		address += uint32(len(chunk))
		written += len(chunk)

		if progress != nil {
			progress(written)
		}
	}

	glog.V(1).Infof("Wrote %d bytes to memory", written)
	return nil
}

// BootMemory - Start the program loaded at address. The ROM does not answer.
func (b *Instance) BootMemory(address uint32) error {
	return b.Send(Packet{
		Operation: OpMemoryBoot,
		Address:   address,
	})
}
