// Package isptest provides a simulated K210 serial peer for tests.
package isptest

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/isp"
	"github.com/janch32/kendryte-flash/slip"
)

// Line - One DTR/RTS transition driven by the host
type Line struct {
	Name  string
	Level bool
}

// Device simulates the SoC end of the serial line. It implements isp.Port
// and its Open method is an isp.Opener handing out the same device.
type Device struct {
	// Respond returns the reply bodies for a received frame body. No
	// replies means the device stays silent and the host times out.
	Respond func(body []byte) [][]byte

	Frames [][]byte // Bodies received from the host, in order
	Lines  []Line   // Modem line transitions, in order
	Opens  []int    // Baud rate of every open
	Closes int

	// Noise is sent ahead of the next reply, then cleared
	Noise []byte

	rx   []byte
	open bool
}

// New returns a device running Firmware.
func New() *Device {
	d := &Device{}
	d.Respond = d.Firmware
	return d
}

// Firmware accepts every request with a valid checksum. Boot jumps and
// baud rate changes are not answered, like on the real device.
func (d *Device) Firmware(body []byte) [][]byte {
	op := Op(body)

	switch op {
	case isp.OpMemoryBoot, isp.OpUarthsBaudrateSet:
		return nil
	}

	if len(body) >= 16 {
		if _, err := Decode(body); err != nil {
			return [][]byte{Reply(op, isp.RetBadDataChecksum)}
		}
	}

	return [][]byte{Reply(op, isp.RetOK)}
}

// Open - isp.Opener
func (d *Device) Open(device string, baudRate int, readTimeout time.Duration) (isp.Port, error) {
	d.Opens = append(d.Opens, baudRate)
	d.open = true
	d.rx = nil
	return d, nil
}

func (d *Device) Read(p []byte) (int, error) {
	if !d.open {
		return 0, errors.New("port closed")
	}

	n := copy(p, d.rx)
	d.rx = d.rx[n:]
	return n, nil
}

func (d *Device) Write(p []byte) (int, error) {
	if !d.open {
		return 0, errors.New("port closed")
	}

	body, err := slip.Decode(bytes.NewReader(p), nil)
	if err != nil {
		return 0, err
	}

	d.Frames = append(d.Frames, body)

	if d.Respond == nil {
		return len(p), nil
	}

	replies := d.Respond(body)
	if len(replies) > 0 {
		d.rx = append(d.rx, d.Noise...)
		d.Noise = nil
	}

	for _, r := range replies {
		d.rx = append(d.rx, slip.Encode(r)...)
	}

	return len(p), nil
}

func (d *Device) Close() error {
	d.open = false
	d.Closes++
	return nil
}

func (d *Device) SetDTR(level bool) error {
	d.Lines = append(d.Lines, Line{Name: "DTR", Level: level})
	return nil
}

func (d *Device) SetRTS(level bool) error {
	d.Lines = append(d.Lines, Line{Name: "RTS", Level: level})
	return nil
}

func (d *Device) ResetInputBuffer() error {
	d.rx = nil
	return nil
}

// IsOpen - Port state as seen by the host
func (d *Device) IsOpen() bool {
	return d.open
}

// Packets decodes every received frame carrying op.
func (d *Device) Packets(op isp.Operation) []isp.Packet {
	packets := []isp.Packet{}

	for _, body := range d.Frames {
		if Op(body) != op {
			continue
		}

		if p, err := Decode(body); err == nil {
			packets = append(packets, p)
		}
	}

	return packets
}

// Op returns the operation code of a request body.
func Op(body []byte) isp.Operation {
	if len(body) < 2 {
		return 0
	}
	return isp.Operation(binary.LittleEndian.Uint16(body))
}

// Reply builds a response body.
func Reply(op isp.Operation, code isp.ErrorCode, payload ...byte) []byte {
	return append([]byte{byte(op), byte(code)}, payload...)
}

// Decode parses a request body and verifies its length and checksum.
func Decode(body []byte) (isp.Packet, error) {
	if len(body) < 16 {
		return isp.Packet{}, errors.Errorf("packet too short: %d bytes", len(body))
	}

	length := binary.LittleEndian.Uint32(body[12:16])
	if int(length) != len(body)-16 {
		return isp.Packet{}, errors.Errorf("length field %d, payload has %d bytes", length, len(body)-16)
	}

	if sum := binary.LittleEndian.Uint32(body[4:8]); sum != isp.Checksum(body[8:]) {
		return isp.Packet{}, errors.Errorf("checksum 0x%08X does not match", sum)
	}

	return isp.Packet{
		Operation: Op(body),
		Address:   binary.LittleEndian.Uint32(body[8:12]),
		Payload:   body[16:],
	}, nil
}
