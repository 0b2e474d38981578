package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
	"github.com/janch32/kendryte-flash/isp"
	"github.com/janch32/kendryte-flash/kfpkg"
	"github.com/janch32/kendryte-flash/memory"
)

// Firmware file types, by extension
const (
	ExtBinary  = ".bin"
	ExtPackage = ".kfpkg"
	ExtHex     = ".hex"
)

// Request - What to flash and where
type Request struct {
	Device     string
	BaudRate   int
	Firmware   string // .bin, .kfpkg or .hex
	Bootloader string // Flash agent image, optional if WithBootloader is used
	ChipID     uint32 // 0 keeps the configured chip
}

// Validate checks the request without touching the device or reading the
// firmware.
func (r Request) Validate() error {
	if r.Firmware == "" {
		return &ConfigurationError{Field: "firmware", Reason: "path is empty"}
	}

	switch firmwareExt(r.Firmware) {
	case ExtBinary, ExtPackage, ExtHex:
	default:
		return &ConfigurationError{Field: "firmware", Reason: "unknown type " + filepath.Ext(r.Firmware)}
	}

	if r.Device == "" {
		return &ConfigurationError{Field: "device", Reason: "no serial port selected"}
	}

	if r.BaudRate < isp.MinBaudRate {
		return &ConfigurationError{Field: "baud rate", Reason: "must be at least 110"}
	}

	if r.Bootloader != "" {
		if _, err := os.Stat(r.Bootloader); err != nil {
			return &ConfigurationError{Field: "bootloader", Reason: err.Error()}
		}
	}

	return nil
}

func firmwareExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Chunks loads the firmware file as flash chunks.
func (r Request) Chunks() ([]firmware.Chunk, error) {
	switch firmwareExt(r.Firmware) {
	case ExtBinary:
		data, err := os.ReadFile(r.Firmware)
		if err != nil {
			return nil, errors.Wrap(err, "read firmware")
		}
		return firmware.Raw(data), nil

	case ExtPackage:
		p, err := kfpkg.Open(r.Firmware)
		if err != nil {
			return nil, err
		}
		return p.Chunks(), nil

	case ExtHex:
		mem, err := memory.LoadHexFile(r.Firmware)
		if err != nil {
			return nil, err
		}

		c, err := mem.Chunk()
		if err != nil {
			return nil, errors.Wrap(err, r.Firmware)
		}
		return []firmware.Chunk{c}, nil
	}

	return nil, &ConfigurationError{Field: "firmware", Reason: "unknown type " + filepath.Ext(r.Firmware)}
}

func (r Request) options() []Option {
	opts := []Option{WithBaudRate(r.BaudRate)}

	if r.Bootloader != "" {
		opts = append(opts, WithBootloader(FileAsset(r.Bootloader)))
	}
	if r.ChipID != 0 {
		opts = append(opts, WithChipID(r.ChipID))
	}

	return opts
}
