// Package memory loads Intel HEX images and flattens them into a single
// flash image.
package memory

import (
	"io"
	"os"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
)

// Fill - Value of bytes not covered by any segment
const Fill = 0xFF

// Memory - Content of an image, as address/data segments
type Memory struct {
	*gohex.Memory
}

// Bounds - First address and length of the span covering all segments
func (m Memory) Bounds() (uint32, uint32, error) {
	segments := m.GetDataSegments()
	if len(segments) == 0 {
		return 0, 0, errors.New("image contains no data")
	}

	start := segments[0].Address
	end := start

	for _, seg := range segments {
		if seg.Address < start {
			start = seg.Address
		}

		if segEnd := seg.Address + uint32(len(seg.Data)); segEnd > end {
			end = segEnd
		}
	}

	return start, end - start, nil
}

// Image - Contiguous image and its load address, gaps filled with Fill
func (m Memory) Image() (uint32, []byte, error) {
	start, size, err := m.Bounds()
	if err != nil {
		return 0, nil, err
	}

	return start, m.ToBinary(start, size, Fill), nil
}

// Chunk - Image as a flash chunk. Images starting at address 0 are
// firmware and get the SHA-256 prefix, everything else is written raw.
func (m Memory) Chunk() (firmware.Chunk, error) {
	address, data, err := m.Image()
	if err != nil {
		return firmware.Chunk{}, err
	}

	return firmware.Chunk{
		Address:      address,
		Data:         data,
		SHA256Prefix: address == 0,
	}, nil
}

// Parse - Read Intel HEX records from r
func Parse(r io.Reader) (*Memory, error) {
	mem := gohex.NewMemory()

	if err := mem.ParseIntelHex(r); err != nil {
		return nil, errors.Wrap(err, "parse intel hex")
	}

	return &Memory{mem}, nil
}

// LoadHexFile - Load an .hex file (Intel HEX format)
func LoadHexFile(path string) (*Memory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	mem, err := Parse(file)
	return mem, errors.Wrap(err, path)
}
