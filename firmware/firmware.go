// Package firmware prepares firmware images for the flash agent: zero
// padding, per-word byte reversal, SHA-256 integrity prefixing and chunking.
package firmware

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	// PadAlign - Images are zero padded to a multiple of this many bytes
	PadAlign = 64

	// packMarker precedes the length field of a SHA-256 prefixed image
	packMarker = 0x00
)

// Chunk - One firmware entry: data destined for a flash address
type Chunk struct {
	Address       uint32
	Data          []byte
	SHA256Prefix  bool
	Reverse4Bytes bool
}

// AlignmentError - Data length is not a multiple of the required alignment
type AlignmentError struct {
	Length int
	Align  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("data must be %d bytes aligned, got %d bytes", e.Align, e.Length)
}

// ZeroPad returns data extended with zero bytes up to the next multiple of
// align. Aligned data is returned as is.
func ZeroPad(data []byte, align int) []byte {
	rem := len(data) % align
	if rem == 0 {
		return data
	}

	padded := make([]byte, len(data)+align-rem)
	copy(padded, data)
	return padded
}

// Reverse4Bytes swaps the byte order of every 32-bit word of data in place.
func Reverse4Bytes(data []byte) error {
	if len(data)%4 != 0 {
		return &AlignmentError{Length: len(data), Align: 4}
	}

	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = data[i+3], data[i+2], data[i+1], data[i]
	}

	return nil
}

// SHA256Pack builds [0x00][len(data) LE32][data][SHA-256 of everything before].
func SHA256Pack(data []byte) []byte {
	pack := make([]byte, 1+4+len(data), 1+4+len(data)+sha256.Size)
	pack[0] = packMarker
	binary.LittleEndian.PutUint32(pack[1:5], uint32(len(data)))
	copy(pack[5:], data)

	digest := sha256.Sum256(pack)
	return append(pack, digest[:]...)
}

// Prepare runs the image pipeline for c and returns the bytes to be written
// to flash. c.Data is never modified.
func Prepare(c Chunk) ([]byte, error) {
	data := ZeroPad(c.Data, PadAlign)

	if c.Reverse4Bytes {
		// ZeroPad hands back the caller's slice when no padding was needed
		if len(data) == len(c.Data) {
			data = append([]byte(nil), data...)
		}

		if err := Reverse4Bytes(data); err != nil {
			return nil, err
		}
	}

	if c.SHA256Prefix {
		return SHA256Pack(data), nil
	}

	return data, nil
}

// Split cuts data into consecutive pieces of size bytes, the last one
// possibly shorter. Empty data yields no pieces.
func Split(data []byte, size int) [][]byte {
	chunks := [][]byte{}

	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}

		chunks = append(chunks, data[start:end])
	}

	return chunks
}

// Raw wraps a plain application image the way the K210 ROM expects it at
// the start of flash.
func Raw(data []byte) []Chunk {
	return []Chunk{{
		Address:       0,
		Data:          data,
		SHA256Prefix:  true,
		Reverse4Bytes: false,
	}}
}

// Size - Total number of bytes held by chunks
func Size(chunks []Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c.Data)
	}

	return total
}
