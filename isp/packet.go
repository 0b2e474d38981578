package isp

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/janch32/kendryte-flash/slip"
)

// Packet - Request sent to the ROM or to the flash agent
//
// Wire layout, little-endian:
//
//	[OP(2)][RESERVED(2)][CRC32(4)][ADDRESS(4)][LENGTH(4)][PAYLOAD...]
type Packet struct {
	Operation Operation
	Address   uint32
	Payload   []byte
}

// Checksum - CRC-32 (IEEE, reflected 0xEDB88320) of data
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Bytes serializes the packet. The checksum is computed over address,
// length and payload after they are written, then patched into its field.
func (p Packet) Bytes() []byte {
	buf := make([]byte, headerSize+len(p.Payload))

	binary.LittleEndian.PutUint16(buf[0:], uint16(p.Operation))
	binary.LittleEndian.PutUint16(buf[2:], 0)
	binary.LittleEndian.PutUint32(buf[8:], p.Address)
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(p.Payload)))
	copy(buf[headerSize:], p.Payload)

	binary.LittleEndian.PutUint32(buf[4:], Checksum(buf[checksumFrom:]))
	return buf
}

// Response - Decoded reply of the device
//
// Wire layout: [OP(1)][ERROR CODE(1)][PAYLOAD...]
type Response struct {
	Operation Operation
	Code      ErrorCode
	Payload   []byte
}

// ParseResponse decodes an unstuffed response frame.
func ParseResponse(body []byte) (*Response, error) {
	if len(body) < 2 {
		return nil, &ShortResponseError{Length: len(body)}
	}

	resp := &Response{
		Operation: Operation(body[0]),
		Code:      ErrorCode(body[1]),
	}

	if len(body) > 2 {
		resp.Payload = body[2:]
	}

	return resp, nil
}

// FramingError is returned for a malformed escape sequence in a response.
type FramingError = slip.FramingError
