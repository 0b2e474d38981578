package isp

import (
	"fmt"
	"time"
)

// Operation - 16-bit operation code of a request packet
type Operation uint16

const (
	// ROM (ISP mode) operations
	OpEcho        Operation = 0xC1
	OpNop         Operation = 0xC2 // Greeting
	OpMemoryWrite Operation = 0xC3 // Write block into SRAM
	OpMemoryRead  Operation = 0xC4
	OpMemoryBoot  Operation = 0xC5 // Jump to address
	OpDebugInfo   Operation = 0xD1

	// Flash agent (flash mode) operations
	OpFlashNop          Operation = 0xD2 // Flash mode greeting
	OpFlashErase        Operation = 0xD3
	OpFlashWrite        Operation = 0xD4 // Write block into external flash
	OpReboot            Operation = 0xD5
	OpUarthsBaudrateSet Operation = 0xD6 // Switch UARTHS line rate
	OpFlashInit         Operation = 0xD7 // Select flash chip profile
)

var operationNames = map[Operation]string{
	OpEcho:              "echo",
	OpNop:               "greeting",
	OpMemoryWrite:       "memory write",
	OpMemoryRead:        "memory read",
	OpMemoryBoot:        "memory boot",
	OpDebugInfo:         "debug info",
	OpFlashNop:          "flash greeting",
	OpFlashErase:        "flash erase",
	OpFlashWrite:        "flash write",
	OpReboot:            "reboot",
	OpUarthsBaudrateSet: "baud rate set",
	OpFlashInit:         "flash init",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation 0x%02X", uint16(o))
}

// ErrorCode - Status byte of a response
type ErrorCode byte

const (
	RetDefault         ErrorCode = 0x00 // No explicit status, counts as success
	RetOK              ErrorCode = 0xE0
	RetBadDataLen      ErrorCode = 0xE1
	RetBadDataChecksum ErrorCode = 0xE2
	RetInvalidCommand  ErrorCode = 0xE3
)

// Success reports whether the device accepted the request.
func (c ErrorCode) Success() bool {
	return c == RetOK || c == RetDefault
}

func (c ErrorCode) String() string {
	switch c {
	case RetDefault:
		return "default"
	case RetOK:
		return "ok"
	case RetBadDataLen:
		return "bad data length"
	case RetBadDataChecksum:
		return "bad data checksum"
	case RetInvalidCommand:
		return "invalid command"
	default:
		return fmt.Sprintf("unknown status 0x%02X", byte(c))
	}
}

const (
	// MemoryBase - SRAM address the flash agent is loaded to and booted from
	MemoryBase = 0x80000000

	// MemoryChunkSize - Payload bytes per memory write packet
	MemoryChunkSize = 1024

	// InitialBaudRate - Line rate of the ROM bootloader
	InitialBaudRate = 115200

	// MinBaudRate - Lowest line rate accepted for the flash agent
	MinBaudRate = 110

	// DefaultReadTimeout - Read timeout, doubles as the board absence signal
	DefaultReadTimeout = 2000 * time.Millisecond

	// DefaultAttempts - Sends per packet before a rejection becomes fatal
	DefaultAttempts = 5

	// Delay between closing and reopening the port on baud rate change
	baudRateSettle = 50 * time.Millisecond

	headerSize   = 16 // operation, reserved, checksum, address, length
	checksumFrom = 8  // checksum covers address..payload

	// Greeting bodies are the operation byte followed by 12 zero bytes
	greetingSize = 13
)

func greetingBody(op Operation) []byte {
	body := make([]byte, greetingSize)
	body[0] = byte(op)
	return body
}
