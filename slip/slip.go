// Package slip implements the delimiter/escape byte stuffing used to mark
// frame boundaries on the K210 serial link. It has no notion of packets.
package slip

import (
	"fmt"
	"io"
)

const (
	End    = 0xC0 // Frame delimiter
	Esc    = 0xDB // Escape byte
	EscEnd = 0xDC // Esc EscEnd stands for a literal End
	EscEsc = 0xDD // Esc EscEsc stands for a literal Esc
)

// FramingError - Escape byte followed by something other than EscEnd/EscEsc
type FramingError struct {
	Byte byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("invalid SLIP escape: 0x%02X", e.Byte)
}

// AnomalyFunc receives every byte discarded while waiting for the opening
// delimiter of a frame.
type AnomalyFunc func(b byte)

// Encode wraps payload into a single frame, End + stuffed payload + End.
func Encode(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, End)

	for _, b := range payload {
		switch b {
		case End:
			frame = append(frame, Esc, EscEnd)
		case Esc:
			frame = append(frame, Esc, EscEsc)
		default:
			frame = append(frame, b)
		}
	}

	return append(frame, End)
}

// Decode reads one frame from r and returns its unstuffed payload.
//
// Bytes before the first delimiter are skipped and passed to anomaly (which
// may be nil). Read errors from r are returned unchanged.
func Decode(r io.ByteReader, anomaly AnomalyFunc) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		if b == End {
			break
		}

		if anomaly != nil {
			anomaly(b)
		}
	}

	payload := []byte{}
	escapeNext := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		if escapeNext {
			escapeNext = false

			switch b {
			case EscEnd:
				payload = append(payload, End)
			case EscEsc:
				payload = append(payload, Esc)
			default:
				return nil, &FramingError{Byte: b}
			}
			continue
		}

		switch b {
		case End:
			return payload, nil
		case Esc:
			escapeNext = true
		default:
			payload = append(payload, b)
		}
	}
}
