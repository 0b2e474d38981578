package slip

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		expected []byte
	}{
		{
			name:     "empty payload",
			payload:  []byte{},
			expected: []byte{0xC0, 0xC0},
		},
		{
			name:     "plain bytes",
			payload:  []byte{0x01, 0x02, 0x03},
			expected: []byte{0xC0, 0x01, 0x02, 0x03, 0xC0},
		},
		{
			name:     "escape and delimiter",
			payload:  []byte{0xDB, 0x01, 0xC0},
			expected: []byte{0xC0, 0xDB, 0xDD, 0x01, 0xDB, 0xDC, 0xC0},
		},
		{
			name:     "escape codes are not special on their own",
			payload:  []byte{0xDC, 0xDD},
			expected: []byte{0xC0, 0xDC, 0xDD, 0xC0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Encode(tt.payload)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("Encode() = % X, want % X", result, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		expected []byte
	}{
		{
			name:     "escaped delimiter and escape",
			frame:    []byte{0xC0, 0xDB, 0xDC, 0xDB, 0xDD, 0xC0},
			expected: []byte{0xC0, 0xDB},
		},
		{
			name:     "empty frame",
			frame:    []byte{0xC0, 0xC0},
			expected: []byte{},
		},
		{
			name:     "greeting response",
			frame:    []byte{0xC0, 0xC2, 0xE0, 0xC0},
			expected: []byte{0xC2, 0xE0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(bytes.NewReader(tt.frame), nil)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("Decode() = % X, want % X", result, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0xC0},
		{0xDB},
		{0xDB, 0xDC},
		{0xDB, 0xDD, 0xC0, 0xC0, 0xDB},
		bytes.Repeat([]byte{0xC0, 0x00, 0xDB, 0xFF}, 300),
	}

	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	payloads = append(payloads, all)

	for _, p := range payloads {
		result, err := Decode(bytes.NewReader(Encode(p)), nil)
		if err != nil {
			t.Fatalf("Decode(Encode(% X)) error = %v", p, err)
		}
		if !bytes.Equal(result, p) {
			t.Errorf("Decode(Encode(% X)) = % X", p, result)
		}
	}
}

func TestDecodeSkipsLeadingGarbage(t *testing.T) {
	stream := []byte{'o', 'k', 0x00, 0xC0, 0x01, 0xDB, 0xDC, 0xC0}

	var skipped []byte
	result, err := Decode(bytes.NewReader(stream), func(b byte) {
		skipped = append(skipped, b)
	})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !bytes.Equal(skipped, []byte{'o', 'k', 0x00}) {
		t.Errorf("anomalies = % X, want 6F 6B 00", skipped)
	}
	if !bytes.Equal(result, []byte{0x01, 0xC0}) {
		t.Errorf("Decode() = % X, want 01 C0", result)
	}
}

func TestDecodeConsecutiveFrames(t *testing.T) {
	stream := append(Encode([]byte{0x01}), Encode([]byte{0x02, 0xC0})...)
	r := bytes.NewReader(stream)

	first, err := Decode(r, nil)
	if err != nil || !bytes.Equal(first, []byte{0x01}) {
		t.Fatalf("first frame = % X, %v", first, err)
	}

	second, err := Decode(r, nil)
	if err != nil || !bytes.Equal(second, []byte{0x02, 0xC0}) {
		t.Fatalf("second frame = % X, %v", second, err)
	}
}

func TestDecodeInvalidEscape(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		bad   byte
	}{
		{"unknown code", []byte{0xC0, 0x01, 0xDB, 0x42, 0xC0}, 0x42},
		{"escape before delimiter", []byte{0xC0, 0xDB, 0xC0}, 0xC0},
		{"double escape", []byte{0xC0, 0xDB, 0xDB, 0xDD, 0xC0}, 0xDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.frame), nil)

			var fe *FramingError
			if !errors.As(err, &fe) {
				t.Fatalf("Decode() error = %v, want *FramingError", err)
			}
			if fe.Byte != tt.bad {
				t.Errorf("FramingError.Byte = 0x%02X, want 0x%02X", fe.Byte, tt.bad)
			}
		})
	}
}

func TestDecodeReaderError(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"no delimiter", []byte{0x01, 0x02}},
		{"truncated frame", []byte{0xC0, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.frame), nil)
			if err != io.EOF {
				t.Errorf("Decode() error = %v, want io.EOF", err)
			}
		})
	}
}
