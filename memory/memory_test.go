package memory

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcinbor85/gohex"
)

func dumpHex(t *testing.T, segments map[uint32][]byte) string {
	t.Helper()

	mem := gohex.NewMemory()
	for addr, data := range segments {
		if err := mem.AddBinary(addr, data); err != nil {
			t.Fatalf("AddBinary(0x%X) error = %v", addr, err)
		}
	}

	var buf bytes.Buffer
	if err := mem.DumpIntelHex(&buf, 16); err != nil {
		t.Fatalf("DumpIntelHex() error = %v", err)
	}

	return buf.String()
}

func TestImage(t *testing.T) {
	tests := []struct {
		name     string
		segments map[uint32][]byte
		address  uint32
		expected []byte
	}{
		{
			name:     "single segment",
			segments: map[uint32][]byte{0: {1, 2, 3, 4}},
			address:  0,
			expected: []byte{1, 2, 3, 4},
		},
		{
			name:     "gap is filled",
			segments: map[uint32][]byte{0x100: {1, 2}, 0x104: {3}},
			address:  0x100,
			expected: []byte{1, 2, 0xFF, 0xFF, 3},
		},
		{
			name:     "high address",
			segments: map[uint32][]byte{0x00300000: {0xAA, 0xBB}},
			address:  0x00300000,
			expected: []byte{0xAA, 0xBB},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, err := Parse(strings.NewReader(dumpHex(t, tt.segments)))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			address, data, err := mem.Image()
			if err != nil {
				t.Fatalf("Image() error = %v", err)
			}
			if address != tt.address {
				t.Errorf("address = 0x%X, want 0x%X", address, tt.address)
			}
			if !bytes.Equal(data, tt.expected) {
				t.Errorf("data = % X, want % X", data, tt.expected)
			}
		})
	}
}

func TestImageEmpty(t *testing.T) {
	mem, err := Parse(strings.NewReader(":00000001FF\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, _, err := mem.Image(); err == nil {
		t.Errorf("Image() of an empty file succeeded")
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		segments map[uint32][]byte
		sha      bool
	}{
		{map[uint32][]byte{0: {1, 2, 3}}, true},
		{map[uint32][]byte{0x600000: {1, 2, 3}}, false},
	}

	for _, tt := range tests {
		mem, err := Parse(strings.NewReader(dumpHex(t, tt.segments)))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		c, err := mem.Chunk()
		if err != nil {
			t.Fatalf("Chunk() error = %v", err)
		}
		if c.SHA256Prefix != tt.sha || c.Reverse4Bytes {
			t.Errorf("Chunk() at 0x%X = %+v", c.Address, c)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse(strings.NewReader(":zz\n")); err == nil {
		t.Errorf("Parse() accepted garbage")
	}
}

func TestLoadHexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.hex")
	if err := os.WriteFile(path, []byte(dumpHex(t, map[uint32][]byte{0: {9, 8, 7}})), 0o644); err != nil {
		t.Fatal(err)
	}

	mem, err := LoadHexFile(path)
	if err != nil {
		t.Fatalf("LoadHexFile() error = %v", err)
	}

	if _, data, _ := mem.Image(); !bytes.Equal(data, []byte{9, 8, 7}) {
		t.Errorf("image = % X", data)
	}

	if _, err := LoadHexFile(filepath.Join(t.TempDir(), "missing.hex")); err == nil {
		t.Errorf("LoadHexFile() of a missing file succeeded")
	}
}
