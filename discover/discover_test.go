package discover

import (
	"reflect"
	"testing"

	"github.com/albenik/go-serial/v2/enumerator"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		port     *enumerator.PortDetails
		expected string
		ok       bool
	}{
		{"ch340", &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"}, "CH340", true},
		{"ft2232", &enumerator.PortDetails{Name: "COM7", IsUSB: true, VID: "0403", PID: "6010"}, "FT2232", true},
		{"other usb", &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"}, "", false},
		{"not usb", &enumerator.PortDetails{Name: "/dev/ttyS0", VID: "0403", PID: "6010"}, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Match(tt.port)
			if ok != tt.ok || b.Name != tt.expected {
				t.Errorf("Match() = %v, %v, want %q, %v", b, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1A86", PID: "7523", SerialNumber: "A1"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6010"},
	}

	expected := []Port{
		{Name: "/dev/ttyUSB0", Bridge: "CH340", SerialNumber: "A1"},
		{Name: "/dev/ttyUSB1", Bridge: "FT2232"},
	}

	if found := filter(ports); !reflect.DeepEqual(found, expected) {
		t.Errorf("filter() = %v, want %v", found, expected)
	}
}

func TestPortString(t *testing.T) {
	tests := []struct {
		port     Port
		expected string
	}{
		{Port{Name: "COM3"}, "COM3"},
		{Port{Name: "COM3", Bridge: "CH340"}, "COM3 (CH340)"},
		{Port{Name: "COM3", Bridge: "CH340", SerialNumber: "X9"}, "COM3 (CH340, X9)"},
	}

	for _, tt := range tests {
		if s := tt.port.String(); s != tt.expected {
			t.Errorf("String() = %q, want %q", s, tt.expected)
		}
	}
}
