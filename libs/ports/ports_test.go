package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	available := []Port{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "1366", PID: "0105", SerialNumber: "000760123456"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "1366", PID: "0105", SerialNumber: "000760654321"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
	}

	tests := []struct {
		name string
		vid  string
		pid  string
		want []string
	}{
		{
			name: "dwm1001 identifiers",
			vid:  "1366",
			pid:  "0105",
			want: []string{"/dev/ttyACM0", "/dev/ttyACM1"},
		},
		{
			name: "other adapter identifiers",
			vid:  "0403",
			pid:  "6001",
			want: []string{"/dev/ttyUSB0"},
		},
		{
			name: "empty identifiers match every usb port",
			vid:  "",
			pid:  "",
			want: []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB0"},
		},
		{
			name: "vid only",
			vid:  "1366",
			pid:  "",
			want: []string{"/dev/ttyACM0", "/dev/ttyACM1"},
		},
		{
			name: "no match",
			vid:  "dead",
			pid:  "beef",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, port := range Filter(available, tt.vid, tt.pid) {
				names = append(names, port.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterCaseFold(t *testing.T) {
	// Windows reports identifiers in upper case, Linux in lower case.
	available := []Port{
		{Name: "COM7", IsUSB: true, VID: "2E8A", PID: "000A"},
	}

	matched := Filter(available, "2e8a", "000a")
	assert.Len(t, matched, 1)
	assert.Equal(t, "COM7", matched[0].Name)
}

func TestFind(t *testing.T) {
	originalList := list
	list = func() ([]Port, error) {
		return []Port{
			{Name: "/dev/ttyS0", IsUSB: false},
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "1366", PID: "0105"},
		}, nil
	}
	defer func() { list = originalList }()

	found, err := Find(DefaultVID, DefaultPID)
	assert.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "/dev/ttyACM0", found[0].Name)
}
