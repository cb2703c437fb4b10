package dwm

import (
	"fmt"
	"strconv"
	"strings"
)

// Shell mode commands. The module expects CRLF terminated input.
var (
	CmdWakeUp     = []byte("\r\n")
	CmdEnterShell = []byte("shell\r\n")
	CmdPosition   = []byte("lep\r\n")
	CmdSystemInfo = []byte("si\r\n")
	CmdUpdateRate = []byte("pur\r\n")
	CmdQuit       = []byte("quit\r\n")
)

// ParsePosLine parses a "POS,x,y,z,quality" line printed by the lep
// shell command. Coordinates are in meters. Anything before the POS
// marker, such as echoed input or a prompt, is ignored.
func ParsePosLine(line string) (Position, error) {
	start := strings.Index(line, "POS")
	if start < 0 {
		return Position{}, fmt.Errorf("no position data in line %q", line)
	}
	parts := strings.Split(line[start:], ",")
	if len(parts) < 5 {
		return Position{}, fmt.Errorf("invalid position line %q", line)
	}

	var position Position
	var err error
	if position.X, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return Position{}, fmt.Errorf("invalid x coordinate: %v", err)
	}
	if position.Y, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
		return Position{}, fmt.Errorf("invalid y coordinate: %v", err)
	}
	if position.Z, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err != nil {
		return Position{}, fmt.Errorf("invalid z coordinate: %v", err)
	}
	quality, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return Position{}, fmt.Errorf("invalid quality factor: %v", err)
	}
	if quality < 0 || quality > 255 {
		return Position{}, fmt.Errorf("quality factor out of range: %d", quality)
	}
	position.Quality = uint8(quality)
	return position, nil
}

// ParseNodeID extracts the node id from si command output. The value
// follows a node_id token somewhere in the dump.
func ParseNodeID(lines []string) (string, bool) {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "node_id") {
			continue
		}
		fields := strings.Fields(line)
		for i, field := range fields {
			if strings.Contains(strings.ToLower(field), "node_id") && i+1 < len(fields) {
				return strings.Trim(fields[i+1], ":="), true
			}
		}
	}
	return "", false
}

// ParseUpdateRate extracts the position update rate from pur command
// output. The reply is a line mentioning upd with the rate in digits.
func ParseUpdateRate(lines []string) (int, bool) {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "upd") {
			continue
		}
		var digits strings.Builder
		for _, r := range line {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			continue
		}
		rate, err := strconv.Atoi(digits.String())
		if err != nil {
			continue
		}
		return rate, true
	}
	return 0, false
}
