// Package ports finds the serial com ports of connected DWM1001-DEV
// boards.
//
// The board exposes its UART through the on board SEGGER J-Link OB
// interface, which enumerates as a USB CDC port with VID 1366 and
// PID 0105. Filtering by those identifiers picks out the right port
// even when other USB serial adapters are attached.
package ports

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USB identifiers of the J-Link OB interface on the DWM1001-DEV.
const (
	DefaultVID = "1366"
	DefaultPID = "0105"
)

// Port describes a detected serial port.
type Port struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// list is a variable so tests can substitute the system enumerator.
var list = func() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %v", err)
	}
	ports := make([]Port, 0, len(details))
	for _, detail := range details {
		ports = append(ports, Port{
			Name:         detail.Name,
			IsUSB:        detail.IsUSB,
			VID:          detail.VID,
			PID:          detail.PID,
			SerialNumber: detail.SerialNumber,
			Product:      detail.Product,
		})
	}
	return ports, nil
}

// List returns every serial port present on the system.
func List() ([]Port, error) {
	return list()
}

// Filter returns the USB serial ports matching the given identifiers.
// Matching is case insensitive, an empty vid or pid matches anything.
func Filter(ports []Port, vid, pid string) []Port {
	var matched []Port
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if vid != "" && !strings.EqualFold(port.VID, vid) {
			continue
		}
		if pid != "" && !strings.EqualFold(port.PID, pid) {
			continue
		}
		matched = append(matched, port)
	}
	return matched
}

// Find enumerates the system ports and returns those matching the
// given USB identifiers.
func Find(vid, pid string) ([]Port, error) {
	ports, err := List()
	if err != nil {
		return nil, err
	}
	return Filter(ports, vid, pid), nil
}
