// Package bno055 drives the Bosch BNO055 absolute orientation sensor
// over I2C.
//
// The chip is configured for NDOF sensor fusion with gyroscope output
// in radians per second. Readings come back as 3 axis vectors in SI
// units.
package bno055

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/i2c"
)

var sleep = time.Sleep

const (
	addrDefault = 0x28

	regChipID = 0x00
	chipID    = 0xA0

	regPageID     = 0x07
	regAccData    = 0x08
	regMagData    = 0x0E
	regGyrData    = 0x14
	regTemp       = 0x34
	regCalibStat  = 0x35
	regUnitSel    = 0x3B
	regOprMode    = 0x3D
	regPwrMode    = 0x3E
	regSysTrigger = 0x3F

	modeConfig = 0x00
	modeNDOF   = 0x0C

	pwrNormal = 0x00

	// UNIT_SEL bit 1 switches the gyroscope to radians per second.
	unitGyroRadians = 0x02

	// Output scaling in LSB per unit.
	scaleAccel = 100.0 // m/s^2
	scaleMag   = 16.0  // uT
	scaleGyro  = 900.0 // rad/s
)

// Vector is one 3 axis reading.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Calibration holds the 0-3 calibration level of each subsystem, 3
// meaning fully calibrated.
type Calibration struct {
	System        uint8 `json:"system"`
	Gyroscope     uint8 `json:"gyroscope"`
	Accelerometer uint8 `json:"accelerometer"`
	Magnetometer  uint8 `json:"magnetometer"`
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	dev regIO
}

func DefaultAddress() uint16 { return addrDefault }

// New checks the chip identity and configures NDOF fusion.
func New(dev *i2c.Device) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("i2c device is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	d := &Device{dev: dev}

	id, err := d.dev.ReadRegU8(regChipID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chip id: %v", err)
	}
	if id != chipID {
		return nil, fmt.Errorf("unexpected chip id 0x%02X, want 0x%02X", id, chipID)
	}

	if err := d.setMode(modeConfig); err != nil {
		return nil, err
	}

	if err := d.dev.WriteReg(regPageID, 0x00); err != nil {
		return nil, fmt.Errorf("failed to select register page: %v", err)
	}
	if err := d.dev.WriteReg(regPwrMode, pwrNormal); err != nil {
		return nil, fmt.Errorf("failed to set power mode: %v", err)
	}
	if err := d.dev.WriteReg(regUnitSel, unitGyroRadians); err != nil {
		return nil, fmt.Errorf("failed to set output units: %v", err)
	}
	// Internal oscillator, no self test.
	if err := d.dev.WriteReg(regSysTrigger, 0x00); err != nil {
		return nil, fmt.Errorf("failed to clear system trigger: %v", err)
	}

	if err := d.setMode(modeNDOF); err != nil {
		return nil, err
	}

	return d, nil
}

// setMode switches the operation mode and waits out the datasheet
// switching time.
func (d *Device) setMode(mode byte) error {
	if err := d.dev.WriteReg(regOprMode, mode); err != nil {
		return fmt.Errorf("failed to set operation mode 0x%02X: %v", mode, err)
	}
	if mode == modeConfig {
		sleep(20 * time.Millisecond)
	} else {
		sleep(10 * time.Millisecond)
	}
	return nil
}

func (d *Device) readVector(reg byte, scale float64) (Vector, error) {
	buf := make([]byte, 6)
	if err := d.dev.ReadReg(reg, buf); err != nil {
		return Vector{}, fmt.Errorf("failed to read vector at 0x%02X: %v", reg, err)
	}
	return Vector{
		X: float64(int16(binary.LittleEndian.Uint16(buf[0:2]))) / scale,
		Y: float64(int16(binary.LittleEndian.Uint16(buf[2:4]))) / scale,
		Z: float64(int16(binary.LittleEndian.Uint16(buf[4:6]))) / scale,
	}, nil
}

// Gyroscope returns angular velocity in radians per second.
func (d *Device) Gyroscope() (Vector, error) {
	return d.readVector(regGyrData, scaleGyro)
}

// Accelerometer returns acceleration in meters per second squared.
func (d *Device) Accelerometer() (Vector, error) {
	return d.readVector(regAccData, scaleAccel)
}

// Magnetometer returns the magnetic field in microtesla.
func (d *Device) Magnetometer() (Vector, error) {
	return d.readVector(regMagData, scaleMag)
}

// Temperature returns the chip temperature in degrees Celsius.
func (d *Device) Temperature() (int, error) {
	raw, err := d.dev.ReadRegU8(regTemp)
	if err != nil {
		return 0, fmt.Errorf("failed to read temperature: %v", err)
	}
	return int(int8(raw)), nil
}

// CalibrationStatus reports how far the fusion calibration has
// progressed.
func (d *Device) CalibrationStatus() (Calibration, error) {
	raw, err := d.dev.ReadRegU8(regCalibStat)
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to read calibration status: %v", err)
	}
	return Calibration{
		System:        raw >> 6 & 0x03,
		Gyroscope:     raw >> 4 & 0x03,
		Accelerometer: raw >> 2 & 0x03,
		Magnetometer:  raw & 0x03,
	}, nil
}
