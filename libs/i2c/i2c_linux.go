//go:build linux

// Package i2c talks to devices on a Linux I2C bus through /dev/i2c-*.
//
// Transfers go through the I2C_RDWR ioctl so a register read is one
// combined write+read transaction with a repeated start, which the
// sensors on the robot require.
package i2c

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	flagRead  = 0x0001
	ioctlRdwr = 0x0707
)

// message mirrors the kernel struct i2c_msg.
type message struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// transaction mirrors the kernel struct i2c_rdwr_ioctl_data.
type transaction struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C bus. Creating several Device handles on one Bus
// is fine, but the Bus does not serialize concurrent transfers.
type Bus struct {
	file *os.File
	path string
}

// Open opens an I2C bus device such as /dev/i2c-1.
func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %s: %v", path, err)
	}
	return &Bus{file: file, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}

// Device returns a handle for the peripheral at the given 7 bit address.
func (b *Bus) Device(addr uint16) *Device {
	return &Device{bus: b, addr: addr}
}

// Device is one peripheral on the bus.
type Device struct {
	bus  *Bus
	addr uint16
}

func (d *Device) Write(p []byte) error {
	return d.transfer(p, nil)
}

func (d *Device) Read(p []byte) error {
	return d.transfer(nil, p)
}

// WriteRead performs a combined write then read transaction.
func (d *Device) WriteRead(w, r []byte) error {
	return d.transfer(w, r)
}

// ReadReg reads len(dst) bytes starting at the given register.
func (d *Device) ReadReg(reg byte, dst []byte) error {
	return d.WriteRead([]byte{reg}, dst)
}

// ReadRegU8 reads one register byte.
func (d *Device) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteReg writes one register byte.
func (d *Device) WriteReg(reg, value byte) error {
	return d.Write([]byte{reg, value})
}

func (d *Device) transfer(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.file == nil {
		return fmt.Errorf("i2c device is not open")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("invalid i2c address 0x%X", d.addr)
	}

	msgs := make([]message, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, message{addr: d.addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, message{addr: d.addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}

	data := transaction{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.file.Fd(), uintptr(ioctlRdwr), uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("i2c transfer to 0x%X failed: %v", d.addr, errno)
	}
	return nil
}
