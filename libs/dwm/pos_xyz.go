package dwm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PosXYZ is the value of a pos_xyz TLV frame: signed coordinates in
// millimeters plus the quality factor of the location engine solution.
type PosXYZ struct {
	X             int32 `json:"x"`
	Y             int32 `json:"y"`
	Z             int32 `json:"z"`
	QualityFactor uint8 `json:"qf"`
}

func (p *PosXYZ) Decode(content []byte) error {
	if len(content) < 13 {
		return fmt.Errorf("invalid content length of pos_xyz: %d", len(content))
	}
	p.X = int32(binary.LittleEndian.Uint32(content[0:4]))
	p.Y = int32(binary.LittleEndian.Uint32(content[4:8]))
	p.Z = int32(binary.LittleEndian.Uint32(content[8:12]))
	p.QualityFactor = content[12]
	return nil
}

func (p *PosXYZ) Encode() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for _, coordinate := range []int32{p.X, p.Y, p.Z} {
		if err := binary.Write(buf, binary.LittleEndian, coordinate); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(p.QualityFactor)
	return buf.Bytes(), nil
}

func (p *PosXYZ) Length() uint16 {
	return 13
}

// IsZero reports whether the frame carries the all zero reading the
// module emits before the location engine has a solution.
func (p *PosXYZ) IsZero() bool {
	return p.QualityFactor == 0 && p.X == 0 && p.Y == 0 && p.Z == 0
}

// Position converts the millimeter reading to meters.
func (p *PosXYZ) Position() Position {
	return Position{
		X:       float64(p.X) / 1000.0,
		Y:       float64(p.Y) / 1000.0,
		Z:       float64(p.Z) / 1000.0,
		Quality: p.QualityFactor,
	}
}
