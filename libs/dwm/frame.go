package dwm

import (
	"bytes"
	"fmt"
	"io"
)

// Frame is a single TLV frame.
type Frame struct {
	Type  uint8  `json:"type"`
	Value []byte `json:"value"`
}

func (f *Frame) Decode(content []byte) error {
	if len(content) < 2 {
		return fmt.Errorf("invalid tlv frame length: %d", len(content))
	}
	f.Type = content[0]
	valueLen := int(content[1])
	if len(content) < 2+valueLen {
		return fmt.Errorf("tlv value is truncated: want %d bytes, have %d", valueLen, len(content)-2)
	}
	f.Value = content[2 : 2+valueLen]
	return nil
}

func (f *Frame) Encode() ([]byte, error) {
	if len(f.Value) > 0xFF {
		return nil, fmt.Errorf("tlv value is too long: %d", len(f.Value))
	}
	buf := bytes.NewBuffer(nil)
	buf.WriteByte(f.Type)
	buf.WriteByte(uint8(len(f.Value)))
	buf.Write(f.Value)
	return buf.Bytes(), nil
}

func (f *Frame) Length() uint16 {
	return uint16(2 + len(f.Value))
}

// ReadFrame reads one TLV frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	frame := &Frame{Type: header[0]}
	if valueLen := int(header[1]); valueLen > 0 {
		frame.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(r, frame.Value); err != nil {
			return nil, fmt.Errorf("tlv value is truncated: %v", err)
		}
	}
	return frame, nil
}
