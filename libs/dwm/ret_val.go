package dwm

import (
	"fmt"
)

// RetVal is the value of a ret_val TLV frame reporting the status of
// the last API request. A zero code means success.
type RetVal struct {
	Code uint8 `json:"err_code"`
}

var retValText = map[uint8]string{
	1: "unknown command or broken tlv frame",
	2: "internal error",
	3: "invalid parameter",
	4: "busy",
	5: "operation not permitted",
}

func (r *RetVal) Decode(content []byte) error {
	if len(content) < 1 {
		return fmt.Errorf("invalid content length of ret_val: %d", len(content))
	}
	r.Code = content[0]
	return nil
}

func (r *RetVal) Encode() ([]byte, error) {
	return []byte{r.Code}, nil
}

func (r *RetVal) Length() uint16 {
	return 1
}

// Err converts a non zero status code to an error.
func (r *RetVal) Err() error {
	if r.Code == 0 {
		return nil
	}
	if text, ok := retValText[r.Code]; ok {
		return fmt.Errorf("device error %d: %s", r.Code, text)
	}
	return fmt.Errorf("device error %d", r.Code)
}
