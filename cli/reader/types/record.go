package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/vmihailenco/msgpack.v2"
)

// Encoding selects the wire format ToBytes produces.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// PositionRecord is one tag position reading handed to the storages.
// Coordinates are in meters within the anchor coordinate frame.
type PositionRecord struct {
	NodeID            string  `json:"node_id,omitempty" msgpack:"node_id"`
	X                 float64 `json:"x" msgpack:"x"`
	Y                 float64 `json:"y" msgpack:"y"`
	Z                 float64 `json:"z" msgpack:"z"`
	Quality           uint8   `json:"quality" msgpack:"quality"`
	ReceivedTimestamp int64   `json:"received_unix_milli" msgpack:"received_unix_milli"`

	Encoding Encoding `json:"-" msgpack:"-"`
}

func (pr *PositionRecord) ToBytes() ([]byte, error) {
	if pr.Encoding == EncodingMsgpack {
		return msgpack.Marshal(pr)
	}
	return json.Marshal(pr)
}

// ReceivedAt returns the reception time of the record.
func (pr *PositionRecord) ReceivedAt() time.Time {
	return time.UnixMilli(pr.ReceivedTimestamp)
}

// QualityFactor reports the location engine confidence, 0 to 100.
func (pr *PositionRecord) QualityFactor() uint8 {
	return pr.Quality
}

// CSVHeader is the column order CSVRow follows.
func CSVHeader() []string {
	return []string{"timestamp", "datetime", "x", "y", "z", "quality"}
}

// CSVRow renders the record as one csv row matching CSVHeader.
func (pr *PositionRecord) CSVRow() []string {
	return []string{
		strconv.FormatInt(pr.ReceivedTimestamp, 10),
		pr.ReceivedAt().Format(time.RFC3339Nano),
		strconv.FormatFloat(pr.X, 'f', -1, 64),
		strconv.FormatFloat(pr.Y, 'f', -1, 64),
		strconv.FormatFloat(pr.Z, 'f', -1, 64),
		strconv.Itoa(int(pr.Quality)),
	}
}

func (pr *PositionRecord) String() string {
	return fmt.Sprintf("Position: X=%.3fm, Y=%.3fm, Z=%.3fm, Quality=%d, Time=%s",
		pr.X, pr.Y, pr.Z, pr.Quality, pr.ReceivedAt().Format(time.RFC3339))
}
