package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRecord struct{}

func (testRecord) ToBytes() ([]byte, error) {
	return []byte(`{"x":1.234}`), nil
}

func (testRecord) String() string {
	return "Position: X=1.234m, Y=0.000m, Z=0.000m, Quality=85"
}

func TestConnectorTextFormat(t *testing.T) {
	var buf bytes.Buffer
	connector := &Connector{out: &buf}

	assert.NoError(t, connector.Init(map[string]string{}))
	assert.NoError(t, connector.Save(testRecord{}))
	assert.Equal(t, "Position: X=1.234m, Y=0.000m, Z=0.000m, Quality=85\n", buf.String())
	assert.NoError(t, connector.Close())
}

func TestConnectorRawFormat(t *testing.T) {
	var buf bytes.Buffer
	connector := &Connector{out: &buf}

	assert.NoError(t, connector.Init(map[string]string{"format": "raw"}))
	assert.NoError(t, connector.Save(testRecord{}))
	assert.Equal(t, `{"x":1.234}`+"\n", buf.String())
}

func TestConnectorUnknownFormat(t *testing.T) {
	connector := &Connector{}
	assert.Error(t, connector.Init(map[string]string{"format": "morse"}))
}

func TestConnectorNilRecord(t *testing.T) {
	var buf bytes.Buffer
	connector := &Connector{out: &buf}

	assert.NoError(t, connector.Init(map[string]string{}))
	assert.Error(t, connector.Save(nil))
}
