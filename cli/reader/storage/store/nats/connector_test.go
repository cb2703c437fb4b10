package nats

import (
	"net"
	"strconv"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	natsio "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	payload string
}

func (tr testRecord) ToBytes() ([]byte, error) {
	return []byte(tr.payload), nil
}

func TestConnectorPublish(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	server := natsserver.RunServer(&opts)
	defer server.Shutdown()

	addr := server.Addr().(*net.TCPAddr)

	subscriber, err := natsio.Connect(server.ClientURL())
	require.NoError(t, err)
	defer subscriber.Close()

	received := make(chan *natsio.Msg, 1)
	_, err = subscriber.ChanSubscribe("tag.positions", received)
	require.NoError(t, err)
	require.NoError(t, subscriber.Flush())

	connector := &Connector{}
	require.NoError(t, connector.Init(map[string]string{
		"host": "127.0.0.1",
		"port": strconv.Itoa(addr.Port),
	}))
	defer connector.Close()

	require.NoError(t, connector.Save(testRecord{payload: `{"x":1.234,"quality":85}`}))

	select {
	case msg := <-received:
		assert.Equal(t, `{"x":1.234,"quality":85}`, string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("no message received from NATS")
	}
}

func TestConnectorCustomSubject(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	server := natsserver.RunServer(&opts)
	defer server.Shutdown()

	addr := server.Addr().(*net.TCPAddr)

	subscriber, err := natsio.Connect(server.ClientURL())
	require.NoError(t, err)
	defer subscriber.Close()

	received := make(chan *natsio.Msg, 1)
	_, err = subscriber.ChanSubscribe("rtls.lab", received)
	require.NoError(t, err)
	require.NoError(t, subscriber.Flush())

	connector := &Connector{}
	require.NoError(t, connector.Init(map[string]string{
		"host":    "127.0.0.1",
		"port":    strconv.Itoa(addr.Port),
		"subject": "rtls.lab",
	}))
	defer connector.Close()

	require.NoError(t, connector.Save(testRecord{payload: "x"}))

	select {
	case msg := <-received:
		assert.Equal(t, "x", string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("no message received from NATS")
	}
}
