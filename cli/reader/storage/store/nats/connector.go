package nats

/*
Settings that may be in the storage config section:

host = "localhost"
port = "4222"
user = ""
password = ""
subject = "tag.positions"
*/

import (
	"fmt"

	natsio "github.com/nats-io/nats.go"
)

type Connector struct {
	connection *natsio.Conn
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.config = cfg

	var options []natsio.Option
	if c.config["user"] != "" {
		options = append(options, natsio.UserInfo(c.config["user"], c.config["password"]))
	}

	url := fmt.Sprintf("nats://%s:%s", c.config["host"], c.config["port"])
	connection, err := natsio.Connect(url, options...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %v", err)
	}
	c.connection = connection
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid record reference")
	}

	payload, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %v", err)
	}

	subject := c.config["subject"]
	if subject == "" {
		subject = "tag.positions"
	}
	if err = c.connection.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish record: %v", err)
	}
	return c.connection.Flush()
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
