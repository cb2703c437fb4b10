package console

/*
Settings that may be in the storage config section:

format = "text"
*/

import (
	"fmt"
	"io"
	"os"
)

type Connector struct {
	out    io.Writer
	format string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.format = cfg["format"]
	if c.format == "" {
		c.format = "text"
	}
	if c.format != "text" && c.format != "raw" {
		return fmt.Errorf("unknown console format: %s", c.format)
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid record reference")
	}

	if c.format == "text" {
		if s, ok := msg.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(c.out, s.String())
			return err
		}
	}

	payload, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %v", err)
	}
	_, err = fmt.Fprintln(c.out, string(payload))
	return err
}

func (c *Connector) Close() error {
	return nil
}
