package redis

/*
Settings that may be in the storage config section:

host = "localhost"
port = "6379"
password = ""
db = "0"
key = "positions"
*/

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/go-redis/redis/v8"
)

type Connector struct {
	client *goredis.Client
	config map[string]string
	ctx    context.Context
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.config = cfg
	c.ctx = context.Background()

	db := 0
	if c.config["db"] != "" {
		var err error
		if db, err = strconv.Atoi(c.config["db"]); err != nil {
			return fmt.Errorf("failed to parse db number: %v", err)
		}
	}

	c.client = goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", c.config["host"], c.config["port"]),
		Password: c.config["password"],
		DB:       db,
	})

	if err := c.client.Ping(c.ctx).Err(); err != nil {
		return fmt.Errorf("Redis is unavailable: %v", err)
	}
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

	key := c.config["key"]
	if key == "" {
		key = "positions"
	}
	if err = c.client.RPush(c.ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.client.Close()
}
