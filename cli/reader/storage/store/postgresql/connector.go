package postgresql

/*
Settings that may be in the storage config section:

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "rtls"
table = "position"
sslmode = "disable"
record_field_name = "record"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection  *sql.DB
	config      map[string]string
	insertQuery string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.config = cfg
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	recordFieldName := c.config["record_field_name"]
	if recordFieldName == "" {
		log.Warnf("Key 'record_field_name' not found in the storage config. Falling back to 'record'.")
		recordFieldName = "record"
	}
	c.insertQuery = fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1)", c.config["table"], recordFieldName)

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL is unavailable: %v", err)
	}
	return err
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid record reference")
	}

	payload, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %v", err)
	}

	if _, err = c.connection.Exec(c.insertQuery, payload); err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
