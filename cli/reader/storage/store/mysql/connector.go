package mysql

/*
Settings that may be in the storage config section:

host = "localhost"
port = "3306"
user = "root"
password = "mysql"
database = "rtls"
table = "position"
record_field_name = "record"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
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
	connStr := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"], c.config["database"])
	if c.connection, err = sql.Open("mysql", connStr); err != nil {
		return fmt.Errorf("failed to connect to MySQL: %v", err)
	}

	recordFieldName := c.config["record_field_name"]
	if recordFieldName == "" {
		log.Warnf("Key 'record_field_name' not found in the storage config. Falling back to 'record'.")
		recordFieldName = "record"
	}
	c.insertQuery = fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", c.config["table"], recordFieldName)

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL is unavailable: %v", err)
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
