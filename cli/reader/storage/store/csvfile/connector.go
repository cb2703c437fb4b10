package csvfile

/*
Settings that may be in the storage config section:

filename = "position_data.csv"
clear = "false"
*/

import (
	"encoding/csv"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/types"
)

type Connector struct {
	file   *os.File
	writer *csv.Writer
	config map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.config = cfg

	filename := c.config["filename"]
	if filename == "" {
		filename = "position_data.csv"
	}

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if c.config["clear"] == "true" {
		flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
	}

	needHeader := c.config["clear"] == "true"
	if info, err := os.Stat(filename); os.IsNotExist(err) {
		needHeader = true
	} else if err == nil && info.Size() == 0 {
		needHeader = true
	}

	var err error
	if c.file, err = os.OpenFile(filename, flags, 0644); err != nil {
		return fmt.Errorf("failed to open csv file: %v", err)
	}
	c.writer = csv.NewWriter(c.file)

	if needHeader {
		if err = c.writer.Write(types.CSVHeader()); err != nil {
			return fmt.Errorf("failed to write csv header: %v", err)
		}
		c.writer.Flush()
		if err = c.writer.Error(); err != nil {
			return err
		}
		log.Infof("Created csv file %s", filename)
	}
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid record reference")
	}

	record, ok := msg.(interface{ CSVRow() []string })
	if !ok {
		return fmt.Errorf("record does not provide csv columns")
	}

	if err := c.writer.Write(record.CSVRow()); err != nil {
		return fmt.Errorf("failed to write csv row: %v", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *Connector) Close() error {
	if c.writer != nil {
		c.writer.Flush()
	}
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
