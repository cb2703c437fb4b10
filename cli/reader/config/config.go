package config

/*
Reader configuration file description.
*/

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/ports"
)

type Settings struct {
	Port                 string                       `yaml:"port"`
	BaudRate             int                          `yaml:"baud_rate"`
	Mode                 string                       `yaml:"mode"`
	PollIntervalMS       int                          `yaml:"poll_interval_ms"`
	ResponseWindowMS     int                          `yaml:"response_window_ms"`
	ReadTimeoutMS        int                          `yaml:"read_timeout_ms"`
	Dedupe               *bool                        `yaml:"dedupe"`
	MinQuality           int                          `yaml:"min_quality"`
	MaxConsecutiveErrors int                          `yaml:"max_consecutive_errors"`
	RecordEncoding       string                       `yaml:"record_encoding"`
	FinderVID            string                       `yaml:"finder_vid"`
	FinderPID            string                       `yaml:"finder_pid"`
	LogLevel             string                       `yaml:"log_level"`
	LogFilePath          string                       `yaml:"log_file_path"`
	LogMaxAgeDays        int                          `yaml:"log_max_age_days"`
	Store                map[string]map[string]string `yaml:"storage"`
	StorageBuffer        int                          `yaml:"storage_buffer"`
	StorageWorkers       int                          `yaml:"storage_workers"`
}

func (s *Settings) GetPollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

func (s *Settings) GetResponseWindow() time.Duration {
	return time.Duration(s.ResponseWindowMS) * time.Millisecond
}

func (s *Settings) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// GetDedupe resolves the dedupe flag. When the config is silent the
// api mode deduplicates and the shell mode does not, matching how
// each protocol reports positions.
func (s *Settings) GetDedupe() bool {
	if s.Dedupe != nil {
		return *s.Dedupe
	}
	return s.Mode == "api"
}

func (s *Settings) GetMinQuality() uint8 {
	return uint8(s.MinQuality)
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.BaudRate == 0 {
		c.BaudRate = 115200
	}

	if c.Mode == "" {
		c.Mode = "api"
	}
	if c.Mode != "api" && c.Mode != "shell" {
		log.Errorf("Invalid mode %q. Must be \"api\" or \"shell\". Defaulting to \"api\".", c.Mode)
		c.Mode = "api"
	}

	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 100
	}
	if c.ResponseWindowMS <= 0 {
		c.ResponseWindowMS = 50
	}

	if c.MinQuality < 0 || c.MinQuality > 100 {
		log.Errorf("Invalid min_quality (%d). Values must be between 0 and 100. Defaulting to 0.", c.MinQuality)
		c.MinQuality = 0
	}

	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = 25
	}

	if c.RecordEncoding == "" {
		c.RecordEncoding = "json"
	}
	if c.RecordEncoding != "json" && c.RecordEncoding != "msgpack" {
		log.Errorf("Invalid record_encoding %q. Must be \"json\" or \"msgpack\". Defaulting to \"json\".", c.RecordEncoding)
		c.RecordEncoding = "json"
	}

	if c.FinderVID == "" {
		c.FinderVID = ports.DefaultVID
	}
	if c.FinderPID == "" {
		c.FinderPID = ports.DefaultPID
	}

	if c.StorageBuffer <= 0 {
		c.StorageBuffer = 64
	}
	if c.StorageWorkers <= 0 {
		c.StorageWorkers = 1
	}

	return c, err
}
