package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/config"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/tag"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/types"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/ports"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "path to the configuration file")
	flag.Parse()

	cfg, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		return
	}

	configureLogging(cfg)

	portName, err := resolvePort(cfg)
	if err != nil {
		log.Fatalf("Failed to resolve the tag port: %v", err)
		return
	}

	repository := storage.NewRepository(cfg.GetMinQuality())
	if err := repository.LoadStorages(cfg.Store); err != nil {
		log.Fatalf("Failed to initialize storages: %v", err)
		return
	}
	async := storage.NewAsyncRepository(repository, cfg.StorageBuffer, cfg.StorageWorkers)

	encoding := types.Encoding(cfg.RecordEncoding)
	handler := func(report tag.Report) {
		record := &types.PositionRecord{
			NodeID:            report.NodeID,
			X:                 report.Position.X,
			Y:                 report.Position.Y,
			Z:                 report.Position.Z,
			Quality:           report.Position.Quality,
			ReceivedTimestamp: report.At.UnixMilli(),
			Encoding:          encoding,
		}
		if err := async.Save(record); err != nil {
			log.WithField("err", err).Warn("Failed to queue position record")
		}
	}

	reader, err := tag.Open(portName, cfg.BaudRate, tag.Options{
		Mode:                 tag.Mode(cfg.Mode),
		PollInterval:         cfg.GetPollInterval(),
		ResponseWindow:       cfg.GetResponseWindow(),
		ReadTimeout:          cfg.GetReadTimeout(),
		Dedupe:               cfg.GetDedupe(),
		MaxConsecutiveErrors: cfg.MaxConsecutiveErrors,
	}, handler)
	if err != nil {
		log.Fatalf("Failed to connect to the tag: %v", err)
		return
	}

	reader.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("Shutting down")
	case <-reader.Done():
		log.Error("Position polling stopped, shutting down")
	}

	reader.Stop()
	async.Close()
	if err := repository.Close(); err != nil {
		log.WithField("err", err).Error("Failed to close storages")
	}
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, errors.New("config file path is not set")
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("failed to parse config: %v", err)
	}

	return c, nil
}

// resolvePort picks the serial port to read. A positional argument
// overrides the config, and "auto" or an empty value searches the USB
// bus for a DWM1001-DEV.
func resolvePort(cfg config.Settings) (string, error) {
	portName := cfg.Port
	if flag.NArg() > 0 {
		portName = flag.Arg(0)
	}
	if portName != "" && portName != "auto" {
		return portName, nil
	}

	found, err := ports.Find(cfg.FinderVID, cfg.FinderPID)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no DWM1001 port found (VID %s, PID %s)", cfg.FinderVID, cfg.FinderPID)
	}
	if len(found) > 1 {
		log.Warnf("Found %d DWM1001 ports, using %s", len(found), found[0].Name)
	}
	log.Infof("Found DWM1001 on %s", found[0].Name)
	return found[0].Name, nil
}

func configureLogging(cfg config.Settings) {
	log.SetLevel(cfg.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if cfg.LogFilePath != "" {
		logDir := filepath.Dir(cfg.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Failed to create the log directory: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   cfg.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}
