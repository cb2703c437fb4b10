package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsio "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/proximity/sensor"
)

/*
Inductive proximity sensor watcher.

Util watches a GPIO input wired to a proximity sensor and reports
debounced presence changes as JSON lines on stdout, or publishes them
to NATS.

Usage:
  -chip string
    	GPIO chip name (default "gpiochip0")
  -line int
    	Line offset on the chip (require)
  -debounce int
    	Debounce period in milliseconds (default 10)
  -bias string
    	Line bias: pull-up, pull-down or none (default "pull-up")
  -active-high
    	Treat a high level as "present" (NPN sensors are active low)
  -nats string
    	NATS server URL, events print to stdout when empty
  -subject string
    	NATS subject for events (default "robot.proximity")

Example

```
./proximity -line 17 -nats nats://localhost:4222
```
*/

func main() {
	chip := ""
	line := 0
	debounce := 0
	bias := ""
	activeHigh := false
	natsURL := ""
	subject := ""

	flag.StringVar(&chip, "chip", "gpiochip0", "GPIO chip name")
	flag.IntVar(&line, "line", -1, "Line offset on the chip (require)")
	flag.IntVar(&debounce, "debounce", 10, "Debounce period in milliseconds")
	flag.StringVar(&bias, "bias", "pull-up", "Line bias: pull-up, pull-down or none")
	flag.BoolVar(&activeHigh, "active-high", false, "Treat a high level as \"present\"")
	flag.StringVar(&natsURL, "nats", "", "NATS server URL, events print to stdout when empty")
	flag.StringVar(&subject, "subject", "robot.proximity", "NATS subject for events")
	flag.Parse()

	if line < 0 {
		fmt.Println("A line offset is required, see help (-h)")
		os.Exit(1)
	}

	publish := func(data []byte) error {
		fmt.Println(string(data))
		return nil
	}
	if natsURL != "" {
		conn, err := natsio.Connect(natsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
			return
		}
		defer conn.Close()
		publish = func(data []byte) error {
			return conn.Publish(subject, data)
		}
		log.Infof("Publishing proximity events to %s", subject)
	}

	handler := func(ev sensor.Event) {
		log.Infof("Proximity: present=%v level=%d", ev.Present, ev.Level)
		data, err := json.Marshal(ev)
		if err != nil {
			log.WithField("err", err).Error("Failed to encode event")
			return
		}
		if err := publish(data); err != nil {
			log.WithField("err", err).Warn("Failed to publish event")
		}
	}

	watcher := sensor.NewWatcher(sensor.Options{
		Chip:       chip,
		Line:       line,
		ActiveHigh: activeHigh,
		Bias:       sensor.Bias(bias),
		Debounce:   time.Duration(debounce) * time.Millisecond,
	}, handler)

	if err := watcher.Watch(); err != nil {
		log.Fatalf("Failed to watch the sensor line: %v", err)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")
	if err := watcher.Close(); err != nil {
		log.WithField("err", err).Error("Failed to release the line")
	}
}
