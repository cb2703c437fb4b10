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

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/bno055"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/i2c"
)

/*
BNO055 orientation sampler.

Util reads fused orientation data (gyroscope rad/s, accelerometer
m/s^2, magnetometer uT) from a BNO055 IMU over I2C and prints one JSON
line per sample, or publishes the samples to NATS.

Usage:
  -bus string
    	I2C bus device (default "/dev/i2c-1")
  -addr uint
    	I2C address of the BNO055 (default 0x28)
  -interval int
    	Sample interval in milliseconds (default 100)
  -nats string
    	NATS server URL, samples print to stdout when empty
  -subject string
    	NATS subject for samples (default "robot.orientation")

Example

```
./imu -bus /dev/i2c-1 -nats nats://localhost:4222
```
*/

type orientationSample struct {
	Gyroscope         bno055.Vector `json:"gyroscope"`
	Accelerometer     bno055.Vector `json:"accelerometer"`
	Magnetometer      bno055.Vector `json:"magnetometer"`
	ReceivedTimestamp int64         `json:"received_unix_milli"`
}

func main() {
	bus := ""
	addr := uint(0)
	interval := 0
	natsURL := ""
	subject := ""

	flag.StringVar(&bus, "bus", "/dev/i2c-1", "I2C bus device")
	flag.UintVar(&addr, "addr", uint(bno055.DefaultAddress()), "I2C address of the BNO055")
	flag.IntVar(&interval, "interval", 100, "Sample interval in milliseconds")
	flag.StringVar(&natsURL, "nats", "", "NATS server URL, samples print to stdout when empty")
	flag.StringVar(&subject, "subject", "robot.orientation", "NATS subject for samples")
	flag.Parse()

	if interval <= 0 {
		interval = 100
	}

	b, err := i2c.Open(bus)
	if err != nil {
		log.Fatalf("Failed to open I2C bus: %v", err)
		return
	}
	defer b.Close()

	device, err := bno055.New(b.Device(uint16(addr)))
	if err != nil {
		log.Fatalf("Failed to initialize BNO055: %v", err)
		return
	}
	log.Infof("BNO055 ready on %s at 0x%02X", bus, addr)

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
		log.Infof("Publishing orientation samples to %s", subject)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			log.Info("Shutting down")
			return
		case <-ticker.C:
		}

		sample, err := readSample(device)
		if err != nil {
			log.WithField("err", err).Warn("Failed to read orientation")
			continue
		}

		data, err := json.Marshal(sample)
		if err != nil {
			log.WithField("err", err).Error("Failed to encode sample")
			continue
		}
		if err := publish(data); err != nil {
			log.WithField("err", err).Warn("Failed to publish sample")
		}
	}
}

func readSample(device *bno055.Device) (orientationSample, error) {
	gyro, err := device.Gyroscope()
	if err != nil {
		return orientationSample{}, err
	}
	accel, err := device.Accelerometer()
	if err != nil {
		return orientationSample{}, err
	}
	mag, err := device.Magnetometer()
	if err != nil {
		return orientationSample{}, err
	}

	return orientationSample{
		Gyroscope:         gyro,
		Accelerometer:     accel,
		Magnetometer:      mag,
		ReceivedTimestamp: time.Now().UnixMilli(),
	}, nil
}
