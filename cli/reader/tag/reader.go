// Package tag polls a DWM1001-DEV tag over its serial port and hands
// every fresh position solution to a handler.
package tag

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/dwm"
)

// DefaultBaudRate is the UART rate of the DWM1001-DEV.
const DefaultBaudRate = 115200

// ErrNoPosition is returned by Poll when the module has no solution
// within the response window.
var ErrNoPosition = errors.New("no position data available")

var now = time.Now // For mocking time.Now() in tests
var sleep = time.Sleep

// Port is the serial connection to the module. The interface allows
// substituting a scripted port in tests, serial.Port satisfies it.
type Port interface {
	io.Reader
	io.Writer
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	Close() error
}

// Mode selects the UART protocol used to query the module.
type Mode string

const (
	// ModeAPI polls with binary dwm_loc_get requests as fast as the
	// module answers.
	ModeAPI Mode = "api"

	// ModeShell polls the lep shell command at a fixed interval.
	ModeShell Mode = "shell"
)

// Report is one fresh position reading.
type Report struct {
	Position dwm.Position
	NodeID   string
	At       time.Time
}

// Handler receives fresh position readings from the polling loop.
type Handler func(Report)

type Options struct {
	Mode Mode

	// PollInterval paces shell polling. API mode polls as fast as the
	// module answers and ignores it.
	PollInterval time.Duration

	// ResponseWindow limits how long a single request waits for its
	// answer before the attempt is abandoned.
	ResponseWindow time.Duration

	// ReadTimeout is the serial read timeout.
	ReadTimeout time.Duration

	// Dedupe drops readings whose coordinates exactly repeat the
	// previous reading.
	Dedupe bool

	// MaxConsecutiveErrors stops the polling loop when the module
	// keeps failing.
	MaxConsecutiveErrors int
}

func (o *Options) normalize() {
	if o.Mode == "" {
		o.Mode = ModeAPI
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.ResponseWindow <= 0 {
		o.ResponseWindow = 50 * time.Millisecond
	}
	if o.ReadTimeout <= 0 {
		if o.Mode == ModeShell {
			o.ReadTimeout = time.Second
		} else {
			o.ReadTimeout = 50 * time.Millisecond
		}
	}
	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = 25
	}
}

// errTimeout marks an expired read timeout on the serial port.
var errTimeout = errors.New("serial read timeout")

// portReader adapts the timeout convention of the serial library,
// where an expired deadline returns zero bytes and no error, to
// ordinary io semantics.
type portReader struct {
	port Port
}

func (pr portReader) Read(p []byte) (int, error) {
	n, err := pr.port.Read(p)
	if n == 0 && err == nil {
		return 0, errTimeout
	}
	return n, err
}

// Reader polls one tag.
type Reader struct {
	port    Port
	src     io.Reader
	buf     *bufio.Reader
	opts    Options
	handler Handler

	nodeID     string
	updateRate int

	mu      sync.RWMutex
	last    *dwm.Position
	lastAt  time.Time
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Open connects to the module on the given serial port, 8N1.
func Open(portName string, baudRate int, opts Options, handler Handler) (*Reader, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	reader, err := NewReader(port, opts, handler)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	log.Infof("Connected to DWM1001 on %s", portName)
	return reader, nil
}

// NewReader wraps an already opened port.
func NewReader(port Port, opts Options, handler Handler) (*Reader, error) {
	opts.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reader{
		port:    port,
		src:     portReader{port: port},
		opts:    opts,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if err := r.connect(); err != nil {
		cancel()
		return nil, err
	}
	return r, nil
}

func (r *Reader) connect() error {
	if err := r.port.SetReadTimeout(r.opts.ReadTimeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %v", err)
	}
	_ = r.port.ResetInputBuffer()
	_ = r.port.ResetOutputBuffer()

	if r.opts.Mode == ModeShell {
		return r.enterShell()
	}
	return nil
}

// enterShell wakes the UART and switches the module from the binary
// API to the interactive shell, then picks up the node identity.
func (r *Reader) enterShell() error {
	if _, err := r.port.Write(dwm.CmdWakeUp); err != nil {
		return fmt.Errorf("failed to write to serial port: %v", err)
	}
	sleep(100 * time.Millisecond)
	if _, err := r.port.Write(dwm.CmdEnterShell); err != nil {
		return fmt.Errorf("failed to enter shell mode: %v", err)
	}
	sleep(500 * time.Millisecond)

	r.buf = bufio.NewReader(r.src)

	// Discard the banner and the echoed command.
	r.drainLines()
	r.readNodeInfo()
	return nil
}

func (r *Reader) readLine() (string, error) {
	line, err := r.buf.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// drainLines collects output until the module goes quiet.
func (r *Reader) drainLines() []string {
	var lines []string
	for {
		line, err := r.readLine()
		if err != nil {
			return lines
		}
		lines = append(lines, line)
	}
}

func (r *Reader) readNodeInfo() {
	if _, err := r.port.Write(dwm.CmdSystemInfo); err != nil {
		log.WithField("err", err).Warn("Failed to request system info")
		return
	}
	sleep(100 * time.Millisecond)
	if id, ok := dwm.ParseNodeID(r.drainLines()); ok {
		r.nodeID = id
		log.Infof("Node ID: %s", id)
	}

	if _, err := r.port.Write(dwm.CmdUpdateRate); err != nil {
		log.WithField("err", err).Warn("Failed to request update rate")
		return
	}
	sleep(100 * time.Millisecond)
	if rate, ok := dwm.ParseUpdateRate(r.drainLines()); ok {
		r.updateRate = rate
		log.Infof("Update rate: %d Hz", rate)
	}
}

// NodeID returns the identifier reported by the module, empty when
// unknown. Only shell mode reads it.
func (r *Reader) NodeID() string {
	return r.nodeID
}

// UpdateRate returns the position update rate reported by the module,
// zero when unknown.
func (r *Reader) UpdateRate() int {
	return r.updateRate
}

// LastPosition returns the most recent fresh reading.
func (r *Reader) LastPosition() (dwm.Position, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return dwm.Position{}, time.Time{}, false
	}
	return *r.last, r.lastAt, true
}

// Poll requests the current position once. It must not be called
// concurrently with a started polling loop.
func (r *Reader) Poll() (dwm.Position, error) {
	if r.opts.Mode == ModeShell {
		return r.pollShell()
	}
	return r.pollAPI()
}

func (r *Reader) pollAPI() (dwm.Position, error) {
	// Stale frames from an abandoned request would desync the stream.
	_ = r.port.ResetInputBuffer()

	if _, err := r.port.Write(dwm.LocGetRequest); err != nil {
		return dwm.Position{}, fmt.Errorf("failed to send dwm_loc_get: %v", err)
	}

	deadline := now().Add(r.opts.ResponseWindow)
	for now().Before(deadline) {
		frame, err := dwm.ReadFrame(r.src)
		if err != nil {
			continue
		}

		switch frame.Type {
		case dwm.TypePosXYZ:
			var pos dwm.PosXYZ
			if err := pos.Decode(frame.Value); err != nil {
				log.WithField("err", err).Warn("Broken pos_xyz frame")
				continue
			}
			if pos.IsZero() {
				log.Debug("Ignoring zero reading with zero quality factor")
				continue
			}
			return pos.Position(), nil
		case dwm.TypeRetVal:
			var ret dwm.RetVal
			if err := ret.Decode(frame.Value); err != nil {
				continue
			}
			if err := ret.Err(); err != nil {
				return dwm.Position{}, err
			}
		}
		// Anchor distance frames and anything else are skipped.
	}
	return dwm.Position{}, ErrNoPosition
}

func (r *Reader) pollShell() (dwm.Position, error) {
	if _, err := r.port.Write(dwm.CmdPosition); err != nil {
		return dwm.Position{}, fmt.Errorf("failed to send lep: %v", err)
	}

	// The reply may be preceded by the echoed command or a prompt.
	for attempts := 0; attempts < 8; attempts++ {
		line, err := r.readLine()
		if err != nil {
			return dwm.Position{}, ErrNoPosition
		}
		if !strings.Contains(line, "POS") {
			continue
		}
		return dwm.ParsePosLine(line)
	}
	return dwm.Position{}, ErrNoPosition
}

// dispatch records a successful reading and hands fresh ones to the
// handler. It reports whether the reading was fresh.
func (r *Reader) dispatch(position dwm.Position) bool {
	r.mu.Lock()
	if r.opts.Dedupe && r.last != nil && position.Equal(*r.last) {
		r.mu.Unlock()
		return false
	}
	at := now()
	r.last = &position
	r.lastAt = at
	r.mu.Unlock()

	log.Debugf("New position update: %s", position)
	if r.handler != nil {
		r.handler(Report{Position: position, NodeID: r.nodeID, At: at})
	}
	return true
}

// Start launches the polling loop. Calling it twice has no effect.
func (r *Reader) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.loop()
}

// Done is closed when the polling loop exits, whether stopped or
// failed.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

func (r *Reader) loop() {
	defer close(r.done)

	log.Info("Starting position polling")
	lastStats := time.Now()
	polls, fresh, errorStreak := 0, 0, 0

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		position, err := r.Poll()
		polls++
		switch {
		case err == nil:
			errorStreak = 0
			if r.dispatch(position) {
				fresh++
			}
		case errors.Is(err, ErrNoPosition):
			errorStreak = 0
			if r.opts.Mode == ModeAPI {
				// Tiny yield so a silent module does not melt the CPU.
				sleep(100 * time.Microsecond)
			}
		default:
			log.WithField("err", err).Error("Failed to poll position")
			errorStreak++
			if errorStreak >= r.opts.MaxConsecutiveErrors {
				log.Errorf("Stopping polling after %d consecutive errors", errorStreak)
				return
			}
		}

		if elapsed := time.Since(lastStats); elapsed > time.Second {
			msg := fmt.Sprintf("Poll: %.0fHz | Fresh updates: %.1fHz",
				float64(polls)/elapsed.Seconds(), float64(fresh)/elapsed.Seconds())
			if last, _, ok := r.LastPosition(); ok {
				msg += fmt.Sprintf(" | Pos: (%.2f, %.2f)", last.X, last.Y)
			}
			log.Debug(msg)
			lastStats = time.Now()
			polls, fresh = 0, 0
		}

		if r.opts.Mode == ModeShell {
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(r.opts.PollInterval):
			}
		}
	}
}

// Stop terminates the polling loop and closes the port.
func (r *Reader) Stop() {
	r.cancel()
	r.mu.RLock()
	started := r.started
	r.mu.RUnlock()
	if started {
		<-r.done
	}

	if r.opts.Mode == ModeShell {
		// Leave the shell so the next open starts from a known state.
		if _, err := r.port.Write(dwm.CmdQuit); err == nil {
			sleep(100 * time.Millisecond)
		}
	}
	if err := r.port.Close(); err != nil {
		log.WithField("err", err).Error("Failed to close serial port")
	} else {
		log.Info("Disconnected from DWM1001")
	}
}
