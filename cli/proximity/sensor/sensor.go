// Package sensor watches a GPIO input wired to an inductive proximity
// sensor and reports debounced presence changes.
package sensor

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// Event is one presence change.
type Event struct {
	Present           bool  `json:"present"`
	Level             int   `json:"level"`
	ReceivedTimestamp int64 `json:"received_unix_milli"`
}

// Handler receives presence changes.
type Handler func(Event)

// Bias selects the internal line bias.
type Bias string

const (
	BiasPullUp   Bias = "pull-up"
	BiasPullDown Bias = "pull-down"
	BiasNone     Bias = "none"
)

type Options struct {
	// Chip is the gpiochip name, e.g. "gpiochip0".
	Chip string

	// Line is the line offset on the chip.
	Line int

	// ActiveHigh maps a high level to "present". NPN open collector
	// sensors pull the line low on detection, so the default is
	// active low with a pull up.
	ActiveHigh bool

	Bias Bias

	// Debounce is requested from the kernel and also enforced in
	// software for kernels without hardware debounce support.
	Debounce time.Duration

	Consumer string
}

func (o *Options) normalize() {
	if o.Chip == "" {
		o.Chip = "gpiochip0"
	}
	if o.Bias == "" {
		o.Bias = BiasPullUp
	}
	if o.Debounce <= 0 {
		o.Debounce = 10 * time.Millisecond
	}
	if o.Consumer == "" {
		o.Consumer = "proximity"
	}
}

// Watcher owns one requested GPIO line.
type Watcher struct {
	opts    Options
	handler Handler
	line    *gpiocdev.Line

	mu     sync.Mutex
	last   *bool
	lastAt time.Duration
}

// NewWatcher prepares a watcher. Watch must be called to request the
// line and start receiving events.
func NewWatcher(opts Options, handler Handler) *Watcher {
	opts.normalize()
	return &Watcher{opts: opts, handler: handler}
}

// Watch requests the line with edge detection and reports the initial
// level. Events arrive on the gpiocdev goroutine until Close.
func (w *Watcher) Watch() error {
	reqOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(w.opts.Debounce),
		gpiocdev.WithEventHandler(w.onEvent),
		gpiocdev.WithConsumer(w.opts.Consumer),
	}
	switch w.opts.Bias {
	case BiasPullUp:
		reqOpts = append(reqOpts, gpiocdev.WithPullUp)
	case BiasPullDown:
		reqOpts = append(reqOpts, gpiocdev.WithPullDown)
	case BiasNone:
	default:
		return fmt.Errorf("unknown bias %q", w.opts.Bias)
	}

	line, err := gpiocdev.RequestLine(w.opts.Chip, w.opts.Line, reqOpts...)
	if err != nil {
		return fmt.Errorf("failed to request %s line %d: %v", w.opts.Chip, w.opts.Line, err)
	}
	w.line = line
	log.Infof("Watching %s line %d", w.opts.Chip, w.opts.Line)

	level, err := line.Value()
	if err != nil {
		_ = line.Close()
		w.line = nil
		return fmt.Errorf("failed to read initial level: %v", err)
	}
	w.report(level, 0)
	return nil
}

// onEvent translates a line event into a presence change. The kernel
// debounce filters contact bounce, the software window here protects
// against kernels that ignore the debounce request.
func (w *Watcher) onEvent(ev gpiocdev.LineEvent) {
	level := 0
	if ev.Type == gpiocdev.LineEventRisingEdge {
		level = 1
	}

	w.mu.Lock()
	if w.last != nil && ev.Timestamp-w.lastAt < w.opts.Debounce {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.report(level, ev.Timestamp)
}

// report forwards a level if it changes the presence state.
func (w *Watcher) report(level int, at time.Duration) {
	present := (level == 1) == w.opts.ActiveHigh

	w.mu.Lock()
	if w.last != nil && *w.last == present {
		w.mu.Unlock()
		return
	}
	w.last = &present
	w.lastAt = at
	w.mu.Unlock()

	log.Debugf("Proximity level %d, present %v", level, present)
	if w.handler != nil {
		w.handler(Event{
			Present:           present,
			Level:             level,
			ReceivedTimestamp: time.Now().UnixMilli(),
		})
	}
}

// Present returns the latest known presence state.
func (w *Watcher) Present() (bool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return false, false
	}
	return *w.last, true
}

// Close releases the GPIO line.
func (w *Watcher) Close() error {
	if w.line == nil {
		return nil
	}
	err := w.line.Close()
	w.line = nil
	return err
}
