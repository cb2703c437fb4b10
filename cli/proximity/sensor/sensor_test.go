package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/go-gpiocdev"
)

func newTestWatcher(opts Options) (*Watcher, *[]Event) {
	var events []Event
	w := NewWatcher(opts, func(ev Event) {
		events = append(events, ev)
	})
	return w, &events
}

func risingAt(at time.Duration) gpiocdev.LineEvent {
	return gpiocdev.LineEvent{Type: gpiocdev.LineEventRisingEdge, Timestamp: at}
}

func fallingAt(at time.Duration) gpiocdev.LineEvent {
	return gpiocdev.LineEvent{Type: gpiocdev.LineEventFallingEdge, Timestamp: at}
}

func TestPresenceMapping(t *testing.T) {
	tests := []struct {
		name       string
		activeHigh bool
		event      gpiocdev.LineEvent
		present    bool
	}{
		// NPN sensors pull the line low on detection.
		{"active low detects on falling edge", false, fallingAt(time.Second), true},
		{"active low releases on rising edge", false, risingAt(time.Second), false},
		{"active high detects on rising edge", true, risingAt(time.Second), true},
		{"active high releases on falling edge", true, fallingAt(time.Second), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w, events := newTestWatcher(Options{ActiveHigh: test.activeHigh})

			w.onEvent(test.event)

			if assert.Len(t, *events, 1, "Expected exactly one event") {
				assert.Equal(t, test.present, (*events)[0].Present, "Presence mapping mismatch")
			}

			present, known := w.Present()
			assert.True(t, known, "Presence should be known after an event")
			assert.Equal(t, test.present, present, "Latest state mismatch")
		})
	}
}

func TestDebounceCollapsesBounce(t *testing.T) {
	w, events := newTestWatcher(Options{Debounce: 10 * time.Millisecond})

	// A detection edge followed by contact bounce inside the window,
	// then the settled level.
	w.onEvent(risingAt(100 * time.Millisecond))
	w.onEvent(fallingAt(105 * time.Millisecond))
	w.onEvent(fallingAt(200 * time.Millisecond))

	if assert.Len(t, *events, 2, "Bounce inside the window should be dropped") {
		assert.False(t, (*events)[0].Present, "First settled state mismatch")
		assert.True(t, (*events)[1].Present, "Second settled state mismatch")
	}
}

func TestRepeatedLevelIsSuppressed(t *testing.T) {
	w, events := newTestWatcher(Options{Debounce: 10 * time.Millisecond})

	w.onEvent(risingAt(100 * time.Millisecond))
	w.onEvent(risingAt(500 * time.Millisecond))

	assert.Len(t, *events, 1, "An edge that does not change presence should be suppressed")
}

func TestInitialLevelReport(t *testing.T) {
	w, events := newTestWatcher(Options{})

	w.report(0, 0)

	if assert.Len(t, *events, 1, "Expected the initial level to be reported") {
		assert.True(t, (*events)[0].Present, "Low level should mean present for an active low sensor")
		assert.Equal(t, 0, (*events)[0].Level, "Raw level mismatch")
		assert.Greater(t, (*events)[0].ReceivedTimestamp, int64(0), "Timestamp should be set")
	}
}

func TestOptionsNormalize(t *testing.T) {
	opts := Options{}
	opts.normalize()

	assert.Equal(t, "gpiochip0", opts.Chip, "Default chip mismatch")
	assert.Equal(t, BiasPullUp, opts.Bias, "Default bias mismatch")
	assert.Equal(t, 10*time.Millisecond, opts.Debounce, "Default debounce mismatch")
	assert.Equal(t, "proximity", opts.Consumer, "Default consumer mismatch")
}
