package tag

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/dwm"
)

// fakePort replays scripted chunks. A nil chunk simulates an expired
// read timeout, an exhausted script keeps timing out.
type fakePort struct {
	mu     sync.Mutex
	reads  [][]byte
	writes [][]byte
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) == 0 {
		return 0, nil
	}
	chunk := f.reads[0]
	if chunk == nil {
		f.reads = f.reads[1:]
		return 0, nil
	}
	n := copy(p, chunk)
	if n < len(chunk) {
		f.reads[0] = chunk[n:]
	} else {
		f.reads = f.reads[1:]
	}
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (f *fakePort) ResetInputBuffer() error            { return nil }
func (f *fakePort) ResetOutputBuffer() error           { return nil }

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, w := range f.writes {
		out = append(out, string(w))
	}
	return out
}

func (f *fakePort) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// brokenPort fails every write.
type brokenPort struct {
	fakePort
}

func (b *brokenPort) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("input/output error")
}

func stubSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })
}

func posFrame(x, y, z int32, qf uint8) []byte {
	pos := dwm.PosXYZ{X: x, Y: y, Z: z, QualityFactor: qf}
	value, _ := pos.Encode()
	frame := dwm.Frame{Type: dwm.TypePosXYZ, Value: value}
	encoded, _ := frame.Encode()
	return encoded
}

func retValFrame(code uint8) []byte {
	return []byte{dwm.TypeRetVal, 0x01, code}
}

func TestPollAPI(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &fakePort{reads: [][]byte{
		append(retValFrame(0), posFrame(1234, -567, 2089, 85)...),
	}}

	reader, err := NewReader(port, Options{Mode: ModeAPI}, nil)
	require.NoError(t, err)

	position, err := reader.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 1.234, position.X, 1e-9)
	assert.InDelta(t, -0.567, position.Y, 1e-9)
	assert.InDelta(t, 2.089, position.Z, 1e-9)
	assert.Equal(t, uint8(85), position.Quality)

	// The request must be the dwm_loc_get TLV.
	assert.Equal(t, []string{string(dwm.LocGetRequest)}, port.written())
}

func TestPollAPISkipsStaleZeroReading(t *testing.T) {
	log.SetOutput(io.Discard)

	stale := posFrame(0, 0, 0, 0)
	good := posFrame(520, 1340, 930, 92)
	port := &fakePort{reads: [][]byte{append(stale, good...)}}

	reader, err := NewReader(port, Options{Mode: ModeAPI}, nil)
	require.NoError(t, err)

	position, err := reader.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 0.52, position.X, 1e-9)
	assert.Equal(t, uint8(92), position.Quality)
}

func TestPollAPIDeviceError(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &fakePort{reads: [][]byte{retValFrame(2)}}

	reader, err := NewReader(port, Options{Mode: ModeAPI}, nil)
	require.NoError(t, err)

	_, err = reader.Poll()
	assert.EqualError(t, err, "device error 2: internal error")
}

func TestPollAPINoData(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &fakePort{}

	reader, err := NewReader(port, Options{
		Mode:           ModeAPI,
		ResponseWindow: 10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	_, err = reader.Poll()
	assert.Equal(t, ErrNoPosition, err)
}

func TestPollAPISkipsDistanceFrames(t *testing.T) {
	log.SetOutput(io.Discard)

	distances := []byte{dwm.TypeDistances, 0x02, 0xAA, 0xBB}
	port := &fakePort{reads: [][]byte{append(distances, posFrame(100, 200, 300, 50)...)}}

	reader, err := NewReader(port, Options{Mode: ModeAPI}, nil)
	require.NoError(t, err)

	position, err := reader.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, position.X, 1e-9)
}

func TestDispatch(t *testing.T) {
	log.SetOutput(io.Discard)

	var reports []Report
	port := &fakePort{}
	reader, err := NewReader(port, Options{Mode: ModeAPI, Dedupe: true}, func(r Report) {
		reports = append(reports, r)
	})
	require.NoError(t, err)

	first := dwm.Position{X: 1.0, Y: 2.0, Z: 0.5, Quality: 80}
	duplicate := dwm.Position{X: 1.0, Y: 2.0, Z: 0.5, Quality: 77}
	moved := dwm.Position{X: 1.001, Y: 2.0, Z: 0.5, Quality: 81}

	assert.True(t, reader.dispatch(first))
	assert.False(t, reader.dispatch(duplicate), "identical coordinates must be deduplicated")
	assert.True(t, reader.dispatch(moved))
	assert.Len(t, reports, 2)

	last, _, ok := reader.LastPosition()
	assert.True(t, ok)
	assert.Equal(t, moved, last)
}

func TestDispatchWithoutDedupe(t *testing.T) {
	log.SetOutput(io.Discard)

	var reports []Report
	port := &fakePort{}
	reader, err := NewReader(port, Options{Mode: ModeAPI, Dedupe: false}, func(r Report) {
		reports = append(reports, r)
	})
	require.NoError(t, err)

	same := dwm.Position{X: 1.0, Y: 2.0, Z: 0.5, Quality: 80}
	assert.True(t, reader.dispatch(same))
	assert.True(t, reader.dispatch(same))
	assert.Len(t, reports, 2)
}

func TestShellSession(t *testing.T) {
	log.SetOutput(io.Discard)
	stubSleep(t)

	port := &fakePort{reads: [][]byte{
		// Banner printed after entering the shell.
		[]byte("DWM1001 TWR Real Time Location System\r\ndwm> \r\n"),
		nil,
		// Reply to si.
		[]byte("si\r\n[000123.450 INF] uwb0: node_id 0xDECA301369FA2B45 mode: tn\r\n"),
		nil,
		// Reply to pur.
		[]byte("pur\r\nupd rate: 10\r\n"),
		nil,
		// Reply to lep, preceded by the echoed command.
		[]byte("lep\r\nPOS,0.52,1.34,0.93,92\r\n"),
	}}

	reader, err := NewReader(port, Options{Mode: ModeShell}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0xDECA301369FA2B45", reader.NodeID())
	assert.Equal(t, 10, reader.UpdateRate())

	position, err := reader.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 0.52, position.X, 1e-9)
	assert.InDelta(t, 1.34, position.Y, 1e-9)
	assert.InDelta(t, 0.93, position.Z, 1e-9)
	assert.Equal(t, uint8(92), position.Quality)

	written := port.written()
	require.Len(t, written, 5)
	assert.Equal(t, "\r\n", written[0])
	assert.Equal(t, "shell\r\n", written[1])
	assert.Equal(t, "si\r\n", written[2])
	assert.Equal(t, "pur\r\n", written[3])
	assert.Equal(t, "lep\r\n", written[4])

	reader.Stop()
	assert.True(t, port.isClosed())
	assert.Equal(t, "quit\r\n", port.written()[5])
}

func TestShellPollNoPosition(t *testing.T) {
	log.SetOutput(io.Discard)
	stubSleep(t)

	port := &fakePort{reads: [][]byte{
		nil,
		nil,
		nil,
		[]byte("lep\r\n"),
	}}

	reader, err := NewReader(port, Options{Mode: ModeShell}, nil)
	require.NoError(t, err)

	_, err = reader.Poll()
	assert.Equal(t, ErrNoPosition, err)
}

func TestLoopStopsAfterConsecutiveErrors(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &brokenPort{}
	reader, err := NewReader(port, Options{
		Mode:                 ModeAPI,
		MaxConsecutiveErrors: 3,
	}, nil)
	require.NoError(t, err)

	reader.Start()

	select {
	case <-reader.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling loop did not stop on persistent errors")
	}
}

func TestStopWithoutStart(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &fakePort{}
	reader, err := NewReader(port, Options{Mode: ModeAPI}, nil)
	require.NoError(t, err)

	reader.Stop()
	assert.True(t, port.isClosed())
}

func TestStartAndStop(t *testing.T) {
	log.SetOutput(io.Discard)

	port := &fakePort{reads: [][]byte{posFrame(100, 200, 300, 60)}}
	got := make(chan Report, 1)
	reader, err := NewReader(port, Options{
		Mode:           ModeAPI,
		Dedupe:         true,
		ResponseWindow: 10 * time.Millisecond,
	}, func(r Report) {
		select {
		case got <- r:
		default:
		}
	})
	require.NoError(t, err)

	reader.Start()

	select {
	case report := <-got:
		assert.InDelta(t, 0.1, report.Position.X, 1e-9)
		assert.False(t, report.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no report received from the polling loop")
	}

	reader.Stop()
	assert.True(t, port.isClosed())
}
