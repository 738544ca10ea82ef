// Package monitor follows the telemetry stream of a running inverter: it
// decodes status reports and timing events, logs them, and notices when the
// link goes quiet.
package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eflexpwm/core"
	"eflexpwm/telemetry"
)

// DefaultStaleAfter is how long the link may stay silent before it is
// reported stale. The firmware reports several times a second.
const DefaultStaleAfter = 2 * time.Second

const fifoSize = 4 * telemetry.FrameMax

// minCheckInterval bounds how often Run looks for a stale link
const minCheckInterval = time.Millisecond

type Options struct {
	Clock      clock.Clock
	StaleAfter time.Duration
	// OnStatus is called from Run for every status report
	OnStatus func(telemetry.Status)
}

type Monitor struct {
	log        *zap.SugaredLogger
	clk        clock.Clock
	staleAfter time.Duration
	onStatus   func(telemetry.Status)

	feedMu sync.Mutex
	fifo   *telemetry.FifoBuffer
	rx     *telemetry.Receiver

	mu       sync.Mutex
	last     telemetry.Status
	have     bool
	lastSeen time.Time
	stale    bool
	events   []core.TimingEvent
}

func New(log *zap.SugaredLogger, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	m := &Monitor{
		log:        log,
		clk:        opts.Clock,
		staleAfter: opts.StaleAfter,
		onStatus:   opts.OnStatus,
		fifo:       telemetry.NewFifoBuffer(fifoSize),
		lastSeen:   opts.Clock.Now(),
	}
	m.rx = telemetry.NewReceiver(m.handle)
	return m
}

// Run reads r until it ends, ctx is done or a read fails. End of input is not
// an error.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case chunks <- append([]byte(nil), buf[:n]...):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := m.clk.Ticker(m.checkInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-chunks:
			m.Feed(b)
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "read telemetry")
		case <-ticker.C:
			m.checkStale()
		}
	}
}

// Feed passes raw link bytes to the frame receiver
func (m *Monitor) Feed(data []byte) {
	m.feedMu.Lock()
	defer m.feedMu.Unlock()
	for len(data) > 0 {
		n := m.fifo.Write(data)
		data = data[n:]
		if err := m.rx.Receive(m.fifo); err != nil {
			m.log.Warnw("bad message", "error", err)
		}
		if m.fifo.Free() == 0 {
			// a full buffer without a frame in it is noise
			m.fifo.Reset()
		}
	}
}

func (m *Monitor) handle(seq uint8, payload []byte) error {
	msg, err := telemetry.Decode(payload)
	if err != nil {
		return errors.Wrapf(err, "frame %d", seq)
	}
	switch v := msg.(type) {
	case telemetry.Status:
		m.status(v)
	case core.TimingEvent:
		m.event(v)
	}
	return nil
}

func (m *Monitor) status(st telemetry.Status) {
	m.mu.Lock()
	prev, had := m.last, m.have
	m.last, m.have = st, true
	m.lastSeen = m.clk.Now()
	restored := m.stale
	m.stale = false
	m.mu.Unlock()

	if restored {
		m.log.Infow("telemetry link restored")
	}
	if st.Tripped && (!had || !prev.Tripped) {
		m.log.Warnw("over-current trip", "load_ma", st.LoadMilliAmps, "bus_mv", st.BusMilliVolts)
	}
	if st.FaultFlags != 0 && (!had || prev.FaultFlags == 0) {
		m.log.Warnw("fault input asserted", "flags", core.Hex16(uint16(st.FaultFlags)))
	}
	m.log.Debugw("status",
		"uptime", st.Uptime,
		"freq_hz", float64(st.FrequencyMilliHz)/1000,
		"samples", st.Samples,
		"running", st.Running,
		"duty_a", st.DutyA,
		"duty_b", st.DutyB,
		"bus_mv", st.BusMilliVolts,
		"load_ma", st.LoadMilliAmps)

	if m.onStatus != nil {
		m.onStatus(st)
	}
}

func (m *Monitor) event(ev core.TimingEvent) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	log := m.log.Infow
	switch ev.EventType {
	case core.EvtFault, core.EvtBeginFail, core.EvtReloadErr:
		log = m.log.Warnw
	}
	log(core.EventName(ev.EventType),
		"slot", core.SlotName(ev.Slot),
		"clock", ev.Clock,
		"v1", ev.Value1,
		"v2", ev.Value2)
}

// checkInterval is half the stale timeout, at least minCheckInterval
func (m *Monitor) checkInterval() time.Duration {
	if d := m.staleAfter / 2; d > minCheckInterval {
		return d
	}
	return minCheckInterval
}

func (m *Monitor) checkStale() {
	m.mu.Lock()
	silent := m.clk.Since(m.lastSeen)
	report := !m.stale && silent >= m.staleAfter
	if report {
		m.stale = true
	}
	m.mu.Unlock()

	if report {
		m.log.Warnw("telemetry link stale", "silent", silent)
	}
}

// Last returns the most recent status report
func (m *Monitor) Last() (telemetry.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.have
}

func (m *Monitor) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// Events returns the timing events received so far
func (m *Monitor) Events() []core.TimingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.TimingEvent(nil), m.events...)
}

func (m *Monitor) Stats() telemetry.Stats {
	m.feedMu.Lock()
	defer m.feedMu.Unlock()
	return m.rx.Stats()
}
