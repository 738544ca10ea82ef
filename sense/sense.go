// Package sense samples the inverter output with an INA260 and trips the
// outputs on over-current.
package sense

import (
	"github.com/pkg/errors"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ina260"

	"eflexpwm/core"
)

var ErrNotFound = errors.New("INA260 not found")

// Reading is one sample in milli-units
type Reading struct {
	Clock         uint32
	BusMilliVolts int32
	LoadMilliAmps int32
}

// Monitor reads the INA260 from a main-loop task. The first sample whose
// current magnitude exceeds the limit calls trip once; Reset rearms it.
type Monitor struct {
	dev      ina260.Device
	limit    int32
	trip     func(Reading)
	tripped  bool
	last     Reading
	interval uint32
	task     core.Task
}

// New checks that the sensor answers on bus and configures continuous
// conversion of both channels
func New(bus drivers.I2C, limitMilliAmps int32, trip func(Reading)) (*Monitor, error) {
	if limitMilliAmps <= 0 {
		return nil, errors.Errorf("current limit %d mA", limitMilliAmps)
	}
	dev := ina260.New(bus)
	if !dev.Connected() {
		return nil, errors.Wrapf(ErrNotFound, "address 0x%02X", dev.Address)
	}
	dev.Configure(ina260.Config{
		AverageMode:     ina260.AVGMODE_4,
		VoltConvTime:    ina260.CONVTIME_1100USEC,
		CurrentConvTime: ina260.CONVTIME_1100USEC,
		Mode:            ina260.MODE_CONTINUOUS | ina260.MODE_VOLTAGE | ina260.MODE_CURRENT,
	})
	return &Monitor{dev: dev, limit: limitMilliAmps, trip: trip}, nil
}

// Sample reads both channels and checks the limit
func (m *Monitor) Sample() Reading {
	r := Reading{
		Clock:         core.Now(),
		BusMilliVolts: m.dev.Voltage() / 1000,
		LoadMilliAmps: m.dev.Current() / 1000,
	}
	m.last = r

	amps := r.LoadMilliAmps
	if amps < 0 {
		amps = -amps
	}
	if amps > m.limit && !m.tripped {
		m.tripped = true
		if m.trip != nil {
			m.trip(r)
		}
	}
	return r
}

func (m *Monitor) Last() Reading { return m.last }

func (m *Monitor) Tripped() bool { return m.tripped }

// Reset rearms the trip
func (m *Monitor) Reset() {
	m.tripped = false
}

// Start samples every interval ticks from now on
func (m *Monitor) Start(now, interval uint32) {
	m.interval = interval
	m.task.WakeTime = now + interval
	m.task.Handler = m.run
	core.ScheduleTask(&m.task)
}

func (m *Monitor) Stop() {
	core.CancelTask(&m.task)
}

func (m *Monitor) run(t *core.Task) uint8 {
	m.Sample()
	t.WakeTime += m.interval
	return core.SF_RESCHEDULE
}
