package sense

import (
	"testing"

	"github.com/pkg/errors"
	"tinygo.org/x/drivers/ina260"
	"tinygo.org/x/drivers/tester"

	"eflexpwm/core"
)

func fakeSensor(t *testing.T) (*tester.I2CBus, *tester.I2CDevice16) {
	bus := tester.NewI2CBus(t)
	dev := tester.NewI2CDevice16(t, ina260.Address)
	dev.Registers = map[uint8]uint16{
		ina260.REG_CONFIG:     0x6127,
		ina260.REG_CURRENT:    0x0000,
		ina260.REG_BUSVOLTAGE: 0x0000,
		ina260.REG_POWER:      0x0000,
		ina260.REG_MASKENABLE: 0x0000,
		ina260.REG_ALERTLIMIT: 0x0000,
		ina260.REG_MANF_ID:    ina260.MANF_ID,
		ina260.REG_DIE_ID:     ina260.DEVICE_ID,
	}
	bus.AddDevice(dev)
	return bus, dev
}

func TestNewConfigures(t *testing.T) {
	bus, dev := fakeSensor(t)
	if _, err := New(bus, 5000, nil); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// AVGMODE_4, 1.1 ms conversions, continuous V+I
	if got := dev.Registers[ina260.REG_CONFIG]; got != 0x0327 {
		t.Errorf("Expected config 0x0327, got 0x%04X", got)
	}
}

func TestNotFound(t *testing.T) {
	bus, dev := fakeSensor(t)
	dev.Registers[ina260.REG_MANF_ID] = 0
	if _, err := New(bus, 5000, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := New(bus, 0, nil); err == nil {
		t.Error("Expected an error for a zero limit")
	}
}

func TestSampleAndTrip(t *testing.T) {
	bus, dev := fakeSensor(t)
	var trips []Reading
	m, err := New(bus, 10000, func(r Reading) { trips = append(trips, r) })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 0x2570 = 11.98 V, 0x0FA0 = 5 A
	dev.Registers[ina260.REG_BUSVOLTAGE] = 0x2570
	dev.Registers[ina260.REG_CURRENT] = 0x0FA0
	r := m.Sample()
	if r.BusMilliVolts != 11980 || r.LoadMilliAmps != 5000 {
		t.Errorf("Expected 11980 mV 5000 mA, got %+v", r)
	}
	if m.Tripped() || len(trips) != 0 {
		t.Fatal("tripped below the limit")
	}

	// -12.5 A trips on magnitude
	dev.Registers[ina260.REG_CURRENT] = 0xD8F0
	m.Sample()
	m.Sample()
	if !m.Tripped() || len(trips) != 1 {
		t.Fatalf("Expected one trip, got %d", len(trips))
	}
	if trips[0].LoadMilliAmps != -12500 {
		t.Errorf("Expected -12500 mA in the trip reading, got %d", trips[0].LoadMilliAmps)
	}

	m.Reset()
	m.Sample()
	if len(trips) != 2 {
		t.Errorf("Expected a second trip after Reset, got %d", len(trips))
	}
}

func TestSampleTask(t *testing.T) {
	bus, dev := fakeSensor(t)
	m, err := New(bus, 10000, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	dev.Registers[ina260.REG_BUSVOLTAGE] = 0x2570

	core.SetNow(1000)
	m.Start(core.Now(), 500)
	defer m.Stop()

	core.SetNow(1400)
	core.RunTasks()
	if m.Last().Clock != 0 {
		t.Fatal("sampled before the interval")
	}
	core.SetNow(1500)
	core.RunTasks()
	if m.Last().Clock != 1500 || m.Last().BusMilliVolts != 11980 {
		t.Errorf("unexpected sample %+v", m.Last())
	}
}
