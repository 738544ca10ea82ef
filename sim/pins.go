package sim

import (
	"sync"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

// Teensy41Pins is the FlexPWM function of the Teensy 4.1 pins that carry one
var Teensy41Pins = map[core.PWMPin]core.PinMapping{
	2:  {Timer: 3, Submodule: 2, Channel: core.ChannelA, Mux: 1},
	3:  {Timer: 3, Submodule: 2, Channel: core.ChannelB, Mux: 1},
	4:  {Timer: 1, Submodule: 0, Channel: core.ChannelA, Mux: 1},
	5:  {Timer: 1, Submodule: 1, Channel: core.ChannelA, Mux: 1},
	6:  {Timer: 1, Submodule: 2, Channel: core.ChannelA, Mux: 2},
	7:  {Timer: 0, Submodule: 3, Channel: core.ChannelB, Mux: 6},
	8:  {Timer: 0, Submodule: 3, Channel: core.ChannelA, Mux: 6},
	9:  {Timer: 1, Submodule: 2, Channel: core.ChannelB, Mux: 2},
	22: {Timer: 3, Submodule: 0, Channel: core.ChannelA, Mux: 1},
	23: {Timer: 3, Submodule: 1, Channel: core.ChannelA, Mux: 1},
	28: {Timer: 2, Submodule: 1, Channel: core.ChannelB, Mux: 1},
	29: {Timer: 2, Submodule: 1, Channel: core.ChannelA, Mux: 1},
	33: {Timer: 1, Submodule: 0, Channel: core.ChannelB, Mux: 1},
	36: {Timer: 1, Submodule: 3, Channel: core.ChannelA, Mux: 6},
	37: {Timer: 1, Submodule: 3, Channel: core.ChannelB, Mux: 6},
}

// Pins is a pad mux model over a pin table.
type Pins struct {
	mu     sync.Mutex
	table  map[core.PWMPin]core.PinMapping
	muxed  map[core.PWMPin]uint8
	failed map[core.PWMPin]error
}

// NewPins returns a pad mux for table, or Teensy41Pins if table is nil
func NewPins(table map[core.PWMPin]core.PinMapping) *Pins {
	if table == nil {
		table = Teensy41Pins
	}
	return &Pins{
		table:  table,
		muxed:  make(map[core.PWMPin]uint8),
		failed: make(map[core.PWMPin]error),
	}
}

func (p *Pins) LookupPin(pin core.PWMPin) (core.PinMapping, bool) {
	m, ok := p.table[pin]
	return m, ok
}

func (p *Pins) ConfigurePin(pin core.PWMPin) error {
	m, ok := p.table[pin]
	if !ok {
		return errors.Wrapf(core.ErrInvalidPin, "pin %d", pin)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failed[pin]; err != nil {
		return err
	}
	p.muxed[pin] = m.Mux
	return nil
}

// FailPin makes ConfigurePin of pin return err. A nil err clears it.
func (p *Pins) FailPin(pin core.PWMPin, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failed, pin)
		return
	}
	p.failed[pin] = err
}

// Mux returns the alternative pin was switched to, if any
func (p *Pins) Mux(pin core.PWMPin) (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	alt, ok := p.muxed[pin]
	return alt, ok
}
