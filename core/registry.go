package core

import "github.com/pkg/errors"

// Event identifies a FlexPWM interrupt line: one per submodule (compare and
// reload) and one per module for faults.
type Event uint8

const (
	eventsPerTimer = NumSubmodules + 1

	// NumEvents is the number of distinct interrupt lines
	NumEvents = NumTimers * eventsPerTimer
)

// SubmoduleEvent is the interrupt line of submodule sm of timer tm
func SubmoduleEvent(tm, sm uint8) Event {
	return Event(tm*eventsPerTimer + sm)
}

// FaultEvent is the fault interrupt line of timer tm
func FaultEvent(tm uint8) Event {
	return Event(tm*eventsPerTimer + NumSubmodules)
}

// Timer returns the module index of the line
func (e Event) Timer() uint8 {
	return uint8(e) / eventsPerTimer
}

// Submodule returns the submodule index, or NumSubmodules for a fault line
func (e Event) Submodule() uint8 {
	return uint8(e) % eventsPerTimer
}

func (e Event) IsFault() bool {
	return e.Submodule() == NumSubmodules
}

// Handler runs in interrupt context. It must not block or allocate.
type Handler func(Event)

// Registry owns every Timer and SubModule of the peripheral. Slots are fixed at
// construction; SubModules refer to their Timer by index through the registry.
type Registry struct {
	pwm  FlexPWMDriver
	pins PinDriver
	xbar XBarDriver

	timers   [NumTimers]Timer
	slots    [NumTimers][NumSubmodules]SubModule
	handlers [NumEvents]Handler
}

// NewRegistry builds the timer/submodule arena on top of the platform drivers.
// xbar may be nil when no fault is routed.
func NewRegistry(pwm FlexPWMDriver, pins PinDriver, xbar XBarDriver) *Registry {
	r := &Registry{pwm: pwm, pins: pins, xbar: xbar}
	for tm := uint8(0); tm < NumTimers; tm++ {
		r.timers[tm] = Timer{reg: r, index: tm}
		for sm := uint8(0); sm < NumSubmodules; sm++ {
			r.slots[tm][sm] = SubModule{
				reg:   r,
				tm:    tm,
				index: sm,
				pinA:  NoPin,
				pinB:  NoPin,
			}
		}
	}
	return r
}

// Driver returns the register driver the registry programs
func (r *Registry) Driver() FlexPWMDriver {
	return r.pwm
}

// Timer returns timer tm, or nil if out of range
func (r *Registry) Timer(tm uint8) *Timer {
	if tm >= NumTimers {
		return nil
	}
	return &r.timers[tm]
}

// SubModule returns the slot sm of timer tm whether or not it is populated,
// or nil if out of range
func (r *Registry) SubModule(tm, sm uint8) *SubModule {
	if tm >= NumTimers || sm >= NumSubmodules {
		return nil
	}
	return &r.slots[tm][sm]
}

// NewSubModule claims the submodule driven by pinA (channel A) and, unless
// pinB is NoPin, pinB (channel B of the same submodule).
func (r *Registry) NewSubModule(pinA, pinB PWMPin) (*SubModule, error) {
	a, ok := r.pins.LookupPin(pinA)
	if !ok || a.Channel != ChannelA {
		return nil, errors.Wrapf(ErrInvalidPin, "pin %d as channel A", pinA)
	}
	if pinB != NoPin {
		b, ok := r.pins.LookupPin(pinB)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidPin, "pin %d as channel B", pinB)
		}
		if b.Channel != ChannelB || b.Timer != a.Timer || b.Submodule != a.Submodule {
			return nil, errors.Wrapf(ErrPinMismatch, "pins %d and %d", pinA, pinB)
		}
	}

	s := &r.slots[a.Timer][a.Submodule]
	if s.populated {
		return nil, errors.Wrapf(ErrSlotInUse, "pwm%d.sm%d", a.Timer+1, a.Submodule)
	}
	s.populated = true
	s.pinA = pinA
	s.pinB = pinB
	return s, nil
}

// Handle binds h to an interrupt line, replacing any previous handler. A nil h
// unbinds. The line itself is enabled by the caller.
func (r *Registry) Handle(ev Event, h Handler) error {
	if ev >= NumEvents {
		return errors.Wrapf(ErrNoSuchTimer, "event %d", ev)
	}
	state := enterCritical()
	r.handlers[ev] = h
	exitCritical(state)
	return nil
}

// Dispatch runs the handler bound to ev. Interrupt vectors call it.
func (r *Registry) Dispatch(ev Event) {
	if ev >= NumEvents {
		return
	}
	if h := r.handlers[ev]; h != nil {
		h(ev)
	}
}

// bind installs h and enables its interrupt line
func (r *Registry) bind(ev Event, h Handler) error {
	if err := r.Handle(ev, h); err != nil {
		return err
	}
	return errors.Wrapf(r.pwm.EnableIRQ(ev), "enable irq for event %d", ev)
}

func slotCode(tm, sm uint8) uint8 {
	return tm<<4 | sm&0x0F
}
