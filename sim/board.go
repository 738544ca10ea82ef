package sim

import "eflexpwm/core"

// IPGClockHz is the bus clock FlexPWM runs on with the default clock tree.
const IPGClockHz = 150000000

// Board bundles a model of every block the core drives.
type Board struct {
	PWM      *FlexPWM
	Pins     *Pins
	XBar     *XBar
	Registry *core.Registry
}

// NewBoard builds a Teensy 4.1 model clocked at IPGClockHz with interrupts
// routed to the registry.
func NewBoard() *Board {
	b := &Board{
		PWM:  NewFlexPWM(IPGClockHz),
		Pins: NewPins(nil),
		XBar: NewXBar(),
	}
	b.Registry = core.NewRegistry(b.PWM, b.Pins, b.XBar)
	b.PWM.SetDispatcher(b.Registry.Dispatch)
	return b
}
