package core

import "github.com/pkg/errors"

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrFrequencyRange = errors.New("pwm frequency not representable by the counter")
	ErrNotConfigured  = errors.New("submodule not configured")
	ErrNotStarted     = errors.New("submodule not begun")
	ErrInvalidPin     = errors.New("pin has no FlexPWM function")
	ErrPinMismatch    = errors.New("pins are not channels A and B of one submodule")
	ErrSlotInUse      = errors.New("submodule slot already populated")
	ErrFaultIndex     = errors.New("fault index cannot be routed")
	ErrInvalidFault   = errors.New("invalid fault configuration")
	ErrNoSuchTimer    = errors.New("no such timer")
	ErrNoXBar         = errors.New("fault input routing needs a cross-bar driver")
)
