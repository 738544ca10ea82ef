package core

import "github.com/pkg/errors"

// FaultClearing selects how a fault condition is cleared.
type FaultClearing uint8

const (
	FaultClearAutomatic    FaultClearing = iota // outputs resume when the input clears
	FaultClearManualNormal                      // FFLAG must be cleared by software
	FaultClearManualSafety                      // as manual, and the input must also be clear
)

// FaultRecovery selects the PWM cycle point at which outputs resume.
type FaultRecovery uint8

const (
	FaultRecoverNone FaultRecovery = iota
	FaultRecoverHalfCycle
	FaultRecoverFullCycle
	FaultRecoverHalfAndFullCycle
)

// FaultState is the level an output is driven to while a fault is active.
type FaultState uint8

const (
	FaultStateLow FaultState = iota
	FaultStateHigh
	FaultStateTristated
)

// FaultConfig describes one fault input of a timer.
type FaultConfig struct {
	ClearingMode      FaultClearing
	ActiveHigh        bool
	CombinationalPath bool
	RecoverMode       FaultRecovery
	FilterCount       uint8 // 0..7 samples, 0 disables the filter
	FilterPeriod      uint8 // sampling period in bus clocks
	GlitchStretch     bool
}

// DefaultFaultConfig is an active-high, automatically cleared fault with the
// combinational path enabled and recovery at the next full cycle.
func DefaultFaultConfig() FaultConfig {
	return FaultConfig{
		ClearingMode:      FaultClearAutomatic,
		ActiveHigh:        true,
		CombinationalPath: true,
		RecoverMode:       FaultRecoverFullCycle,
	}
}

func (f FaultConfig) Validate() error {
	if f.ClearingMode > FaultClearManualSafety {
		return errors.Wrapf(ErrInvalidFault, "clearing mode %d", f.ClearingMode)
	}
	if f.RecoverMode > FaultRecoverHalfAndFullCycle {
		return errors.Wrapf(ErrInvalidFault, "recover mode %d", f.RecoverMode)
	}
	if f.FilterCount > 7 {
		return errors.Wrapf(ErrInvalidFault, "filter count %d not in 0..7", f.FilterCount)
	}
	return nil
}

// XBarInput is a cross-bar input signal number.
type XBarInput uint16

// XBarOutput is a cross-bar output signal number.
type XBarOutput uint16

// NoXBarInput leaves the fault input unrouted.
const NoXBarInput XBarInput = 0xFFFF

// XBARA1 outputs feeding the FlexPWM fault inputs. FAULT2 and FAULT3 are shared
// by all four modules.
var faultXBarOutputs = [NumTimers][NumFaults]XBarOutput{
	{44, 45, 46, 47},
	{58, 59, 46, 47},
	{65, 66, 46, 47},
	{72, 73, 46, 47},
}

// FaultXBarOutput returns the fixed cross-bar output wired to fault input
// fault of timer tm.
func FaultXBarOutput(tm, fault uint8) (XBarOutput, bool) {
	if tm >= NumTimers || fault >= NumFaults {
		return 0, false
	}
	return faultXBarOutputs[tm][fault], true
}

// routableFault reports whether fault inputs of this index can be set up.
// Faults are paired in hardware and only the even index of a pair is routed.
func routableFault(fault uint8) bool {
	return fault < NumFaults && fault&1 == 0
}
