package core

import "github.com/pkg/errors"

// ReloadLogic selects the counter points at which buffered registers may load.
type ReloadLogic uint8

const (
	ReloadImmediate        ReloadLogic = iota // load as soon as LDOK is set
	ReloadHalfCycle                           // load at VAL0 match
	ReloadFullCycle                           // load at VAL1 match (end of period)
	ReloadHalfAndFullCycle                    // load at both
)

// ReloadSelect chooses between the local and the master reload signal.
type ReloadSelect uint8

const (
	ReloadLocal ReloadSelect = iota
	ReloadMaster
)

// PairOperation defines how the A and B outputs of a submodule relate.
type PairOperation uint8

const (
	Independent       PairOperation = iota
	ComplementaryPwmA               // B is the inverse of A, with dead time
	ComplementaryPwmB               // A is the inverse of B, with dead time
)

// ClockSource selects what drives a submodule's prescaler.
type ClockSource uint8

const (
	ClockBus        ClockSource = iota // IP bus clock
	ClockExternal                      // EXT_CLK input
	ClockSubmodule0                    // AUX_CLK, i.e. submodule 0's prescaled clock
)

// Prescale is a power-of-two divider applied to the clock source.
type Prescale uint8

const (
	PrescaleDivide1 Prescale = iota
	PrescaleDivide2
	PrescaleDivide4
	PrescaleDivide8
	PrescaleDivide16
	PrescaleDivide32
	PrescaleDivide64
	PrescaleDivide128
)

// Divider returns the numeric divider, e.g. 8 for PrescaleDivide8.
func (p Prescale) Divider() uint32 {
	return 1 << p
}

// InitControl selects the signal that reloads the counter with INIT.
type InitControl uint8

const (
	InitLocalSync    InitControl = iota // local reload
	InitMasterReload                    // submodule 0's reload
	InitMasterSync                      // submodule 0's sync, keeps submodules phase-locked
	InitExtSync                         // EXT_SYNC input
)

// ForceTrigger selects the source of the FORCE_OUT signal.
type ForceTrigger uint8

const (
	ForceLocal ForceTrigger = iota
	ForceMaster
	ForceLocalReload
	ForceMasterReload
	ForceLocalSync
	ForceMasterSync
	ForceExternal
	ForceExternalSync
)

// Alignment is the PWM counter/compare arrangement.
type Alignment uint8

const (
	AlignSignedCenter Alignment = iota
	AlignCenter
	AlignSignedEdge
	AlignEdge
)

// LoadEveryOpportunity is the reload frequency that loads at every reload point.
const LoadEveryOpportunity = 1

// DefaultFrequencyHz is the PWM frequency of DefaultConfig.
const DefaultFrequencyHz = 5000

// Config describes how a submodule is programmed. It is a plain value: Configure
// copies it and it can be reused for any number of submodules.
type Config struct {
	ReloadLogic     ReloadLogic
	ReloadSelect    ReloadSelect
	ReloadFrequency uint8 // 1..16 reload opportunities
	PairOperation   PairOperation
	ClockSource     ClockSource
	Prescale        Prescale
	InitControl     InitControl
	ForceTrigger    ForceTrigger
	EnableDebugMode bool
	EnableWait      bool
	FrequencyHz     uint32
	Alignment       Alignment
}

// DefaultConfig returns a full-cycle reload, independent, bus-clocked, signed
// center aligned configuration at DefaultFrequencyHz.
func DefaultConfig() Config {
	return Config{
		ReloadLogic:     ReloadFullCycle,
		ReloadSelect:    ReloadLocal,
		ReloadFrequency: LoadEveryOpportunity,
		PairOperation:   Independent,
		ClockSource:     ClockBus,
		Prescale:        PrescaleDivide1,
		InitControl:     InitLocalSync,
		ForceTrigger:    ForceLocal,
		FrequencyHz:     DefaultFrequencyHz,
		Alignment:       AlignSignedCenter,
	}
}

func (c Config) WithReloadLogic(r ReloadLogic) Config { c.ReloadLogic = r; return c }
func (c Config) WithReloadFrequency(n uint8) Config { c.ReloadFrequency = n; return c }
func (c Config) WithPairOperation(p PairOperation) Config { c.PairOperation = p; return c }
func (c Config) WithClockSource(s ClockSource) Config { c.ClockSource = s; return c }
func (c Config) WithPrescale(p Prescale) Config { c.Prescale = p; return c }
func (c Config) WithInitControl(i InitControl) Config { c.InitControl = i; return c }
func (c Config) WithFrequency(hz uint32) Config { c.FrequencyHz = hz; return c }
func (c Config) WithAlignment(a Alignment) Config { c.Alignment = a; return c }

// Validate checks field ranges. It does not check that FrequencyHz fits the
// counter; that depends on the clock and is done by Configure.
func (c Config) Validate() error {
	switch {
	case c.ReloadLogic > ReloadHalfAndFullCycle:
		return errors.Wrapf(ErrInvalidConfig, "reload logic %d", c.ReloadLogic)
	case c.ReloadFrequency < 1 || c.ReloadFrequency > 16:
		return errors.Wrapf(ErrInvalidConfig, "reload frequency %d not in 1..16", c.ReloadFrequency)
	case c.PairOperation > ComplementaryPwmB:
		return errors.Wrapf(ErrInvalidConfig, "pair operation %d", c.PairOperation)
	case c.ClockSource > ClockSubmodule0:
		return errors.Wrapf(ErrInvalidConfig, "clock source %d", c.ClockSource)
	case c.Prescale > PrescaleDivide128:
		return errors.Wrapf(ErrInvalidConfig, "prescale %d", c.Prescale)
	case c.InitControl > InitExtSync:
		return errors.Wrapf(ErrInvalidConfig, "init control %d", c.InitControl)
	case c.ForceTrigger > ForceExternalSync:
		return errors.Wrapf(ErrInvalidConfig, "force trigger %d", c.ForceTrigger)
	case c.Alignment > AlignEdge:
		return errors.Wrapf(ErrInvalidConfig, "alignment %d", c.Alignment)
	case c.FrequencyHz == 0:
		return errors.Wrap(ErrInvalidConfig, "frequency is zero")
	}
	return nil
}

// setup is the part of the configuration programmed by InitSubmodule.
func (c Config) setup() SubmoduleSetup {
	return SubmoduleSetup{
		ClockSource:     c.ClockSource,
		Prescale:        c.Prescale,
		InitControl:     c.InitControl,
		ReloadLogic:     c.ReloadLogic,
		ReloadSelect:    c.ReloadSelect,
		ReloadFrequency: c.ReloadFrequency,
		PairOperation:   c.PairOperation,
		ForceTrigger:    c.ForceTrigger,
		EnableDebugMode: c.EnableDebugMode,
		EnableWait:      c.EnableWait,
	}
}

// MinPwmFrequency returns the lowest PWM frequency whose period still fits the
// 16-bit counter when clocked at clockHz through prescaler p.
func MinPwmFrequency(clockHz uint32, p Prescale) uint32 {
	counterHz := clockHz >> p
	return (counterHz + counterMax - 1) / counterMax
}

// pulseCount is the number of counter ticks in one PWM period.
func pulseCount(clockHz uint32, p Prescale, freqHz uint32) (uint16, error) {
	if freqHz == 0 {
		return 0, errors.Wrap(ErrFrequencyRange, "frequency is zero")
	}
	n := (clockHz >> p) / freqHz
	if n < minPulseCount || n > counterMax {
		return 0, errors.Wrapf(ErrFrequencyRange,
			"%d Hz needs %d ticks at %d Hz / %d", freqHz, n, clockHz, p.Divider())
	}
	return uint16(n), nil
}

const (
	counterMax    = 0xFFFF
	minPulseCount = 4
)
