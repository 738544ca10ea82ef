package core

// Peripheral dimensions.
const (
	NumTimers     = 4 // FlexPWM1..FlexPWM4
	NumSubmodules = 4 // submodules per module
	NumFaults     = 4 // fault inputs per module
)

// Channel is a set of submodule outputs.
type Channel uint8

const (
	ChannelA    Channel = 1 << 0
	ChannelB    Channel = 1 << 1
	ChannelBoth         = ChannelA | ChannelB
)

// Level is the active level of an output.
type Level uint8

const (
	LevelHigh Level = iota // output high during the duty cycle
	LevelLow               // output inverted
)

// ValueRegister names one of the double-buffered counter/compare registers.
type ValueRegister uint8

const (
	RegInit ValueRegister = iota // counter start value
	RegVal0                      // half cycle point
	RegVal1                      // counter end value (modulo)
	RegVal2                      // A turn-on
	RegVal3                      // A turn-off
	RegVal4                      // B turn-on
	RegVal5                      // B turn-off
)

// Status flags of a submodule (STS).
const (
	StatusCompareVal0   uint16 = 1 << 0
	StatusCompareVal1   uint16 = 1 << 1
	StatusCompareVal2   uint16 = 1 << 2
	StatusCompareVal3   uint16 = 1 << 3
	StatusCompareVal4   uint16 = 1 << 4
	StatusCompareVal5   uint16 = 1 << 5
	StatusReload        uint16 = 1 << 12 // a reload opportunity occurred
	StatusReloadError   uint16 = 1 << 13 // reload with LDOK clear after buffered writes
	StatusRegUpdated    uint16 = 1 << 14 // buffered registers written since LDOK was set
	StatusAll           uint16 = 0x703F
	InterruptCompareVal uint16 = 0x003F // CMPIE bits share the STS layout
	InterruptReload     uint16 = StatusReload
	InterruptReloadErr  uint16 = StatusReloadError
)

// SubmoduleSetup is what InitSubmodule programs into the control registers.
type SubmoduleSetup struct {
	ClockSource     ClockSource
	Prescale        Prescale
	InitControl     InitControl
	ReloadLogic     ReloadLogic
	ReloadSelect    ReloadSelect
	ReloadFrequency uint8
	PairOperation   PairOperation
	ForceTrigger    ForceTrigger
	EnableDebugMode bool
	EnableWait      bool
}

// RegisterValue is one named register read for diagnostics.
type RegisterValue struct {
	Name  string
	Value uint16
}

// FlexPWMDriver is the register-level interface the core programs FlexPWM
// modules through. Platform code implements it on top of the real register
// blocks; the sim package implements it in memory.
//
// Every method must be non-blocking. WriteValue, SetLoadOK, StatusFlags and
// ClearStatusFlags are called from interrupt context.
type FlexPWMDriver interface {
	// SourceClockHz returns the module source clock before prescaling
	SourceClockHz() uint32

	// InitSubmodule programs clock, prescaler, sync, reload and pairing.
	// It clears the submodule's LDOK bit first.
	InitSubmodule(tm, sm uint8, setup SubmoduleSetup) error

	// WriteValue stages a value into a buffered counter/compare register
	WriteValue(tm, sm uint8, reg ValueRegister, v uint16)

	// SetPrescale stages a new prescaler (buffered like the value registers)
	SetPrescale(tm, sm uint8, p Prescale)

	SetDeadtime(tm, sm uint8, ch Channel, ticks uint16)
	SetOutputPolarity(tm, sm uint8, ch Channel, inverted bool)
	SetOutputEnabled(tm, sm uint8, ch Channel, enabled bool)
	SetFaultState(tm, sm uint8, ch Channel, state FaultState)
	SetFaultDisableMap(tm, sm uint8, ch Channel, faults uint8)

	// SetOutputMask masks (forces inactive) or unmasks outputs and issues a
	// local force so the change applies immediately
	SetOutputMask(tm, sm uint8, ch Channel, masked bool)
	OutputMask(tm, sm uint8) Channel

	// SetLoadOK sets or clears the LDOK bits of the submodules in mask
	SetLoadOK(tm, mask uint8, ok bool)
	LoadOK(tm uint8) uint8

	// SetRunning sets or clears the RUN bits of the submodules in mask
	SetRunning(tm, mask uint8, run bool)
	Running(tm uint8) uint8

	StatusFlags(tm, sm uint8) uint16
	ClearStatusFlags(tm, sm uint8, mask uint16)
	SetInterrupts(tm, sm uint8, mask uint16, enabled bool)
	EnabledInterrupts(tm, sm uint8) uint16

	SetupFault(tm, fault uint8, cfg FaultConfig)
	FaultFlags(tm uint8) uint8
	ClearFaultFlags(tm, mask uint8)

	// EnableIRQ enables the interrupt line behind ev at the interrupt controller
	EnableIRQ(ev Event) error

	ModuleRegisters(tm uint8) []RegisterValue
	SubmoduleRegisters(tm, sm uint8) []RegisterValue
}

// PWMPin identifies a board pin.
type PWMPin uint32

// NoPin marks an absent output.
const NoPin PWMPin = 0xFFFFFFFF

// PinMapping is the FlexPWM function behind a pin.
type PinMapping struct {
	Timer     uint8
	Submodule uint8
	Channel   Channel // ChannelA or ChannelB
	Mux       uint8   // pad mux alternative selecting the FlexPWM output
}

// PinDriver resolves and muxes PWM pins.
type PinDriver interface {
	// LookupPin returns the FlexPWM output a pin can carry
	LookupPin(pin PWMPin) (PinMapping, bool)

	// ConfigurePin switches the pin's pad mux to its FlexPWM output
	ConfigurePin(pin PWMPin) error
}

// XBarDriver routes cross-bar inputs to outputs.
type XBarDriver interface {
	Connect(input XBarInput, output XBarOutput) error
}
