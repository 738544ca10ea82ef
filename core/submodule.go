package core

import "github.com/pkg/errors"

// DutyCycleMax is the duty value of a full period. Duty values are fractions of
// the PWM period in 1/0xFFFF steps.
const DutyCycleMax = 0xFFFF

// SubmoduleState is the lifecycle state of a SubModule.
type SubmoduleState uint8

const (
	StateUnconfigured SubmoduleState = iota
	StateConfigured                  // configured, counter stopped
	StateRunning                     // counter running
)

func (s SubmoduleState) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// signal holds the per-channel parameters applied by UpdateSetting
type signal struct {
	duty         uint16
	level        Level
	deadtime     uint16
	faultState   FaultState
	faultDisable uint8
	enabled      bool
}

func defaultSignal() signal {
	return signal{
		duty:    DutyCycleMax / 2,
		level:   LevelHigh,
		enabled: true,
	}
}

// SubModule is one counter of a FlexPWM module driving up to two outputs.
// SubModules live in a Registry and are obtained with Registry.NewSubModule.
type SubModule struct {
	reg   *Registry
	tm    uint8
	index uint8

	pinA, pinB PWMPin
	populated  bool
	configured bool
	begun      bool

	cfg    Config
	fpmin  uint32 // lowest frequency at the configured prescaler
	signal [2]signal

	// pulse count of the staged period, read by UpdateDutyCycle
	period uint16
}

func (s *SubModule) Index() uint8      { return s.index }
func (s *SubModule) TimerIndex() uint8 { return s.tm }
func (s *SubModule) PinA() PWMPin      { return s.pinA }
func (s *SubModule) PinB() PWMPin      { return s.pinB }
func (s *SubModule) Config() Config    { return s.cfg }

// Timer returns the timer this submodule belongs to
func (s *SubModule) Timer() *Timer {
	return s.reg.Timer(s.tm)
}

// Channels returns the outputs this submodule drives
func (s *SubModule) Channels() Channel {
	if s.pinB != NoPin {
		return ChannelBoth
	}
	return ChannelA
}

func (s *SubModule) mask() uint8 {
	return 1 << s.index
}

func (s *SubModule) pwm() FlexPWMDriver {
	return s.reg.pwm
}

// Configure programs the submodule from cfg and resets the output parameters to
// their defaults. The counter is stopped and the submodule must be begun again.
func (s *SubModule) Configure(cfg Config) error {
	if !s.populated {
		return errors.Wrapf(ErrInvalidPin, "pwm%d.sm%d has no pins", s.tm+1, s.index)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	clk := s.pwm().SourceClockHz()
	period, err := pulseCount(clk, cfg.Prescale, cfg.FrequencyHz)
	if err != nil {
		return errors.Wrapf(err, "configure pwm%d.sm%d", s.tm+1, s.index)
	}

	for i := range s.signal {
		s.signal[i] = defaultSignal()
	}
	s.cfg = cfg
	s.fpmin = MinPwmFrequency(clk, cfg.Prescale)
	s.begun = false
	s.configured = false

	if err := s.pwm().InitSubmodule(s.tm, s.index, cfg.setup()); err != nil {
		return errors.Wrapf(err, "init pwm%d.sm%d", s.tm+1, s.index)
	}
	s.pwm().SetRunning(s.tm, s.mask(), false)
	s.stagePeriod(period)
	s.configured = true

	RecordTiming(EvtConfigure, slotCode(s.tm, s.index), uint32(period), uint32(cfg.Prescale))
	return nil
}

// Begin muxes the pins, applies the settings and optionally starts the
// counter. Only the first call after Configure does anything.
func (s *SubModule) Begin(doStart, doSync bool) error {
	if !s.configured {
		return errors.Wrapf(ErrNotConfigured, "begin pwm%d.sm%d", s.tm+1, s.index)
	}
	if s.begun {
		return nil
	}

	pins := s.reg.pins
	if err := pins.ConfigurePin(s.pinA); err != nil {
		return errors.Wrapf(err, "pin %d", s.pinA)
	}
	if s.pinB != NoPin {
		if err := pins.ConfigurePin(s.pinB); err != nil {
			return errors.Wrapf(err, "pin %d", s.pinB)
		}
	}

	s.begun = true
	if err := s.UpdateSetting(doSync); err != nil {
		s.begun = false
		return err
	}
	if doStart {
		s.Start()
	}
	RecordTiming(EvtBegin, slotCode(s.tm, s.index), uint32(s.mask()), 0)
	return nil
}

// Begun reports whether Begin succeeded since the last Configure
func (s *SubModule) Begun() bool {
	return s.begun
}

// UpdateSetting stages every register from the current parameters. With doSync
// the submodule's LDOK bit is cleared first and set afterwards so the values
// load together at the next reload.
func (s *SubModule) UpdateSetting(doSync bool) error {
	if !s.begun {
		return errors.Wrapf(ErrNotStarted, "update pwm%d.sm%d", s.tm+1, s.index)
	}
	period, err := pulseCount(s.pwm().SourceClockHz(), s.cfg.Prescale, s.cfg.FrequencyHz)
	if err != nil {
		return errors.Wrapf(err, "update pwm%d.sm%d", s.tm+1, s.index)
	}

	if doSync {
		s.SetPwmLdok(false)
	}
	s.stagePeriod(period)
	s.stageOutputs()
	if doSync {
		s.SetPwmLdok(true)
	}
	return nil
}

// stageOutputs writes dead time, polarity, fault behaviour and output enable
func (s *SubModule) stageOutputs() {
	pwm := s.pwm()
	for i, ch := range [2]Channel{ChannelA, ChannelB} {
		if s.Channels()&ch == 0 {
			continue
		}
		sig := &s.signal[i]
		pwm.SetDeadtime(s.tm, s.index, ch, sig.deadtime)
		pwm.SetOutputPolarity(s.tm, s.index, ch, sig.level == LevelLow)
		pwm.SetFaultState(s.tm, s.index, ch, sig.faultState)
		pwm.SetFaultDisableMap(s.tm, s.index, ch, sig.faultDisable)
		pwm.SetOutputEnabled(s.tm, s.index, ch, sig.enabled)
	}
}

// stagePeriod writes the period registers and the compare values of every
// channel for the given pulse count
func (s *SubModule) stagePeriod(period uint16) {
	pwm := s.pwm()
	init, val0, val1 := periodValues(s.cfg.Alignment, period)
	pwm.WriteValue(s.tm, s.index, RegInit, init)
	pwm.WriteValue(s.tm, s.index, RegVal0, val0)
	pwm.WriteValue(s.tm, s.index, RegVal1, val1)
	s.period = period

	for i, ch := range [2]Channel{ChannelA, ChannelB} {
		if s.Channels()&ch != 0 {
			s.writeDuty(ch, s.signal[i].duty)
		}
	}
}

// UpdateDutyCycle stages a new duty for the channels in ch. It is safe to call
// from interrupt context: it only writes compare registers and leaves LDOK to
// the caller.
func (s *SubModule) UpdateDutyCycle(duty uint16, ch Channel) {
	ch &= s.Channels()
	if ch&ChannelA != 0 {
		s.signal[0].duty = duty
		s.writeDuty(ChannelA, duty)
	}
	if ch&ChannelB != 0 {
		s.signal[1].duty = duty
		s.writeDuty(ChannelB, duty)
	}
}

func (s *SubModule) writeDuty(ch Channel, duty uint16) {
	high := uint16(uint32(s.period) * uint32(duty) / DutyCycleMax)
	on, off := compareValues(s.cfg.Alignment, s.period, high)
	if ch == ChannelA {
		s.reg.pwm.WriteValue(s.tm, s.index, RegVal2, on)
		s.reg.pwm.WriteValue(s.tm, s.index, RegVal3, off)
	} else {
		s.reg.pwm.WriteValue(s.tm, s.index, RegVal4, on)
		s.reg.pwm.WriteValue(s.tm, s.index, RegVal5, off)
	}
}

// DutyCycle returns the last duty staged on a single channel
func (s *SubModule) DutyCycle(ch Channel) uint16 {
	if ch == ChannelB {
		return s.signal[1].duty
	}
	return s.signal[0].duty
}

// CounterPeriod is the number of counter ticks per PWM period
func (s *SubModule) CounterPeriod() uint16 {
	return s.period
}

// CounterClockHz is the prescaled clock the counter runs on
func (s *SubModule) CounterClockHz() uint32 {
	return s.pwm().SourceClockHz() >> s.cfg.Prescale
}

// PwmFrequency is the configured PWM frequency
func (s *SubModule) PwmFrequency() uint32 {
	return s.cfg.FrequencyHz
}

// MinPwmFrequency is the lowest frequency reachable at the configured prescaler
func (s *SubModule) MinPwmFrequency() uint32 {
	return s.fpmin
}

// SetPrescaler stages a new prescaler. It loads with the other buffered
// registers at the next reload after LDOK.
func (s *SubModule) SetPrescaler(p Prescale) {
	s.cfg.Prescale = p
	s.fpmin = MinPwmFrequency(s.pwm().SourceClockHz(), p)
	s.pwm().SetPrescale(s.tm, s.index, p)
}

// prescalerFor is the smallest prescaler able to reach freq, or the largest
// one if none can. Lowering starts from /1, raising from the current divider.
func (s *SubModule) prescalerFor(freq uint32) Prescale {
	p := PrescaleDivide1
	if freq < s.fpmin {
		p = s.cfg.Prescale
	}
	clk := s.pwm().SourceClockHz()
	for freq < MinPwmFrequency(clk, p) && p < PrescaleDivide128 {
		p++
	}
	return p
}

// AdjustPrescaler selects the smallest prescaler able to reach freq and stages
// it. It reports whether the prescaler changed.
func (s *SubModule) AdjustPrescaler(freq uint32) bool {
	p := s.prescalerFor(freq)
	if p == s.cfg.Prescale {
		return false
	}
	s.SetPrescaler(p)
	return true
}

// SetPwmFrequency restages period and duties for freq. With adjust the
// prescaler is raised or lowered to keep the period representable. On error
// nothing is staged.
func (s *SubModule) SetPwmFrequency(freq uint32, doSync, adjust bool) error {
	if !s.configured {
		return errors.Wrapf(ErrNotConfigured, "set frequency pwm%d.sm%d", s.tm+1, s.index)
	}
	p := s.cfg.Prescale
	if adjust {
		p = s.prescalerFor(freq)
	}
	period, err := pulseCount(s.pwm().SourceClockHz(), p, freq)
	if err != nil {
		return errors.Wrapf(err, "set frequency pwm%d.sm%d", s.tm+1, s.index)
	}

	if doSync {
		s.SetPwmLdok(false)
		defer s.SetPwmLdok(true)
	}
	if p != s.cfg.Prescale {
		s.SetPrescaler(p)
	}
	s.stagePeriod(period)
	s.cfg.FrequencyHz = freq
	return nil
}

func (s *SubModule) Start() {
	s.pwm().SetRunning(s.tm, s.mask(), true)
	RecordTiming(EvtStart, slotCode(s.tm, s.index), uint32(s.mask()), 0)
}

func (s *SubModule) Stop() {
	s.pwm().SetRunning(s.tm, s.mask(), false)
	RecordTiming(EvtStop, slotCode(s.tm, s.index), uint32(s.mask()), 0)
}

func (s *SubModule) IsRunning() bool {
	return s.pwm().Running(s.tm)&s.mask() != 0
}

// State derives the lifecycle state from configuration and the RUN bit
func (s *SubModule) State() SubmoduleState {
	switch {
	case !s.configured:
		return StateUnconfigured
	case s.IsRunning():
		return StateRunning
	}
	return StateConfigured
}

// Enable unmasks (or masks) the outputs. The change is forced immediately and
// leaves the buffered registers alone.
func (s *SubModule) Enable(value bool) {
	s.pwm().SetOutputMask(s.tm, s.index, s.Channels(), !value)
}

func (s *SubModule) Disable() {
	s.Enable(false)
}

func (s *SubModule) IsEnabled() bool {
	return s.pwm().OutputMask(s.tm, s.index)&s.Channels() == 0
}

// Setup* stage output parameters for the channels in ch. They are written to
// the hardware by the next UpdateSetting.

func (s *SubModule) SetupDeadtime(ticks uint16, ch Channel) {
	s.eachSignal(ch, func(sig *signal) { sig.deadtime = ticks })
}

func (s *SubModule) SetupLevel(level Level, ch Channel) {
	s.eachSignal(ch, func(sig *signal) { sig.level = level })
}

func (s *SubModule) SetupOutputEnable(enabled bool, ch Channel) {
	s.eachSignal(ch, func(sig *signal) { sig.enabled = enabled })
}

// SetupDutyCyclePercent sets the duty in percent; values above 100 are clamped
func (s *SubModule) SetupDutyCyclePercent(pct uint8, ch Channel) {
	if pct > 100 {
		pct = 100
	}
	duty := uint16(uint32(pct) * DutyCycleMax / 100)
	s.eachSignal(ch, func(sig *signal) { sig.duty = duty })
}

func (s *SubModule) SetupFaultState(state FaultState, ch Channel) {
	s.eachSignal(ch, func(sig *signal) { sig.faultState = state })
}

// SetupFaultDisableMap selects which fault inputs (bit n = FAULTn) force the
// channels to their fault state
func (s *SubModule) SetupFaultDisableMap(faults uint8, ch Channel) {
	faults &= 1<<NumFaults - 1
	s.eachSignal(ch, func(sig *signal) { sig.faultDisable = faults })
}

func (s *SubModule) eachSignal(ch Channel, fn func(*signal)) {
	ch &= s.Channels()
	if ch&ChannelA != 0 {
		fn(&s.signal[0])
	}
	if ch&ChannelB != 0 {
		fn(&s.signal[1])
	}
}

func (s *SubModule) StatusFlags() uint16 {
	return s.pwm().StatusFlags(s.tm, s.index)
}

// ClearStatusFlags clears the flags in mask (write one to clear)
func (s *SubModule) ClearStatusFlags(mask uint16) {
	s.pwm().ClearStatusFlags(s.tm, s.index, mask)
}

func (s *SubModule) EnableInterrupts(mask uint16) {
	s.pwm().SetInterrupts(s.tm, s.index, mask, true)
}

func (s *SubModule) DisableInterrupts(mask uint16) {
	s.pwm().SetInterrupts(s.tm, s.index, mask, false)
}

func (s *SubModule) EnabledInterrupts() uint16 {
	return s.pwm().EnabledInterrupts(s.tm, s.index)
}

// OnInterrupt binds h to this submodule's interrupt line and enables it
func (s *SubModule) OnInterrupt(h Handler) error {
	return s.reg.bind(SubmoduleEvent(s.tm, s.index), h)
}

// SetPwmLdok sets or clears this submodule's LDOK bit
func (s *SubModule) SetPwmLdok(ok bool) {
	s.pwm().SetLoadOK(s.tm, s.mask(), ok)
}

func (s *SubModule) Registers() []RegisterValue {
	return s.pwm().SubmoduleRegisters(s.tm, s.index)
}

// periodValues returns INIT, VAL0 and VAL1 for a period of n ticks
func periodValues(a Alignment, n uint16) (init, val0, val1 uint16) {
	switch a {
	case AlignSignedCenter, AlignSignedEdge:
		modulo := n >> 1
		return twoCompl(modulo), 0, modulo - 1
	default:
		return 0, n / 2, n - 1
	}
}

// compareValues returns the turn-on and turn-off compare values for a pulse of
// high ticks in a period of n ticks
func compareValues(a Alignment, n, high uint16) (on, off uint16) {
	switch a {
	case AlignSignedCenter:
		return twoCompl(high / 2), high / 2
	case AlignCenter:
		return (n - high) / 2, uint16((uint32(n) + uint32(high)) / 2)
	case AlignSignedEdge:
		start := twoCompl(n >> 1)
		return start, start + high
	default:
		return 0, high
	}
}

func twoCompl(v uint16) uint16 {
	return ^v + 1
}
