package core

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Timer is a FlexPWM module: the submodules that share its LDOK, RUN and fault
// logic are controlled as one unit.
type Timer struct {
	reg      *Registry
	index    uint8
	disabled bool
}

func (t *Timer) Index() uint8 {
	return t.index
}

// SubModule returns slot sm if it is populated
func (t *Timer) SubModule(sm uint8) *SubModule {
	s := t.reg.SubModule(t.index, sm)
	if s == nil || !s.populated {
		return nil
	}
	return s
}

// Mask returns the populated slots as a bit mask
func (t *Timer) Mask() uint8 {
	var m uint8
	for sm := range t.reg.slots[t.index] {
		if t.reg.slots[t.index][sm].populated {
			m |= 1 << sm
		}
	}
	return m
}

func (t *Timer) each(fn func(*SubModule)) {
	for sm := range t.reg.slots[t.index] {
		s := &t.reg.slots[t.index][sm]
		if s.populated {
			fn(s)
		}
	}
}

// Begin brings every populated submodule up together:
//
//  1. with doStart, stop the counters
//  2. with doSync, clear LDOK
//  3. begin each submodule without starting or syncing it
//  4. with doSync, set LDOK so every staged register loads at the same reload
//  5. with doStart, start the counters
//
// Steps 4 and 5 only happen if every submodule began; otherwise the errors of
// all failing slots are returned together and the group stays stopped.
// Calling Begin again once the group is up is a no-op.
func (t *Timer) Begin(doStart, doSync bool) error {
	mask := t.Mask()
	if mask == 0 {
		return errors.Wrapf(ErrNotConfigured, "pwm%d has no submodules", t.index+1)
	}
	if t.begun() && (!doStart || t.IsRunning()) {
		return nil
	}

	pwm := t.reg.pwm
	if doStart {
		t.Stop()
	}
	if doSync {
		pwm.SetLoadOK(t.index, mask, false)
	}

	var err error
	var failed uint8
	t.each(func(s *SubModule) {
		if e := s.Begin(false, false); e != nil {
			err = multierr.Append(err, e)
			failed |= s.mask()
		}
	})
	if err != nil {
		RecordTiming(EvtBeginFail, slotCode(t.index, slotTimer), uint32(failed), 0)
		return errors.Wrapf(err, "begin pwm%d", t.index+1)
	}

	if doSync {
		t.SetPwmLdok(true)
		RecordTiming(EvtCommit, slotCode(t.index, slotTimer), uint32(mask), 0)
	}
	if doStart {
		t.Start()
	}
	RecordTiming(EvtBegin, slotCode(t.index, slotTimer), uint32(mask), 0)
	return nil
}

func (t *Timer) begun() bool {
	ok := true
	t.each(func(s *SubModule) { ok = ok && s.begun })
	return ok
}

// Start runs the counters of every populated submodule
func (t *Timer) Start() {
	t.reg.pwm.SetRunning(t.index, t.Mask(), true)
	RecordTiming(EvtStart, slotCode(t.index, slotTimer), uint32(t.Mask()), 0)
}

func (t *Timer) Stop() {
	t.reg.pwm.SetRunning(t.index, t.Mask(), false)
	RecordTiming(EvtStop, slotCode(t.index, slotTimer), uint32(t.Mask()), 0)
}

// IsRunning reports whether every populated submodule is running
func (t *Timer) IsRunning() bool {
	m := t.Mask()
	return m != 0 && t.reg.pwm.Running(t.index)&m == m
}

// Enable unmasks or masks the outputs of every populated submodule
func (t *Timer) Enable(value bool) {
	t.each(func(s *SubModule) { s.Enable(value) })
	t.disabled = !value
}

func (t *Timer) IsEnabled() bool {
	return !t.disabled
}

// Setup* broadcast to every populated submodule. Each submodule applies them at
// its next UpdateSetting.

func (t *Timer) SetupDeadtime(ticks uint16) {
	t.each(func(s *SubModule) { s.SetupDeadtime(ticks, ChannelBoth) })
}

func (t *Timer) SetupLevel(level Level) {
	t.each(func(s *SubModule) { s.SetupLevel(level, ChannelBoth) })
}

func (t *Timer) SetupOutputEnable(enabled bool) {
	t.each(func(s *SubModule) { s.SetupOutputEnable(enabled, ChannelBoth) })
}

func (t *Timer) SetupDutyCyclePercent(pct uint8) {
	t.each(func(s *SubModule) { s.SetupDutyCyclePercent(pct, ChannelBoth) })
}

func (t *Timer) SetupFaultState(state FaultState) {
	t.each(func(s *SubModule) { s.SetupFaultState(state, ChannelBoth) })
}

func (t *Timer) SetupFaultDisableMap(faults uint8) {
	t.each(func(s *SubModule) { s.SetupFaultDisableMap(faults, ChannelBoth) })
}

// UpdateSetting restages every populated submodule and returns all failures
func (t *Timer) UpdateSetting(doSync bool) error {
	var err error
	t.each(func(s *SubModule) {
		err = multierr.Append(err, s.UpdateSetting(doSync))
	})
	return err
}

// SetupFaults programs fault input fault. Faults are wired in pairs and only
// the even index of a pair (0 or 2) can be set up. Unless input is NoXBarInput
// it is first routed to the fault through the cross-bar.
func (t *Timer) SetupFaults(fault uint8, cfg FaultConfig, input XBarInput) error {
	if !routableFault(fault) {
		return errors.Wrapf(ErrFaultIndex, "pwm%d fault %d", t.index+1, fault)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if input != NoXBarInput {
		if t.reg.xbar == nil {
			return errors.Wrapf(ErrNoXBar, "pwm%d fault %d", t.index+1, fault)
		}
		out, _ := FaultXBarOutput(t.index, fault)
		if err := t.reg.xbar.Connect(input, out); err != nil {
			return errors.Wrapf(err, "route input %d to pwm%d fault %d", input, t.index+1, fault)
		}
	}
	t.reg.pwm.SetupFault(t.index, fault, cfg)
	return nil
}

func (t *Timer) FaultFlags() uint8 {
	return t.reg.pwm.FaultFlags(t.index)
}

func (t *Timer) ClearFaultFlags(mask uint8) {
	t.reg.pwm.ClearFaultFlags(t.index, mask)
}

// OnFault binds h to the module's fault interrupt and enables it
func (t *Timer) OnFault(h Handler) error {
	return t.reg.bind(FaultEvent(t.index), h)
}

// SetPwmLdok sets or clears LDOK for every populated submodule. Clearing it
// before staging values and setting it afterwards makes all of them load on
// the same reload.
func (t *Timer) SetPwmLdok(ok bool) {
	t.reg.pwm.SetLoadOK(t.index, t.Mask(), ok)
}

// SrcClockHz is the module source clock. Dead-time counters run on it
// unprescaled.
func (t *Timer) SrcClockHz() uint32 {
	return t.reg.pwm.SourceClockHz()
}

func (t *Timer) Registers() []RegisterValue {
	return t.reg.pwm.ModuleRegisters(t.index)
}
