// Package sim is an in-memory model of the FlexPWM, XBARA and pad mux blocks.
// It implements the core driver interfaces so the driver logic can run and be
// checked off target.
//
// The model keeps a buffered and an active copy of INIT, VAL0..VAL5 and PRSC.
// Writes land in the buffer unless the submodule's LDOK bit is set, in which
// case they are dropped as on hardware. A reload opportunity copies the buffer
// to the active set only when LDOK is set, and clears LDOK. Setting RUN with
// LDOK already set loads immediately.
package sim

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"eflexpwm/core"
)

const numValues = int(core.RegVal5) + 1

type submodule struct {
	setup     core.SubmoduleSetup
	buf       [numValues]uint16
	active    [numValues]uint16
	bufPrsc   core.Prescale
	prsc      core.Prescale
	sts       uint16
	inten     uint16
	octrl     uint16
	deadtime  [2]uint16
	dismap    [2]uint8
	reloadCnt uint8
	reloads   uint32
}

type module struct {
	ldok, run, mask, outen uint8
	forces                 uint32
	sm                     [core.NumSubmodules]submodule
	faults                 [core.NumFaults]core.FaultConfig
	faultSet               uint8 // faults that went through SetupFault
	fflag                  uint8
	finput                 uint8 // asserted fault inputs
	ffilt                  uint16
}

// FlexPWM models the four FlexPWM modules of the SoC.
type FlexPWM struct {
	mu       sync.Mutex
	clockHz  uint32
	mods     [core.NumTimers]module
	irq      [core.NumEvents]bool
	dispatch func(core.Event)
	initErr  map[[2]uint8]error

	reloads    atomic.Uint64 // reloads that loaded the buffered set
	dropped    atomic.Uint64 // buffered writes dropped because LDOK was set
	reloadErrs atomic.Uint64 // reloads that found written but uncommitted registers
}

// NewFlexPWM returns a model whose modules are clocked at clockHz. Every output
// starts masked-off and disabled, as after reset.
func NewFlexPWM(clockHz uint32) *FlexPWM {
	return &FlexPWM{clockHz: clockHz, initErr: make(map[[2]uint8]error)}
}

// SetDispatcher sets what raised interrupts are delivered to, normally
// core.Registry.Dispatch
func (p *FlexPWM) SetDispatcher(fn func(core.Event)) {
	p.mu.Lock()
	p.dispatch = fn
	p.mu.Unlock()
}

// FailInit makes InitSubmodule of tm/sm return err. A nil err clears it.
func (p *FlexPWM) FailInit(tm, sm uint8, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.initErr, [2]uint8{tm, sm})
		return
	}
	p.initErr[[2]uint8{tm, sm}] = err
}

func (p *FlexPWM) SourceClockHz() uint32 {
	return p.clockHz
}

func (p *FlexPWM) InitSubmodule(tm, sm uint8, setup core.SubmoduleSetup) error {
	if tm >= core.NumTimers || sm >= core.NumSubmodules {
		return errors.Wrapf(core.ErrNoSuchTimer, "pwm%d.sm%d", tm+1, sm)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.initErr[[2]uint8{tm, sm}]; err != nil {
		return err
	}
	m := &p.mods[tm]
	m.ldok &^= 1 << sm
	s := &m.sm[sm]
	s.setup = setup
	s.prsc = setup.Prescale
	s.bufPrsc = setup.Prescale
	s.reloadCnt = 0
	return nil
}

func (p *FlexPWM) WriteValue(tm, sm uint8, reg core.ValueRegister, v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	if m.ldok&(1<<sm) != 0 {
		p.dropped.Inc()
		return
	}
	s := &m.sm[sm]
	s.buf[reg] = v
	s.sts |= core.StatusRegUpdated
}

func (p *FlexPWM) SetPrescale(tm, sm uint8, ps core.Prescale) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	if m.ldok&(1<<sm) != 0 {
		p.dropped.Inc()
		return
	}
	m.sm[sm].bufPrsc = ps
	m.sm[sm].sts |= core.StatusRegUpdated
}

func (p *FlexPWM) Prescale(tm, sm uint8) core.Prescale {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].prsc
}

func (p *FlexPWM) SetDeadtime(tm, sm uint8, ch core.Channel, ticks uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]
	for i, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c != 0 {
			s.deadtime[i] = ticks & core.DeadtimeMax
		}
	}
}

func (p *FlexPWM) Deadtime(tm, sm uint8, ch core.Channel) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch == core.ChannelB {
		return p.mods[tm].sm[sm].deadtime[1]
	}
	return p.mods[tm].sm[sm].deadtime[0]
}

func (p *FlexPWM) SetOutputPolarity(tm, sm uint8, ch core.Channel, inverted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]
	for _, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c == 0 {
			continue
		}
		if inverted {
			s.octrl |= core.OCTRLPolarityBit(c)
		} else {
			s.octrl &^= core.OCTRLPolarityBit(c)
		}
	}
}

func (p *FlexPWM) SetOutputEnabled(tm, sm uint8, ch core.Channel, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	for _, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c == 0 {
			continue
		}
		bit := uint8(1) << (sm + chanShift(c))
		if enabled {
			m.outen |= bit
		} else {
			m.outen &^= bit
		}
	}
}

func (p *FlexPWM) SetFaultState(tm, sm uint8, ch core.Channel, state core.FaultState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]
	for _, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c != 0 {
			mask, bits := core.OCTRLFaultBits(c, state)
			s.octrl = s.octrl&^mask | bits
		}
	}
}

func (p *FlexPWM) SetFaultDisableMap(tm, sm uint8, ch core.Channel, faults uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]
	for i, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c != 0 {
			s.dismap[i] = faults
		}
	}
}

func (p *FlexPWM) SetOutputMask(tm, sm uint8, ch core.Channel, masked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	for _, c := range []core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c == 0 {
			continue
		}
		bit := uint8(1) << (sm + chanShift(c))
		if masked {
			m.mask |= bit
		} else {
			m.mask &^= bit
		}
	}
	m.forces++
}

func (p *FlexPWM) OutputMask(tm, sm uint8) core.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ch core.Channel
	m := p.mods[tm].mask
	if m&(1<<sm) != 0 {
		ch |= core.ChannelA
	}
	if m&(1<<(sm+4)) != 0 {
		ch |= core.ChannelB
	}
	return ch
}

// Forces returns the number of local force updates issued on tm
func (p *FlexPWM) Forces(tm uint8) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].forces
}

func (p *FlexPWM) SetLoadOK(tm, mask uint8, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	if !ok {
		m.ldok &^= mask
		return
	}
	m.ldok |= mask
	for sm := range m.sm {
		bit := uint8(1) << sm
		if mask&bit != 0 && m.sm[sm].setup.ReloadLogic == core.ReloadImmediate {
			p.load(m, sm)
		}
	}
}

func (p *FlexPWM) LoadOK(tm uint8) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].ldok
}

func (p *FlexPWM) SetRunning(tm, mask uint8, run bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	if !run {
		m.run &^= mask
		return
	}
	for sm := range m.sm {
		bit := uint8(1) << sm
		if mask&bit != 0 && m.run&bit == 0 && m.ldok&bit != 0 {
			p.load(m, sm)
		}
	}
	m.run |= mask
}

func (p *FlexPWM) Running(tm uint8) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].run
}

func (p *FlexPWM) StatusFlags(tm, sm uint8) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].sts
}

func (p *FlexPWM) ClearStatusFlags(tm, sm uint8, mask uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mods[tm].sm[sm].sts &^= mask & core.StatusAll
}

func (p *FlexPWM) SetInterrupts(tm, sm uint8, mask uint16, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]
	if enabled {
		s.inten |= mask
	} else {
		s.inten &^= mask
	}
}

func (p *FlexPWM) EnabledInterrupts(tm, sm uint8) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].inten
}

func (p *FlexPWM) SetupFault(tm, fault uint8, cfg core.FaultConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	m.faults[fault] = cfg
	m.faultSet |= 1 << fault
	m.ffilt = cfg.FFILT()
}

func (p *FlexPWM) FaultFlags(tm uint8) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].fflag
}

// ClearFaultFlags clears FFLAG bits. With safety clearing the flag stays set
// while the input is still asserted.
func (p *FlexPWM) ClearFaultFlags(tm, mask uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	for f := uint8(0); f < core.NumFaults; f++ {
		bit := uint8(1) << f
		if mask&bit == 0 {
			continue
		}
		if m.faults[f].ClearingMode == core.FaultClearManualSafety && m.finput&bit != 0 {
			continue
		}
		m.fflag &^= bit
	}
}

func (p *FlexPWM) EnableIRQ(ev core.Event) error {
	if ev >= core.NumEvents {
		return errors.Errorf("no interrupt line for event %d", ev)
	}
	p.mu.Lock()
	p.irq[ev] = true
	p.mu.Unlock()
	return nil
}

// IRQEnabled reports whether the line of ev was enabled
func (p *FlexPWM) IRQEnabled(ev core.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ev < core.NumEvents && p.irq[ev]
}

// load copies the buffered set to the active set. Called with p.mu held.
func (p *FlexPWM) load(m *module, sm int) {
	s := &m.sm[sm]
	s.active = s.buf
	s.prsc = s.bufPrsc
	s.sts &^= core.StatusRegUpdated
	s.reloads++
	m.ldok &^= 1 << sm
	p.reloads.Inc()
}

// Cycle runs one PWM period of every running submodule of tm: the half cycle
// reload point then the full cycle one. Raised interrupts are dispatched after
// each point with the model unlocked, so handlers can access it.
func (p *FlexPWM) Cycle(tm uint8) {
	p.reloadPoint(tm, true)
	p.reloadPoint(tm, false)
}

// Cycles runs n periods of tm
func (p *FlexPWM) Cycles(tm uint8, n int) {
	for i := 0; i < n; i++ {
		p.Cycle(tm)
	}
}

func (p *FlexPWM) reloadPoint(tm uint8, half bool) {
	var raised [core.NumSubmodules]bool

	p.mu.Lock()
	m := &p.mods[tm]
	for sm := range m.sm {
		bit := uint8(1) << sm
		s := &m.sm[sm]
		if m.run&bit == 0 || !reloadsAt(s.setup.ReloadLogic, half) {
			continue
		}
		s.reloadCnt++
		if s.reloadCnt < reloadEvery(s.setup) {
			continue
		}
		s.reloadCnt = 0
		s.sts |= core.StatusReload
		if m.ldok&bit != 0 {
			p.load(m, sm)
		} else if s.sts&core.StatusRegUpdated != 0 {
			s.sts |= core.StatusReloadError
			p.reloadErrs.Inc()
		}
		raised[sm] = s.inten&s.sts&(core.InterruptReload|core.InterruptReloadErr) != 0 &&
			p.irq[core.SubmoduleEvent(tm, uint8(sm))]
	}
	dispatch := p.dispatch
	p.mu.Unlock()

	if dispatch == nil {
		return
	}
	for sm, r := range raised {
		if r {
			dispatch(core.SubmoduleEvent(tm, uint8(sm)))
		}
	}
}

func reloadsAt(r core.ReloadLogic, half bool) bool {
	switch r {
	case core.ReloadHalfCycle:
		return half
	case core.ReloadFullCycle:
		return !half
	case core.ReloadHalfAndFullCycle:
		return true
	}
	return false
}

func reloadEvery(s core.SubmoduleSetup) uint8 {
	if s.ReloadFrequency == 0 {
		return 1
	}
	return s.ReloadFrequency
}

// SetFaultInput drives fault input fault of tm. An input matching the
// configured level sets FFLAG and raises the fault interrupt; releasing it
// clears FFLAG when the fault clears automatically.
func (p *FlexPWM) SetFaultInput(tm, fault uint8, high bool) {
	p.mu.Lock()
	m := &p.mods[tm]
	bit := uint8(1) << fault
	cfg := m.faults[fault]
	asserted := m.faultSet&bit != 0 && high == cfg.ActiveHigh
	raise := false
	if asserted {
		m.finput |= bit
		raise = m.fflag&bit == 0 && p.irq[core.FaultEvent(tm)]
		m.fflag |= bit
	} else {
		m.finput &^= bit
		if cfg.ClearingMode == core.FaultClearAutomatic {
			m.fflag &^= bit
		}
	}
	dispatch := p.dispatch
	p.mu.Unlock()

	if raise && dispatch != nil {
		dispatch(core.FaultEvent(tm))
	}
}

// OutputActive reports whether channel ch of tm/sm is driving its PWM signal:
// enabled, not masked and not held by a mapped fault.
func (p *FlexPWM) OutputActive(tm, sm uint8, ch core.Channel) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]
	bit := uint8(1) << (sm + chanShift(ch))
	i := 0
	if ch == core.ChannelB {
		i = 1
	}
	return m.outen&bit != 0 && m.mask&bit == 0 && m.fflag&m.sm[sm].dismap[i] == 0
}

// Active returns the value reg currently in use by the counter logic
func (p *FlexPWM) Active(tm, sm uint8, reg core.ValueRegister) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].active[reg]
}

// Buffered returns the value staged in reg
func (p *FlexPWM) Buffered(tm, sm uint8, reg core.ValueRegister) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].buf[reg]
}

// ActivePulse is the active high time of a channel in counter ticks
func (p *FlexPWM) ActivePulse(tm, sm uint8, ch core.Channel) uint16 {
	on, off := core.RegVal2, core.RegVal3
	if ch == core.ChannelB {
		on, off = core.RegVal4, core.RegVal5
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	a := &p.mods[tm].sm[sm].active
	return a[off] - a[on]
}

// SubmoduleReloads returns how many times tm/sm loaded its buffered set
func (p *FlexPWM) SubmoduleReloads(tm, sm uint8) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mods[tm].sm[sm].reloads
}

func (p *FlexPWM) Reloads() uint64       { return p.reloads.Load() }
func (p *FlexPWM) DroppedWrites() uint64 { return p.dropped.Load() }
func (p *FlexPWM) ReloadErrors() uint64  { return p.reloadErrs.Load() }

func chanShift(ch core.Channel) uint8 {
	if ch == core.ChannelB {
		return 4
	}
	return 0
}
