//go:build mimxrt1062

package main

import (
	"runtime/volatile"
	"unsafe"

	"eflexpwm/core"
)

// FlexPWM1..4 register blocks
var flexpwmBase = [core.NumTimers]uintptr{
	0x403DC000,
	0x403E0000,
	0x403E4000,
	0x403E8000,
}

func reg16(addr uintptr) *volatile.Register16 {
	return (*volatile.Register16)(unsafe.Pointer(addr))
}

// RT1062FlexPWM programs the FlexPWM register blocks directly
type RT1062FlexPWM struct {
	clockHz uint32
}

func NewRT1062FlexPWM(clockHz uint32) *RT1062FlexPWM {
	return &RT1062FlexPWM{clockHz: clockHz}
}

func (p *RT1062FlexPWM) sm(tm, sm uint8, off uintptr) *volatile.Register16 {
	return reg16(flexpwmBase[tm] + uintptr(sm)*core.PWM_SM_STRIDE + off)
}

func (p *RT1062FlexPWM) mod(tm uint8, off uintptr) *volatile.Register16 {
	return reg16(flexpwmBase[tm] + off)
}

func (p *RT1062FlexPWM) SourceClockHz() uint32 {
	return p.clockHz
}

func (p *RT1062FlexPWM) InitSubmodule(tm, sm uint8, setup core.SubmoduleSetup) error {
	bit := uint16(1) << sm
	p.SetLoadOK(tm, uint8(bit), false)

	p.sm(tm, sm, core.PWM_SM_CTRL2).Set(setup.CTRL2())
	p.sm(tm, sm, core.PWM_SM_CTRL).Set(setup.CTRL())

	mctrl := p.mod(tm, core.PWM_MCTRL)
	v := mctrl.Get() &^ 0xFF
	if setup.IPOL() {
		v |= bit << core.PWM_MCTRL_IPOL_POS
	} else {
		v &^= bit << core.PWM_MCTRL_IPOL_POS
	}
	mctrl.Set(v)

	// outputs come from the PWM generator, not deadtime or external sources
	p.mod(tm, core.PWM_DTSRCSEL).ClearBits(0xF << (4 * uint16(sm)))

	p.sm(tm, sm, core.PWM_SM_OCTRL).Set(0)
	p.sm(tm, sm, core.PWM_SM_DISMAP0).Set(0)
	p.sm(tm, sm, core.PWM_SM_INTEN).Set(0)
	p.sm(tm, sm, core.PWM_SM_STS).Set(core.StatusAll)
	return nil
}

func (p *RT1062FlexPWM) WriteValue(tm, sm uint8, reg core.ValueRegister, v uint16) {
	p.sm(tm, sm, core.ValueOffset(reg)).Set(v)
}

func (p *RT1062FlexPWM) SetPrescale(tm, sm uint8, ps core.Prescale) {
	p.sm(tm, sm, core.PWM_SM_CTRL).ReplaceBits(uint16(ps), 0x7, core.PWM_CTRL_PRSC_POS)
}

func (p *RT1062FlexPWM) SetDeadtime(tm, sm uint8, ch core.Channel, ticks uint16) {
	if ch&core.ChannelA != 0 {
		p.sm(tm, sm, core.PWM_SM_DTCNT0).Set(ticks & core.DeadtimeMax)
	}
	if ch&core.ChannelB != 0 {
		p.sm(tm, sm, core.PWM_SM_DTCNT1).Set(ticks & core.DeadtimeMax)
	}
}

func (p *RT1062FlexPWM) SetOutputPolarity(tm, sm uint8, ch core.Channel, inverted bool) {
	octrl := p.sm(tm, sm, core.PWM_SM_OCTRL)
	for _, c := range [...]core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c == 0 {
			continue
		}
		if inverted {
			octrl.SetBits(core.OCTRLPolarityBit(c))
		} else {
			octrl.ClearBits(core.OCTRLPolarityBit(c))
		}
	}
}

// channelBits returns the MASK/OUTEN bits of the channels in ch
func channelBits(sm uint8, ch core.Channel) uint16 {
	var v uint16
	if ch&core.ChannelA != 0 {
		v |= 1 << (core.ChannelNibble(core.ChannelA) + uint16(sm))
	}
	if ch&core.ChannelB != 0 {
		v |= 1 << (core.ChannelNibble(core.ChannelB) + uint16(sm))
	}
	return v
}

func (p *RT1062FlexPWM) SetOutputEnabled(tm, sm uint8, ch core.Channel, enabled bool) {
	if enabled {
		p.mod(tm, core.PWM_OUTEN).SetBits(channelBits(sm, ch))
	} else {
		p.mod(tm, core.PWM_OUTEN).ClearBits(channelBits(sm, ch))
	}
}

func (p *RT1062FlexPWM) SetFaultState(tm, sm uint8, ch core.Channel, state core.FaultState) {
	octrl := p.sm(tm, sm, core.PWM_SM_OCTRL)
	for _, c := range [...]core.Channel{core.ChannelA, core.ChannelB} {
		if ch&c != 0 {
			mask, bits := core.OCTRLFaultBits(c, state)
			octrl.Set(octrl.Get()&^mask | bits)
		}
	}
}

// DISMAP0 holds DIS0A in bits 0..3 and DIS0B in bits 4..7
func (p *RT1062FlexPWM) SetFaultDisableMap(tm, sm uint8, ch core.Channel, faults uint8) {
	dismap := p.sm(tm, sm, core.PWM_SM_DISMAP0)
	if ch&core.ChannelA != 0 {
		dismap.ReplaceBits(uint16(faults), 0xF, 0)
	}
	if ch&core.ChannelB != 0 {
		dismap.ReplaceBits(uint16(faults), 0xF, 4)
	}
}

func (p *RT1062FlexPWM) SetOutputMask(tm, sm uint8, ch core.Channel, masked bool) {
	mask := p.mod(tm, core.PWM_MASK)
	if masked {
		mask.SetBits(channelBits(sm, ch))
	} else {
		mask.ClearBits(channelBits(sm, ch))
	}
	// UPDATE_MASK applies the mask without waiting for a force event
	mask.SetBits(1 << (core.PWM_MASK_UPDATE_POS + uint16(sm)))
}

func (p *RT1062FlexPWM) OutputMask(tm, sm uint8) core.Channel {
	v := p.mod(tm, core.PWM_MASK).Get()
	var ch core.Channel
	if v&(1<<(core.PWM_MASK_A_POS+uint16(sm))) != 0 {
		ch |= core.ChannelA
	}
	if v&(1<<(core.PWM_MASK_B_POS+uint16(sm))) != 0 {
		ch |= core.ChannelB
	}
	return ch
}

// SetLoadOK writes LDOK or CLDOK. Both fields read back as the current LDOK
// bits, so they are cleared from the read value before writing.
func (p *RT1062FlexPWM) SetLoadOK(tm, mask uint8, ok bool) {
	mctrl := p.mod(tm, core.PWM_MCTRL)
	v := mctrl.Get() &^ 0xFF
	if ok {
		v |= uint16(mask&0xF) << core.PWM_MCTRL_LDOK_POS
	} else {
		v |= uint16(mask&0xF) << core.PWM_MCTRL_CLDOK_POS
	}
	mctrl.Set(v)
}

func (p *RT1062FlexPWM) LoadOK(tm uint8) uint8 {
	return uint8(p.mod(tm, core.PWM_MCTRL).Get()>>core.PWM_MCTRL_LDOK_POS) & 0xF
}

func (p *RT1062FlexPWM) SetRunning(tm, mask uint8, run bool) {
	mctrl := p.mod(tm, core.PWM_MCTRL)
	v := mctrl.Get() &^ 0xFF
	if run {
		v |= uint16(mask&0xF) << core.PWM_MCTRL_RUN_POS
	} else {
		v &^= uint16(mask&0xF) << core.PWM_MCTRL_RUN_POS
	}
	mctrl.Set(v)
}

func (p *RT1062FlexPWM) Running(tm uint8) uint8 {
	return uint8(p.mod(tm, core.PWM_MCTRL).Get()>>core.PWM_MCTRL_RUN_POS) & 0xF
}

func (p *RT1062FlexPWM) StatusFlags(tm, sm uint8) uint16 {
	return p.sm(tm, sm, core.PWM_SM_STS).Get()
}

// ClearStatusFlags writes ones to clear
func (p *RT1062FlexPWM) ClearStatusFlags(tm, sm uint8, mask uint16) {
	p.sm(tm, sm, core.PWM_SM_STS).Set(mask & core.StatusAll)
}

func (p *RT1062FlexPWM) SetInterrupts(tm, sm uint8, mask uint16, enabled bool) {
	if enabled {
		p.sm(tm, sm, core.PWM_SM_INTEN).SetBits(mask)
	} else {
		p.sm(tm, sm, core.PWM_SM_INTEN).ClearBits(mask)
	}
}

func (p *RT1062FlexPWM) EnabledInterrupts(tm, sm uint8) uint16 {
	return p.sm(tm, sm, core.PWM_SM_INTEN).Get()
}

// fstsConfig are the read/write FSTS fields; FFLAG is write-one-to-clear
const fstsConfig = 0xF<<core.PWM_FSTS_FFULL_POS | 0xF<<core.PWM_FSTS_FHALF_POS

func (p *RT1062FlexPWM) SetupFault(tm, fault uint8, cfg core.FaultConfig) {
	bit := uint16(1) << fault

	fctrl := p.mod(tm, core.PWM_FCTRL)
	fields := bit<<core.PWM_FCTRL_FIE_POS | bit<<core.PWM_FCTRL_FSAFE_POS |
		bit<<core.PWM_FCTRL_FAUTO_POS | bit<<core.PWM_FCTRL_FLVL_POS
	fctrl.Set(fctrl.Get()&^fields | cfg.FCTRLBits(fault))

	fsts := p.mod(tm, core.PWM_FSTS)
	recovery := bit<<core.PWM_FSTS_FFULL_POS | bit<<core.PWM_FSTS_FHALF_POS
	fsts.Set(fsts.Get()&fstsConfig&^recovery | cfg.FSTSRecoveryBits(fault))

	p.mod(tm, core.PWM_FFILT).Set(cfg.FFILT())

	fctrl2 := p.mod(tm, core.PWM_FCTRL2)
	if cfg.CombinationalPath {
		fctrl2.ClearBits(bit << core.PWM_FCTRL2_NOCOMB_POS)
	} else {
		fctrl2.SetBits(bit << core.PWM_FCTRL2_NOCOMB_POS)
	}
}

func (p *RT1062FlexPWM) FaultFlags(tm uint8) uint8 {
	return uint8(p.mod(tm, core.PWM_FSTS).Get()>>core.PWM_FSTS_FFLAG_POS) & 0xF
}

func (p *RT1062FlexPWM) ClearFaultFlags(tm, mask uint8) {
	fsts := p.mod(tm, core.PWM_FSTS)
	fsts.Set(fsts.Get()&fstsConfig | uint16(mask&0xF)<<core.PWM_FSTS_FFLAG_POS)
}

func (p *RT1062FlexPWM) EnableIRQ(ev core.Event) error {
	return enableEventIRQ(ev)
}

func (p *RT1062FlexPWM) ModuleRegisters(tm uint8) []core.RegisterValue {
	return []core.RegisterValue{
		{Name: "OUTEN", Value: p.mod(tm, core.PWM_OUTEN).Get()},
		{Name: "MASK", Value: p.mod(tm, core.PWM_MASK).Get()},
		{Name: "MCTRL", Value: p.mod(tm, core.PWM_MCTRL).Get()},
		{Name: "FCTRL", Value: p.mod(tm, core.PWM_FCTRL).Get()},
		{Name: "FSTS", Value: p.mod(tm, core.PWM_FSTS).Get()},
		{Name: "FFILT", Value: p.mod(tm, core.PWM_FFILT).Get()},
	}
}

func (p *RT1062FlexPWM) SubmoduleRegisters(tm, sm uint8) []core.RegisterValue {
	regs := []core.RegisterValue{
		{Name: "CTRL2", Value: p.sm(tm, sm, core.PWM_SM_CTRL2).Get()},
		{Name: "CTRL", Value: p.sm(tm, sm, core.PWM_SM_CTRL).Get()},
	}
	for r := core.RegInit; r <= core.RegVal5; r++ {
		regs = append(regs, core.RegisterValue{Name: core.ValueName(r), Value: p.sm(tm, sm, core.ValueOffset(r)).Get()})
	}
	return append(regs,
		core.RegisterValue{Name: "OCTRL", Value: p.sm(tm, sm, core.PWM_SM_OCTRL).Get()},
		core.RegisterValue{Name: "STS", Value: p.sm(tm, sm, core.PWM_SM_STS).Get()},
		core.RegisterValue{Name: "INTEN", Value: p.sm(tm, sm, core.PWM_SM_INTEN).Get()},
		core.RegisterValue{Name: "DISMAP0", Value: p.sm(tm, sm, core.PWM_SM_DISMAP0).Get()},
		core.RegisterValue{Name: "DTCNT0", Value: p.sm(tm, sm, core.PWM_SM_DTCNT0).Get()},
		core.RegisterValue{Name: "DTCNT1", Value: p.sm(tm, sm, core.PWM_SM_DTCNT1).Get()},
	)
}
