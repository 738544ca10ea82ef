package sim

import "eflexpwm/core"

// ModuleRegisters encodes the module registers the way the hardware lays them
// out, so dumps from the model and from a board read the same.
func (p *FlexPWM) ModuleRegisters(tm uint8) []core.RegisterValue {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &p.mods[tm]

	var ipol, fctrl, fsts uint16
	for sm := range m.sm {
		if m.sm[sm].setup.IPOL() {
			ipol |= 1 << sm
		}
	}
	for f := uint8(0); f < core.NumFaults; f++ {
		if m.faultSet&(1<<f) != 0 {
			fctrl |= m.faults[f].FCTRLBits(f)
			fsts |= m.faults[f].FSTSRecoveryBits(f)
		}
	}
	fsts |= uint16(m.fflag)<<core.PWM_FSTS_FFLAG_POS | uint16(m.finput)<<core.PWM_FSTS_FFPIN_POS

	return []core.RegisterValue{
		{Name: "OUTEN", Value: nibbles(m.outen, core.PWM_OUTEN_A_POS, core.PWM_OUTEN_B_POS)},
		{Name: "MASK", Value: nibbles(m.mask, core.PWM_MASK_A_POS, core.PWM_MASK_B_POS)},
		{Name: "MCTRL", Value: uint16(m.ldok)<<core.PWM_MCTRL_LDOK_POS |
			uint16(m.run)<<core.PWM_MCTRL_RUN_POS | ipol<<core.PWM_MCTRL_IPOL_POS},
		{Name: "FCTRL", Value: fctrl},
		{Name: "FSTS", Value: fsts},
		{Name: "FFILT", Value: m.ffilt},
	}
}

// SubmoduleRegisters encodes the registers of one submodule. Value registers
// show the active set.
func (p *FlexPWM) SubmoduleRegisters(tm, sm uint8) []core.RegisterValue {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.mods[tm].sm[sm]

	setup := s.setup
	setup.Prescale = s.prsc
	regs := []core.RegisterValue{
		{Name: "CTRL2", Value: setup.CTRL2()},
		{Name: "CTRL", Value: setup.CTRL()},
	}
	for r := core.RegInit; r <= core.RegVal5; r++ {
		regs = append(regs, core.RegisterValue{Name: core.ValueName(r), Value: s.active[r]})
	}
	return append(regs,
		core.RegisterValue{Name: "OCTRL", Value: s.octrl},
		core.RegisterValue{Name: "STS", Value: s.sts},
		core.RegisterValue{Name: "INTEN", Value: s.inten},
		core.RegisterValue{Name: "DISMAP0", Value: uint16(s.dismap[0]) | uint16(s.dismap[1])<<4 | 0xFF00},
		core.RegisterValue{Name: "DTCNT0", Value: s.deadtime[0]},
		core.RegisterValue{Name: "DTCNT1", Value: s.deadtime[1]},
	)
}

// nibbles spreads the model's A (bits 0..3) and B (bits 4..7) masks to their
// register positions
func nibbles(v uint8, aPos, bPos uint16) uint16 {
	return uint16(v&0x0F)<<aPos | uint16(v>>4)<<bPos
}
