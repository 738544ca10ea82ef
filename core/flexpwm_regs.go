package core

// FlexPWM register definitions
// Based on the i.MX RT1060 Processor Reference Manual, Rev. 3, chapter 55

// Submodule register offsets (16-bit registers, submodule stride 0x60)
const (
	PWM_SM_STRIDE = 0x60

	PWM_SM_CNT      = 0x00 // Counter (read only)
	PWM_SM_INIT     = 0x02 // Initial count, buffered
	PWM_SM_CTRL2    = 0x04 // Control 2
	PWM_SM_CTRL     = 0x06 // Control, PRSC buffered
	PWM_SM_VAL0     = 0x0A // Value 0 (half cycle), buffered
	PWM_SM_VAL1     = 0x0E // Value 1 (modulo), buffered
	PWM_SM_VAL2     = 0x12 // Value 2 (A on), buffered
	PWM_SM_VAL3     = 0x16 // Value 3 (A off), buffered
	PWM_SM_VAL4     = 0x1A // Value 4 (B on), buffered
	PWM_SM_VAL5     = 0x1E // Value 5 (B off), buffered
	PWM_SM_OCTRL    = 0x22 // Output control
	PWM_SM_STS      = 0x24 // Status, write one to clear
	PWM_SM_INTEN    = 0x26 // Interrupt enable
	PWM_SM_DISMAP0  = 0x2C // Fault disable mapping 0
	PWM_SM_DTCNT0   = 0x30 // Dead time count 0 (A)
	PWM_SM_DTCNT1   = 0x32 // Dead time count 1 (B)
	PWM_SM_PHASEDLY = 0x58 // Phase delay
)

// Module register offsets
const (
	PWM_OUTEN    = 0x180 // Output enable
	PWM_MASK     = 0x182 // Mask
	PWM_SWCOUT   = 0x184 // Software controlled output
	PWM_DTSRCSEL = 0x186 // Source select
	PWM_MCTRL    = 0x188 // Master control
	PWM_MCTRL2   = 0x18A // Master control 2
	PWM_FCTRL    = 0x18C // Fault control
	PWM_FSTS     = 0x18E // Fault status
	PWM_FFILT    = 0x190 // Fault filter
	PWM_FTST     = 0x192 // Fault test
	PWM_FCTRL2   = 0x194 // Fault control 2
)

// CTRL fields
const (
	PWM_CTRL_DBLEN     = 1 << 0
	PWM_CTRL_LDMOD     = 1 << 2 // load immediately when LDOK is set
	PWM_CTRL_PRSC_POS  = 4
	PWM_CTRL_PRSC_MASK = 0x7 << PWM_CTRL_PRSC_POS
	PWM_CTRL_FULL      = 1 << 10 // reload at VAL1 match
	PWM_CTRL_HALF      = 1 << 11 // reload at VAL0 match
	PWM_CTRL_LDFQ_POS  = 12
	PWM_CTRL_LDFQ_MASK = 0xF << PWM_CTRL_LDFQ_POS
)

// CTRL2 fields
const (
	PWM_CTRL2_CLK_SEL_POS    = 0
	PWM_CTRL2_RELOAD_SEL     = 1 << 2
	PWM_CTRL2_FORCE_SEL_POS  = 3
	PWM_CTRL2_FORCE_SEL_MASK = 0x7 << PWM_CTRL2_FORCE_SEL_POS
	PWM_CTRL2_FORCE          = 1 << 6
	PWM_CTRL2_INIT_SEL_POS   = 8
	PWM_CTRL2_INDEP          = 1 << 13
	PWM_CTRL2_WAITEN         = 1 << 14
	PWM_CTRL2_DBGEN          = 1 << 15
)

// OCTRL fields
const (
	PWM_OCTRL_BFS_POS = 2
	PWM_OCTRL_AFS_POS = 4
	PWM_OCTRL_POLB    = 1 << 9
	PWM_OCTRL_POLA    = 1 << 10
)

// MCTRL fields, one bit per submodule in each nibble
const (
	PWM_MCTRL_LDOK_POS  = 0
	PWM_MCTRL_CLDOK_POS = 4
	PWM_MCTRL_RUN_POS   = 8
	PWM_MCTRL_IPOL_POS  = 12
)

// MASK and OUTEN fields, one bit per submodule in each nibble
const (
	PWM_MASK_B_POS      = 4
	PWM_MASK_A_POS      = 8
	PWM_MASK_UPDATE_POS = 12
	PWM_OUTEN_B_POS     = 4
	PWM_OUTEN_A_POS     = 8
)

// FCTRL, FSTS, FFILT and FCTRL2 fields, one bit per fault in each nibble
const (
	PWM_FCTRL_FIE_POS     = 0
	PWM_FCTRL_FSAFE_POS   = 4
	PWM_FCTRL_FAUTO_POS   = 8
	PWM_FCTRL_FLVL_POS    = 12
	PWM_FSTS_FFLAG_POS    = 0
	PWM_FSTS_FFULL_POS    = 4
	PWM_FSTS_FFPIN_POS    = 8
	PWM_FSTS_FHALF_POS    = 12
	PWM_FFILT_PER_POS     = 0
	PWM_FFILT_CNT_POS     = 8
	PWM_FFILT_GSTR        = 1 << 15
	PWM_FCTRL2_NOCOMB_POS = 0
)

// ValueOffset returns the register offset of a buffered value register
func ValueOffset(reg ValueRegister) uintptr {
	if reg == RegInit {
		return PWM_SM_INIT
	}
	return PWM_SM_VAL0 + 4*uintptr(reg-RegVal0)
}

// ValueName is the register name of reg, as in the reference manual
func ValueName(reg ValueRegister) string {
	if reg == RegInit {
		return "INIT"
	}
	return "VAL" + utoa(uint32(reg-RegVal0))
}

// CTRL returns the CTRL register value for the setup
func (s SubmoduleSetup) CTRL() uint16 {
	v := uint16(s.Prescale) << PWM_CTRL_PRSC_POS
	switch s.ReloadLogic {
	case ReloadImmediate:
		v |= PWM_CTRL_LDMOD
	case ReloadHalfCycle:
		v |= PWM_CTRL_HALF
	case ReloadFullCycle:
		v |= PWM_CTRL_FULL
	case ReloadHalfAndFullCycle:
		v |= PWM_CTRL_HALF | PWM_CTRL_FULL
	}
	if s.ReloadFrequency > 0 {
		v |= uint16(s.ReloadFrequency-1) << PWM_CTRL_LDFQ_POS
	}
	return v
}

// CTRL2 returns the CTRL2 register value for the setup
func (s SubmoduleSetup) CTRL2() uint16 {
	v := uint16(s.ClockSource)<<PWM_CTRL2_CLK_SEL_POS |
		uint16(s.ForceTrigger)<<PWM_CTRL2_FORCE_SEL_POS |
		uint16(s.InitControl)<<PWM_CTRL2_INIT_SEL_POS
	if s.ReloadSelect == ReloadMaster {
		v |= PWM_CTRL2_RELOAD_SEL
	}
	if s.PairOperation == Independent {
		v |= PWM_CTRL2_INDEP
	}
	if s.EnableWait {
		v |= PWM_CTRL2_WAITEN
	}
	if s.EnableDebugMode {
		v |= PWM_CTRL2_DBGEN
	}
	return v
}

// IPOL reports whether the submodule's MCTRL IPOL bit is set, making B the
// channel that drives a complementary pair.
func (s SubmoduleSetup) IPOL() bool {
	return s.PairOperation == ComplementaryPwmB
}

// FCTRLBits returns the FCTRL bits of fault input fault for the config. FIE is
// always set; the interrupt reaches the CPU once its line is enabled.
func (f FaultConfig) FCTRLBits(fault uint8) uint16 {
	bit := uint16(1) << fault
	v := bit << PWM_FCTRL_FIE_POS
	switch f.ClearingMode {
	case FaultClearAutomatic:
		v |= bit << PWM_FCTRL_FAUTO_POS
	case FaultClearManualSafety:
		v |= bit << PWM_FCTRL_FSAFE_POS
	}
	if f.ActiveHigh {
		v |= bit << PWM_FCTRL_FLVL_POS
	}
	return v
}

// FSTSRecoveryBits returns the FFULL/FHALF bits of fault input fault
func (f FaultConfig) FSTSRecoveryBits(fault uint8) uint16 {
	bit := uint16(1) << fault
	var v uint16
	if f.RecoverMode == FaultRecoverFullCycle || f.RecoverMode == FaultRecoverHalfAndFullCycle {
		v |= bit << PWM_FSTS_FFULL_POS
	}
	if f.RecoverMode == FaultRecoverHalfCycle || f.RecoverMode == FaultRecoverHalfAndFullCycle {
		v |= bit << PWM_FSTS_FHALF_POS
	}
	return v
}

// FFILT returns the module fault filter register value
func (f FaultConfig) FFILT() uint16 {
	v := uint16(f.FilterPeriod)<<PWM_FFILT_PER_POS | uint16(f.FilterCount&7)<<PWM_FFILT_CNT_POS
	if f.GlitchStretch {
		v |= PWM_FFILT_GSTR
	}
	return v
}

// OCTRLFaultBits returns the OCTRL fault-state bits for one channel
func OCTRLFaultBits(ch Channel, state FaultState) (mask, bits uint16) {
	pos := uint16(PWM_OCTRL_AFS_POS)
	if ch == ChannelB {
		pos = PWM_OCTRL_BFS_POS
	}
	return 0x3 << pos, uint16(state) << pos
}

// OCTRLPolarityBit returns the POLA or POLB bit
func OCTRLPolarityBit(ch Channel) uint16 {
	if ch == ChannelB {
		return PWM_OCTRL_POLB
	}
	return PWM_OCTRL_POLA
}

// ChannelNibble returns the position of a channel's nibble in MASK/OUTEN
func ChannelNibble(ch Channel) uint16 {
	if ch == ChannelB {
		return PWM_MASK_B_POS
	}
	return PWM_MASK_A_POS
}
