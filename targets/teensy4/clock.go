//go:build mimxrt1062

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"eflexpwm/core"
)

// IPGClockHz is the IPG bus clock with the core at 600 MHz. It clocks the
// FlexPWM modules.
const IPGClockHz = 150000000

const (
	ccmBase  = 0x400FC000
	ccmCCGR2 = ccmBase + 0x70
	ccmCCGR4 = ccmBase + 0x78

	ccgrOn = 0x3
)

var boot time.Time

// InitClock gates on FlexPWM1..4 (CCGR4 CG8..CG11) and XBAR1 (CCGR2 CG11)
func InitClock() {
	ccgr4 := (*volatile.Register32)(unsafe.Pointer(uintptr(ccmCCGR4)))
	for cg := uint8(8); cg <= 11; cg++ {
		ccgr4.ReplaceBits(ccgrOn, 0x3, 2*cg)
	}
	ccgr2 := (*volatile.Register32)(unsafe.Pointer(uintptr(ccmCCGR2)))
	ccgr2.ReplaceBits(ccgrOn, 0x3, 2*11)

	boot = time.Now()
	UpdateSystemTime()
}

// UpdateSystemTime feeds the microsecond tick counter to the core. The
// counter wraps every 71 minutes; the scheduler tolerates that.
func UpdateSystemTime() {
	core.SetNow(uint32(time.Since(boot) / time.Microsecond))
}
