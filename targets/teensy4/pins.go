//go:build mimxrt1062

package main

import (
	"runtime/volatile"
	"unsafe"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

const (
	iomuxcMuxBase = 0x401F8014 // SW_MUX_CTL_PAD_GPIO_EMC_00
	iomuxcPadBase = 0x401F8204 // SW_PAD_CTL_PAD_GPIO_EMC_00

	// DSE 6, medium speed, fast slew
	padCtlPWM = 6<<3 | 2<<6 | 1
)

// pwmPad is a Teensy pin with its IOMUXC pad index (EMC_00 = 0, AD_B0_00 = 42,
// AD_B1_00 = 58, B0_00 = 74, B1_00 = 90)
type pwmPad struct {
	core.PinMapping
	pad uint8
}

var teensy41Pins = map[core.PWMPin]pwmPad{
	2:  {core.PinMapping{Timer: 3, Submodule: 2, Channel: core.ChannelA, Mux: 1}, 4},  // EMC_04
	3:  {core.PinMapping{Timer: 3, Submodule: 2, Channel: core.ChannelB, Mux: 1}, 5},  // EMC_05
	4:  {core.PinMapping{Timer: 1, Submodule: 0, Channel: core.ChannelA, Mux: 1}, 6},  // EMC_06
	5:  {core.PinMapping{Timer: 1, Submodule: 1, Channel: core.ChannelA, Mux: 1}, 8},  // EMC_08
	6:  {core.PinMapping{Timer: 1, Submodule: 2, Channel: core.ChannelA, Mux: 2}, 84}, // B0_10
	7:  {core.PinMapping{Timer: 0, Submodule: 3, Channel: core.ChannelB, Mux: 6}, 91}, // B1_01
	8:  {core.PinMapping{Timer: 0, Submodule: 3, Channel: core.ChannelA, Mux: 6}, 90}, // B1_00
	9:  {core.PinMapping{Timer: 1, Submodule: 2, Channel: core.ChannelB, Mux: 2}, 85}, // B0_11
	22: {core.PinMapping{Timer: 3, Submodule: 0, Channel: core.ChannelA, Mux: 1}, 66}, // AD_B1_08
	23: {core.PinMapping{Timer: 3, Submodule: 1, Channel: core.ChannelA, Mux: 1}, 67}, // AD_B1_09
	28: {core.PinMapping{Timer: 2, Submodule: 1, Channel: core.ChannelB, Mux: 1}, 32}, // EMC_32
	29: {core.PinMapping{Timer: 2, Submodule: 1, Channel: core.ChannelA, Mux: 1}, 31}, // EMC_31
	33: {core.PinMapping{Timer: 1, Submodule: 0, Channel: core.ChannelB, Mux: 1}, 7},  // EMC_07
	36: {core.PinMapping{Timer: 1, Submodule: 3, Channel: core.ChannelA, Mux: 6}, 92}, // B1_02
	37: {core.PinMapping{Timer: 1, Submodule: 3, Channel: core.ChannelB, Mux: 6}, 93}, // B1_03
}

// RT1062Pins muxes Teensy 4.1 pins to their FlexPWM outputs
type RT1062Pins struct{}

func (RT1062Pins) LookupPin(pin core.PWMPin) (core.PinMapping, bool) {
	p, ok := teensy41Pins[pin]
	return p.PinMapping, ok
}

func (RT1062Pins) ConfigurePin(pin core.PWMPin) error {
	p, ok := teensy41Pins[pin]
	if !ok {
		return errors.Wrapf(core.ErrInvalidPin, "pin %d", pin)
	}
	pad := uintptr(p.pad) * 4
	(*volatile.Register32)(unsafe.Pointer(iomuxcPadBase + pad)).Set(padCtlPWM)
	(*volatile.Register32)(unsafe.Pointer(iomuxcMuxBase + pad)).Set(uint32(p.Mux))
	return nil
}
