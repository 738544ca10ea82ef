//go:build mimxrt1062

package main

import (
	"device/arm"
	"runtime/interrupt"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

// i.MX RT1062 vector numbers of the FlexPWM lines, in core.Event order
const (
	irqPWM1_0     = 102
	irqPWM1_1     = 103
	irqPWM1_2     = 104
	irqPWM1_3     = 105
	irqPWM1_FAULT = 106
	irqPWM2_0     = 137
	irqPWM2_1     = 138
	irqPWM2_2     = 139
	irqPWM2_3     = 140
	irqPWM2_FAULT = 141
	irqPWM3_0     = 142
	irqPWM3_1     = 143
	irqPWM3_2     = 144
	irqPWM3_3     = 145
	irqPWM3_FAULT = 146
	irqPWM4_0     = 147
	irqPWM4_1     = 148
	irqPWM4_2     = 149
	irqPWM4_3     = 150
	irqPWM4_FAULT = 151
)

const pwmIRQPriority = 0x20

// pwmIRQs are indexed by core.Event
var pwmIRQs = [core.NumEvents]interrupt.Interrupt{
	interrupt.New(irqPWM1_0, func(interrupt.Interrupt) { dispatch(0) }),
	interrupt.New(irqPWM1_1, func(interrupt.Interrupt) { dispatch(1) }),
	interrupt.New(irqPWM1_2, func(interrupt.Interrupt) { dispatch(2) }),
	interrupt.New(irqPWM1_3, func(interrupt.Interrupt) { dispatch(3) }),
	interrupt.New(irqPWM1_FAULT, func(interrupt.Interrupt) { dispatch(4) }),
	interrupt.New(irqPWM2_0, func(interrupt.Interrupt) { dispatch(5) }),
	interrupt.New(irqPWM2_1, func(interrupt.Interrupt) { dispatch(6) }),
	interrupt.New(irqPWM2_2, func(interrupt.Interrupt) { dispatch(7) }),
	interrupt.New(irqPWM2_3, func(interrupt.Interrupt) { dispatch(8) }),
	interrupt.New(irqPWM2_FAULT, func(interrupt.Interrupt) { dispatch(9) }),
	interrupt.New(irqPWM3_0, func(interrupt.Interrupt) { dispatch(10) }),
	interrupt.New(irqPWM3_1, func(interrupt.Interrupt) { dispatch(11) }),
	interrupt.New(irqPWM3_2, func(interrupt.Interrupt) { dispatch(12) }),
	interrupt.New(irqPWM3_3, func(interrupt.Interrupt) { dispatch(13) }),
	interrupt.New(irqPWM3_FAULT, func(interrupt.Interrupt) { dispatch(14) }),
	interrupt.New(irqPWM4_0, func(interrupt.Interrupt) { dispatch(15) }),
	interrupt.New(irqPWM4_1, func(interrupt.Interrupt) { dispatch(16) }),
	interrupt.New(irqPWM4_2, func(interrupt.Interrupt) { dispatch(17) }),
	interrupt.New(irqPWM4_3, func(interrupt.Interrupt) { dispatch(18) }),
	interrupt.New(irqPWM4_FAULT, func(interrupt.Interrupt) { dispatch(19) }),
}

// registry is set before any line is enabled
var registry *core.Registry

func dispatch(ev core.Event) {
	if registry != nil {
		registry.Dispatch(ev)
	}
	// flag clears must land before the exception returns
	arm.Asm("dsb")
}

func enableEventIRQ(ev core.Event) error {
	if ev >= core.NumEvents {
		return errors.Errorf("no interrupt line for event %d", ev)
	}
	pwmIRQs[ev].SetPriority(pwmIRQPriority)
	pwmIRQs[ev].Enable()
	return nil
}
