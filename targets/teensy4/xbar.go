//go:build mimxrt1062

package main

import (
	"github.com/pkg/errors"

	"eflexpwm/core"
)

const (
	xbara1Base     = 0x403BC000
	xbarNumInputs  = 88
	xbarNumOutputs = 132
)

// RT1062XBar programs XBARA1. Each SELn register selects the inputs of two
// outputs, the even one in bits 0..6 and the odd one in bits 8..14.
type RT1062XBar struct{}

func (RT1062XBar) Connect(input core.XBarInput, output core.XBarOutput) error {
	if input >= xbarNumInputs || output >= xbarNumOutputs {
		return errors.Errorf("xbar input %d or output %d out of range", input, output)
	}
	sel := reg16(xbara1Base + 2*uintptr(output/2))
	sel.ReplaceBits(uint16(input), 0x7F, uint8(8*(output%2)))
	return nil
}
