package sim

import (
	"sync"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

// XBar input and output counts of XBARA1
const (
	XBarInputs  = 88
	XBarOutputs = 132
)

// XBar records cross-bar connections.
type XBar struct {
	mu     sync.Mutex
	routes map[core.XBarOutput]core.XBarInput
}

func NewXBar() *XBar {
	return &XBar{routes: make(map[core.XBarOutput]core.XBarInput)}
}

func (x *XBar) Connect(input core.XBarInput, output core.XBarOutput) error {
	if input >= XBarInputs || output >= XBarOutputs {
		return errors.Errorf("xbar %d -> %d out of range", input, output)
	}
	x.mu.Lock()
	x.routes[output] = input
	x.mu.Unlock()
	return nil
}

// Route returns the input connected to output
func (x *XBar) Route(output core.XBarOutput) (core.XBarInput, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	in, ok := x.routes[output]
	return in, ok
}
