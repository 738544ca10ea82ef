//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// enterCritical masks interrupts so task list, handler table and timing ring
// updates cannot be torn by an ISR. Pair with exitCritical.
func enterCritical() irqState {
	return interrupt.Disable()
}

func exitCritical(s irqState) {
	interrupt.Restore(s)
}
