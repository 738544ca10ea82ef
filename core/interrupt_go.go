//go:build !tinygo

package core

type irqState uintptr

// enterCritical is a no-op on regular Go. Host code that shares state with a
// simulated interrupt uses atomics instead.
func enterCritical() irqState {
	return 0
}

func exitCritical(irqState) {}
