package spwm

import (
	"math"

	"go.uber.org/atomic"
)

// Phase holds the reference frequency and the per-period phase increment as
// one 64-bit word. The main loop stores it and the PWM interrupt loads it, so
// the two halves always belong to the same frequency.
type Phase struct {
	v atomic.Uint64
}

// Store publishes a frequency and its increment
func (p *Phase) Store(hz, increment float32) {
	p.v.Store(uint64(math.Float32bits(hz))<<32 | uint64(math.Float32bits(increment)))
}

// Load returns the last stored pair
func (p *Phase) Load() (hz, increment float32) {
	v := p.v.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// Increment returns the phase advance per PWM period for a reference of hz
// sampled at pwmHz
func Increment(hz float32, pwmHz uint32) float32 {
	return float32(2 * math.Pi * float64(hz) / float64(pwmHz))
}
