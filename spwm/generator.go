// Package spwm generates a sinusoidal reference on a complementary pair of
// FlexPWM submodules. The duty cycles are recomputed on every reload interrupt
// and committed together through the timer's LDOK bits.
package spwm

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"eflexpwm/core"
)

var ErrInvalidConfig = errors.New("invalid generator configuration")

const twoPi = 2 * math.Pi

// Config describes the generated reference.
type Config struct {
	PwmFrequencyHz uint32  // sample rate, the PWM frequency of the submodules
	ReferenceHz    float32 // initial output frequency
	Midpoint       uint16  // duty of a zero output
	Amplitude      uint16  // peak duty offset from Midpoint
	Flag           uint16  // status flag cleared on each interrupt
}

// DefaultConfig is a 50 Hz reference at 90% of the available swing
func DefaultConfig(pwmHz uint32) Config {
	return Config{
		PwmFrequencyHz: pwmHz,
		ReferenceHz:    50,
		Midpoint:       core.DutyCycleMax / 2,
		Amplitude:      core.DutyCycleMax / 2 * 9 / 10,
		Flag:           core.StatusReload,
	}
}

func (c Config) Validate() error {
	if c.PwmFrequencyHz == 0 {
		return errors.Wrap(ErrInvalidConfig, "pwm frequency is zero")
	}
	if c.ReferenceHz < 0 || c.ReferenceHz > float32(c.PwmFrequencyHz)/2 {
		return errors.Wrapf(ErrInvalidConfig, "reference %g Hz not in 0..%d", c.ReferenceHz, c.PwmFrequencyHz/2)
	}
	if c.Amplitude > c.Midpoint || uint32(c.Midpoint)+uint32(c.Amplitude) > core.DutyCycleMax {
		return errors.Wrapf(ErrInvalidConfig, "amplitude %d around %d leaves the duty range", c.Amplitude, c.Midpoint)
	}
	return nil
}

// Generator drives submodule a with midpoint+offset and b with
// midpoint-offset, offset following a sine.
type Generator struct {
	cfg   Config
	timer *core.Timer
	a, b  *core.SubModule

	phase   Phase
	acc     float64 // interrupt context only
	samples atomic.Uint32
}

// New checks that a and b belong to timer and prepares a generator at
// cfg.ReferenceHz. Nothing runs until Attach.
func New(cfg Config, timer *core.Timer, a, b *core.SubModule) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timer == nil || a == nil || b == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "missing timer or submodule")
	}
	if a.TimerIndex() != timer.Index() || b.TimerIndex() != timer.Index() {
		return nil, errors.Wrapf(ErrInvalidConfig, "submodules not on pwm%d", timer.Index()+1)
	}
	if a == b {
		return nil, errors.Wrap(ErrInvalidConfig, "a and b are the same submodule")
	}
	g := &Generator{cfg: cfg, timer: timer, a: a, b: b}
	g.SetFrequency(cfg.ReferenceHz)
	return g, nil
}

// SetFrequency changes the reference frequency, limited to 0..MaxFrequency.
// It is called from the main loop while Update runs in interrupt context.
func (g *Generator) SetFrequency(hz float32) {
	if !(hz > 0) {
		hz = 0
	}
	if max := g.MaxFrequency(); hz > max {
		hz = max
	}
	g.phase.Store(hz, Increment(hz, g.cfg.PwmFrequencyHz))
}

// MaxFrequency is the Nyquist limit of the PWM sample rate
func (g *Generator) MaxFrequency() float32 {
	return float32(g.cfg.PwmFrequencyHz) / 2
}

func (g *Generator) Frequency() float32 {
	hz, _ := g.phase.Load()
	return hz
}

// Samples is the number of periods generated
func (g *Generator) Samples() uint32 {
	return g.samples.Load()
}

// Attach enables the reload interrupt of a and runs Update from it
func (g *Generator) Attach() error {
	if err := g.a.OnInterrupt(g.Update); err != nil {
		return err
	}
	g.a.EnableInterrupts(core.InterruptReload)
	return nil
}

// Detach stops updating. The outputs keep their last duty.
func (g *Generator) Detach() {
	g.a.DisableInterrupts(core.InterruptReload)
	_ = g.a.OnInterrupt(nil)
}

// Update computes the next sample and commits it to both submodules so they
// load on the same reload. It runs once per PWM period in interrupt context.
func (g *Generator) Update(core.Event) {
	_, inc := g.phase.Load()
	g.acc = wrapPhase(g.acc + float64(inc))
	offset := int32(float64(g.cfg.Amplitude) * math.Sin(g.acc))
	da, db := Duties(g.cfg.Midpoint, offset)

	g.a.ClearStatusFlags(g.cfg.Flag)
	g.timer.SetPwmLdok(false)
	g.a.UpdateDutyCycle(da, core.ChannelA)
	g.b.UpdateDutyCycle(db, core.ChannelA)
	g.timer.SetPwmLdok(true)
	g.samples.Inc()
}

// wrapPhase folds a into [0, 2pi)
func wrapPhase(a float64) float64 {
	if a >= 0 && a < twoPi {
		return a
	}
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// Duties returns midpoint+offset and midpoint-offset clamped to the duty
// range. Their sum is 2*midpoint whenever neither is clamped.
func Duties(midpoint uint16, offset int32) (a, b uint16) {
	return clampDuty(int32(midpoint) + offset), clampDuty(int32(midpoint) - offset)
}

func clampDuty(v int32) uint16 {
	switch {
	case v < 0:
		return 0
	case v > core.DutyCycleMax:
		return core.DutyCycleMax
	}
	return uint16(v)
}
