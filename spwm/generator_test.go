package spwm

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/pkg/errors"

	"eflexpwm/core"
	"eflexpwm/sim"
)

func TestDutiesSymmetry(t *testing.T) {
	f := func(mid uint16, off int32) bool {
		// keep the offset inside the range reachable from mid
		lim := int32(mid)
		if hi := core.DutyCycleMax - int32(mid); hi < lim {
			lim = hi
		}
		if lim == 0 {
			off = 0
		} else {
			off %= lim + 1
		}
		a, b := Duties(mid, off)
		return int32(a) == int32(mid)+off && int32(b) == int32(mid)-off &&
			uint32(a)+uint32(b) == 2*uint32(mid)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestDutiesClamp(t *testing.T) {
	a, b := Duties(1000, 5000)
	if a != 6000 || b != 0 {
		t.Errorf("Expected 6000/0, got %d/%d", a, b)
	}
	a, b = Duties(core.DutyCycleMax-10, -100)
	if a != core.DutyCycleMax-110 || b != core.DutyCycleMax {
		t.Errorf("Expected clamp at max, got %d/%d", a, b)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig(20000).Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []Config{
		{PwmFrequencyHz: 0, Midpoint: 100},
		{PwmFrequencyHz: 20000, ReferenceHz: 20000, Midpoint: 100},
		{PwmFrequencyHz: 20000, Midpoint: 100, Amplitude: 101},
		{PwmFrequencyHz: 20000, Midpoint: 65000, Amplitude: 1000},
	}
	for _, c := range bad {
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%+v: expected ErrInvalidConfig, got %v", c, err)
		}
	}
}

func setup(t *testing.T) (*sim.Board, *Generator, *core.SubModule, *core.SubModule) {
	t.Helper()
	b := sim.NewBoard()
	a, err := b.Registry.NewSubModule(4, 33)
	if err != nil {
		t.Fatalf("NewSubModule failed: %v", err)
	}
	c, err := b.Registry.NewSubModule(6, 9)
	if err != nil {
		t.Fatalf("NewSubModule failed: %v", err)
	}
	cfg := core.DefaultConfig().WithPairOperation(core.ComplementaryPwmA).WithFrequency(20000)
	for _, s := range []*core.SubModule{a, c} {
		if err := s.Configure(cfg); err != nil {
			t.Fatalf("Configure failed: %v", err)
		}
	}
	tm := a.Timer()
	if err := tm.Begin(true, true); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	g, err := New(DefaultConfig(20000), tm, a, c)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b, g, a, c
}

func TestNewChecksSubmodules(t *testing.T) {
	b, _, a, c := setup(t)
	other, err := b.Registry.NewSubModule(2, 3)
	if err != nil {
		t.Fatalf("NewSubModule failed: %v", err)
	}

	if _, err := New(DefaultConfig(20000), a.Timer(), a, other); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a submodule on another timer, got %v", err)
	}
	if _, err := New(DefaultConfig(20000), a.Timer(), a, a); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a==b, got %v", err)
	}
	if _, err := New(DefaultConfig(20000), a.Timer(), a, c); err != nil {
		t.Errorf("New failed: %v", err)
	}
}

func TestGeneratorComplementary(t *testing.T) {
	b, g, a, c := setup(t)
	if err := g.Attach(); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	tm := a.Timer()

	period := uint32(a.CounterPeriod())
	mid := period * uint32(g.cfg.Midpoint) / core.DutyCycleMax
	const cycles = 400 // one 50 Hz period at 20 kHz

	var minA, maxA uint16 = math.MaxUint16, 0
	for i := 0; i < cycles; i++ {
		b.PWM.Cycle(tm.Index())

		// both staged duties are what the hardware shows one reload later
		pa := uint32(b.PWM.ActivePulse(tm.Index(), a.Index(), core.ChannelA))
		pc := uint32(b.PWM.ActivePulse(tm.Index(), c.Index(), core.ChannelA))
		if sum := pa + pc; sum+4 < 2*mid || sum > 2*mid+4 {
			t.Fatalf("cycle %d: pulses %d+%d not symmetric around %d", i, pa, pc, mid)
		}
		if d := a.DutyCycle(core.ChannelA); d < minA {
			minA = d
		}
		if d := a.DutyCycle(core.ChannelA); d > maxA {
			maxA = d
		}
		if uint32(a.DutyCycle(core.ChannelA))+uint32(c.DutyCycle(core.ChannelA)) != 2*uint32(g.cfg.Midpoint) {
			t.Fatalf("cycle %d: duties %d+%d != 2*%d", i, a.DutyCycle(core.ChannelA), c.DutyCycle(core.ChannelA), g.cfg.Midpoint)
		}
	}

	if g.Samples() != cycles {
		t.Errorf("Expected %d samples, got %d", cycles, g.Samples())
	}
	swing := int32(maxA) - int32(minA)
	if want := 2 * int32(g.cfg.Amplitude); swing < want*99/100 {
		t.Errorf("Expected a swing near %d, got %d", want, swing)
	}
	if a.StatusFlags()&core.StatusReload != 0 {
		t.Errorf("reload flag left set")
	}
	if b.PWM.DroppedWrites() != 0 {
		t.Errorf("Expected no dropped writes, got %d", b.PWM.DroppedWrites())
	}
	if b.PWM.ReloadErrors() != 0 {
		t.Errorf("Expected no reload errors, got %d", b.PWM.ReloadErrors())
	}
}

func TestGeneratorFrequency(t *testing.T) {
	b, g, a, _ := setup(t)
	if err := g.Attach(); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	g.SetFrequency(100)
	if g.Frequency() != 100 {
		t.Fatalf("Expected 100 Hz, got %g", g.Frequency())
	}

	// count rising zero crossings of the offset over one second
	crossings := 0
	prev := int32(a.DutyCycle(core.ChannelA)) - int32(g.cfg.Midpoint)
	for i := 0; i < 20000; i++ {
		b.PWM.Cycle(a.TimerIndex())
		cur := int32(a.DutyCycle(core.ChannelA)) - int32(g.cfg.Midpoint)
		if prev < 0 && cur >= 0 {
			crossings++
		}
		prev = cur
	}
	if crossings < 99 || crossings > 101 {
		t.Errorf("Expected about 100 cycles in one second, got %d", crossings)
	}

	g.Detach()
	samples := g.Samples()
	b.PWM.Cycles(a.TimerIndex(), 10)
	if g.Samples() != samples {
		t.Errorf("generator ran after Detach")
	}
}

func TestSetFrequencyLimits(t *testing.T) {
	_, g, _, _ := setup(t)
	g.SetFrequency(30000)
	if g.Frequency() != 10000 {
		t.Errorf("Expected 30 kHz limited to 10000, got %g", g.Frequency())
	}
	g.SetFrequency(-20)
	if g.Frequency() != 0 {
		t.Errorf("Expected a negative frequency limited to 0, got %g", g.Frequency())
	}
	g.SetFrequency(float32(math.NaN()))
	if g.Frequency() != 0 {
		t.Errorf("Expected NaN limited to 0, got %g", g.Frequency())
	}
}

func TestPhaseStaysWrapped(t *testing.T) {
	_, g, _, _ := setup(t)
	for _, hz := range []float32{10000, 9999, 50} {
		g.SetFrequency(hz)
		for i := 0; i < 100000; i++ {
			g.Update(0)
			if g.acc < 0 || g.acc >= twoPi {
				t.Fatalf("%g Hz: phase %g left [0, 2pi) after %d updates", hz, g.acc, i+1)
			}
		}
	}
}

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{twoPi, 0},
		{twoPi + 1, 1},
		{5*twoPi + 0.5, 0.5},
		{-1, twoPi - 1},
		{-3*twoPi - 0.25, twoPi - 0.25},
	}
	for _, tt := range tests {
		if got := wrapPhase(tt.in); math.Abs(got-tt.want) > 1e-9 || got < 0 || got >= twoPi {
			t.Errorf("wrapPhase(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
