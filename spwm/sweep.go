package spwm

import (
	"math"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

// Sweep steps a frequency from Min to Max and wraps back to Min.
type Sweep struct {
	Min, Max, Step float32
}

func (s Sweep) Validate() error {
	if !(s.Step > 0) || !(s.Min >= 0) || !(s.Max >= s.Min) {
		return errors.Wrapf(ErrInvalidConfig, "sweep %g..%g step %g", s.Min, s.Max, s.Step)
	}
	return nil
}

// ValidateFor also checks that the sweep stays below the Nyquist limit of a
// pwmHz sample rate
func (s Sweep) ValidateFor(pwmHz uint32) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Max > float32(pwmHz)/2 {
		return errors.Wrapf(ErrInvalidConfig, "sweep up to %g Hz above %d Hz", s.Max, pwmHz/2)
	}
	return nil
}

// steps is the index of the last frequency not above Max
func (s Sweep) steps() int {
	return int(math.Floor(float64((s.Max-s.Min)/s.Step) + 1e-6))
}

// At returns the frequency of step i
func (s Sweep) At(i int) float32 {
	f := s.Min + float32(i)*s.Step
	if f > s.Max {
		return s.Max
	}
	return f
}

// Next returns the step after cur: cur+Step, or Min when that would pass Max.
// cur is snapped to the nearest step so rounding never accumulates.
func (s Sweep) Next(cur float32) float32 {
	i := int(math.Round(float64((cur - s.Min) / s.Step)))
	return s.At(s.nextIndex(i))
}

func (s Sweep) nextIndex(i int) int {
	if i < 0 || i >= s.steps() {
		return 0
	}
	return i + 1
}

// FrequencySetter is what a Sweeper drives
type FrequencySetter interface {
	SetFrequency(hz float32)
	MaxFrequency() float32
}

// Sweeper is a main-loop task moving a generator through a Sweep.
type Sweeper struct {
	sweep    Sweep
	target   FrequencySetter
	interval uint32
	index    int
	task     core.Task
}

// NewSweeper steps target every interval ticks
func NewSweeper(target FrequencySetter, sweep Sweep, interval uint32) (*Sweeper, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	if max := target.MaxFrequency(); sweep.Max > max {
		return nil, errors.Wrapf(ErrInvalidConfig, "sweep up to %g Hz above %g Hz", sweep.Max, max)
	}
	if interval == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "sweep interval is zero")
	}
	return &Sweeper{sweep: sweep, target: target, interval: interval}, nil
}

// Start sets the first frequency and schedules the task
func (s *Sweeper) Start(now uint32) {
	s.index = 0
	s.target.SetFrequency(s.sweep.At(0))
	s.task.WakeTime = now + s.interval
	s.task.Handler = s.step
	core.ScheduleTask(&s.task)
}

func (s *Sweeper) Stop() {
	core.CancelTask(&s.task)
}

// Current is the frequency last set
func (s *Sweeper) Current() float32 {
	return s.sweep.At(s.index)
}

func (s *Sweeper) step(t *core.Task) uint8 {
	s.index = s.sweep.nextIndex(s.index)
	s.target.SetFrequency(s.sweep.At(s.index))
	t.WakeTime += s.interval
	return core.SF_RESCHEDULE
}
