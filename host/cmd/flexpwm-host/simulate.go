package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"eflexpwm/config"
	"eflexpwm/core"
	"eflexpwm/inverter"
	"eflexpwm/sim"
)

// trace is the duty of both legs after every PWM cycle, in percent over
// milliseconds
type trace struct {
	a, b, diff plotter.XYs
}

type simResult struct {
	trace         trace
	samples       uint32
	reloads       uint64
	droppedWrites uint64
	reloadErrors  uint64
	deadtimeTicks uint16
}

func loadConfig(path string) (*config.InverterConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// defaultCycles covers two reference periods
func defaultCycles(cfg *config.InverterConfig) int {
	if cfg.Reference.FrequencyHz <= 0 {
		return int(cfg.PwmFrequencyHz) / 10
	}
	return int(2 * float32(cfg.PwmFrequencyHz) / cfg.Reference.FrequencyHz)
}

func simulate(cfg *config.InverterConfig, cycles int) (*simResult, error) {
	if cycles <= 0 {
		return nil, errors.Errorf("cycles must be positive, got %d", cycles)
	}
	b := sim.NewBoard()
	inv, err := inverter.Setup(b.Registry, cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := inv.Start(); err != nil {
		return nil, err
	}

	tm := inv.Timer.Index()
	res := &simResult{
		trace: trace{
			a:    make(plotter.XYs, cycles),
			b:    make(plotter.XYs, cycles),
			diff: make(plotter.XYs, cycles),
		},
		deadtimeTicks: b.PWM.Deadtime(tm, inv.Legs[0].Index(), core.ChannelA),
	}
	msPerCycle := 1000 / float64(cfg.PwmFrequencyHz)
	for i := 0; i < cycles; i++ {
		b.PWM.Cycle(tm)
		x := float64(i) * msPerCycle
		a := dutyPercent(inv.Legs[0].DutyCycle(core.ChannelA))
		c := dutyPercent(inv.Legs[1].DutyCycle(core.ChannelA))
		res.trace.a[i] = plotter.XY{X: x, Y: a}
		res.trace.b[i] = plotter.XY{X: x, Y: c}
		res.trace.diff[i] = plotter.XY{X: x, Y: a - c}
	}

	res.samples = inv.Gen.Samples()
	res.reloads = b.PWM.Reloads()
	res.droppedWrites = b.PWM.DroppedWrites()
	res.reloadErrors = b.PWM.ReloadErrors()
	return res, nil
}

func dutyPercent(d uint16) float64 {
	return float64(d) * 100 / core.DutyCycleMax
}

func (t trace) plot(title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (ms)"
	p.Y.Label.Text = "duty (%)"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, "leg A", t.a, "leg B", t.b, "A-B", t.diff); err != nil {
		return nil, errors.Wrap(err, "plot lines")
	}
	return p, nil
}

func simulateAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := loadConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	cycles := c.Int(flagCycles)
	if cycles == 0 {
		cycles = defaultCycles(cfg)
	}

	res, err := simulate(cfg, cycles)
	if err != nil {
		return err
	}
	logger.Infow("simulated",
		"cycles", cycles,
		"samples", res.samples,
		"reloads", res.reloads,
		"deadtime_ticks", res.deadtimeTicks,
		"dropped_writes", res.droppedWrites,
		"reload_errors", res.reloadErrors)
	if res.droppedWrites != 0 || res.reloadErrors != 0 {
		logger.Warnw("generator missed reloads", "dropped_writes", res.droppedWrites, "reload_errors", res.reloadErrors)
	}

	p, err := res.trace.plot("SPWM " + formatHz(cfg.Reference.FrequencyHz) + " on " + formatHz(float32(cfg.PwmFrequencyHz)))
	if err != nil {
		return err
	}
	out := c.String(flagOut)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return errors.Wrapf(err, "save %s", out)
	}
	logger.Infow("plot written", "file", out)
	return nil
}

func formatHz(hz float32) string {
	if hz >= 1000 {
		return core.Utoa(uint32(hz/1000+0.5)) + " kHz"
	}
	return core.Utoa(uint32(hz+0.5)) + " Hz"
}

func checkAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := config.LoadFile(c.String(flagConfig))
	if err != nil {
		return err
	}
	fault := "disabled"
	if cfg.Fault.Enabled {
		fault = "fault" + core.Utoa(uint32(cfg.Fault.Index)) + " " + cfg.Fault.Clearing
	}
	logger.Infow("configuration ok",
		"legs", cfg.Pins(),
		"pwm_hz", cfg.PwmFrequencyHz,
		"alignment", cfg.Alignment,
		"deadtime_ns", cfg.DeadtimeNs,
		"reference_hz", cfg.Reference.FrequencyHz,
		"sweep", cfg.Sweep.Enabled,
		"fault", fault,
		"sense", cfg.Sense.Enabled)
	return nil
}
