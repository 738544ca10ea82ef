// Package inverter assembles the two-leg SPWM output stage from a loaded
// configuration. The firmware and the host simulator build it the same way.
package inverter

import (
	"github.com/pkg/errors"

	"eflexpwm/config"
	"eflexpwm/core"
	"eflexpwm/spwm"
	"eflexpwm/telemetry"
)

// Inverter is one timer driving two complementary legs
type Inverter struct {
	reg   *core.Registry
	Timer *core.Timer
	Legs  [2]*core.SubModule
	Gen   *spwm.Generator
}

// Setup claims and configures both legs, programs dead time and the optional
// fault input, and builds the generator. Nothing runs until Start.
// onFault is bound to the module fault interrupt when the fault is enabled.
func Setup(reg *core.Registry, cfg *config.InverterConfig, onFault core.Handler) (*Inverter, error) {
	inv := &Inverter{reg: reg}
	for i, p := range cfg.Pins() {
		s, err := reg.NewSubModule(p[0], p[1])
		if err != nil {
			return nil, errors.Wrapf(err, "leg %d", i)
		}
		if err := s.Configure(cfg.PWMConfig()); err != nil {
			return nil, errors.Wrapf(err, "leg %d", i)
		}
		inv.Legs[i] = s
	}
	inv.Timer = inv.Legs[0].Timer()
	inv.Timer.SetupDeadtime(core.DeadtimeTicks(inv.Timer.SrcClockHz(), cfg.DeadtimeNs))

	if cfg.Fault.Enabled {
		fc, input := cfg.FaultConfig()
		if err := inv.Timer.SetupFaults(cfg.Fault.Index, fc, input); err != nil {
			return nil, err
		}
		inv.Timer.SetupFaultState(core.FaultStateLow)
		inv.Timer.SetupFaultDisableMap(1 << cfg.Fault.Index)
		if onFault != nil {
			if err := inv.Timer.OnFault(onFault); err != nil {
				return nil, err
			}
		}
	}

	var err error
	inv.Gen, err = spwm.New(cfg.GeneratorConfig(), inv.Timer, inv.Legs[0], inv.Legs[1])
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Start commits every staged setting in one reload, starts the counters and
// attaches the generator
func (inv *Inverter) Start() error {
	if err := inv.Timer.Begin(true, true); err != nil {
		return err
	}
	return inv.Gen.Attach()
}

// Trip masks the outputs and stops updating them. The counters keep running so
// a later Resume picks up on the next reload.
func (inv *Inverter) Trip() {
	inv.Timer.Enable(false)
	inv.Gen.Detach()
}

func (inv *Inverter) Resume() error {
	inv.Timer.Enable(true)
	return inv.Gen.Attach()
}

// Status fills the output fields of a telemetry report
func (inv *Inverter) Status(uptime uint32) telemetry.Status {
	return telemetry.Status{
		Uptime:           uptime,
		FrequencyMilliHz: uint32(inv.Gen.Frequency()*1000 + 0.5),
		Samples:          inv.Gen.Samples(),
		Running:          inv.reg.Driver().Running(inv.Timer.Index()),
		FaultFlags:       inv.Timer.FaultFlags(),
		DutyA:            inv.Legs[0].DutyCycle(core.ChannelA),
		DutyB:            inv.Legs[1].DutyCycle(core.ChannelA),
	}
}
