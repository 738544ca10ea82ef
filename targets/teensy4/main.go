//go:build mimxrt1062

package main

import (
	_ "embed"
	"machine"
	"time"

	"go.uber.org/atomic"

	"eflexpwm/config"
	"eflexpwm/core"
	"eflexpwm/diag"
	"eflexpwm/inverter"
	"eflexpwm/sense"
	"eflexpwm/spwm"
	"eflexpwm/telemetry"
)

//go:embed inverter.json5
var inverterJSON []byte

var (
	out    = &usbWriter{}
	text   = textWriter{out}
	sender = telemetry.NewSender(out)

	inv     *inverter.Inverter
	monitor *sense.Monitor

	// set from the fault interrupt, consumed by the telemetry task
	faultSeen atomic.Bool

	telemetryTask     core.Task
	telemetryInterval uint32
)

func main() {
	InitUSB()
	InitClock()
	core.ClockInit()

	core.SetDebugWriter(func(s string) {
		_, _ = text.Write([]byte(s + "\r\n"))
	})

	cfg, err := config.Load(inverterJSON)
	if err != nil {
		halt("config", err)
	}
	core.SetDebugEnabled(cfg.Debug)
	diag.SetEnabled(cfg.Debug)

	registry = core.NewRegistry(NewRT1062FlexPWM(IPGClockHz), RT1062Pins{}, RT1062XBar{})

	inv, err = inverter.Setup(registry, cfg, onFault)
	if err != nil {
		halt("setup", err)
	}
	if err := inv.Start(); err != nil {
		halt("start", err)
	}
	_ = diag.DumpTimer(text, inv.Timer)

	now := core.Now()
	if cfg.Sweep.Enabled {
		sweeper, err := spwm.NewSweeper(inv.Gen, cfg.SweepRange(), core.TicksFromMS(cfg.Sweep.IntervalMs))
		if err != nil {
			halt("sweep", err)
		}
		sweeper.Start(now)
	}
	if cfg.Sense.Enabled {
		if err := setupSense(cfg); err != nil {
			// the inverter runs without current protection rather than not at all
			core.DebugPrintln("sense: " + err.Error())
		} else {
			monitor.Start(now, core.TicksFromMS(cfg.Sense.SampleMs))
		}
	}
	telemetryInterval = core.TicksFromMS(cfg.Telemetry.IntervalMs)
	telemetryTask.WakeTime = now + telemetryInterval
	telemetryTask.Handler = reportStatus
	core.ScheduleTask(&telemetryTask)

	for {
		UpdateSystemTime()
		core.RunTasks()
		time.Sleep(10 * time.Microsecond)
	}
}

func setupSense(cfg *config.InverterConfig) error {
	err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	if err != nil {
		return err
	}
	monitor, err = sense.New(machine.I2C0, cfg.Sense.TripMilliAmps, onTrip)
	return err
}

// onFault runs in interrupt context. The hardware has already forced the
// outputs to their fault state.
func onFault(ev core.Event) {
	t := registry.Timer(ev.Timer())
	flags := t.FaultFlags()
	core.RecordTiming(core.EvtFault, core.TimerSlot(t.Index()), uint32(flags), 0)
	t.ClearFaultFlags(flags)
	faultSeen.Store(true)
}

// onTrip masks the outputs on over-current. They stay masked until reset.
func onTrip(r sense.Reading) {
	inv.Trip()
	core.RecordTiming(core.EvtFault, core.TimerSlot(inv.Timer.Index()), 0, uint32(r.LoadMilliAmps))
	faultSeen.Store(true)
}

func reportStatus(t *core.Task) uint8 {
	st := inv.Status(core.Uptime())
	if monitor != nil {
		r := monitor.Last()
		st.BusMilliVolts = r.BusMilliVolts
		st.LoadMilliAmps = r.LoadMilliAmps
		st.Tripped = monitor.Tripped()
	}
	_ = sender.SendStatus(st)

	if faultSeen.CompareAndSwap(true, false) {
		for _, ev := range core.TimingEvents() {
			_ = sender.SendTiming(ev)
		}
		core.ClearTimingRing()
	}

	t.WakeTime += telemetryInterval
	return core.SF_RESCHEDULE
}

// halt stops every output and reports err forever
func halt(stage string, err error) {
	if registry != nil {
		for tm := uint8(0); tm < core.NumTimers; tm++ {
			if t := registry.Timer(tm); t.Mask() != 0 {
				t.Stop()
			}
		}
	}
	core.SetDebugEnabled(true)
	for {
		core.DebugPrintln("halt: " + stage + ": " + err.Error())
		core.DumpTimingRing()
		time.Sleep(2 * time.Second)
	}
}
