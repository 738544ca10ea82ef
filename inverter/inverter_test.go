package inverter

import (
	"testing"

	"eflexpwm/config"
	"eflexpwm/core"
	"eflexpwm/sim"
)

func TestSetupAndStart(t *testing.T) {
	b := sim.NewBoard()
	inv, err := Setup(b.Registry, config.Default(), nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if inv.Timer.IsRunning() {
		t.Fatalf("timer running before Start")
	}
	if err := inv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	tm := inv.Timer.Index()
	if tm != 1 || inv.Timer.Mask() != 0x5 {
		t.Errorf("Expected pwm2 sm0+sm2, got pwm%d mask %#x", tm+1, inv.Timer.Mask())
	}
	// 500 ns at 150 MHz
	if dt := b.PWM.Deadtime(tm, 0, core.ChannelA); dt != 75 {
		t.Errorf("Expected 75 dead-time ticks, got %d", dt)
	}

	b.PWM.Cycles(tm, 100)
	st := inv.Status(1234)
	if st.Uptime != 1234 || st.Samples != 100 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.FrequencyMilliHz != 50000 {
		t.Errorf("Expected 50000 mHz, got %d", st.FrequencyMilliHz)
	}
	if st.Running != 0x5 {
		t.Errorf("Expected running mask 0x5, got %#x", st.Running)
	}
	if uint32(st.DutyA)+uint32(st.DutyB) != 2*32767 {
		t.Errorf("duties %d/%d not symmetric", st.DutyA, st.DutyB)
	}
}

func TestTripAndResume(t *testing.T) {
	b := sim.NewBoard()
	inv, err := Setup(b.Registry, config.Default(), nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := inv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tm := inv.Timer.Index()
	b.PWM.Cycles(tm, 10)

	inv.Trip()
	if b.PWM.OutputActive(tm, 0, core.ChannelA) || b.PWM.OutputActive(tm, 2, core.ChannelB) {
		t.Errorf("outputs active after trip")
	}
	samples := inv.Gen.Samples()
	b.PWM.Cycles(tm, 10)
	if inv.Gen.Samples() != samples {
		t.Errorf("generator ran while tripped")
	}
	if !inv.Timer.IsRunning() {
		t.Errorf("trip stopped the counters")
	}

	if err := inv.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	b.PWM.Cycles(tm, 10)
	if inv.Gen.Samples() != samples+10 {
		t.Errorf("Expected %d samples after resume, got %d", samples+10, inv.Gen.Samples())
	}
	if !b.PWM.OutputActive(tm, 0, core.ChannelA) {
		t.Errorf("outputs inactive after resume")
	}
}

func TestSetupFault(t *testing.T) {
	cfg := config.Default()
	input := 10
	cfg.Fault.Enabled = true
	cfg.Fault.XBarInput = &input

	b := sim.NewBoard()
	var faults int
	inv, err := Setup(b.Registry, cfg, func(core.Event) { faults++ })
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := inv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tm := inv.Timer.Index()

	out, _ := core.FaultXBarOutput(tm, 0)
	if in, ok := b.XBar.Route(out); !ok || in != 10 {
		t.Errorf("Expected input 10 routed to %d, got %d %v", out, in, ok)
	}

	b.PWM.SetFaultInput(tm, 0, false)
	if faults != 1 {
		t.Fatalf("Expected one fault interrupt, got %d", faults)
	}
	if b.PWM.OutputActive(tm, 0, core.ChannelA) || b.PWM.OutputActive(tm, 2, core.ChannelA) {
		t.Errorf("legs still driven during fault")
	}
	if st := inv.Status(0); st.FaultFlags != 0x1 {
		t.Errorf("Expected fault flag 0x1 in status, got %#x", st.FaultFlags)
	}
}

func TestSetupBadPins(t *testing.T) {
	cfg := config.Default()
	cfg.Legs[1] = config.LegConfig{PinA: 2, PinB: 3}
	// the generator needs both legs on one timer
	if _, err := Setup(sim.NewBoard().Registry, cfg, nil); err == nil {
		t.Errorf("Expected an error for legs on different timers")
	}
}
