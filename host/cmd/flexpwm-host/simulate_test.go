package main

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"eflexpwm/config"
)

func TestSimulateDefault(t *testing.T) {
	cfg := config.Default()
	cycles := defaultCycles(cfg)
	if cycles != 800 {
		t.Fatalf("Expected two 50 Hz periods at 20 kHz, got %d cycles", cycles)
	}

	res, err := simulate(cfg, cycles)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if res.samples != uint32(cycles) {
		t.Errorf("Expected %d samples, got %d", cycles, res.samples)
	}
	if res.droppedWrites != 0 || res.reloadErrors != 0 {
		t.Errorf("Expected clean reloads, got %d dropped %d errors", res.droppedWrites, res.reloadErrors)
	}
	if res.deadtimeTicks != 75 {
		t.Errorf("Expected 75 dead-time ticks, got %d", res.deadtimeTicks)
	}

	lo, hi := 0.0, 0.0
	for i, p := range res.trace.diff {
		if sum := res.trace.a[i].Y + res.trace.b[i].Y; sum < 99.9 || sum > 100.1 {
			t.Fatalf("cycle %d: legs %g + %g not complementary around 50%%", i, res.trace.a[i].Y, res.trace.b[i].Y)
		}
		if p.Y < lo {
			lo = p.Y
		}
		if p.Y > hi {
			hi = p.Y
		}
	}
	// 90% amplitude on each leg
	if hi < 89.5 || lo > -89.5 {
		t.Errorf("Expected the difference to swing +-90%%, got %g..%g", lo, hi)
	}
}

func TestSimulatePlot(t *testing.T) {
	res, err := simulate(config.Default(), 100)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	p, err := res.trace.plot("test")
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "spwm.png")
	if err := p.Save(4*vg.Inch, 2*vg.Inch, out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}
}

func TestSimulateErrors(t *testing.T) {
	if _, err := simulate(config.Default(), 0); err == nil {
		t.Errorf("Expected an error for zero cycles")
	}
	cfg := config.Default()
	cfg.Legs[0].PinA = 99
	if _, err := simulate(cfg, 10); err == nil {
		t.Errorf("Expected an error for an unknown pin")
	}
}

func TestFormatHz(t *testing.T) {
	if got := formatHz(50); got != "50 Hz" {
		t.Errorf("got %q", got)
	}
	if got := formatHz(20000); got != "20 kHz" {
		t.Errorf("got %q", got)
	}
}
