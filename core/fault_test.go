package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestFaultXBarOutput(t *testing.T) {
	tests := []struct {
		tm, fault uint8
		want      XBarOutput
	}{
		{0, 0, 44},
		{0, 1, 45},
		{1, 0, 58},
		{2, 1, 66},
		{3, 0, 72},
		{3, 2, 46}, // FAULT2 is shared
		{1, 3, 47},
	}

	for _, tt := range tests {
		got, ok := FaultXBarOutput(tt.tm, tt.fault)
		if !ok || got != tt.want {
			t.Errorf("FaultXBarOutput(%d, %d) = %d, %v; want %d", tt.tm, tt.fault, got, ok, tt.want)
		}
	}

	if _, ok := FaultXBarOutput(NumTimers, 0); ok {
		t.Errorf("Expected no output for timer %d", NumTimers)
	}
	if _, ok := FaultXBarOutput(0, NumFaults); ok {
		t.Errorf("Expected no output for fault %d", NumFaults)
	}
}

func TestRoutableFault(t *testing.T) {
	for f := uint8(0); f < 8; f++ {
		want := f == 0 || f == 2
		if got := routableFault(f); got != want {
			t.Errorf("routableFault(%d) = %v, want %v", f, got, want)
		}
	}
}

func TestFaultConfigValidate(t *testing.T) {
	if err := DefaultFaultConfig().Validate(); err != nil {
		t.Fatalf("default fault config invalid: %v", err)
	}

	cfg := DefaultFaultConfig()
	cfg.FilterCount = 8
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidFault) {
		t.Errorf("Expected ErrInvalidFault for filter count 8, got %v", err)
	}

	cfg = DefaultFaultConfig()
	cfg.RecoverMode = FaultRecoverHalfAndFullCycle + 1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidFault) {
		t.Errorf("Expected ErrInvalidFault for recover mode, got %v", err)
	}
}

func TestFaultRegisterBits(t *testing.T) {
	cfg := FaultConfig{
		ClearingMode: FaultClearAutomatic,
		ActiveHigh:   true,
		RecoverMode:  FaultRecoverFullCycle,
		FilterCount:  3,
		FilterPeriod: 10,
	}

	if got, want := cfg.FCTRLBits(2), uint16(1<<2|1<<10|1<<14); got != want {
		t.Errorf("FCTRL bits = %#04x, want %#04x", got, want)
	}
	if got, want := cfg.FSTSRecoveryBits(2), uint16(1<<6); got != want {
		t.Errorf("FSTS bits = %#04x, want %#04x", got, want)
	}
	if got, want := cfg.FFILT(), uint16(3<<8|10); got != want {
		t.Errorf("FFILT = %#04x, want %#04x", got, want)
	}
}
