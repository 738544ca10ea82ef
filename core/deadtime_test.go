package core

import "testing"

func TestDeadtimeTicks(t *testing.T) {
	tests := []struct {
		clock uint32
		ns    uint32
		want  uint16
	}{
		{150000000, 500, 75},
		{150000000, 0, 0},
		// 0.9 and 1.95 ticks floor
		{150000000, 6, 0},
		{150000000, 13, 1},
		{132000000, 1000, 132},
		// 3000 and 4200 ticks clamp
		{150000000, 20000, DeadtimeMax},
		{600000000, 7000, DeadtimeMax},
	}

	for _, tt := range tests {
		got := DeadtimeTicks(tt.clock, tt.ns)
		if got != tt.want {
			t.Errorf("DeadtimeTicks(%d, %d) = %d, want %d", tt.clock, tt.ns, got, tt.want)
		}
		if again := DeadtimeTicks(tt.clock, tt.ns); again != got {
			t.Errorf("DeadtimeTicks(%d, %d) not reproducible: %d then %d", tt.clock, tt.ns, got, again)
		}
	}
}

func TestDeadtimeNoOverflow(t *testing.T) {
	// clock*ns exceeds 32 bits here
	if got := DeadtimeTicks(4000000000, 1000); got != DeadtimeMax {
		t.Errorf("Expected clamp to %d, got %d", DeadtimeMax, got)
	}
	if got := DeadtimeTicks(4000000000, 100); got != 400 {
		t.Errorf("Expected 400 ticks, got %d", got)
	}
}

func TestDeadtimeNs(t *testing.T) {
	if got := DeadtimeNs(150000000, 75); got != 500 {
		t.Errorf("Expected 500 ns, got %d", got)
	}
	if got := DeadtimeNs(0, 75); got != 0 {
		t.Errorf("Expected 0 ns for zero clock, got %d", got)
	}
}
