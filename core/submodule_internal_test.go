package core

import (
	"testing"
	"testing/quick"
)

func TestPeriodValues(t *testing.T) {
	tests := []struct {
		align            Alignment
		init, val0, val1 uint16
	}{
		{AlignSignedCenter, 0xF15A, 0, 3749},
		{AlignCenter, 0, 3750, 7499},
		{AlignSignedEdge, 0xF15A, 0, 3749},
		{AlignEdge, 0, 3750, 7499},
	}

	for _, tt := range tests {
		init, val0, val1 := periodValues(tt.align, 7500)
		if init != tt.init || val0 != tt.val0 || val1 != tt.val1 {
			t.Errorf("alignment %d: got INIT=%#04x VAL0=%d VAL1=%d, want INIT=%#04x VAL0=%d VAL1=%d",
				tt.align, init, val0, val1, tt.init, tt.val0, tt.val1)
		}
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		align   Alignment
		on, off uint16
	}{
		{AlignSignedCenter, 0xFA24, 1500},
		{AlignCenter, 2250, 5250},
		{AlignSignedEdge, 0xF15A, 0xFD12},
		{AlignEdge, 0, 3000},
	}

	for _, tt := range tests {
		on, off := compareValues(tt.align, 7500, 3000)
		if on != tt.on || off != tt.off {
			t.Errorf("alignment %d: got on=%#04x off=%#04x, want on=%#04x off=%#04x",
				tt.align, on, off, tt.on, tt.off)
		}
	}
}

func TestComparePulseWidth(t *testing.T) {
	// For an even pulse the distance between the compare values is the pulse
	// width in every alignment.
	f := func(n, high uint16, a uint8) bool {
		n |= 4
		high = (high % n) &^ 1
		align := Alignment(a % 4)
		on, off := compareValues(align, n&^1, high)
		return off-on == high
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestTwoCompl(t *testing.T) {
	if got := twoCompl(1); got != 0xFFFF {
		t.Errorf("twoCompl(1) = %#04x", got)
	}
	if got := twoCompl(0); got != 0 {
		t.Errorf("twoCompl(0) = %#04x", got)
	}
}
