package core

import (
	"strings"
	"testing"
)

func TestTimingRing(t *testing.T) {
	ClearTimingRing()
	for i := 0; i < TimingRingSize+5; i++ {
		RecordTiming(EvtCommit, slotCode(1, uint8(i%4)), uint32(i), 0)
	}

	events := TimingEvents()
	if len(events) != TimingRingSize {
		t.Fatalf("Expected %d events, got %d", TimingRingSize, len(events))
	}
	if events[0].Value1 != 5 {
		t.Errorf("Expected oldest event value 5, got %d", events[0].Value1)
	}
	if last := events[len(events)-1]; last.Value1 != TimingRingSize+4 {
		t.Errorf("Expected newest event value %d, got %d", TimingRingSize+4, last.Value1)
	}
}

func TestDumpTimingRing(t *testing.T) {
	ClearTimingRing()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordTiming(EvtBeginFail, slotCode(1, slotTimer), 0x5, 0)
	RecordTiming(EvtFault, slotCode(0, 2), 0x1, 7)
	DumpTimingRing()

	out := strings.Join(lines, "\n")
	for _, want := range []string{"BEGIN_FAIL! pwm2 clock=", "v1=0x0005", "FAULT! pwm1.sm2", "v2=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestHex16(t *testing.T) {
	tests := map[uint16]string{0: "0x0000", 0xF15A: "0xF15A", 0x7FF: "0x07FF"}
	for v, want := range tests {
		if got := Hex16(v); got != want {
			t.Errorf("Hex16(%d) = %q, want %q", v, got, want)
		}
	}
	if got := itoa(-42); got != "-42" {
		t.Errorf("itoa(-42) = %q", got)
	}
}

func TestSlotName(t *testing.T) {
	tests := map[uint8]string{
		slotCode(0, 0):         "pwm1.sm0",
		slotCode(3, 2):         "pwm4.sm2",
		TimerSlot(1):           "pwm2",
		slotCode(2, slotTimer): "pwm3",
	}
	for slot, want := range tests {
		if got := SlotName(slot); got != want {
			t.Errorf("SlotName(%#x) = %q, want %q", slot, got, want)
		}
	}
	if EventName(EvtReloadErr) != "RELOAD_ERR!" || EventName(99) != "UNKNOWN" {
		t.Errorf("unexpected event names")
	}
}
