//go:build mimxrt1062

package main

import (
	"machine"

	"eflexpwm/telemetry"
)

// InitUSB configures the USB CDC port that carries telemetry frames and, when
// enabled, debug text
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriter drops output while no host has the port open
type usbWriter struct {
	dropped uint32
}

func (w *usbWriter) Write(p []byte) (int, error) {
	n, err := machine.Serial.Write(p)
	if err != nil {
		w.dropped++
		return len(p), nil
	}
	return n, nil
}

// textWriter interleaves debug text with frames. Every write ends with the
// frame sync byte so the host receiver is back in sync before the next frame.
type textWriter struct {
	w *usbWriter
}

func (t textWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		return n, err
	}
	_, err = t.w.Write(syncByte[:])
	return n, err
}

var syncByte = [1]byte{telemetry.FrameSync}
