// Package serial opens the USB CDC link the firmware streams telemetry and
// debug text over.
package serial

import (
	"io"
)

// Port is the host side of the link. Tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser

	Flush() error
}

type Config struct {
	// Device path, e.g. /dev/ttyACM0 or COM3
	Device string

	// USB CDC ignores the baud rate, but the OS driver still wants one
	Baud int

	// Read timeout in milliseconds, 0 blocks
	ReadTimeout int
}

// DefaultConfig returns the settings used for a Teensy USB serial device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
