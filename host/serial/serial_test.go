package serial

import "testing"

func TestOpenRejectsBadConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Errorf("Expected an error for a nil config")
	}
	if _, err := Open(DefaultConfig("")); err == nil {
		t.Errorf("Expected an error for an empty device")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" || cfg.Baud == 0 || cfg.ReadTimeout == 0 {
		t.Errorf("unexpected default %+v", cfg)
	}
}
