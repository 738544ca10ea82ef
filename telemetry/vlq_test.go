package telemetry

import (
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33,
		127, -127, 128, -128,
		65535, -65535,
		1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
	}
}

func TestVLQLength(t *testing.T) {
	testCases := []struct {
		v    int32
		size int
	}{
		{0, 1}, {95, 1}, {-32, 1},
		{96, 2}, {-33, 2},
		{1 << 20, 3},
		{-1 << 31, 5},
	}
	for _, tc := range testCases {
		out := NewScratchOutput()
		EncodeVLQInt(out, tc.v)
		if len(out.Result()) != tc.size {
			t.Errorf("%d: expected %d bytes, got %d", tc.v, tc.size, len(out.Result()))
		}
	}
}

func TestVLQUintProperty(t *testing.T) {
	f := func(v uint32) bool {
		out := NewScratchOutput()
		EncodeVLQUint(out, v)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		return err == nil && got == v && len(data) == 0
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	data := []byte{}
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("empty: expected ErrBufferTooSmall, got %v", err)
	}

	data = []byte{0x81}
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("truncated: expected ErrBufferTooSmall, got %v", err)
	}

	data = []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("overlong: expected ErrInvalidVLQ, got %v", err)
	}
}
