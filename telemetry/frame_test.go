package telemetry

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"eflexpwm/core"
)

func sampleStatus() Status {
	return Status{
		Uptime:           123456789,
		FrequencyMilliHz: 50000,
		Samples:          400,
		Running:          0x05,
		FaultFlags:       0x01,
		DutyA:            0x7FFF + 1000,
		DutyB:            0x7FFF - 1000,
		BusMilliVolts:    12040,
		LoadMilliAmps:    -350,
		Tripped:          true,
	}
}

type collector struct {
	msgs []interface{}
	seqs []uint8
}

func (c *collector) handle(seq uint8, payload []byte) error {
	m, err := Decode(payload)
	if err != nil {
		return err
	}
	c.msgs = append(c.msgs, m)
	c.seqs = append(c.seqs, seq)
	return nil
}

func TestFrameRoundTrip(t *testing.T) {
	var wire bytes.Buffer
	s := NewSender(&wire)

	st := sampleStatus()
	ev := core.TimingEvent{EventType: core.EvtCommit, Slot: 0x1F, Clock: 42, Value1: 0x5}
	if err := s.SendStatus(st); err != nil {
		t.Fatalf("SendStatus failed: %v", err)
	}
	if err := s.SendTiming(ev); err != nil {
		t.Fatalf("SendTiming failed: %v", err)
	}

	c := &collector{}
	r := NewReceiver(c.handle)
	fifo := NewFifoBuffer(256)
	fifo.Write(wire.Bytes())
	if err := r.Receive(fifo); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if len(c.msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(c.msgs))
	}
	if !reflect.DeepEqual(c.msgs[0], st) {
		t.Errorf("status mismatch:\n got %+v\nwant %+v", c.msgs[0], st)
	}
	if !reflect.DeepEqual(c.msgs[1], ev) {
		t.Errorf("timing mismatch:\n got %+v\nwant %+v", c.msgs[1], ev)
	}
	if c.seqs[0] != 0 || c.seqs[1] != 1 {
		t.Errorf("Expected sequence 0,1 got %v", c.seqs)
	}
	if !fifo.IsEmpty() {
		t.Errorf("Expected all input consumed, %d left", fifo.Available())
	}
}

func TestReceiverPartialAndGarbage(t *testing.T) {
	var wire bytes.Buffer
	s := NewSender(&wire)
	for i := 0; i < 3; i++ {
		if err := s.SendStatus(sampleStatus()); err != nil {
			t.Fatalf("SendStatus failed: %v", err)
		}
	}
	// the tail of an earlier frame, ending at its sync byte
	stream := append([]byte{0x33, 0x99, 0x01, FrameSync}, wire.Bytes()...)

	c := &collector{}
	r := NewReceiver(c.handle)
	fifo := NewFifoBuffer(64)

	// deliver in uneven chunks through a small ring
	for len(stream) > 0 {
		n := 7
		if n > len(stream) {
			n = len(stream)
		}
		fifo.Write(stream[:n])
		stream = stream[n:]
		if err := r.Receive(fifo); err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
	}

	if len(c.msgs) != 3 {
		t.Fatalf("Expected 3 frames after garbage, got %d", len(c.msgs))
	}
	if st := r.Stats(); st.Frames != 3 || st.Lost != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestReceiverCorruptAndLost(t *testing.T) {
	var frames [][]byte
	var wire bytes.Buffer
	s := NewSender(&wire)
	for i := 0; i < 4; i++ {
		wire.Reset()
		if err := s.SendStatus(sampleStatus()); err != nil {
			t.Fatalf("SendStatus failed: %v", err)
		}
		frames = append(frames, append([]byte(nil), wire.Bytes()...))
	}
	// flip a payload bit in frame 1
	frames[1][4] ^= 0x01

	c := &collector{}
	r := NewReceiver(c.handle)
	fifo := NewFifoBuffer(512)
	for _, f := range frames {
		fifo.Write(f)
	}
	if err := r.Receive(fifo); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	st := r.Stats()
	if st.CRCErrors != 1 {
		t.Errorf("Expected 1 CRC error, got %d", st.CRCErrors)
	}
	if st.Frames != 3 {
		t.Errorf("Expected 3 good frames, got %d", st.Frames)
	}
	if st.Lost != 1 {
		t.Errorf("Expected 1 lost frame, got %d", st.Lost)
	}
	if !reflect.DeepEqual(c.seqs, []uint8{0, 2, 3}) {
		t.Errorf("Expected sequence 0,2,3 got %v", c.seqs)
	}
}

func TestReceiverHandlerErrors(t *testing.T) {
	var wire bytes.Buffer
	s := NewSender(&wire)
	for i := 0; i < 2; i++ {
		if err := s.Frame(func(out OutputBuffer) { EncodeVLQUint(out, 99) }); err != nil {
			t.Fatalf("Frame failed: %v", err)
		}
	}

	c := &collector{}
	r := NewReceiver(c.handle)
	fifo := NewFifoBuffer(64)
	fifo.Write(wire.Bytes())
	err := r.Receive(fifo)
	if !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("Expected ErrUnknownMessage, got %v", err)
	}
	if r.Stats().Frames != 2 {
		t.Errorf("handler errors must not stop the stream, got %d frames", r.Stats().Frames)
	}
}

func TestFrameTooLarge(t *testing.T) {
	var wire bytes.Buffer
	s := NewSender(&wire)
	err := s.Frame(func(out OutputBuffer) { out.Output(make([]byte, FrameMax)) })
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge, got %v", err)
	}
	if wire.Len() != 0 {
		t.Errorf("oversized frame was written")
	}
}
