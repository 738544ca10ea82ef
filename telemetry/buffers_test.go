package telemetry

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	scratch.Output([]byte{4, 5})
	scratch.Update(0, 99)
	result := scratch.Result()
	if len(result) != 5 || result[0] != 99 {
		t.Errorf("unexpected result %v", result)
	}

	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2) = %v", since)
	}
	if scratch.DataSince(10) != nil {
		t.Error("DataSince past the end should be nil")
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || len(scratch.Result()) != 0 {
		t.Error("Reset did not clear the buffer")
	}
}

func TestScratchOutputFull(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, FrameMax+10))
	if !scratch.Full() {
		t.Error("Expected Full after overflowing write")
	}
	if scratch.CurPosition() != FrameMax {
		t.Errorf("Expected position %d, got %d", FrameMax, scratch.CurPosition())
	}
}

func TestFifoBufferWrap(t *testing.T) {
	fifo := NewFifoBuffer(8)

	if n := fifo.Write([]byte{1, 2, 3, 4, 5, 6}); n != 6 {
		t.Fatalf("Expected 6 written, got %d", n)
	}
	fifo.Pop(4)
	if n := fifo.Write([]byte{7, 8, 9, 10}); n != 4 {
		t.Fatalf("Expected 4 written, got %d", n)
	}

	data := fifo.Data()
	want := []byte{5, 6, 7, 8, 9, 10}
	if len(data) != len(want) {
		t.Fatalf("Expected %v, got %v", want, data)
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, data)
		}
	}

	if fifo.Free() != 1 {
		t.Errorf("Expected 1 free byte, got %d", fifo.Free())
	}
	if n := fifo.Write([]byte{11, 12}); n != 1 {
		t.Errorf("Expected 1 byte accepted when nearly full, got %d", n)
	}

	fifo.Reset()
	if !fifo.IsEmpty() {
		t.Error("Expected empty after Reset")
	}
}
