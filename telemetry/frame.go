package telemetry

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var ErrFrameTooLarge = errors.New("payload does not fit a frame")

// Sender writes frames to w with a rolling sequence number
type Sender struct {
	w   io.Writer
	out ScratchOutput
	seq uint8
}

func NewSender(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Frame encodes one frame whose payload is written by body and sends it
func (s *Sender) Frame(body func(OutputBuffer)) error {
	s.out.Reset()
	s.out.Output([]byte{0, FrameDest | s.seq&FrameSeqMask})
	body(&s.out)

	n := s.out.CurPosition() + FrameTrailerSize
	if s.out.Full() || n > FrameMax {
		return ErrFrameTooLarge
	}
	s.out.Update(frameLenPos, uint8(n))

	crc := Checksum(s.out.Result())
	s.out.Output([]byte{uint8(crc >> 8), uint8(crc & 0xFF), FrameSync})
	s.seq = (s.seq + 1) & FrameSeqMask

	_, err := s.w.Write(s.out.Result())
	return errors.Wrap(err, "write frame")
}

// Handler receives the payload of each valid frame. payload is only valid for
// the duration of the call.
type Handler func(seq uint8, payload []byte) error

// Stats counts what a Receiver has seen
type Stats struct {
	Frames    uint32
	CRCErrors uint32
	Resyncs   uint32
	Lost      uint32 // frames missing from the sequence
}

// Receiver splits a byte stream into frames, dropping garbage and corrupted
// frames and resynchronizing on the sync byte
type Receiver struct {
	handler Handler
	synced  bool
	started bool
	expect  uint8
	stats   Stats
}

func NewReceiver(h Handler) *Receiver {
	return &Receiver{handler: h, synced: true}
}

func (r *Receiver) Stats() Stats {
	return r.stats
}

// Receive consumes every complete frame in input and leaves a trailing
// partial frame for the next call. Handler errors do not stop the stream;
// they are returned together.
func (r *Receiver) Receive(input InputBuffer) error {
	var err error
	data := input.Data()

	for len(data) > 0 {
		if !r.synced {
			i := indexSync(data)
			if i < 0 {
				data = nil
				break
			}
			data = data[i+1:]
			r.synced = true
			r.stats.Resyncs++
			continue
		}

		if data[0] == FrameSync {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}

		n := int(data[frameLenPos])
		seq := data[frameSeqPos]
		if n < FrameMin || n > FrameMax || seq&^FrameSeqMask != FrameDest {
			r.synced = false
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-trailerSync] != FrameSync {
			r.synced = false
			continue
		}
		want := uint16(data[n-trailerCRC])<<8 | uint16(data[n-trailerCRC+1])
		if Checksum(data[:n-FrameTrailerSize]) != want {
			r.stats.CRCErrors++
			r.synced = false
			continue
		}

		payload := data[FrameHeaderSize : n-FrameTrailerSize]
		data = data[n:]

		seq &= FrameSeqMask
		if r.started && seq != r.expect {
			r.stats.Lost += uint32((seq - r.expect) & FrameSeqMask)
		}
		r.started = true
		r.expect = (seq + 1) & FrameSeqMask
		r.stats.Frames++

		if r.handler != nil {
			err = multierr.Append(err, r.handler(seq, payload))
		}
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
	return err
}

func indexSync(data []byte) int {
	for i, b := range data {
		if b == FrameSync {
			return i
		}
	}
	return -1
}
