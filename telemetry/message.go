package telemetry

import (
	"github.com/pkg/errors"

	"eflexpwm/core"
)

var ErrUnknownMessage = errors.New("unknown message")

// Status is the periodic report of the inverter
type Status struct {
	Uptime           uint32 // system clock ticks
	FrequencyMilliHz uint32
	Samples          uint32 // generator updates so far
	Running          uint8  // RUN mask of the output timer
	FaultFlags       uint8
	DutyA            uint16
	DutyB            uint16
	BusMilliVolts    int32
	LoadMilliAmps    int32
	Tripped          bool
}

func (s Status) Encode(out OutputBuffer) {
	EncodeVLQUint(out, MsgStatus)
	EncodeVLQUint(out, s.Uptime)
	EncodeVLQUint(out, s.FrequencyMilliHz)
	EncodeVLQUint(out, s.Samples)
	EncodeVLQUint(out, uint32(s.Running))
	EncodeVLQUint(out, uint32(s.FaultFlags))
	EncodeVLQUint(out, uint32(s.DutyA))
	EncodeVLQUint(out, uint32(s.DutyB))
	EncodeVLQInt(out, s.BusMilliVolts)
	EncodeVLQInt(out, s.LoadMilliAmps)
	var tripped uint32
	if s.Tripped {
		tripped = 1
	}
	EncodeVLQUint(out, tripped)
}

func decodeStatus(data *[]byte) (Status, error) {
	var s Status
	var v [10]uint32
	for i := range v {
		x, err := DecodeVLQUint(data)
		if err != nil {
			return s, errors.Wrapf(err, "status field %d", i)
		}
		v[i] = x
	}
	s.Uptime = v[0]
	s.FrequencyMilliHz = v[1]
	s.Samples = v[2]
	s.Running = uint8(v[3])
	s.FaultFlags = uint8(v[4])
	s.DutyA = uint16(v[5])
	s.DutyB = uint16(v[6])
	s.BusMilliVolts = int32(v[7])
	s.LoadMilliAmps = int32(v[8])
	s.Tripped = v[9] != 0
	return s, nil
}

// EncodeTiming writes one entry of the core timing ring
func EncodeTiming(out OutputBuffer, ev core.TimingEvent) {
	EncodeVLQUint(out, MsgTiming)
	EncodeVLQUint(out, uint32(ev.EventType))
	EncodeVLQUint(out, uint32(ev.Slot))
	EncodeVLQUint(out, ev.Clock)
	EncodeVLQUint(out, ev.Value1)
	EncodeVLQUint(out, ev.Value2)
}

func decodeTiming(data *[]byte) (core.TimingEvent, error) {
	var v [5]uint32
	for i := range v {
		x, err := DecodeVLQUint(data)
		if err != nil {
			return core.TimingEvent{}, errors.Wrapf(err, "timing field %d", i)
		}
		v[i] = x
	}
	return core.TimingEvent{
		EventType: uint8(v[0]),
		Slot:      uint8(v[1]),
		Clock:     v[2],
		Value1:    v[3],
		Value2:    v[4],
	}, nil
}

// Decode parses a frame payload into a Status or a core.TimingEvent
func Decode(payload []byte) (interface{}, error) {
	id, err := DecodeVLQUint(&payload)
	if err != nil {
		return nil, errors.Wrap(err, "message id")
	}
	switch id {
	case MsgStatus:
		return decodeStatus(&payload)
	case MsgTiming:
		return decodeTiming(&payload)
	}
	return nil, errors.Wrapf(ErrUnknownMessage, "id %d", id)
}

func (s *Sender) SendStatus(st Status) error {
	return s.Frame(st.Encode)
}

func (s *Sender) SendTiming(ev core.TimingEvent) error {
	return s.Frame(func(out OutputBuffer) { EncodeTiming(out, ev) })
}
