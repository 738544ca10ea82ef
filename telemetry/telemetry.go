// Package telemetry frames status reports sent by the firmware and decodes
// them on the host. A frame is
//
//	len seq payload... crc_hi crc_lo 0x7E
//
// where len counts the whole frame, seq is a 4-bit counter in the low bits of
// 0x10, and the CRC covers len through the payload.
package telemetry

const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64

	frameLenPos  = 0
	frameSeqPos  = 1
	trailerCRC   = 3
	trailerSync  = 1
	FrameSync    = 0x7E
	FrameDest    = 0x10
	FrameSeqMask = 0x0F
)

// Message identifiers, the first VLQ of a payload
const (
	MsgStatus = 1
	MsgTiming = 2
)
