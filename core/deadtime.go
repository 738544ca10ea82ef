package core

// DeadtimeMax is the largest value of the 11-bit dead-time counters.
const DeadtimeMax = 0x7FF

// DeadtimeTicks converts a dead time in nanoseconds to counter ticks at
// clockHz, rounding down and clamping to DeadtimeMax.
func DeadtimeTicks(clockHz, ns uint32) uint16 {
	ticks := uint64(clockHz) * uint64(ns) / 1000000000
	if ticks > DeadtimeMax {
		return DeadtimeMax
	}
	return uint16(ticks)
}

// DeadtimeNs is the inverse of DeadtimeTicks, rounded down
func DeadtimeNs(clockHz uint32, ticks uint16) uint32 {
	if clockHz == 0 {
		return 0
	}
	return uint32(uint64(ticks) * 1000000000 / uint64(clockHz))
}
