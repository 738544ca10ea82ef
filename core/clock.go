package core

import "go.uber.org/atomic"

// ClockFreq is the rate of the system tick counter. Task wake times and
// intervals are expressed in these ticks.
const ClockFreq = 1000000 // 1 MHz, one tick per microsecond

var (
	bootTicks uint32
	// read from interrupt context
	systemTicks atomic.Uint32
)

// Now returns the current system time in ticks
func Now() uint32 {
	return systemTicks.Load()
}

// SetNow sets the current system time. The target calls it from its main loop;
// tests call it to drive the task list.
func SetNow(ticks uint32) {
	systemTicks.Store(ticks)
}

// Uptime returns ticks elapsed since ClockInit, tolerating one wrap
func Uptime() uint32 {
	return Now() - bootTicks
}

// TicksFromMS converts milliseconds to ticks
func TicksFromMS(ms uint32) uint32 {
	return ms * (ClockFreq / 1000)
}

// TicksToUS converts ticks to microseconds
func TicksToUS(ticks uint32) uint32 {
	return ticks / (ClockFreq / 1000000)
}

// ClockInit latches the boot time
func ClockInit() {
	bootTicks = Now()
}

// RunTasks updates the current time and runs every task that is due
func RunTasks() {
	currentTime = Now()
	TaskDispatch()
}

// after reports whether tick a is later than b, modulo counter wrap
func after(a, b uint32) bool {
	return int32(a-b) > 0
}
