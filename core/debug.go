package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent records a driver event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Slot      uint8  // timer<<4 | submodule, 0xF submodule for timer-wide events
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtConfigure = 1 // submodule configured, v1=pulse count, v2=prescale
	EvtBegin     = 2 // timer or submodule begun, v1=slot mask
	EvtBeginFail = 3 // begin failed, v1=failed slot mask
	EvtCommit    = 4 // LDOK set, v1=mask
	EvtStart     = 5 // counters started, v1=mask
	EvtStop      = 6 // counters stopped, v1=mask
	EvtFault     = 7 // fault interrupt, v1=FSTS flags
	EvtReloadErr = 8 // reload error seen, v1=status
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem

	slotTimer = 0x0F
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// Disabled by default; the ISR path never prints
	debugEnabled bool = false

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true

	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message, dropping it if the channel is full
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTiming captures an event in the ring buffer. Safe to call from an ISR.
func RecordTiming(eventType, slot uint8, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	state := enterCritical()
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Slot:      slot,
		Clock:     Now(),
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
	exitCritical(state)
}

// TimerSlot is the slot code of timer-wide events of tm
func TimerSlot(tm uint8) uint8 {
	return slotCode(tm, slotTimer)
}

// TimingEvents returns the recorded events, oldest first
func TimingEvents() []TimingEvent {
	var out []TimingEvent
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// EventName is the printable name of a timing event code
func EventName(code uint8) string {
	switch code {
	case EvtConfigure:
		return "CONFIGURE"
	case EvtBegin:
		return "BEGIN"
	case EvtBeginFail:
		return "BEGIN_FAIL!"
	case EvtCommit:
		return "COMMIT"
	case EvtStart:
		return "START"
	case EvtStop:
		return "STOP"
	case EvtFault:
		return "FAULT!"
	case EvtReloadErr:
		return "RELOAD_ERR!"
	}
	return "UNKNOWN"
}

// SlotName formats a timing slot as pwmN or pwmN.smX
func SlotName(slot uint8) string {
	name := "pwm" + utoa(uint32(slot>>4)+1)
	if slot&0x0F != slotTimer {
		name += ".sm" + utoa(uint32(slot&0x0F))
	}
	return name
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" " + SlotName(evt.Slot) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + Hex16(uint16(evt.Value1)) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	state := enterCritical()
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
	exitCritical(state)
}
