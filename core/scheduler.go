package core

// Task is a main-loop job run at WakeTime. The handler returns SF_DONE to drop
// the task or SF_RESCHEDULE after moving WakeTime forward.
type Task struct {
	WakeTime uint32
	Handler  func(*Task) uint8
	Next     *Task
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	taskList    *Task
	currentTime uint32
)

// ScheduleTask adds a task to the list
func ScheduleTask(t *Task) {
	state := enterCritical()
	defer exitCritical(state)

	insertTask(t)
}

// CancelTask removes a task if it is scheduled
func CancelTask(t *Task) {
	state := enterCritical()
	defer exitCritical(state)

	for p := &taskList; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return
		}
	}
}

// insertTask keeps the list sorted by WakeTime
func insertTask(t *Task) {
	if taskList == nil || after(taskList.WakeTime, t.WakeTime) {
		t.Next = taskList
		taskList = t
		return
	}

	current := taskList
	for current.Next != nil && !after(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TaskDispatch runs due tasks. Handlers run in main-loop context with
// interrupts enabled; only the list manipulation is a critical section.
func TaskDispatch() {
	for {
		state := enterCritical()
		t := taskList
		if t == nil || after(t.WakeTime, currentTime) {
			exitCritical(state)
			return
		}
		taskList = t.Next
		t.Next = nil
		exitCritical(state)

		if t.Handler(t) == SF_RESCHEDULE {
			ScheduleTask(t)
		}
	}
}
