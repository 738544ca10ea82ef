package core

import "testing"

func resetTasks() {
	taskList = nil
	SetNow(0)
}

func TestTaskOrder(t *testing.T) {
	resetTasks()
	var order []int
	mk := func(id int, wake uint32) *Task {
		return &Task{WakeTime: wake, Handler: func(*Task) uint8 {
			order = append(order, id)
			return SF_DONE
		}}
	}

	ScheduleTask(mk(3, 300))
	ScheduleTask(mk(1, 100))
	ScheduleTask(mk(2, 200))

	SetNow(150)
	RunTasks()
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("Expected only task 1 at t=150, got %v", order)
	}

	SetNow(300)
	RunTasks()
	if len(order) != 3 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected tasks 1,2,3, got %v", order)
	}
	if taskList != nil {
		t.Errorf("Expected empty task list")
	}
}

func TestTaskReschedule(t *testing.T) {
	resetTasks()
	runs := 0
	task := &Task{WakeTime: 10, Handler: func(tk *Task) uint8 {
		runs++
		tk.WakeTime += 10
		return SF_RESCHEDULE
	}}
	ScheduleTask(task)

	for now := uint32(0); now <= 50; now += 5 {
		SetNow(now)
		RunTasks()
	}
	if runs != 5 {
		t.Errorf("Expected 5 runs, got %d", runs)
	}

	CancelTask(task)
	SetNow(1000)
	RunTasks()
	if runs != 5 {
		t.Errorf("Cancelled task ran: %d runs", runs)
	}
}

func TestTaskClockWrap(t *testing.T) {
	resetTasks()
	ran := false
	SetNow(0xFFFFFFF0)
	ScheduleTask(&Task{WakeTime: 0x10, Handler: func(*Task) uint8 {
		ran = true
		return SF_DONE
	}})

	RunTasks()
	if ran {
		t.Fatalf("Task ran before its wake time")
	}
	SetNow(0x20)
	RunTasks()
	if !ran {
		t.Errorf("Task did not run after the clock wrapped")
	}
}
