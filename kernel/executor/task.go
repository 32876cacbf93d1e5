// Package executor implements the per-CPU priority-tiered async task
// executor: task storage, three ready-queue tiers, wakers, anti-starvation
// scheduling and work stealing, as specified by the core's scheduling
// model (there is no OS thread scheduler underneath this -- each CPU runs
// one of these in a loop for the life of the kernel).
package executor

import "sync/atomic"

// TaskId is a monotone task identifier, allocated from one package-wide
// counter shared by every Executor.
type TaskId uint64

// Priority ranks a task's ready queue tier; lower ordinal wins.
type Priority int

const (
	Critical Priority = iota
	Normal
	Background
	priorityCount
)

// TaskMeta describes a task's scheduling attributes at spawn time.
type TaskMeta struct {
	Name     string
	Priority Priority
	// Affinity, if non-nil, pins the task to a specific CPU ID; nil means
	// the task may run on whichever CPU's executor polls it (including
	// after a steal).
	Affinity *uint32
}

// DefaultTaskMeta is what Spawn uses: Normal priority, no affinity.
func DefaultTaskMeta() TaskMeta {
	return TaskMeta{Priority: Normal}
}

// PollState is the two-state result of polling a Future, standing in for
// Rust's Poll<()> since this core's tasks are fire-and-forget (no output
// value is ever observed by the executor).
type PollState int

const (
	Pending PollState = iota
	Ready
)

// Future is anything the executor can drive to completion.
type Future interface {
	Poll(w Waker) PollState
}

// Waker is what a Future's Poll method uses to ask to be polled again.
// The concrete implementation (taskWaker) pushes the task's ID back onto
// its executor's ready queue.
type Waker interface {
	Wake()
}

var nextTaskID atomic.Uint64

func allocTaskID() TaskId {
	return TaskId(nextTaskID.Add(1))
}
