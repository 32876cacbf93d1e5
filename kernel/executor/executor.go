package executor

import (
	"github.com/asterism-labs/hadron-sub002/kernel/sync"
)

// normalStreakLimit is how many consecutive Normal pops are allowed while
// Background has work waiting before one Background task is popped
// instead, preventing Background starvation without giving up Normal's
// latency advantage entirely.
const normalStreakLimit = 100

// taskEntry is what task storage actually holds: the future plus the
// metadata needed to requeue it and to know which tier to wake it into.
type taskEntry struct {
	future Future
	meta   TaskMeta
}

// readyQueues holds the three VecDeque<TaskId>-equivalent tiers plus the
// anti-starvation streak counter, all under one IRQ-safe lock (ready
// queue is a separate lock from task storage so pollers release both
// locks during Poll).
type readyQueues struct {
	tiers        [priorityCount][]TaskId
	normalStreak int
}

// Executor is one CPU's task storage and ready queues. There is exactly
// one Executor per CPU; Current (in current.go) resolves which
// instance a given piece of code should use.
type Executor struct {
	cpuID int

	tasks *sync.IrqSpinLock[map[TaskId]*taskEntry]
	ready *sync.IrqSpinLock[readyQueues]
}

// New builds an empty Executor for the given logical CPU.
func New(cpuID int) *Executor {
	return &Executor{
		cpuID: cpuID,
		tasks: sync.NewIrqSpinLock(map[TaskId]*taskEntry{}),
		ready: sync.NewIrqSpinLock(readyQueues{}),
	}
}

// taskWaker is the concrete Waker every task is polled with: waking it
// pushes the task's ID back onto this executor's ready queue at its
// original priority.
type taskWaker struct {
	exec *Executor
	id   TaskId
	prio Priority
}

func (w *taskWaker) Wake() {
	w.exec.pushReady(w.id, w.prio)
}

func (e *Executor) pushReady(id TaskId, prio Priority) {
	g := e.ready.Lock()
	g.Value().tiers[prio] = append(g.Value().tiers[prio], id)
	g.Unlock()
}

// Spawn schedules future with DefaultTaskMeta (Normal priority, no
// affinity) and returns its TaskId.
func (e *Executor) Spawn(future Future) TaskId {
	return e.SpawnWith(future, DefaultTaskMeta())
}

// SpawnWith schedules future with explicit metadata.
func (e *Executor) SpawnWith(future Future, meta TaskMeta) TaskId {
	id := allocTaskID()

	tg := e.tasks.Lock()
	(*tg.Value())[id] = &taskEntry{future: future, meta: meta}
	tg.Unlock()

	e.pushReady(id, meta.Priority)

	return id
}

// popNext implements the priority-tiered scheduling order: Critical always
// drains first; between Normal and Background, normalStreak enforces that
// after normalStreakLimit consecutive Normal pops with Background
// non-empty, one Background task is popped instead. The streak resets on
// any Critical pop, any Background pop, or whenever Background is empty.
func (e *Executor) popNext() (TaskId, Priority, bool) {
	g := e.ready.Lock()
	defer g.Unlock()
	rq := g.Value()

	if len(rq.tiers[Critical]) > 0 {
		id := popFront(&rq.tiers[Critical])
		rq.normalStreak = 0
		return id, Critical, true
	}

	if len(rq.tiers[Background]) == 0 {
		rq.normalStreak = 0
		if len(rq.tiers[Normal]) > 0 {
			return popFront(&rq.tiers[Normal]), Normal, true
		}
		return 0, 0, false
	}

	if len(rq.tiers[Normal]) > 0 && rq.normalStreak < normalStreakLimit {
		rq.normalStreak++
		return popFront(&rq.tiers[Normal]), Normal, true
	}

	rq.normalStreak = 0
	return popFront(&rq.tiers[Background]), Background, true
}

func popFront(q *[]TaskId) TaskId {
	id := (*q)[0]
	*q = (*q)[1:]
	return id
}

// preemptPendingFn reports whether the current CPU's tick budget has
// expired. It is always false unless SetPreemptPendingFunc installs a
// check; kmain installs none and there is no LAPIC timer handler, so
// RunLoop leaves its drain loop only once the ready queues are empty.
var preemptPendingFn = func() bool { return false }

// SetPreemptPendingFunc installs the function the poll loop consults
// between tasks to decide whether to yield back to the outer loop.
func SetPreemptPendingFunc(fn func() bool) {
	preemptPendingFn = fn
}

// haltUntilInterruptFn idles the CPU when there is no ready work; wired to
// cpu.Halt at boot, a no-op in tests.
var haltUntilInterruptFn = func() {}

// SetHaltFunc installs the function the poll loop calls when the ready
// queues are empty.
func SetHaltFunc(fn func()) {
	haltUntilInterruptFn = fn
}

// RunOnce pops and polls a single ready task, if any, requeuing its
// storage entry on Pending and dropping it on Ready. It reports whether a
// task was actually polled, so tests can drive the loop deterministically
// instead of relying on RunLoop's halt/preempt behavior.
func (e *Executor) RunOnce() bool {
	id, _, ok := e.popNext()
	if !ok {
		return false
	}

	tg := e.tasks.Lock()
	entry, found := (*tg.Value())[id]
	if found {
		delete(*tg.Value(), id)
	}
	tg.Unlock()

	if !found {
		// The timer woke a task while its future was temporarily out of
		// storage (mid-poll on another pass); the stale ID is simply
		// dropped.
		return true
	}

	waker := &taskWaker{exec: e, id: id, prio: entry.meta.Priority}
	if entry.future.Poll(waker) == Pending {
		tg2 := e.tasks.Lock()
		(*tg2.Value())[id] = entry
		tg2.Unlock()
	}

	return true
}

// RunLoop drains ready tasks until none remain or a preemption is
// pending, then halts until the next interrupt, forever. It never
// returns; production boot spawns one goroutine-equivalent (a CPU) per
// Executor and calls this once.
func (e *Executor) RunLoop() {
	for {
		for e.RunOnce() {
			if preemptPendingFn() {
				break
			}
		}
		haltUntilInterruptFn()
	}
}

// TaskCount reports how many tasks are currently stored (ready or waiting
// to be woken; a task being polled is out of storage and not counted),
// used by the one-task rule in work stealing.
func (e *Executor) TaskCount() int {
	g := e.tasks.Lock()
	n := len(*g.Value())
	g.Unlock()
	return n
}

// StealTask tries, in priority order excluding Critical, to pop the back
// of this executor's ready queue on behalf of a thief, honoring the
// one-task rule: a victim with only one runnable task is not stolen from.
func (e *Executor) StealTask() (TaskId, Priority, bool) {
	if e.TaskCount() <= 1 {
		return 0, 0, false
	}

	g := e.ready.Lock()
	defer g.Unlock()
	rq := g.Value()

	for prio := Normal; prio < priorityCount; prio++ {
		if n := len(rq.tiers[prio]); n > 0 {
			id := rq.tiers[prio][n-1]
			rq.tiers[prio] = rq.tiers[prio][:n-1]
			return id, prio, true
		}
	}

	return 0, 0, false
}

// AdoptStolen moves a stolen task's storage entry from victim into e and
// pushes it onto e's ready queue at its original priority, completing the
// steal the caller initiated with victim.StealTask().
func (e *Executor) AdoptStolen(victim *Executor, id TaskId, prio Priority) bool {
	vg := victim.tasks.Lock()
	entry, ok := (*vg.Value())[id]
	if ok {
		delete(*vg.Value(), id)
	}
	vg.Unlock()

	if !ok {
		return false
	}

	tg := e.tasks.Lock()
	(*tg.Value())[id] = entry
	tg.Unlock()

	e.pushReady(id, prio)
	return true
}
