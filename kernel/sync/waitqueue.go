package sync

// Waker is anything that can be woken; the executor package's task wakers
// satisfy this, and tests use a trivial closure-backed implementation.
type Waker interface {
	Wake()
}

// waitQueueCapacity bounds the fixed-slot WaitQueue; HeapWaitQueue has no
// such bound.
const waitQueueCapacity = 32

// WaitQueue is a bounded slot array of wakers. register_waker failing
// (the array is full) signals the caller to self-wake and degrade to spin
// polling rather than block forever with no way to be woken.
type WaitQueue struct {
	slots [waitQueueCapacity]Waker
	count int
}

// RegisterWaker stores w in the first empty slot and reports whether
// there was room.
func (q *WaitQueue) RegisterWaker(w Waker) bool {
	for i := range q.slots {
		if q.slots[i] == nil {
			q.slots[i] = w
			q.count++
			return true
		}
	}
	return false
}

// WakeOne wakes and removes the first registered waker, if any, and
// reports whether one was found.
func (q *WaitQueue) WakeOne() bool {
	for i := range q.slots {
		if q.slots[i] != nil {
			w := q.slots[i]
			q.slots[i] = nil
			q.count--
			w.Wake()
			return true
		}
	}
	return false
}

// WakeAll wakes and removes every registered waker.
func (q *WaitQueue) WakeAll() {
	for i := range q.slots {
		if q.slots[i] != nil {
			w := q.slots[i]
			q.slots[i] = nil
			q.count--
			w.Wake()
		}
	}
}

// Len reports how many wakers are currently registered.
func (q *WaitQueue) Len() int {
	return q.count
}

// HeapWaitQueue is the unbounded counterpart to WaitQueue: RegisterWaker
// always succeeds, backed by a resizable slice instead of a fixed array.
// Used by collaborators (e.g. the pipe buffer) where bounding the number
// of blocked readers/writers has no natural small limit.
type HeapWaitQueue struct {
	wakers []Waker
}

// RegisterWaker appends w; always succeeds.
func (q *HeapWaitQueue) RegisterWaker(w Waker) bool {
	q.wakers = append(q.wakers, w)
	return true
}

// WakeOne wakes and removes the oldest registered waker, if any.
func (q *HeapWaitQueue) WakeOne() bool {
	if len(q.wakers) == 0 {
		return false
	}
	w := q.wakers[0]
	q.wakers = q.wakers[1:]
	w.Wake()
	return true
}

// WakeAll wakes and removes every registered waker.
func (q *HeapWaitQueue) WakeAll() {
	wakers := q.wakers
	q.wakers = nil
	for _, w := range wakers {
		w.Wake()
	}
}

// Len reports how many wakers are currently registered.
func (q *HeapWaitQueue) Len() int {
	return len(q.wakers)
}
