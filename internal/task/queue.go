// Package task sequences ordered steps with abort and skip control.
package task

import "sync"

// Queue is an ordered list of deferred steps. A running step decides what
// happens next by calling Advance, Abort or Skip once its own work resolves.
// The lock is never held while a step runs, so steps may call back into the
// queue.
type Queue struct {
	mu    sync.Mutex
	steps []func()
}

func NewQueue(steps ...func()) *Queue {
	q := &Queue{}
	q.Push(steps...)
	return q
}

// Push appends steps to the end of the queue.
func (q *Queue) Push(steps ...func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.steps = append(q.steps, steps...)
}

// Advance removes the next step and runs it. It reports false when the queue
// was empty.
func (q *Queue) Advance() bool {
	q.mu.Lock()
	if len(q.steps) == 0 {
		q.mu.Unlock()
		return false
	}
	next := q.steps[0]
	q.steps[0] = nil
	q.steps = q.steps[1:]
	q.mu.Unlock()

	next()
	return true
}

// Abort discards every remaining step.
func (q *Queue) Abort() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.steps = nil
}

// Skip discards the next step without running it.
func (q *Queue) Skip() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.steps) > 0 {
		q.steps[0] = nil
		q.steps = q.steps[1:]
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.steps)
}
