package dispatcher

import (
	"context"
	"time"

	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

// Queue is the bounded FIFO of pending upgrade requests described in
// spec.md §4.6. Any number of producers may Push; the dispatcher's run loop
// pops with PopBlocking, and each worker pops follow-up requests with
// PopTimed.
type Queue struct {
	items chan upgrade.Request
}

// NewQueue builds a Queue holding at most capacity pending requests.
func NewQueue(capacity int) *Queue {
	return &Queue{items: make(chan upgrade.Request, capacity)}
}

// Push enqueues req, blocking the caller if the queue is full until room
// frees up or ctx is done.
func (q *Queue) Push(ctx context.Context, req upgrade.Request) error {
	select {
	case q.items <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PopBlocking waits indefinitely (until ctx is done) for the next request.
func (q *Queue) PopBlocking(ctx context.Context) (upgrade.Request, error) {
	select {
	case req := <-q.items:
		return req, nil
	case <-ctx.Done():
		return upgrade.Request{}, ctx.Err()
	}
}

// PopTimed waits up to d for the next request. ok is false if d elapses or
// ctx is done first, in which case the caller should stop looking for more
// work rather than treat it as an error.
func (q *Queue) PopTimed(ctx context.Context, d time.Duration) (req upgrade.Request, ok bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case req := <-q.items:
		return req, true
	case <-timer.C:
		return upgrade.Request{}, false
	case <-ctx.Done():
		return upgrade.Request{}, false
	}
}

// Len reports the number of requests currently queued.
func (q *Queue) Len() int {
	return len(q.items)
}
