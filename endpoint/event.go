/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package endpoint

import (
	"sync"
	"sync/atomic"
)

// EventOp identifies the kind of interest-set mutation an Event carries.
type EventOp uint8

const (
	// EventRegister attaches a wrapper as a key's attachment with initial
	// interest READ.
	EventRegister EventOp = iota
	// EventAddInterest ORs a mask into the existing interest set for the key.
	EventAddInterest
)

// Event is a deferred instruction to mutate a key's interest set, handed
// from any producer thread to the owning Poller via its EventQueue.
type Event struct {
	Channel Channel
	Wrapper *ConnectionWrapper
	Op      EventOp
	Mask    InterestMask
}

// Reset clears an Event so it can be returned to a pool and reused.
func (e *Event) Reset() {
	e.Channel = nil
	e.Wrapper = nil
	e.Op = EventRegister
	e.Mask = 0
}

// EventQueue is an unbounded MPSC queue of pending interest-set mutations.
// Producers call Push from any thread; the owning Poller alone calls Drain.
//
// Push additionally maintains a wake counter: the 0-to-positive transition
// is reported to wakeFn (if set) so the caller can interrupt a blocking
// selector wait (typically by writing to a registered wake file descriptor).
type EventQueue struct {
	mu     sync.Mutex
	buf    []*Event
	wake   int64
	wakeFn func()
}

// NewEventQueue creates an empty EventQueue. wakeFn, if non-nil, is invoked
// whenever a push transitions the queue from empty to non-empty.
func NewEventQueue(wakeFn func()) *EventQueue {
	return &EventQueue{wakeFn: wakeFn}
}

// Push enqueues an event. Returns true if this push transitioned the queue
// from empty to non-empty.
func (q *EventQueue) Push(e *Event) bool {
	q.mu.Lock()
	q.buf = append(q.buf, e)
	n := len(q.buf)
	q.mu.Unlock()

	atomic.StoreInt64(&q.wake, int64(n))
	transitioned := n == 1

	if transitioned && q.wakeFn != nil {
		q.wakeFn()
	}

	return transitioned
}

// Drain removes and returns every currently queued event, resetting the
// wake counter to 0.
func (q *EventQueue) Drain() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.buf) == 0 {
		return nil
	}

	out := q.buf
	q.buf = nil
	atomic.StoreInt64(&q.wake, 0)

	return out
}

// Pending reports, and atomically clears, whether the queue had events
// awaiting drain at the moment of the call. A Poller calls this immediately
// before deciding whether to select_now() (pending) or block with a timeout
// (not pending).
func (q *EventQueue) Pending() bool {
	return atomic.SwapInt64(&q.wake, -1) > 0
}
