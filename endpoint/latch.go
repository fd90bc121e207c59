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

import "sync"

// ConnectionLatch bounds the number of concurrently established
// connections. Acquire blocks the caller until the count is below the
// configured maximum, then increments it; Release decrements it and wakes
// one waiter.
type ConnectionLatch struct {
	mu    sync.Mutex
	cond  *sync.Cond
	max   int
	count int
}

// NewConnectionLatch creates a ConnectionLatch bounded to max concurrent
// connections. A negative max means unbounded: Acquire never blocks.
func NewConnectionLatch(max int) *ConnectionLatch {
	l := &ConnectionLatch{max: max}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Acquire blocks until the current count is below the configured maximum,
// then increments it. A no-op when the latch is unbounded.
func (l *ConnectionLatch) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max < 0 {
		l.count++
		return
	}

	for l.count >= l.max {
		l.cond.Wait()
	}

	l.count++
}

// Release decrements the count and wakes one waiter blocked in Acquire.
// Release never decrements below zero: releasing more times than acquired
// is a programmer error but does not corrupt the latch state.
func (l *ConnectionLatch) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count > 0 {
		l.count--
	}

	l.cond.Signal()
}

// Count returns the current number of held slots.
func (l *ConnectionLatch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Reconfigure changes the maximum. Passing a negative value makes the latch
// unbounded; existing waiters are woken to re-check the new limit.
func (l *ConnectionLatch) Reconfigure(max int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.max = max
	l.cond.Broadcast()
}
