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

// DefaultPoolCapacity is used by any pool created without an explicit
// capacity.
const DefaultPoolCapacity = 128

// Pool is a bounded, thread-safe LIFO object cache. Push returns false when
// the pool is at capacity (the caller must discard/free the item itself).
// Pop returns (zero, false) when the pool is empty (the caller must
// construct a new item).
type Pool[T any] struct {
	mu  sync.Mutex
	cap int
	buf []T
}

// NewPool creates a Pool bounded to capacity items. A non-positive capacity
// falls back to DefaultPoolCapacity.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}

	return &Pool[T]{
		cap: capacity,
		buf: make([]T, 0, capacity),
	}
}

// Push returns the item to the pool. It returns false, without storing the
// item, if the pool is already at capacity.
func (p *Pool[T]) Push(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) >= p.cap {
		return false
	}

	p.buf = append(p.buf, v)
	return true
}

// Pop removes and returns the most recently pushed item. The second return
// value is false if the pool was empty.
func (p *Pool[T]) Pop() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T

	n := len(p.buf)
	if n == 0 {
		return zero, false
	}

	v := p.buf[n-1]
	p.buf[n-1] = zero
	p.buf = p.buf[:n-1]

	return v, true
}

// Len returns the current number of pooled items.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.buf)
}

// Cap returns the configured capacity.
func (p *Pool[T]) Cap() int {
	return p.cap
}
