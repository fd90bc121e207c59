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
	"time"
)

// BlockingIO lets a Handler that must run off the poller thread (e.g. one
// dedicated OS thread per connection, for a protocol with no natural
// event-driven decomposition) perform a synchronous read or write against a
// ConnectionWrapper's non-blocking channel, by parking on a one-shot wake
// channel that the owning Poller closes once the fd becomes ready.
//
// This is the bridge between the reactor's non-blocking channels and code
// that wants ordinary blocking semantics; it is deliberately a last resort,
// since it ties up a goroutine (and, if the caller pins it, an OS thread)
// for the duration of the wait.
type BlockingIO struct {
	w *ConnectionWrapper
	p *Poller
}

// NewBlockingIO builds a helper bound to w, whose Poller must drive w's
// readiness.
func NewBlockingIO(w *ConnectionWrapper) *BlockingIO {
	return &BlockingIO{w: w, p: w.Poller}
}

// Read blocks the calling goroutine until either buf can be read from w's
// channel, timeout elapses, or w is closed by another goroutine.
func (b *BlockingIO) Read(buf []byte, timeout time.Duration) (int, error) {
	for {
		n, err := b.w.Channel.Read(buf)
		if err != ErrWouldBlock {
			return n, err
		}

		if b.w.Closed() {
			return 0, ErrEOF
		}

		if !b.wait(InterestRead, timeout) {
			return 0, ErrWouldBlock
		}
	}
}

// Write blocks the calling goroutine until either buf can be written to w's
// channel, timeout elapses, or w is closed by another goroutine.
func (b *BlockingIO) Write(buf []byte, timeout time.Duration) (int, error) {
	total := 0

	for total < len(buf) {
		n, err := b.w.Channel.Write(buf[total:])
		if err != nil && err != ErrWouldBlock {
			return total, err
		}

		total += n

		if total >= len(buf) {
			break
		}

		if b.w.Closed() {
			return total, ErrEOF
		}

		if !b.wait(InterestWrite, timeout) {
			return total, ErrWouldBlock
		}
	}

	return total, nil
}

// wait parks the calling goroutine on a one-shot wake channel, registered
// with the owning Poller as additional interest, until woken or timeout.
// Returns false on timeout.
func (b *BlockingIO) wait(mask InterestMask, timeout time.Duration) bool {
	wake := make(chan struct{})
	b.w.blockWake.Store(&wake)

	b.p.AddInterest(b.w, mask)

	if timeout <= 0 {
		<-wake
		return true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-wake:
		return true
	case <-t.C:
		return false
	}
}

// notifyBlockWaiters is invoked by the poller dispatch path before handing a
// ready key to the processor, whenever a wrapper has a pending blocking-I/O
// wait registered: it closes the one-shot channel instead of dispatching to
// the Handler, letting the parked goroutine resume the synchronous call.
func notifyBlockWaiters(w *ConnectionWrapper) bool {
	wp := w.blockWake.Load()
	if wp == nil {
		return false
	}

	if !w.blockWake.CompareAndSwap(wp, nil) {
		return false
	}

	close(*wp)
	return true
}
