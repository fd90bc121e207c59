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
	"os"
	"sync/atomic"
)

// SendfileState tracks an in-progress zero-copy file transfer attached to a
// ConnectionWrapper by handler code.
type SendfileState struct {
	File   *os.File
	Pos    int64
	Length int64
	// KeepAlive selects what happens once the transfer completes:
	// KeepAliveNone, KeepAlivePipelined or KeepAliveOpen.
	KeepAlive KeepAliveMode
}

// KeepAliveMode selects the post-sendfile behavior.
type KeepAliveMode uint8

const (
	KeepAliveNone KeepAliveMode = iota
	KeepAlivePipelined
	KeepAliveOpen
)

// ConnectionWrapper is the per-connection state attached to a selector key:
// the owning Poller, current interest set, read/write timestamps and
// timeouts, keep-alive budget and any in-flight sendfile transfer.
//
// A ConnectionWrapper is bound to exactly one Poller from registration
// until close; only that Poller's thread may mutate the wrapper's interest
// set.
type ConnectionWrapper struct {
	Channel Channel
	Poller  *Poller
	Latch   *ConnectionLatch

	interest int32 // InterestMask, accessed atomically for cross-thread reads

	createdMs   int64
	lastReadMs  int64
	lastWriteMs int64

	ReadTimeoutMs  int64
	WriteTimeoutMs int64

	keepAliveRemaining int32
	secure             bool

	sendfile atomic.Pointer[SendfileState]

	closed int32

	// blocking I/O support (§4.9): non-nil once a non-poller thread has
	// registered interest in being woken for a synchronous read/write.
	blockWake atomic.Pointer[chan struct{}]

	lastErr atomic.Pointer[error]
}

// NewConnectionWrapper creates a wrapper bound to the given poller and
// channel, with the initial interest set to READ.
func NewConnectionWrapper(p *Poller, ch Channel, secure bool, readTimeoutMs, writeTimeoutMs int64, keepAliveMax int32) *ConnectionWrapper {
	w := &ConnectionWrapper{
		Channel:            ch,
		Poller:             p,
		secure:             secure,
		createdMs:          nowMs(),
		ReadTimeoutMs:      readTimeoutMs,
		WriteTimeoutMs:     writeTimeoutMs,
		keepAliveRemaining: keepAliveMax,
	}
	w.interest = int32(InterestRead)
	return w
}

func (w *ConnectionWrapper) Interest() InterestMask {
	return InterestMask(atomic.LoadInt32(&w.interest))
}

func (w *ConnectionWrapper) SetInterest(m InterestMask) {
	atomic.StoreInt32(&w.interest, int32(m))
}

func (w *ConnectionWrapper) AddInterest(m InterestMask) InterestMask {
	for {
		old := atomic.LoadInt32(&w.interest)
		n := old | int32(m)
		if atomic.CompareAndSwapInt32(&w.interest, old, n) {
			return InterestMask(n)
		}
	}
}

func (w *ConnectionWrapper) ClearInterest(m InterestMask) InterestMask {
	for {
		old := atomic.LoadInt32(&w.interest)
		n := old &^ int32(m)
		if atomic.CompareAndSwapInt32(&w.interest, old, n) {
			return InterestMask(n)
		}
	}
}

func (w *ConnectionWrapper) LastReadMs() int64  { return atomic.LoadInt64(&w.lastReadMs) }
func (w *ConnectionWrapper) LastWriteMs() int64 { return atomic.LoadInt64(&w.lastWriteMs) }

// TouchRead and TouchWrite bump their respective timestamps. Both are
// monotonically non-decreasing: a timestamp that goes backwards (e.g. a
// stale call racing a newer one) is dropped.
func (w *ConnectionWrapper) TouchRead(nowMs int64) {
	for {
		old := atomic.LoadInt64(&w.lastReadMs)
		if nowMs <= old {
			return
		}
		if atomic.CompareAndSwapInt64(&w.lastReadMs, old, nowMs) {
			return
		}
	}
}

func (w *ConnectionWrapper) TouchWrite(nowMs int64) {
	for {
		old := atomic.LoadInt64(&w.lastWriteMs)
		if nowMs <= old {
			return
		}
		if atomic.CompareAndSwapInt64(&w.lastWriteMs, old, nowMs) {
			return
		}
	}
}

func (w *ConnectionWrapper) Secure() bool { return w.secure }

func (w *ConnectionWrapper) DecrementKeepAlive() int32 {
	return atomic.AddInt32(&w.keepAliveRemaining, -1)
}

func (w *ConnectionWrapper) KeepAliveRemaining() int32 {
	return atomic.LoadInt32(&w.keepAliveRemaining)
}

func (w *ConnectionWrapper) Sendfile() *SendfileState {
	return w.sendfile.Load()
}

func (w *ConnectionWrapper) SetSendfile(s *SendfileState) {
	w.sendfile.Store(s)
}

func (w *ConnectionWrapper) SetError(err error) {
	w.lastErr.Store(&err)
}

func (w *ConnectionWrapper) Error() error {
	if p := w.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// MarkClosed sets the closed flag. Returns true the first time it is
// called, false on every subsequent call: callers use this to guard
// exactly-once teardown logic (latch release, handler.release, ...).
func (w *ConnectionWrapper) MarkClosed() bool {
	return atomic.CompareAndSwapInt32(&w.closed, 0, 1)
}

func (w *ConnectionWrapper) Closed() bool {
	return atomic.LoadInt32(&w.closed) == 1
}
