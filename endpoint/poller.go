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
	"net"
	"sync"
	"sync/atomic"
	"time"

	libtls "github.com/nabbar/tcpd/certificates"
)

// pollTimeoutMs bounds how long a Poller blocks in Selector.Wait between
// timeout scans, even with no pending events.
const pollTimeoutMs = 1000

// Poller owns one Selector and drives its reactor loop: drain pending
// register/interest events, wait for readiness, hand ready keys to a
// SocketProcessor (inline for sendfile continuation, via the ThreadPool
// otherwise), and periodically scan for idle-timeout expiry.
type Poller struct {
	sel   Selector
	queue *EventQueue
	proc  *SocketProcessor
	pool  ThreadPool
	props SocketProperties

	eventPool   *Pool[*Event]
	plainPool   *Pool[Channel]
	securePool  *Pool[Channel]
	bufPool     *Pool[[]byte]
	bufCapacity int

	wrappersMu sync.Mutex
	wrappers   map[int]*ConnectionWrapper

	lastTimeoutScan int64 // unix millis, accessed only from the poll loop

	closed int32
	done   chan struct{}
}

// defaultBufCapacity is the scratch buffer length handed out by AcquireBuffer
// when SocketProperties.AppReadBufSize is left at zero.
const defaultBufCapacity = 4096

// NewPoller creates a Poller backed by a fresh Selector.
func NewPoller(proc *SocketProcessor, pool ThreadPool, props SocketProperties) (*Poller, error) {
	sel, err := NewSelector()
	if err != nil {
		return nil, err
	}

	bufCap := int(props.AppReadBufSize)
	if bufCap <= 0 {
		bufCap = defaultBufCapacity
	}

	p := &Poller{
		sel:         sel,
		proc:        proc,
		pool:        pool,
		props:       props,
		eventPool:   NewPool[*Event](props.EventCache),
		plainPool:   NewPool[Channel](props.ChannelCache),
		securePool:  NewPool[Channel](props.ChannelCache),
		bufPool:     NewPool[[]byte](props.BufferCache),
		bufCapacity: bufCap,
		wrappers:    make(map[int]*ConnectionWrapper),
		done:        make(chan struct{}),
	}
	p.queue = NewEventQueue(sel.Wake)

	return p, nil
}

// AcquireChannel hands back a recycled Channel of the requested variant
// reset onto conn, falling back to a fresh allocation when its pool is
// empty. secure selects the Secure Channel variant; cfg is only consulted
// the first time a Secure Channel is allocated for this pool, since
// Reset reuses the TLS configuration captured at construction.
func (p *Poller) AcquireChannel(conn *net.TCPConn, secure bool, cfg libtls.TLSConfig) (Channel, error) {
	pool := p.plainPool
	if secure {
		pool = p.securePool
	}

	if ch, ok := pool.Pop(); ok {
		if err := ch.Reset(conn); err != nil {
			return nil, err
		}
		return ch, nil
	}

	if secure {
		return NewSecureChannel(conn, cfg)
	}
	return NewPlainChannel(conn)
}

// releaseChannel returns ch to its variant's pool for reuse by a future
// accepted connection. ch must already be closed: the pool recycles the
// struct and its buffers, not the now-dead file descriptor. A pool that is
// already at capacity drops the channel, which is a no-op since Close was
// already called.
func (p *Poller) releaseChannel(ch Channel) {
	pool := p.plainPool
	if ch.Secure() {
		pool = p.securePool
	}
	pool.Push(ch)
}

// AcquireBuffer hands back a recycled read/write scratch buffer sized to
// SocketProperties.AppReadBufSize (or defaultBufCapacity), allocating a new
// one when the pool is empty. Handler code borrows one of these instead of
// allocating a fresh buffer per OPEN_READ/OPEN_WRITE dispatch.
func (p *Poller) AcquireBuffer() []byte {
	if b, ok := p.bufPool.Pop(); ok {
		return b
	}
	return make([]byte, p.bufCapacity)
}

// ReleaseBuffer returns a buffer obtained from AcquireBuffer to the pool. A
// buffer whose capacity no longer matches this poller's configured size is
// dropped rather than pooled.
func (p *Poller) ReleaseBuffer(buf []byte) {
	if cap(buf) != p.bufCapacity {
		return
	}
	p.bufPool.Push(buf[:p.bufCapacity])
}

// obtainEvent takes a recycled Event from the pool, or allocates a new one.
func (p *Poller) obtainEvent() *Event {
	if e, ok := p.eventPool.Pop(); ok {
		return e
	}
	return &Event{}
}

func (p *Poller) releaseEvent(e *Event) {
	e.Reset()
	p.eventPool.Push(e)
}

// Register enqueues a new connection for registration with READ interest.
// Safe to call from any thread (typically the Acceptor).
func (p *Poller) Register(w *ConnectionWrapper) {
	e := p.obtainEvent()
	e.Channel = w.Channel
	e.Wrapper = w
	e.Op = EventRegister
	e.Mask = InterestRead

	p.wrappersMu.Lock()
	p.wrappers[w.Channel.FD()] = w
	p.wrappersMu.Unlock()

	p.queue.Push(e)
}

// AddInterest enqueues an interest-set addition for an already-registered
// wrapper. Safe to call from any thread.
func (p *Poller) AddInterest(w *ConnectionWrapper, mask InterestMask) {
	e := p.obtainEvent()
	e.Channel = w.Channel
	e.Wrapper = w
	e.Op = EventAddInterest
	e.Mask = mask

	p.queue.Push(e)
}

// Run drives the reactor loop until Close is called. Intended to be run on
// its own goroutine, one per Poller.
func (p *Poller) Run() {
	defer close(p.done)

	for atomic.LoadInt32(&p.closed) == 0 {
		p.drainEvents()

		timeout := pollTimeoutMs
		if p.queue.Pending() {
			timeout = 0
		}

		keys, err := p.sel.Wait(timeout)
		if err != nil {
			continue
		}

		for _, k := range keys {
			p.handleKey(k)
		}

		p.scanTimeouts()
	}
}

func (p *Poller) drainEvents() {
	for _, e := range p.queue.Drain() {
		switch e.Op {
		case EventRegister:
			w := e.Wrapper
			if err := p.sel.Register(w.Channel.FD(), w, InterestRead); err != nil {
				p.cancelKey(w)
			}
		case EventAddInterest:
			w := e.Wrapper
			if w.Closed() || w.Channel != e.Channel {
				// w was torn down (or its channel recycled) between this
				// event being queued and drained; applying the mutation now
				// would touch whatever connection now occupies that fd.
				// Selector.Modify additionally verifies fd->wrapper identity
				// against its own attachment table before the syscall, as a
				// second, authoritative check.
				break
			}
			mask := w.AddInterest(e.Mask)
			_ = p.sel.Modify(w.Channel.FD(), w, mask)
		}
		p.releaseEvent(e)
	}
}

func (p *Poller) handleKey(k ReadyKey) {
	if k.Cancelled || k.Wrapper == nil {
		return
	}

	w := k.Wrapper

	if notifyBlockWaiters(w) {
		// A blocking-I/O caller parked on this wrapper claims this
		// readiness tick; the Handler is not invoked for it.
		return
	}

	if sf := w.Sendfile(); sf != nil {
		// Sendfile continuation always runs inline on the poller thread:
		// it is bounded, non-blocking work, and dispatching it through the
		// thread pool would only add latency.
		p.continueSendfile(w, sf)
		return
	}

	if w.Secure() {
		readable := k.Ready&InterestRead != 0
		writable := k.Ready&InterestWrite != 0
		state, err := w.Channel.Handshake(readable, writable)

		switch state {
		case HandshakeNeedRead:
			_ = p.sel.Modify(w.Channel.FD(), w, InterestRead)
			return
		case HandshakeNeedWrite:
			_ = p.sel.Modify(w.Channel.FD(), w, InterestWrite)
			return
		case HandshakeFailed:
			w.SetError(err)
			p.cancelKey(w)
			return
		}
		// HandshakeComplete falls through to normal dispatch.
	}

	p.dispatch(w, k.Ready)
}

func (p *Poller) dispatch(w *ConnectionWrapper, ready InterestMask) {
	submit := func(ev SocketEvent) {
		task := func() { p.process(w, ev) }
		if p.pool == nil || p.pool.Execute(task) != nil {
			task()
		}
	}

	if ready&InterestRead != 0 {
		w.TouchRead(nowMs())
		submit(EventOpenRead)
	}
	if ready&InterestWrite != 0 {
		w.TouchWrite(nowMs())
		submit(EventOpenWrite)
	}
}

func (p *Poller) process(w *ConnectionWrapper, ev SocketEvent) {
	state := p.proc.Process(w, ev)

	switch state {
	case StateClosed:
		p.cancelKey(w)
	case StateOpen:
		mask := w.Interest()
		_ = p.sel.Modify(w.Channel.FD(), w, mask)
	case StateLong:
		// Handler owns re-registration via the blocking I/O path.
	}
}

// cancelKey tears down a connection's registration exactly once: Selector
// removal, handler release, channel close and bookkeeping all happen on the
// first caller to observe the wrapper as not-yet-closed; concurrent or
// repeat calls are no-ops.
func (p *Poller) cancelKey(w *ConnectionWrapper) {
	if !w.MarkClosed() {
		return
	}

	fd := w.Channel.FD()

	_ = p.sel.Remove(fd)

	p.wrappersMu.Lock()
	delete(p.wrappers, fd)
	p.wrappersMu.Unlock()

	if p.proc != nil && p.proc.handler != nil {
		p.proc.handler.Release(w)
	}

	_ = w.Channel.Close()
	p.releaseChannel(w.Channel)

	if w.Latch != nil {
		w.Latch.Release()
	}
}

func (p *Poller) scanTimeouts() {
	now := nowMs()
	interval := int64(p.props.TimeoutInterval / 1_000_000)
	if interval <= 0 {
		interval = 1000
	}
	if now-p.lastTimeoutScan < interval {
		return
	}
	p.lastTimeoutScan = now

	defaultTimeout := int64(p.props.SoTimeout / 1_000_000)

	p.wrappersMu.Lock()
	expired := make([]*ConnectionWrapper, 0)
	for _, w := range p.wrappers {
		if isExpired(w, now, defaultTimeout) {
			expired = append(expired, w)
		}
	}
	p.wrappersMu.Unlock()

	for _, w := range expired {
		task := func(w *ConnectionWrapper) func() {
			return func() { p.process(w, EventError) }
		}(w)

		if p.pool == nil || p.pool.Execute(task) != nil {
			task()
		}
	}
}

// Close stops the reactor loop and releases the selector. It blocks until
// the loop goroutine has observed the close flag and returned.
func (p *Poller) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}

	p.sel.Wake()
	<-p.done

	p.wrappersMu.Lock()
	for _, w := range p.wrappers {
		p.cancelKey(w)
	}
	p.wrappersMu.Unlock()

	// cancelKey already closed every pooled channel's fd before pushing it
	// back; draining here just lets the pool slices themselves be collected
	// instead of outliving the poller.
	for {
		if _, ok := p.plainPool.Pop(); !ok {
			break
		}
	}
	for {
		if _, ok := p.securePool.Pop(); !ok {
			break
		}
	}

	return p.sel.Close()
}

// isExpired checks w's idle timeout independently per direction: a READ
// timeout only applies while READ is in w's current interest set (and is
// measured against w's own last read), a WRITE timeout only while WRITE is
// active (against w's own last write). A wrapper with neither direction
// active - e.g. mid-handshake with both read and write already satisfied,
// or parked in blocking I/O - cannot expire here. A direction that has never
// seen activity falls back to the wrapper's creation time, so a connection
// that never sends its first byte still expires instead of idling forever.
func isExpired(w *ConnectionWrapper, now, defaultTimeout int64) bool {
	interest := w.Interest()

	if interest&InterestRead != 0 {
		t := w.ReadTimeoutMs
		if t <= 0 {
			t = defaultTimeout
		}
		if t > 0 {
			last := w.LastReadMs()
			if last == 0 {
				last = w.createdMs
			}
			if now-last > t {
				return true
			}
		}
	}

	if interest&InterestWrite != 0 {
		t := w.WriteTimeoutMs
		if t <= 0 {
			t = defaultTimeout
		}
		if t > 0 {
			last := w.LastWriteMs()
			if last == 0 {
				last = w.createdMs
			}
			if now-last > t {
				return true
			}
		}
	}

	return false
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
