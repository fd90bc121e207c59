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
	"sync/atomic"
	"time"

	libtls "github.com/nabbar/tcpd/certificates"
)

// acceptBackoffMin/Max bound the exponential backoff applied to transient
// Accept errors (e.g. the process briefly running out of file descriptors),
// mirroring the classic "pause a tick and retry" pattern for a server socket
// that must never simply give up on a recoverable error.
const (
	acceptBackoffMin = 5 * time.Millisecond
	acceptBackoffMax = 1 * time.Second
)

// Acceptor owns the bound listening socket. Its loop gates each inbound
// connection through a ConnectionLatch, configures the accepted socket,
// builds the Plain or Secure Channel variant, and hands the resulting
// ConnectionWrapper to one Poller from a fixed pool, chosen round-robin.
type Acceptor struct {
	ln    *net.TCPListener
	latch *ConnectionLatch
	props SocketProperties
	tls   libtls.TLSConfig

	pollers []*Poller
	next    int64

	paused int32
	closed int32
	done   chan struct{}
}

// NewAcceptor wraps an already-bound *net.TCPListener. tls may be nil, in
// which case every accepted connection uses the Plain Channel variant.
func NewAcceptor(ln *net.TCPListener, latch *ConnectionLatch, props SocketProperties, tlsCfg libtls.TLSConfig, pollers []*Poller) *Acceptor {
	return &Acceptor{
		ln:      ln,
		latch:   latch,
		props:   props,
		tls:     tlsCfg,
		pollers: pollers,
		done:    make(chan struct{}),
	}
}

// Pause stops the accept loop from acquiring new latch slots without closing
// the listening socket, used while the endpoint is momentarily over its
// configured connection limit.
func (a *Acceptor) Pause()  { atomic.StoreInt32(&a.paused, 1) }
func (a *Acceptor) Resume() { atomic.StoreInt32(&a.paused, 0) }

// Run drives the accept loop until Close is called. Intended to be run on
// its own goroutine.
func (a *Acceptor) Run() {
	defer close(a.done)

	backoff := acceptBackoffMin

	for atomic.LoadInt32(&a.closed) == 0 {
		for atomic.LoadInt32(&a.paused) == 1 && atomic.LoadInt32(&a.closed) == 0 {
			time.Sleep(acceptBackoffMin)
		}
		if atomic.LoadInt32(&a.closed) == 1 {
			return
		}

		a.latch.Acquire()

		_ = a.ln.SetDeadline(time.Now().Add(acceptBackoffMax))
		conn, err := a.ln.AcceptTCP()

		if err != nil {
			a.latch.Release()

			if atomic.LoadInt32(&a.closed) == 1 {
				return
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Deadline expired with no pending connection: not an
				// error, just a chance to re-check the closed/paused flags.
				backoff = acceptBackoffMin
				continue
			}

			time.Sleep(backoff)
			backoff *= 2
			if backoff > acceptBackoffMax {
				backoff = acceptBackoffMax
			}
			continue
		}

		backoff = acceptBackoffMin
		a.handleAccepted(conn)
	}
}

func (a *Acceptor) handleAccepted(conn *net.TCPConn) {
	if err := configureSocket(conn, a.props); err != nil {
		_ = conn.Close()
		a.latch.Release()
		return
	}

	secure := a.tls != nil

	// Pick the destination poller first so the channel is acquired from
	// (and, on teardown, returned to) that poller's own pool rather than a
	// pool it will never see again.
	p := a.nextPoller()

	ch, err := p.AcquireChannel(conn, secure, a.tls)
	if err != nil {
		a.latch.Release()
		return
	}

	soTimeoutMs := int64(a.props.SoTimeout) / 1_000_000
	w := NewConnectionWrapper(p, ch, secure, soTimeoutMs, soTimeoutMs, a.props.KeepAliveMax)
	w.Latch = a.latch

	p.Register(w)
}

// nextPoller round-robins across the fixed poller pool.
func (a *Acceptor) nextPoller() *Poller {
	n := atomic.AddInt64(&a.next, 1) - 1
	return a.pollers[int(n)%len(a.pollers)]
}

// Close stops the accept loop and closes the listening socket. It blocks
// until the loop goroutine has returned.
func (a *Acceptor) Close() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil
	}

	err := a.ln.Close()
	<-a.done

	return err
}
