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
	"context"
	"net"
	"sync"
	"time"

	libtls "github.com/nabbar/tcpd/certificates"
	liberr "github.com/nabbar/tcpd/errors"
)

// Endpoint is the top-level reactor: it owns the bound listener, the
// Acceptor, the fixed pool of Pollers and the ThreadPool, and exposes the
// bind/start/stop/unbind lifecycle external callers drive.
type Endpoint struct {
	mu sync.Mutex

	cfg     Config
	handler Handler

	ln       *net.TCPListener
	latch    *ConnectionLatch
	pollers  []*Poller
	acceptor *Acceptor
	pool     ThreadPool

	bound   bool
	running bool
}

// New creates an Endpoint for the given configuration and Handler. The
// endpoint is not yet bound; call Bind then Start.
func New(cfg Config, handler Handler) *Endpoint {
	return &Endpoint{cfg: cfg, handler: handler}
}

// Bind validates the configuration and opens the listening socket, without
// starting the accept/poll loops yet.
func (e *Endpoint) Bind() liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bound {
		return ErrorAlreadyBound.Error(nil)
	}

	if err := e.cfg.Validate(); err != nil {
		return err
	}

	addr, aerr := net.ResolveTCPAddr("tcp", e.cfg.Address)
	if aerr != nil {
		return ErrorListen.Error(aerr)
	}

	ln, lerr := net.ListenTCP("tcp", addr)
	if lerr != nil {
		return ErrorListen.Error(lerr)
	}

	e.ln = ln
	e.bound = true

	return nil
}

// Start launches the worker pool, the configured number of Pollers and the
// Acceptor. Bind must have been called first.
func (e *Endpoint) Start(_ context.Context) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bound {
		return ErrorNotBound.Error(nil)
	}
	if e.running {
		return ErrorAlreadyRunning.Error(nil)
	}

	var tlsCfg libtls.TLSConfig
	if e.cfg.TLSEnabled && e.cfg.TLS != nil {
		tlsCfg = e.cfg.TLS.New()
	}

	e.pool = NewThreadPool(e.cfg.WorkerMax)
	proc := NewSocketProcessor(e.handler, e.cfg.Socket)

	n := e.cfg.PollerNum
	if n < 1 {
		n = 1
	}

	pollers := make([]*Poller, 0, n)
	for i := 0; i < n; i++ {
		p, err := NewPoller(proc, e.pool, e.cfg.Socket)
		if err != nil {
			for _, started := range pollers {
				_ = started.Close()
			}
			return ErrorSelectorCreate.Error(err)
		}
		pollers = append(pollers, p)
	}
	e.pollers = pollers

	for _, p := range pollers {
		go p.Run()
	}

	e.latch = NewConnectionLatch(e.cfg.MaxConn)
	e.acceptor = NewAcceptor(e.ln, e.latch, e.cfg.Socket, tlsCfg, pollers)
	go e.acceptor.Run()

	e.running = true

	return nil
}

// Stop halts the Acceptor and every Poller, waiting up to timeout for all
// loops to exit cleanly.
func (e *Endpoint) Stop(timeout time.Duration) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrorNotRunning.Error(nil)
	}

	stopped := make(chan struct{})

	go func() {
		if e.acceptor != nil {
			_ = e.acceptor.Close()
		}
		for _, p := range e.pollers {
			_ = p.Close()
		}
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(timeout):
		e.running = false
		return ErrorStopTimeout.Error(nil)
	}

	if e.handler != nil {
		e.handler.Recycle()
	}

	e.running = false

	return nil
}

// Unbind closes the listening socket. Stop must have completed first.
func (e *Endpoint) Unbind() liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bound {
		return ErrorNotBound.Error(nil)
	}
	if e.running {
		return ErrorAlreadyRunning.Error(nil)
	}

	err := e.ln.Close()
	e.bound = false

	if err != nil {
		return ErrorListen.Error(err)
	}

	return nil
}

// IsRunning reports whether the accept/poll loops are currently active.
func (e *Endpoint) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

// Addr returns the bound listener's local address, or nil if not bound.
func (e *Endpoint) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ln == nil {
		return nil
	}

	return e.ln.Addr()
}

// ActiveConnections returns the current count of accepted-not-yet-closed
// connections, as tracked by the connection latch.
func (e *Endpoint) ActiveConnections() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.latch == nil {
		return 0
	}

	return e.latch.Count()
}

// Reconfigure updates the maximum concurrent connections enforced by the
// connection latch while the endpoint is running.
func (e *Endpoint) Reconfigure(maxConn int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.MaxConn = maxConn
	if e.latch != nil {
		e.latch.Reconfigure(maxConn)
	}
}
