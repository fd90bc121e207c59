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
	"errors"

	"github.com/nabbar/tcpd/semaphore"
)

// ErrPoolClosed is returned by Execute once the pool has been shut down.
var ErrPoolClosed = errors.New("endpoint: thread pool is closed")

// ThreadPool hands a unit of work to a worker goroutine, bounded to some
// maximum concurrency. The Poller submits one task per ready key whose
// processing is not handled inline (see SocketProcessor).
type ThreadPool interface {
	// Execute schedules task to run on a worker goroutine. It returns
	// ErrPoolClosed if the pool has already been shut down; otherwise it
	// blocks only long enough to acquire a worker slot.
	Execute(task func()) error
	// Shutdown stops accepting new tasks and blocks until every
	// in-flight task has returned.
	Shutdown()
}

// semThreadPool is the default ThreadPool, built on a bounded Semaphore: the
// same concurrency-gating primitive used throughout this codebase for
// fan-out work.
type semThreadPool struct {
	sem    semaphore.Semaphore
	cancel context.CancelFunc
	closed chan struct{}
}

// NewThreadPool creates a ThreadPool bounded to maxWorkers concurrent tasks.
// A non-positive maxWorkers means unlimited concurrency.
func NewThreadPool(maxWorkers int) ThreadPool {
	ctx, cancel := context.WithCancel(context.Background())

	m := maxWorkers
	if m <= 0 {
		m = -1
	}

	return &semThreadPool{
		sem:    semaphore.New(ctx, m, false),
		cancel: cancel,
		closed: make(chan struct{}),
	}
}

func (p *semThreadPool) Execute(task func()) error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}

	if err := p.sem.NewWorker(); err != nil {
		return err
	}

	go func() {
		defer p.sem.DeferWorker()
		task()
	}()

	return nil
}

func (p *semThreadPool) Shutdown() {
	select {
	case <-p.closed:
		return
	default:
		close(p.closed)
	}

	p.cancel()
	_ = p.sem.WaitAll()
}
