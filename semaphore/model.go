/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package semaphore bounds concurrent work with a weighted semaphore, with
// optional mpb progress bars attached to the same worker lifecycle.
package semaphore

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"golang.org/x/sync/semaphore"
)

// Semaphore bounds concurrent workers and exposes the parent context so
// callers can select on it alongside their own channels.
type Semaphore interface {
	context.Context

	// NewWorker blocks until a worker slot is available or the context is done.
	NewWorker() error
	// NewWorkerTry acquires a worker slot without blocking.
	NewWorkerTry() bool
	// DeferWorker releases a worker slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()
	// WaitAll blocks until every acquired worker has been released.
	WaitAll() error
	// DeferMain cancels the semaphore's context and waits for any attached
	// progress bars to finish rendering.
	DeferMain()

	// Weighted returns the configured concurrency limit, or -1 if unlimited.
	Weighted() int64

	// Clone returns a new Semaphore with the same limit, sharing the same
	// progress container (if any) but with its own independent worker count.
	Clone() Semaphore
	// New is an alias of Clone kept for call-site symmetry with New(...).
	New() Semaphore

	BarBytes(title, name string, total int64, drop bool, prev Bar) Bar
	BarTime(title, name string, total int64, drop bool, prev Bar) Bar
	BarNumber(title, name string, total int64, drop bool, prev Bar) Bar
	BarOpts(total int64, drop bool) Bar
}

type sem struct {
	ctx context.Context
	cnl context.CancelFunc

	max int64
	wgt *semaphore.Weighted
	wg  *sync.WaitGroup

	mpb *mpb.Progress
}

// New creates a Semaphore limited to max concurrent workers. A negative max
// means unlimited. When withProgress is true, a mpb progress container is
// created and shared by every bar attached to this semaphore and its clones.
func New(ctx context.Context, max int, withProgress bool) Semaphore {
	x, n := context.WithCancel(ctx)

	s := &sem{
		ctx: x,
		cnl: n,
		max: int64(max),
		wg:  &sync.WaitGroup{},
	}

	if s.max >= 0 {
		s.wgt = semaphore.NewWeighted(s.max)
	}

	if withProgress {
		s.mpb = mpb.New(mpb.WithContext(x))
	}

	return s
}

// MaxSimultaneous returns the default concurrency ceiling derived from the
// number of usable CPUs on the host.
func MaxSimultaneous() int64 {
	return int64(runtime.GOMAXPROCS(0))
}

var simultaneous = MaxSimultaneous()

// SetSimultaneous updates the package-level default concurrency ceiling.
// Non-positive values are ignored and the current ceiling is returned.
func SetSimultaneous(n int64) int64 {
	if n <= 0 {
		return simultaneous
	}

	simultaneous = n
	return simultaneous
}

func (s *sem) newLike() *sem {
	x, n := context.WithCancel(s.ctx)

	c := &sem{
		ctx: x,
		cnl: n,
		max: s.max,
		wg:  &sync.WaitGroup{},
		mpb: s.mpb,
	}

	if s.max >= 0 {
		c.wgt = semaphore.NewWeighted(s.max)
	}

	return c
}

func (s *sem) Clone() Semaphore { return s.newLike() }
func (s *sem) New() Semaphore   { return s.newLike() }

func (s *sem) Weighted() int64 { return s.max }

func (s *sem) DeferMain() {
	s.cnl()

	if s.mpb != nil {
		s.mpb.Wait()
	}
}

func (s *sem) Deadline() (time.Time, bool) { return s.ctx.Deadline() }
func (s *sem) Done() <-chan struct{}       { return s.ctx.Done() }
func (s *sem) Err() error                  { return s.ctx.Err() }
func (s *sem) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}
