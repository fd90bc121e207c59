/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop wraps a pair of start/stop functions into a single
// goroutine-safe lifecycle: Start launches and tracks the start function,
// Stop cancels and waits for it to return, Restart chains the two.
package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nabbar/tcpd/runner"
)

// Func is a blocking or long-running function driven by a cancellable
// context, used for both the start and stop sides of a StartStop runner.
type Func func(ctx context.Context) error

// StartStop manages the lifecycle of a single long-running function.
type StartStop interface {
	// Start launches the start function in a new goroutine. If already
	// running, the previous instance is stopped first. Start never blocks
	// on the function itself; errors from it surface through ErrorsLast.
	Start(ctx context.Context) error
	// Stop cancels the running instance and runs the stop function,
	// waiting for both to complete. Safe to call when not running.
	Stop(ctx context.Context) error
	// Restart stops the current instance, if any, then starts a new one.
	Restart(ctx context.Context) error

	IsRunning() bool
	Uptime() time.Duration

	ErrorsLast() error
	ErrorsList() []error
}

type startStop struct {
	mu sync.Mutex

	fctStart Func
	fctStop  Func

	running bool
	since   time.Time

	cnl context.CancelFunc
	wg  sync.WaitGroup

	errMu sync.Mutex
	errs  []error
}

// New creates a StartStop runner from a start and a stop function. Either
// may be nil; calling Start/Stop in that case records an "invalid ... function"
// error instead of panicking.
func New(start, stop Func) StartStop {
	return &startStop{
		fctStart: start,
		fctStop:  stop,
	}
}

func (s *startStop) addError(err error) {
	if err == nil {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()

	s.errs = []error{err}
}

func (s *startStop) clearErrors() {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	s.errs = nil
}

func (s *startStop) ErrorsLast() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	if len(s.errs) == 0 {
		return nil
	}

	return s.errs[len(s.errs)-1]
}

func (s *startStop) ErrorsList() []error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	return append([]error{}, s.errs...)
}

func (s *startStop) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *startStop) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0
	}

	return time.Since(s.since)
}

func (s *startStop) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		cnl := s.cnl
		s.mu.Unlock()

		cnl()
		s.wg.Wait()

		s.mu.Lock()
	}

	s.clearErrors()

	x, n := context.WithCancel(ctx)
	s.cnl = n
	s.running = true
	s.since = time.Now()
	s.wg.Add(1)

	fct := s.fctStart
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				runner.RecoveryCaller("golib/runner/startStop/start", r)
				s.addError(fmt.Errorf("panic in start function: %v", r))
			}
		}()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		if fct == nil {
			s.addError(fmt.Errorf("invalid start function"))
			return
		}

		s.addError(fct(x))
	}()

	return nil
}

func (s *startStop) Stop(ctx context.Context) error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.running = false
	cnl := s.cnl
	s.mu.Unlock()

	cnl()
	s.wg.Wait()

	fct := s.fctStop

	defer func() {
		if r := recover(); r != nil {
			runner.RecoveryCaller("golib/runner/startStop/stop", r)
			s.addError(fmt.Errorf("panic in stop function: %v", r))
		}
	}()

	if fct == nil {
		s.addError(fmt.Errorf("invalid stop function"))
		return nil
	}

	s.addError(fct(ctx))
	return nil
}

func (s *startStop) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}

	return s.Start(ctx)
}
