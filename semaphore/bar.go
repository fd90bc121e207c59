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

package semaphore

import (
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar is a Semaphore whose worker lifecycle is mirrored onto a progress bar:
// releasing a worker advances the bar by one unit.
type Bar interface {
	Semaphore

	Total() int64
	Inc(n int)
	Inc64(n int64)
	Complete()
	Completed() bool
}

type bar struct {
	*sem

	mpbBar *mpb.Bar
	total  int64
	drop   bool
	done   atomic.Bool
}

func (s *sem) newBar(title, name string, total int64, drop bool, withBytes bool, prev Bar) Bar {
	b := &bar{
		sem:   s,
		total: total,
		drop:  drop,
	}

	if s.mpb == nil {
		return b
	}

	opts := []mpb.BarOption{
		mpb.PrependDecorators(decor.Name(title+": "+name, decor.WC{W: len(title) + len(name) + 2})),
		mpb.AppendDecorators(decor.Percentage()),
	}

	if p, ok := prev.(*bar); ok && p.mpbBar != nil {
		opts = append(opts, mpb.BarQueueAfter(p.mpbBar, false))
	}

	if withBytes {
		opts = append(opts, mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")))
	}

	b.mpbBar = s.mpb.AddBar(total, opts...)

	return b
}

// BarBytes creates a bar suited for byte-counted progress (downloads, copies).
func (s *sem) BarBytes(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, true, prev)
}

// BarTime creates a bar suited for step-counted, time-bounded progress.
func (s *sem) BarTime(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, false, prev)
}

// BarNumber creates a bar suited for item-counted progress.
func (s *sem) BarNumber(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, false, prev)
}

// BarOpts creates a bare bar with no decorators beyond a percentage counter.
func (s *sem) BarOpts(total int64, drop bool) Bar {
	b := &bar{sem: s, total: total, drop: drop}

	if s.mpb == nil {
		return b
	}

	b.mpbBar = s.mpb.AddBar(total, mpb.AppendDecorators(decor.Percentage()))

	return b
}

func (b *bar) Total() int64 {
	if b.mpbBar == nil {
		return 0
	}

	return b.total
}

func (b *bar) Inc(n int) { b.Inc64(int64(n)) }

func (b *bar) Inc64(n int64) {
	if b.mpbBar != nil {
		b.mpbBar.IncrInt64(n)
	}
}

func (b *bar) Complete() {
	if b.done.Swap(true) {
		return
	}

	if b.mpbBar != nil {
		b.mpbBar.Abort(b.drop)
	}
}

func (b *bar) Completed() bool {
	return b.done.Load()
}

// DeferWorker releases the underlying semaphore slot and advances the bar by
// one unit, matching the release-then-progress contract workers rely on.
func (b *bar) DeferWorker() {
	b.sem.DeferWorker()
	b.Inc(1)
}
