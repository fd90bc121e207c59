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
	"errors"
	"syscall"
)

// sendfileChunk bounds a single sendfile(2) call so one very large transfer
// cannot monopolize the poller thread.
const sendfileChunk = 1 << 20 // 1MiB

// continueSendfile pushes one more chunk of a SendfileState's backing file
// directly to the connection's raw socket fd via the sendfile(2) syscall,
// bypassing user-space buffers entirely. Called inline on the poller thread
// for every WRITE-ready tick until the transfer completes or fails.
//
// The secure Channel variant cannot take this path: TLS must see and encrypt
// every byte, so zero-copy kernel-to-socket transfer is not available for it.
// Handler code is expected not to attach a SendfileState to a secure
// ConnectionWrapper; continueSendfile defends against it anyway.
func (p *Poller) continueSendfile(w *ConnectionWrapper, sf *SendfileState) {
	if w.Secure() {
		w.SetSendfile(nil)
		w.SetError(errSendfileOnSecureChannel)
		p.cancelKey(w)
		return
	}

	remaining := sf.Length - sf.Pos
	if remaining <= 0 {
		p.finishSendfile(w, sf)
		return
	}

	n := remaining
	if n > sendfileChunk {
		n = sendfileChunk
	}

	off := sf.Pos
	written, err := syscall.Sendfile(w.Channel.FD(), int(sf.File.Fd()), &off, int(n))

	if written > 0 {
		sf.Pos += int64(written)
		// continueSendfile bypasses the normal dispatch() path (and its
		// TouchWrite call) entirely, so the write-direction idle timeout
		// must be kept fresh here - otherwise a long transfer would look
		// idle on the write side while it is still actively sending.
		w.TouchWrite(nowMs())
	}

	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			_ = p.sel.Modify(w.Channel.FD(), w, InterestWrite)
			return
		}
		w.SetError(err)
		_ = sf.File.Close()
		w.SetSendfile(nil)
		p.cancelKey(w)
		return
	}

	if sf.Pos >= sf.Length {
		p.finishSendfile(w, sf)
		return
	}

	_ = p.sel.Modify(w.Channel.FD(), w, InterestWrite)
}

// finishSendfile re-arms the connection once the transfer completes,
// branching on the keep-alive policy the handler attached to sf:
//
//   - KeepAliveOpen: the next request, if any, has not arrived yet. Just
//     re-arm READ interest and let the next readiness tick dispatch it
//     through the normal poll loop.
//   - KeepAlivePipelined: the caller already pipelined a following request
//     into the socket's receive buffer (common with HTTP pipelining or any
//     protocol that doesn't wait for a response before sending the next
//     request), so there is no READ readiness edge left to wait for - the
//     data is already there. Dispatch EventOpenRead immediately instead of
//     waiting for an edge that already fired.
//   - anything else (KeepAliveNone): the connection is done.
func (p *Poller) finishSendfile(w *ConnectionWrapper, sf *SendfileState) {
	_ = sf.File.Close()
	w.SetSendfile(nil)

	switch sf.KeepAlive {
	case KeepAlivePipelined:
		mask := w.ClearInterest(InterestWrite)
		mask = w.AddInterest(InterestRead)
		_ = p.sel.Modify(w.Channel.FD(), w, mask)

		task := func() { p.process(w, EventOpenRead) }
		if p.pool == nil || p.pool.Execute(task) != nil {
			task()
		}
	case KeepAliveOpen:
		mask := w.ClearInterest(InterestWrite)
		mask = w.AddInterest(InterestRead)
		_ = p.sel.Modify(w.Channel.FD(), w, mask)
	default:
		p.cancelKey(w)
	}
}

var errSendfileOnSecureChannel = errors.New("endpoint: sendfile is not supported on a secure channel")
