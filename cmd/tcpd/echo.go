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

package main

import (
	"github.com/nabbar/tcpd/endpoint"
	liblog "github.com/nabbar/tcpd/logger"
)

// echoHandler is the built-in smoke-test Handler: it writes back whatever it
// reads and never closes a connection on its own initiative. It carries no
// protocol framing - this is operational tooling, not a server implementation.
type echoHandler struct {
	log liblog.Logger
}

func newEchoHandler(log liblog.Logger) *echoHandler {
	return &echoHandler{log: log}
}

func (h *echoHandler) Process(w *endpoint.ConnectionWrapper, ev endpoint.SocketEvent) endpoint.HandlerState {
	switch ev {
	case endpoint.EventOpenRead:
		buf := w.Poller.AcquireBuffer()
		defer w.Poller.ReleaseBuffer(buf)

		n, err := w.Channel.Read(buf)
		if err == endpoint.ErrWouldBlock {
			return endpoint.StateOpen
		}
		if err != nil {
			return endpoint.StateClosed
		}

		if _, werr := w.Channel.Write(buf[:n]); werr != nil && werr != endpoint.ErrWouldBlock {
			h.log.Warning("echo write failed", werr)
			return endpoint.StateClosed
		}
		return endpoint.StateOpen

	case endpoint.EventError, endpoint.EventDisconnect:
		return endpoint.StateClosed
	}

	return endpoint.StateOpen
}

func (h *echoHandler) Release(_ *endpoint.ConnectionWrapper) {}
func (h *echoHandler) Recycle()                              {}
