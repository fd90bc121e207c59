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

// SocketEvent identifies why a Handler is being invoked for a connection.
type SocketEvent uint8

const (
	EventOpenRead SocketEvent = iota
	EventOpenWrite
	EventError
	EventDisconnect
	EventStop
)

func (e SocketEvent) String() string {
	switch e {
	case EventOpenRead:
		return "OPEN_READ"
	case EventOpenWrite:
		return "OPEN_WRITE"
	case EventError:
		return "ERROR"
	case EventDisconnect:
		return "DISCONNECT"
	case EventStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// HandlerState is the outcome of Handler.Process.
type HandlerState uint8

const (
	// StateOpen means the connection stays open; the caller may
	// re-register interest as returned alongside this state.
	StateOpen HandlerState = iota
	// StateClosed means the connection must be closed.
	StateClosed
	// StateLong means the handler has taken over long-running,
	// out-of-band processing (e.g. via the blocking I/O helper) and the
	// poller should not re-register interest on its own.
	StateLong
)

// Handler is the external, pluggable protocol implementation the core
// dispatches to. Its implementation (HTTP/AJP/etc. framing) is explicitly
// out of scope for this package.
type Handler interface {
	// Process is invoked by a SocketProcessor once handshake (if any) has
	// completed, for every OPEN_READ/OPEN_WRITE/ERROR/DISCONNECT event.
	Process(wrapper *ConnectionWrapper, event SocketEvent) HandlerState
	// Release is invoked on key cancellation so any in-flight processor
	// state associated with wrapper can be discarded.
	Release(wrapper *ConnectionWrapper)
	// Recycle is invoked once on endpoint shutdown.
	Recycle()
}
