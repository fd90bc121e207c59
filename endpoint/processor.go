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

// SocketProcessor bridges ready selector keys to the pluggable Handler: it
// decides whether bytes need to move (the handler decides that, actually;
// this type's only job is invocation bookkeeping and keep-alive accounting)
// and forwards the outcome back to the owning Poller.
type SocketProcessor struct {
	handler Handler
	props   SocketProperties
}

// NewSocketProcessor creates a SocketProcessor dispatching to handler.
func NewSocketProcessor(handler Handler, props SocketProperties) *SocketProcessor {
	return &SocketProcessor{handler: handler, props: props}
}

// Process invokes the handler for ev and applies keep-alive accounting: once
// a connection's keep-alive budget is exhausted, an otherwise-StateOpen
// result is downgraded to StateClosed after the handler returns.
func (s *SocketProcessor) Process(w *ConnectionWrapper, ev SocketEvent) HandlerState {
	if s.handler == nil {
		return StateClosed
	}

	state := s.handler.Process(w, ev)

	if state == StateOpen && s.props.KeepAliveMax > 0 && ev == EventOpenRead {
		if w.DecrementKeepAlive() <= 0 {
			return StateClosed
		}
	}

	return state
}

// Recycle releases processor-owned state on endpoint shutdown.
func (s *SocketProcessor) Recycle() {
	if s.handler != nil {
		s.handler.Recycle()
	}
}
