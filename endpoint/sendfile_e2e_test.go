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

package endpoint_test

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/nabbar/tcpd/endpoint"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// sendfileSize is kept well above sendfileChunk (1MiB) so a transfer spans
// several continueSendfile chunks, and deliberately not chunk-aligned.
const sendfileSize = 2*1024*1024 + 12345

// requestFrameSize is the fixed length of every request frame these tests
// send, so a single non-blocking Read can never slurp up more than one
// frame at a time regardless of how the kernel happened to batch them.
const requestFrameSize = 4

// sendfileHandler attaches a SendfileState to the wrapper on the first
// request it sees, then - for KeepAliveOpen/KeepAlivePipelined - echoes a
// second request once the handler is invoked again.
type sendfileHandler struct {
	mu    sync.Mutex
	reads int

	path string
	mode endpoint.KeepAliveMode
}

func (h *sendfileHandler) Process(w *endpoint.ConnectionWrapper, ev endpoint.SocketEvent) endpoint.HandlerState {
	if ev == endpoint.EventError || ev == endpoint.EventDisconnect {
		return endpoint.StateClosed
	}
	if ev != endpoint.EventOpenRead {
		return endpoint.StateOpen
	}

	// Bounded to exactly one request frame: a non-blocking Read never
	// returns more than len(buf), so a pipelined follow-up request sitting
	// right behind this one in the kernel buffer is left untouched for the
	// next Read rather than being silently swallowed here.
	buf := make([]byte, requestFrameSize)
	n, err := w.Channel.Read(buf)
	if err == endpoint.ErrWouldBlock {
		return endpoint.StateOpen
	}
	if err != nil {
		return endpoint.StateClosed
	}

	h.mu.Lock()
	h.reads++
	first := h.reads == 1
	h.mu.Unlock()

	if first {
		f, ferr := os.Open(h.path)
		if ferr != nil {
			return endpoint.StateClosed
		}
		fi, serr := f.Stat()
		if serr != nil {
			_ = f.Close()
			return endpoint.StateClosed
		}

		w.SetSendfile(&endpoint.SendfileState{File: f, Length: fi.Size(), KeepAlive: h.mode})
		w.Poller.AddInterest(w, endpoint.InterestWrite)
		return endpoint.StateLong
	}

	if _, werr := w.Channel.Write(buf[:n]); werr != nil && werr != endpoint.ErrWouldBlock {
		return endpoint.StateClosed
	}
	return endpoint.StateClosed
}

func (h *sendfileHandler) Release(_ *endpoint.ConnectionWrapper) {}
func (h *sendfileHandler) Recycle()                              {}

func writeSendfileFixture() (path string, content []byte) {
	content = make([]byte, sendfileSize)
	for i := range content {
		content[i] = byte(i)
	}

	f, err := os.CreateTemp("", "endpoint-sendfile-*.bin")
	Expect(err).ToNot(HaveOccurred())

	_, err = f.Write(content)
	Expect(err).ToNot(HaveOccurred())
	Expect(f.Close()).To(Succeed())

	return f.Name(), content
}

var _ = Describe("sendfile transfer", func() {
	It("re-arms READ and advances last_write once a KeepAliveOpen transfer completes", func() {
		path, content := writeSendfileFixture()
		defer func() { _ = os.Remove(path) }()

		handler := &sendfileHandler{path: path, mode: endpoint.KeepAliveOpen}
		props := endpoint.DefaultSocketProperties()
		proc := endpoint.NewSocketProcessor(handler, props)

		p, err := endpoint.NewPoller(proc, nil, props)
		Expect(err).ToNot(HaveOccurred())
		go p.Run()
		defer func() { _ = p.Close() }()

		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())

		w := endpoint.NewConnectionWrapper(p, ch, false, 0, 0, 0)
		p.Register(w)

		_, err = cli.Write([]byte("GET!"))
		Expect(err).ToNot(HaveOccurred())

		received := make([]byte, len(content))
		_ = cli.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, err = io.ReadFull(cli, received)
		Expect(err).ToNot(HaveOccurred())
		Expect(received).To(Equal(content))

		Eventually(w.Interest, time.Second).Should(Equal(endpoint.InterestRead))
		Expect(w.LastWriteMs()).To(BeNumerically(">", int64(0)))

		// KeepAliveOpen does not dispatch on its own: the next request only
		// gets processed once it actually arrives and trips a fresh
		// readiness edge.
		_, err = cli.Write([]byte("req2"))
		Expect(err).ToNot(HaveOccurred())

		echoBuf := make([]byte, 16)
		_ = cli.SetReadDeadline(time.Now().Add(dialTimeout))
		n, err := cli.Read(echoBuf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(echoBuf[:n])).To(Equal("req2"))
	})

	It("dispatches an already-pipelined request immediately under KeepAlivePipelined", func() {
		path, content := writeSendfileFixture()
		defer func() { _ = os.Remove(path) }()

		handler := &sendfileHandler{path: path, mode: endpoint.KeepAlivePipelined}
		props := endpoint.DefaultSocketProperties()
		proc := endpoint.NewSocketProcessor(handler, props)

		p, err := endpoint.NewPoller(proc, nil, props)
		Expect(err).ToNot(HaveOccurred())
		go p.Run()
		defer func() { _ = p.Close() }()

		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())

		w := endpoint.NewConnectionWrapper(p, ch, false, 0, 0, 0)
		p.Register(w)

		_, err = cli.Write([]byte("GET!"))
		Expect(err).ToNot(HaveOccurred())

		// Pipelined: the follow-up request is already sitting in the
		// kernel's receive buffer before the transfer even starts, so
		// there is no further READ readiness edge for the poller to wait
		// on once the file finishes.
		_, err = cli.Write([]byte("req2"))
		Expect(err).ToNot(HaveOccurred())

		received := make([]byte, len(content))
		_ = cli.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, err = io.ReadFull(cli, received)
		Expect(err).ToNot(HaveOccurred())
		Expect(received).To(Equal(content))

		echoBuf := make([]byte, 16)
		_ = cli.SetReadDeadline(time.Now().Add(dialTimeout))
		n, err := cli.Read(echoBuf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(echoBuf[:n])).To(Equal("req2"))
	})

	It("closes the connection once a KeepAliveNone transfer completes", func() {
		path, content := writeSendfileFixture()
		defer func() { _ = os.Remove(path) }()

		handler := &sendfileHandler{path: path, mode: endpoint.KeepAliveNone}
		props := endpoint.DefaultSocketProperties()
		proc := endpoint.NewSocketProcessor(handler, props)

		p, err := endpoint.NewPoller(proc, nil, props)
		Expect(err).ToNot(HaveOccurred())
		go p.Run()
		defer func() { _ = p.Close() }()

		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())

		w := endpoint.NewConnectionWrapper(p, ch, false, 0, 0, 0)
		p.Register(w)

		_, err = cli.Write([]byte("GET!"))
		Expect(err).ToNot(HaveOccurred())

		received := make([]byte, len(content))
		_ = cli.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, err = io.ReadFull(cli, received)
		Expect(err).ToNot(HaveOccurred())
		Expect(received).To(Equal(content))

		_ = cli.SetReadDeadline(time.Now().Add(dialTimeout))
		buf := make([]byte, 16)
		_, err = cli.Read(buf)
		Expect(err).To(HaveOccurred())
	})
})
