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
	"context"
	"net"
	"sync"
	"time"

	"github.com/nabbar/tcpd/endpoint"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// echoHandler writes back whatever it reads, closing a connection once its
// processed-message count reaches a configured maximum (0 = unbounded).
type echoHandler struct {
	mu        sync.Mutex
	processed int
	maxEcho   int
}

func (h *echoHandler) Process(w *endpoint.ConnectionWrapper, ev endpoint.SocketEvent) endpoint.HandlerState {
	switch ev {
	case endpoint.EventOpenRead:
		buf := make([]byte, 4096)
		n, err := w.Channel.Read(buf)
		if err == endpoint.ErrWouldBlock {
			return endpoint.StateOpen
		}
		if err != nil {
			return endpoint.StateClosed
		}

		if _, werr := w.Channel.Write(buf[:n]); werr != nil && werr != endpoint.ErrWouldBlock {
			return endpoint.StateClosed
		}

		h.mu.Lock()
		h.processed++
		done := h.maxEcho > 0 && h.processed >= h.maxEcho
		h.mu.Unlock()

		if done {
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

var _ = Describe("Endpoint", func() {
	var (
		ep      *endpoint.Endpoint
		handler *echoHandler
	)

	newBoundEndpoint := func() *endpoint.Endpoint {
		cfg := endpoint.DefaultConfig()
		cfg.Address = "127.0.0.1:0"
		cfg.PollerNum = 2

		handler = &echoHandler{}
		e := endpoint.New(cfg, handler)

		Expect(e.Bind()).To(BeNil())
		return e
	}

	AfterEach(func() {
		if ep == nil {
			return
		}
		if ep.IsRunning() {
			Expect(ep.Stop(2 * time.Second)).To(BeNil())
		}
		_ = ep.Unbind()
		ep = nil
	})

	It("rejects Start before Bind", func() {
		cfg := endpoint.DefaultConfig()
		cfg.Address = "127.0.0.1:0"
		e := endpoint.New(cfg, &echoHandler{})

		err := e.Start(context.Background())
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(endpoint.ErrorNotBound)).To(BeTrue())
	})

	It("rejects a second Bind", func() {
		ep = newBoundEndpoint()
		Expect(ep.Bind().IsCode(endpoint.ErrorAlreadyBound)).To(BeTrue())
	})

	It("echoes a single message round-trip over loopback", func() {
		ep = newBoundEndpoint()
		Expect(ep.Start(context.Background())).To(BeNil())

		conn, err := net.DialTimeout("tcp", ep.Addr().String(), dialTimeout)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("ping"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 16)
		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		n, err := conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("ping"))
	})

	It("closes the connection once the handler reports StateClosed", func() {
		ep = newBoundEndpoint()
		handler.maxEcho = 1
		Expect(ep.Start(context.Background())).To(BeNil())

		conn, err := net.DialTimeout("tcp", ep.Addr().String(), dialTimeout)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("x"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 16)
		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		_, err = conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())

		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		_, err = conn.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("serves several concurrent connections across the poller pool", func() {
		ep = newBoundEndpoint()
		Expect(ep.Start(context.Background())).To(BeNil())

		const clients = 8
		var wg sync.WaitGroup
		wg.Add(clients)

		for i := 0; i < clients; i++ {
			go func() {
				defer wg.Done()
				defer GinkgoRecover()

				conn, err := net.DialTimeout("tcp", ep.Addr().String(), dialTimeout)
				Expect(err).ToNot(HaveOccurred())
				defer func() { _ = conn.Close() }()

				_, err = conn.Write([]byte("hi"))
				Expect(err).ToNot(HaveOccurred())

				buf := make([]byte, 16)
				_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
				n, err := conn.Read(buf)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(buf[:n])).To(Equal("hi"))
			}()
		}

		wg.Wait()
	})

	It("pipelines two requests on one connection and enforces the keep-alive budget", func() {
		cfg := endpoint.DefaultConfig()
		cfg.Address = "127.0.0.1:0"
		cfg.PollerNum = 1
		cfg.Socket.KeepAliveMax = 2

		handler = &echoHandler{}
		ep = endpoint.New(cfg, handler)
		Expect(ep.Bind()).To(BeNil())
		Expect(ep.Start(context.Background())).To(BeNil())

		conn, err := net.DialTimeout("tcp", ep.Addr().String(), dialTimeout)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("first"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 16)
		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		n, err := conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("first"))

		// Pipelined: the second request is written without waiting for the
		// first response to be read, so it lands in the kernel's receive
		// buffer while the poller is already re-armed for READ from
		// handling the first one.
		_, err = conn.Write([]byte("second"))
		Expect(err).ToNot(HaveOccurred())

		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		n, err = conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("second"))

		// The keep-alive budget (2) is now exhausted: SocketProcessor
		// downgrades the handler's StateOpen to StateClosed after the
		// second request, so no third request is possible.
		_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
		_, err = conn.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("stops cleanly and reports not-running afterwards", func() {
		ep = newBoundEndpoint()
		Expect(ep.Start(context.Background())).To(BeNil())
		Expect(ep.IsRunning()).To(BeTrue())

		Expect(ep.Stop(2 * time.Second)).To(BeNil())
		Expect(ep.IsRunning()).To(BeFalse())

		err := ep.Stop(time.Second)
		Expect(err.IsCode(endpoint.ErrorNotRunning)).To(BeTrue())
	})
})
