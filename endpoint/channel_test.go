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
	"time"

	"github.com/nabbar/tcpd/endpoint"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("plainChannel", func() {
	It("reads bytes written by the peer", func() {
		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ch.Close() }()

		_, err = cli.Write([]byte("hello"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 16)
		var n int
		Eventually(func() error {
			n, err = ch.Read(buf)
			return err
		}, time.Second).Should(Succeed())

		Expect(string(buf[:n])).To(Equal("hello"))
	})

	It("reports ErrWouldBlock when nothing is available", func() {
		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ch.Close() }()

		buf := make([]byte, 16)
		_, err = ch.Read(buf)
		Expect(err).To(Equal(endpoint.ErrWouldBlock))
	})

	It("reports EOF once the peer closes", func() {
		srv, cli := loopbackPair()
		Expect(cli.Close()).ToNot(HaveOccurred())

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ch.Close() }()

		buf := make([]byte, 16)
		Eventually(func() error {
			_, err = ch.Read(buf)
			return err
		}, time.Second).Should(Equal(endpoint.ErrEOF))
	})

	It("completes the handshake immediately (no-op for plain channels)", func() {
		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ch.Close() }()

		state, err := ch.Handshake(true, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(Equal(endpoint.HandshakeComplete))
	})

	It("closes idempotently", func() {
		srv, cli := loopbackPair()
		defer func() { _ = cli.Close() }()

		ch, err := endpoint.NewPlainChannel(srv)
		Expect(err).ToNot(HaveOccurred())

		Expect(ch.Close()).ToNot(HaveOccurred())
		Expect(ch.Close()).ToNot(HaveOccurred())
	})
})
