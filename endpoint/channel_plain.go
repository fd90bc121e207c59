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
	"net"
	"sync"
	"sync/atomic"
)

// plainChannel is the non-TLS Channel variant: a thin, non-blocking wrapper
// over one raw socket fd.
type plainChannel struct {
	mu     sync.Mutex
	fd     int
	closed int32
}

// NewPlainChannel builds a Channel from a freshly accepted connection,
// taking over its raw file descriptor.
func NewPlainChannel(conn *net.TCPConn) (Channel, error) {
	fd, err := dupFD(conn)
	if err != nil {
		return nil, err
	}
	return &plainChannel{fd: fd}, nil
}

func (c *plainChannel) FD() int { return c.fd }

func (c *plainChannel) Read(buf []byte) (int, error) {
	return readFD(c.fd, buf)
}

func (c *plainChannel) Write(buf []byte) (int, error) {
	return writeFD(c.fd, buf)
}

func (c *plainChannel) Handshake(_, _ bool) (HandshakeState, error) {
	return HandshakeComplete, nil
}

func (c *plainChannel) FlushOutbound() error { return nil }

func (c *plainChannel) Reset(conn *net.TCPConn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fd >= 0 {
		_ = closeFD(c.fd)
	}

	fd, err := dupFD(conn)
	if err != nil {
		c.fd = -1
		return err
	}

	c.fd = fd
	atomic.StoreInt32(&c.closed, 0)

	return nil
}

func (c *plainChannel) Secure() bool { return false }

func (c *plainChannel) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	fd := c.fd
	c.fd = -1
	c.mu.Unlock()

	return closeFD(fd)
}
