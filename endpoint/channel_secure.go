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
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	libtls "github.com/nabbar/tcpd/certificates"
)

// wouldBlockErr is returned by fdConn's Read/Write, in place of a genuine
// blocking wait, whenever the underlying non-blocking fd reports EAGAIN.
// crypto/tls.Conn treats any non-nil error from its underlying conn as
// fatal to the in-flight operation and returns it unchanged, which is
// exactly the signal secureChannel.Handshake needs to report NEED_READ or
// NEED_WRITE without ever blocking the poller thread: this is the
// non-blocking-handshake adaptation of crypto/tls, which otherwise assumes
// a blocking net.Conn.
type wouldBlockErr struct{}

func (wouldBlockErr) Error() string   { return "endpoint: fd not ready" }
func (wouldBlockErr) Timeout() bool   { return true }
func (wouldBlockErr) Temporary() bool { return true }

// fdConn adapts a raw non-blocking file descriptor to net.Conn, the shape
// crypto/tls.Conn requires of its transport. It never blocks: EAGAIN is
// surfaced as wouldBlockErr and the last direction attempted is recorded so
// the caller can decide which readiness to wait for next.
type fdConn struct {
	fd        int
	lastWrite int32 // 0 = read was the last blocking op, 1 = write was
}

func (c *fdConn) Read(p []byte) (int, error) {
	atomic.StoreInt32(&c.lastWrite, 0)
	n, err := readFD(c.fd, p)
	if err == ErrWouldBlock {
		return 0, wouldBlockErr{}
	}
	return n, err
}

func (c *fdConn) Write(p []byte) (int, error) {
	atomic.StoreInt32(&c.lastWrite, 1)
	n, err := writeFD(c.fd, p)
	if err == ErrWouldBlock {
		return 0, wouldBlockErr{}
	}
	return n, err
}

func (c *fdConn) Close() error                       { return closeFD(c.fd) }
func (c *fdConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fdConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fdConn) SetDeadline(_ time.Time) error      { return nil }
func (c *fdConn) SetReadDeadline(_ time.Time) error  { return nil }
func (c *fdConn) SetWriteDeadline(_ time.Time) error { return nil }

// secureChannel is the TLS Channel variant: a plaintext Read/Write surface
// backed by a crypto/tls.Conn, itself backed by the raw non-blocking fd via
// fdConn.
type secureChannel struct {
	mu      sync.Mutex
	fc      *fdConn
	tc      *tls.Conn
	cfg     libtls.TLSConfig
	done    int32
	closed  int32
}

// NewSecureChannel builds a TLS Channel from a freshly accepted connection
// and a certificate configuration.
func NewSecureChannel(conn *net.TCPConn, cfg libtls.TLSConfig) (Channel, error) {
	fd, err := dupFD(conn)
	if err != nil {
		return nil, err
	}

	fc := &fdConn{fd: fd}
	tc := tls.Server(fc, cfg.TlsConfig(""))

	return &secureChannel{fc: fc, tc: tc, cfg: cfg}, nil
}

func (c *secureChannel) FD() int { return c.fc.fd }

func (c *secureChannel) Read(buf []byte) (int, error) {
	if atomic.LoadInt32(&c.done) == 0 {
		return 0, errors.New("endpoint: read before handshake complete")
	}

	n, err := c.tc.Read(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return 0, ErrWouldBlock
		}
		if err == io.EOF {
			return 0, io.EOF
		}
		return n, err
	}
	return n, nil
}

func (c *secureChannel) Write(buf []byte) (int, error) {
	if atomic.LoadInt32(&c.done) == 0 {
		return 0, errors.New("endpoint: write before handshake complete")
	}

	n, err := c.tc.Write(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return n, ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

func (c *secureChannel) Handshake(_, _ bool) (HandshakeState, error) {
	if atomic.LoadInt32(&c.done) == 1 {
		return HandshakeComplete, nil
	}

	err := c.tc.Handshake()
	if err == nil {
		atomic.StoreInt32(&c.done, 1)
		return HandshakeComplete, nil
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		if atomic.LoadInt32(&c.fc.lastWrite) == 1 {
			return HandshakeNeedWrite, nil
		}
		return HandshakeNeedRead, nil
	}

	return HandshakeFailed, err
}

func (c *secureChannel) FlushOutbound() error {
	// crypto/tls.Conn flushes synchronously inside Write; there is no
	// separate outbound buffer to drain from outside the package.
	return nil
}

func (c *secureChannel) Reset(conn *net.TCPConn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fc != nil {
		_ = closeFD(c.fc.fd)
	}

	fd, err := dupFD(conn)
	if err != nil {
		return err
	}

	c.fc = &fdConn{fd: fd}
	c.tc = tls.Server(c.fc, c.cfg.TlsConfig(""))
	atomic.StoreInt32(&c.done, 0)
	atomic.StoreInt32(&c.closed, 0)

	return nil
}

func (c *secureChannel) Secure() bool { return true }

func (c *secureChannel) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	tc := c.tc
	c.fc = nil
	c.mu.Unlock()

	if tc != nil {
		_ = tc.Close()
	}

	return nil
}
