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
	"io"
	"net"
	"syscall"
)

// InterestMask is a bitmask over READ|WRITE watched by a selector key.
type InterestMask uint8

const (
	InterestNone  InterestMask = 0
	InterestRead  InterestMask = 1 << 0
	InterestWrite InterestMask = 1 << 1
)

// HandshakeState is the outcome of a Channel's Handshake call.
type HandshakeState int8

const (
	// HandshakeComplete means the channel is ready for plaintext read/write.
	HandshakeComplete HandshakeState = 0
	// HandshakeNeedRead means the caller must re-register READ and retry.
	HandshakeNeedRead HandshakeState = 1
	// HandshakeNeedWrite means the caller must re-register WRITE and retry.
	HandshakeNeedWrite HandshakeState = 2
	// HandshakeFailed means the handshake cannot proceed; the connection
	// must be closed.
	HandshakeFailed HandshakeState = -1
)

// io result sentinels used in place of (n, err) pairs with platform-specific
// error codes, so callers can branch without importing syscall/unix.
var (
	// ErrWouldBlock is returned by Read/Write when no data is currently
	// available/writable on a non-blocking socket.
	ErrWouldBlock = syscall.EAGAIN
	// ErrEOF is returned by Read when the peer has closed its write side.
	ErrEOF = io.EOF
)

// Channel owns one non-blocking stream socket plus its read/write byte
// buffers. The Plain variant is a thin wrapper over the raw file descriptor;
// the Secure variant additionally owns TLS handshake state and encrypted
// network-side buffers.
type Channel interface {
	// FD returns the raw, non-blocking file descriptor backing this channel.
	FD() int

	// Read reads plaintext into buf. Returns (n, nil) for a partial or full
	// read, (0, ErrWouldBlock) if nothing is currently available, or
	// (0, ErrEOF) at end of stream.
	Read(buf []byte) (int, error)
	// Write writes plaintext from buf. Returns (n, nil) for a partial or
	// full write, or (0, ErrWouldBlock) if the socket send buffer is full.
	Write(buf []byte) (int, error)

	// Handshake advances any protocol handshake. readable/writable report
	// which directions are currently ready, as observed by the poller.
	Handshake(readable, writable bool) (HandshakeState, error)

	// FlushOutbound drains any buffered outbound bytes that Write could not
	// push directly to the socket (relevant to the secure variant only;
	// a no-op for the plain variant).
	FlushOutbound() error

	// Reset clears buffered state so the channel can be recycled from a
	// pool for a new accepted socket.
	Reset(conn *net.TCPConn) error

	// Secure reports whether this channel is the TLS variant.
	Secure() bool

	// Close releases the underlying socket. Calling Close more than once
	// is safe; subsequent calls are no-ops.
	Close() error
}

// dupFD extracts the raw file descriptor from a *net.TCPConn and puts it in
// non-blocking mode under our own control, detaching it from the Go
// runtime's integrated netpoller for the lifetime of the channel: the
// endpoint's own epoll instance becomes the sole reader of this fd's
// readiness.
func dupFD(conn *net.TCPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return -1, err
	}

	var (
		fd  int
		dup int
		derr error
	)

	err = raw.Control(func(f uintptr) {
		fd = int(f)
		dup, derr = syscall.Dup(fd)
	})
	if err != nil {
		return -1, err
	}
	if derr != nil {
		return -1, derr
	}

	if err = syscall.SetNonblock(dup, true); err != nil {
		_ = syscall.Close(dup)
		return -1, err
	}

	// The original conn is no longer needed for data transfer; closing it
	// releases its Go-runtime bookkeeping without closing the duplicated fd.
	_ = conn.Close()

	return dup, nil
}

func closeFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return syscall.Close(fd)
}

func readFD(fd int, buf []byte) (int, error) {
	n, err := syscall.Read(fd, buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func writeFD(fd int, buf []byte) (int, error) {
	n, err := syscall.Write(fd, buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// configureSocket applies SocketProperties-driven options to an accepted
// connection before it is handed to a Channel.
func configureSocket(conn *net.TCPConn, p SocketProperties) error {
	if err := conn.SetNoDelay(true); err != nil {
		return err
	}
	if p.SoLinger >= 0 {
		if err := conn.SetLinger(p.SoLinger); err != nil {
			return err
		}
	}
	if p.AppReadBufSize > 0 {
		_ = conn.SetReadBuffer(int(p.AppReadBufSize))
	}
	if p.AppWriteBufSize > 0 {
		_ = conn.SetWriteBuffer(int(p.AppWriteBufSize))
	}
	return nil
}
