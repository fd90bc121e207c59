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

//go:build linux

package endpoint

import (
	"sync"

	"golang.org/x/sys/unix"
)

// epollSelector is the Linux Selector implementation. Readiness-based I/O
// multiplexing maps directly onto epoll; a self-pipe-style eventfd provides
// Wake, since epoll_wait itself cannot be interrupted by another thread
// without one.
type epollSelector struct {
	epfd   int
	wakeFd int

	mu  sync.Mutex // guards attach, touched only by Register/Modify/Remove
	att map[int]*ConnectionWrapper

	events []unix.EpollEvent
}

// NewSelector creates a Linux epoll-backed Selector.
func NewSelector() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	s := &epollSelector{
		epfd:   epfd,
		wakeFd: wfd,
		att:    make(map[int]*ConnectionWrapper),
		events: make([]unix.EpollEvent, 256),
	}

	if err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wfd),
	}); err != nil {
		_ = unix.Close(wfd)
		_ = unix.Close(epfd)
		return nil, err
	}

	return s, nil
}

func epollBits(mask InterestMask) uint32 {
	var b uint32
	if mask&InterestRead != 0 {
		b |= unix.EPOLLIN
	}
	if mask&InterestWrite != 0 {
		b |= unix.EPOLLOUT
	}
	return b
}

func (s *epollSelector) Register(fd int, wrapper *ConnectionWrapper, mask InterestMask) error {
	s.mu.Lock()
	s.att[fd] = wrapper
	s.mu.Unlock()

	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: epollBits(mask),
		Fd:     int32(fd),
	})
}

func (s *epollSelector) Modify(fd int, wrapper *ConnectionWrapper, mask InterestMask) error {
	s.mu.Lock()
	cur, ok := s.att[fd]
	s.mu.Unlock()

	if !ok || cur != wrapper {
		// Either never registered or fd was reused by a different
		// connection since the caller last observed it; either way this
		// Modify no longer applies to the connection it was meant for.
		return unix.ENOENT
	}

	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: epollBits(mask),
		Fd:     int32(fd),
	})
}

func (s *epollSelector) Remove(fd int) error {
	s.mu.Lock()
	_, ok := s.att[fd]
	delete(s.att, fd)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (s *epollSelector) Wait(timeoutMs int) ([]ReadyKey, error) {
	n, err := unix.EpollWait(s.epfd, s.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]ReadyKey, 0, n)

	for i := 0; i < n; i++ {
		ev := s.events[i]
		fd := int(ev.Fd)

		if fd == s.wakeFd {
			var buf [8]byte
			_, _ = unix.Read(s.wakeFd, buf[:])
			continue
		}

		s.mu.Lock()
		w, ok := s.att[fd]
		s.mu.Unlock()

		if !ok {
			out = append(out, ReadyKey{FD: fd, Cancelled: true})
			continue
		}

		var ready InterestMask
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			ready |= InterestRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			ready |= InterestWrite
		}

		out = append(out, ReadyKey{FD: fd, Wrapper: w, Ready: ready})
	}

	return out, nil
}

func (s *epollSelector) Wake() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(s.wakeFd, buf[:])
}

func (s *epollSelector) Close() error {
	_ = unix.Close(s.wakeFd)
	return unix.Close(s.epfd)
}
