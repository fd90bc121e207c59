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

// ReadyKey reports one fd's readiness after a Selector.Wait call.
type ReadyKey struct {
	FD        int
	Wrapper   *ConnectionWrapper
	Ready     InterestMask
	Cancelled bool // the key was absent/invalid; caller should cancel/clean up
}

// Selector is the readiness-multiplexing primitive a Poller owns. Only the
// owning Poller's thread may call Register/Modify/Remove/Wait; Wake may be
// called from any thread to interrupt a blocking Wait.
type Selector interface {
	// Register attaches wrapper to fd with the given initial interest.
	Register(fd int, wrapper *ConnectionWrapper, mask InterestMask) error
	// Modify replaces the watched interest for fd. A mask of InterestNone
	// still watches the fd (for hangup/error detection) without READ/WRITE.
	// wrapper must be the ConnectionWrapper currently attached to fd; on a
	// mismatch Modify returns unix.ENOENT and leaves the attachment
	// untouched instead of applying the caller's stale mutation. This
	// guards against a deferred Modify call racing a kernel-side fd reuse:
	// accept() hands out the lowest free fd, so a closed connection's fd
	// can belong to a brand-new connection by the time a queued event for
	// the old one is drained.
	Modify(fd int, wrapper *ConnectionWrapper, mask InterestMask) error
	// Remove detaches fd from the selector. Removing an fd that was never
	// registered, or already removed, is a no-op.
	Remove(fd int) error
	// Wait blocks up to timeoutMs (0 = return immediately, <0 = block
	// indefinitely until an fd is ready or Wake is called) and returns the
	// set of ready keys.
	Wait(timeoutMs int) ([]ReadyKey, error)
	// Wake interrupts a blocking Wait call, e.g. because an event was
	// pushed to the owning Poller's queue.
	Wake()
	// Close releases the selector's OS resources.
	Close() error
}
