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
	"fmt"

	libval "github.com/go-playground/validator/v10"
	"github.com/nabbar/tcpd/duration"
	liberr "github.com/nabbar/tcpd/errors"
	"github.com/nabbar/tcpd/size"
)

// SocketProperties configures the per-connection socket behavior and the
// object-pool sizing for one endpoint.
type SocketProperties struct {
	// SoLinger sets SO_LINGER in seconds; -1 disables it (OS default).
	SoLinger int `mapstructure:"soLinger" json:"soLinger" yaml:"soLinger" toml:"soLinger" validate:"min=-1"`

	// SoTimeout bounds how long a connection may sit idle (no read or
	// write activity) before the poller cancels it.
	SoTimeout duration.Duration `mapstructure:"soTimeout" json:"soTimeout" yaml:"soTimeout" toml:"soTimeout"`

	// TimeoutInterval is how often the poller scans registered connections
	// for SoTimeout expiry.
	TimeoutInterval duration.Duration `mapstructure:"timeoutInterval" json:"timeoutInterval" yaml:"timeoutInterval" toml:"timeoutInterval"`

	// AppReadBufSize sets both SO_RCVBUF on the accepted socket and the
	// length of the scratch buffers a Poller hands out via AcquireBuffer;
	// zero leaves SO_RCVBUF at the OS default and falls back to
	// defaultBufCapacity for pooled buffers. AppWriteBufSize only sets
	// SO_SNDBUF; zero leaves the OS default in place.
	AppReadBufSize  size.Size `mapstructure:"appReadBufSize" json:"appReadBufSize" yaml:"appReadBufSize" toml:"appReadBufSize"`
	AppWriteBufSize size.Size `mapstructure:"appWriteBufSize" json:"appWriteBufSize" yaml:"appWriteBufSize" toml:"appWriteBufSize"`

	// DirectBuffer is reserved for a future scatter/gather Channel.Read
	// path that writes straight into a pooled buffer without an
	// intermediate copy; not yet wired into either Channel variant.
	DirectBuffer bool `mapstructure:"directBuffer" json:"directBuffer" yaml:"directBuffer" toml:"directBuffer"`

	// EventCache, ChannelCache and BufferCache bound the object pools
	// backing recycled Event, Channel and []byte allocations, each pool
	// scoped to a single Poller.
	EventCache   int `mapstructure:"eventCache" json:"eventCache" yaml:"eventCache" toml:"eventCache" validate:"min=0"`
	ChannelCache int `mapstructure:"channelCache" json:"channelCache" yaml:"channelCache" toml:"channelCache" validate:"min=0"`
	BufferCache  int `mapstructure:"bufferCache" json:"bufferCache" yaml:"bufferCache" toml:"bufferCache" validate:"min=0"`

	// KeepAliveMax caps the number of requests served on one connection
	// before the handler is told to close it; zero means unlimited.
	KeepAliveMax int32 `mapstructure:"keepAliveMax" json:"keepAliveMax" yaml:"keepAliveMax" toml:"keepAliveMax" validate:"min=0"`
}

// DefaultSocketProperties returns the baseline configuration used when the
// caller does not supply one.
func DefaultSocketProperties() SocketProperties {
	return SocketProperties{
		SoLinger:        -1,
		SoTimeout:       duration.Duration(20_000_000_000),  // 20s
		TimeoutInterval: duration.Duration(1_000_000_000),   // 1s
		EventCache:      DefaultPoolCapacity,
		ChannelCache:    DefaultPoolCapacity,
		BufferCache:     DefaultPoolCapacity,
	}
}

func (s SocketProperties) Validate() liberr.Error {
	err := ErrorParamsEmpty.Error(nil)

	if er := libval.New().Struct(s); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		} else if ve, ok := er.(libval.ValidationErrors); ok {
			for _, e := range ve {
				//nolint goerr113
				err.Add(fmt.Errorf("socket property '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
			}
		} else {
			err.Add(er)
		}
	}

	if err.HasParent() {
		return err
	}

	return nil
}
