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
	libtls "github.com/nabbar/tcpd/certificates"
	liberr "github.com/nabbar/tcpd/errors"
)

// Config is the full external configuration surface for one endpoint: the
// listen address, socket/pool tuning and optional TLS.
type Config struct {
	Address    string           `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required,hostname_port|hostname"`
	MaxConn    int              `mapstructure:"maxConn" json:"maxConn" yaml:"maxConn" toml:"maxConn"`
	PollerNum  int              `mapstructure:"pollerNum" json:"pollerNum" yaml:"pollerNum" toml:"pollerNum" validate:"min=1"`
	WorkerMax  int              `mapstructure:"workerMax" json:"workerMax" yaml:"workerMax" toml:"workerMax"`
	Socket     SocketProperties `mapstructure:"socket" json:"socket" yaml:"socket" toml:"socket"`
	TLS        *libtls.Config   `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
	TLSEnabled bool             `mapstructure:"tlsEnabled" json:"tlsEnabled" yaml:"tlsEnabled" toml:"tlsEnabled"`
}

// DefaultConfig returns the baseline configuration used when the caller does
// not supply one.
func DefaultConfig() Config {
	return Config{
		MaxConn:   -1,
		PollerNum: 1,
		WorkerMax: 0,
		Socket:    DefaultSocketProperties(),
	}
}

// Validate checks the struct tags and, if TLSEnabled, the embedded TLS
// configuration.
func (c *Config) Validate() liberr.Error {
	err := ErrorParamsEmpty.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		} else if ve, ok := er.(libval.ValidationErrors); ok {
			for _, e := range ve {
				//nolint goerr113
				err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
			}
		} else {
			err.Add(er)
		}
	}

	if e := c.Socket.Validate(); e != nil {
		err.Add(e)
	}

	if c.TLSEnabled {
		if c.TLS == nil {
			err.Add(fmt.Errorf("tlsEnabled is set but no tls configuration was given"))
		} else if e := c.TLS.Validate(); e != nil {
			err.Add(e)
		}
	}

	if err.HasParent() {
		return err
	}

	return nil
}
