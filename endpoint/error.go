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

import "github.com/nabbar/tcpd/errors"

const (
	ErrorParamsEmpty errors.CodeError = iota + errors.MinPkgEndpoint
	ErrorAlreadyBound
	ErrorNotBound
	ErrorAlreadyRunning
	ErrorNotRunning
	ErrorListen
	ErrorAccept
	ErrorSocketConfigure
	ErrorSelectorCreate
	ErrorSelectorRegister
	ErrorSelectorWait
	ErrorHandshake
	ErrorTLSConfig
	ErrorStopTimeout
)

func init() {
	errors.RegisterIdFctMessage(ErrorParamsEmpty, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorParamsEmpty:
		return "given parameters is empty"
	case ErrorAlreadyBound:
		return "endpoint is already bound"
	case ErrorNotBound:
		return "endpoint is not bound"
	case ErrorAlreadyRunning:
		return "endpoint is already running"
	case ErrorNotRunning:
		return "endpoint is not running"
	case ErrorListen:
		return "cannot listen on configured address"
	case ErrorAccept:
		return "cannot accept inbound connection"
	case ErrorSocketConfigure:
		return "cannot configure accepted socket"
	case ErrorSelectorCreate:
		return "cannot create selector"
	case ErrorSelectorRegister:
		return "cannot register channel on selector"
	case ErrorSelectorWait:
		return "selector wait failed"
	case ErrorHandshake:
		return "tls handshake failed"
	case ErrorTLSConfig:
		return "invalid tls configuration"
	case ErrorStopTimeout:
		return "stop did not complete before timeout"
	}

	return ""
}
