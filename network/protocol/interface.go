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

package protocol

import "strings"

// String returns the network string as expected by net.Dial / net.Listen.
// NetworkEmpty returns "" so it can be passed directly to log/syslog.Dial
// to request the local syslog transport.
func (n NetworkProtocol) String() string {
	switch n {
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkUnix:
		return "unix"
	case NetworkUnixGram:
		return "unixgram"
	}

	return ""
}

// Code returns a short, map-key friendly representation of the protocol.
func (n NetworkProtocol) Code() string {
	if s := n.String(); s != "" {
		return s
	}

	return "local"
}

// IsUnix returns true for the unix and unixgram domain socket protocols.
func (n NetworkProtocol) IsUnix() bool {
	return n == NetworkUnix || n == NetworkUnixGram
}

// IsDGram returns true for the datagram-oriented protocols (UDP, unixgram).
func (n NetworkProtocol) IsDGram() bool {
	switch n {
	case NetworkUDP, NetworkUDP4, NetworkUDP6, NetworkUnixGram:
		return true
	}

	return false
}

// Parse converts a human configuration string ("tcp", "udp", "unix", ...)
// into a NetworkProtocol. An unrecognized or empty value returns NetworkEmpty.
func Parse(s string) NetworkProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	case "udp":
		return NetworkUDP
	case "udp4":
		return NetworkUDP4
	case "udp6":
		return NetworkUDP6
	case "unix":
		return NetworkUnix
	case "unixgram":
		return NetworkUnixGram
	}

	return NetworkEmpty
}
