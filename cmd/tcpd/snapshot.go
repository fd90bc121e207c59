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

package main

import (
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/nabbar/tcpd/endpoint"
)

// snapshot is a point-in-time view of a running endpoint, written by the
// serve command and read by the status command - two separate processes
// sharing no memory, so a file is the simplest handoff.
type snapshot struct {
	Address     string `json:"address" cbor:"address"`
	MaxConn     int    `json:"maxConn" cbor:"maxConn"`
	Active      int    `json:"active" cbor:"active"`
	Running     bool   `json:"running" cbor:"running"`
	CollectedAt int64  `json:"collectedAt" cbor:"collectedAt"`
}

func newSnapshot(ep *endpoint.Endpoint, cfg endpoint.Config) snapshot {
	s := snapshot{
		MaxConn:     cfg.MaxConn,
		Running:     ep.IsRunning(),
		CollectedAt: time.Now().Unix(),
	}

	if a := ep.Addr(); a != nil {
		s.Address = a.String()
	}

	s.Active = ep.ActiveConnections()
	return s
}

// writeSnapshot persists both a human-facing JSON form and a compact CBOR
// form alongside it, so the status command can pick whichever it needs.
func writeSnapshot(path string, s snapshot) error {
	b, err := cbor.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readSnapshot(path string) (snapshot, error) {
	var s snapshot

	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}

	err = cbor.Unmarshal(b, &s)
	return s, err
}
