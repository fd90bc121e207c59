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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/nabbar/tcpd/endpoint"
	liblog "github.com/nabbar/tcpd/logger"
	libvpr "github.com/nabbar/tcpd/viper"
)

// statusFileSuffix names the sidecar file a running serve command refreshes
// with a point-in-time snapshot, read back by the status subcommand.
const statusFileSuffix = ".status"

// defaultConfigReader feeds the "configure" subcommand a template built from
// endpoint.DefaultConfig, the same way every other configurable component in
// this codebase seeds its generated config file from its own defaults.
func defaultConfigReader() io.Reader {
	b, _ := json.MarshalIndent(endpoint.DefaultConfig(), "", "  ")
	return bytes.NewReader(b)
}

// newConfigViper builds a viper instance bound to cfgFile (or the current
// directory's "tcpd.json"/"tcpd.yaml"/"tcpd.toml" when empty) and wired to
// the application logger for reload diagnostics.
func newConfigViper(cfgFile string) (libvpr.Viper, error) {
	vp := libvpr.New(context.Background(), func() liblog.Logger { return appLogger })

	raw := vp.Viper()
	if cfgFile != "" {
		raw.SetConfigFile(cfgFile)
	} else {
		raw.SetConfigName("tcpd")
		raw.AddConfigPath(".")
	}

	if err := raw.ReadInConfig(); err != nil {
		return nil, err
	}

	return vp, nil
}

// loadEndpointConfig decodes an endpoint.Config from vp, starting from the
// package defaults so a partial config file only overrides what it sets.
func loadEndpointConfig(vp libvpr.Viper) (endpoint.Config, error) {
	cfg := endpoint.DefaultConfig()
	if err := vp.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func statusFilePath(cfgFile string) string {
	if cfgFile == "" {
		return "tcpd" + statusFileSuffix
	}
	return filepath.Clean(cfgFile) + statusFileSuffix
}
