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
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/nabbar/tcpd/cobra"
	"github.com/nabbar/tcpd/endpoint"
	"github.com/nabbar/tcpd/ioutils/fileDescriptor"
	loglvl "github.com/nabbar/tcpd/logger/level"
)

const snapshotInterval = 2 * time.Second

func newServeCommand(app libcbr.Cobra, cfgFile *string) *spfcbr.Command {
	var stopTimeout time.Duration

	cmd := app.NewCommand(
		"start",
		"Bind and run the TCP endpoint",
		"Loads the configuration file, binds the listener, starts the poller pool "+
			"and the built-in echo handler, and blocks until SIGINT/SIGTERM.",
		"",
		"tcpd start --config tcpd.yaml",
	)

	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 5*time.Second, "graceful shutdown timeout")

	cmd.RunE = func(_ *spfcbr.Command, _ []string) error {
		return runServe(*cfgFile, stopTimeout)
	}

	return cmd
}

func runServe(cfgFile string, stopTimeout time.Duration) error {
	vp, err := newConfigViper(cfgFile)
	if err != nil {
		return err
	}

	cfg, err := loadEndpointConfig(vp)
	if err != nil {
		return err
	}

	if verr := cfg.Validate(); verr != nil {
		return verr
	}

	if cfg.MaxConn > 0 {
		// each accepted connection holds one fd; make sure the process
		// ceiling can actually reach the configured connection limit.
		if cur, max, fderr := fileDescriptor.SystemFileDescriptor(cfg.MaxConn + 16); fderr != nil {
			appLogger.Warning("raising file descriptor limit failed", fderr)
		} else {
			appLogger.Info("file descriptor limit: current=%d max=%d", nil, cur, max)
		}
	}

	handler := newEchoHandler(appLogger)
	ep := endpoint.New(cfg, handler)

	if berr := ep.Bind(); berr != nil {
		return berr
	}
	defer func() { _ = ep.Unbind() }()

	if serr := ep.Start(context.Background()); serr != nil {
		return serr
	}

	appLogger.Info("endpoint started", nil)

	raw := vp.Viper()
	raw.OnConfigChange(func(e fsnotify.Event) {
		appLogger.Entry(loglvl.InfoLevel, "configuration file changed").FieldAdd("file", e.Name).Log()

		newCfg, lerr := loadEndpointConfig(vp)
		if lerr != nil {
			appLogger.Warning("reloading configuration failed", lerr)
			return
		}

		ep.Reconfigure(newCfg.MaxConn)
	})
	raw.WatchConfig()

	snapPath := statusFilePath(cfgFile)
	stopSnapshot := make(chan struct{})
	go func() {
		t := time.NewTicker(snapshotInterval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if werr := writeSnapshot(snapPath, newSnapshot(ep, cfg)); werr != nil {
					appLogger.Warning("writing status snapshot failed", werr)
				}
			case <-stopSnapshot:
				return
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	close(stopSnapshot)
	appLogger.Info("shutting down", nil)

	return ep.Stop(stopTimeout)
}
