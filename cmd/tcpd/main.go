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

// Command tcpd is a minimal operational wrapper around the endpoint reactor:
// it loads a config file, binds/starts a poller-backed TCP endpoint running a
// built-in echo handler, and exposes start/stop/status over the command line.
// It is deliberately not a protocol server - framing and routing stay out of
// scope, this is smoke-test and operations tooling around the reactor core.
package main

import (
	"fmt"
	"os"

	libcbr "github.com/nabbar/tcpd/cobra"
	libcsl "github.com/nabbar/tcpd/console"
	liblog "github.com/nabbar/tcpd/logger"
	libver "github.com/nabbar/tcpd/version"
)

// set via -ldflags at build time.
var (
	versionBuild   = "dev"
	versionRelease = "0.0.0"
	versionDate    = ""
	versionAuthor  = "nabbar"
)

var appLogger liblog.Logger

func main() {
	app := libcbr.New()
	app.SetVersion(libver.NewVersion(
		libver.License_MIT,
		"github.com/nabbar/tcpd",
		"TCP endpoint reactor operations CLI",
		versionDate, versionBuild, versionRelease, versionAuthor,
		"tcpd", struct{}{}, 0,
	))

	var cfgFile string
	app.SetFlagConfig(true, &cfgFile)

	var verbose int
	app.SetFlagVerbose(true, &verbose)

	app.SetLogger(func() liblog.Logger { return appLogger })
	app.SetFuncInit(func() {
		appLogger = newAppLogger(verbose)
	})

	app.Init()

	app.AddCommand(
		newServeCommand(app, &cfgFile),
		newStatusCommand(&cfgFile),
	)
	app.AddCommandCompletion()
	app.AddCommandConfigure("tcpd", "tcpd", defaultConfigReader)
	app.AddCommandPrintErrorCode(func(item, value string) {
		libcsl.ColorPrint.PrintLnf("%s: %s", item, value)
	})

	if err := app.Execute(); err != nil {
		// console only writes to stdout; a fatal exit path still belongs on stderr.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
