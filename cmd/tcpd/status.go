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
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	spfcbr "github.com/spf13/cobra"
	"golang.org/x/term"

	libcsl "github.com/nabbar/tcpd/console"
	"github.com/nabbar/tcpd/semaphore"
)

func newStatusCommand(cfgFile *string) *spfcbr.Command {
	cmd := &spfcbr.Command{
		Use:     "status",
		Short:   "Report the running endpoint's connection count",
		Long:    "Reads the status snapshot written by a running \"start\" process and renders it - a live dashboard on a terminal, a one-shot progress bar otherwise.",
		Example: "tcpd status --config tcpd.yaml",
		RunE: func(_ *spfcbr.Command, _ []string) error {
			return runStatus(statusFilePath(*cfgFile))
		},
	}

	return cmd
}

func runStatus(path string) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runStatusInteractive(path)
	}
	return runStatusProgress(path)
}

// runStatusInteractive polls the snapshot file and renders a small live
// dashboard, exiting on any keypress.
func runStatusInteractive(path string) error {
	m := &statusModel{path: path}
	_, err := tea.NewProgram(m).Run()
	return err
}

type statusTickMsg struct{}

type statusModel struct {
	path string
	snap snapshot
	err  error
}

func (m *statusModel) Init() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (m *statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case statusTickMsg:
		m.snap, m.err = readSnapshot(m.path)
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg { return statusTickMsg{} })
	}
	return m, nil
}

func (m *statusModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("tcpd status: %s (press any key to quit)\n", m.err)
	}
	return fmt.Sprintf(
		"tcpd %s\nconnections: %d/%d\n(press any key to quit)\n",
		m.snap.Address, m.snap.Active, m.snap.MaxConn,
	)
}

// runStatusProgress renders a single mpb bar filled to the current
// connection count out of the configured ceiling, for piped/non-interactive
// callers (monitoring scripts, CI smoke tests).
func runStatusProgress(path string) error {
	snap, err := readSnapshot(path)
	if err != nil {
		return err
	}

	total := int64(snap.MaxConn)
	if total <= 0 {
		total = int64(snap.Active)
		if total == 0 {
			total = 1
		}
	}

	sem := semaphore.New(context.Background(), 1, true)
	bar := sem.BarOpts(total, false)
	bar.Inc(snap.Active)
	bar.Complete()
	sem.DeferMain()

	libcsl.ColorPrint.PrintLnf("tcpd %s: %d/%d connections", snap.Address, snap.Active, snap.MaxConn)
	return nil
}
