// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/binkynet/PinWorker/pkg/service/diag"
)

const refreshInterval = time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type Root struct {
	info     Info
	reporter *diag.Reporter
	started  time.Time
	now      time.Time

	term   string
	width  int
	height int

	onlyRejected bool
	stats        diag.Stats
	events       []diag.Event
	viewPort     viewport.Model
	ready        bool
	activity     <-chan struct{}
}

var _ tea.Model = Root{}

// NewRoot creates the root model.
func NewRoot(info Info, reporter *diag.Reporter, started time.Time) Root {
	return Root{
		info:     info,
		reporter: reporter,
		started:  started,
		now:      time.Now(),
	}
}

// Init is the first function that will be called.
func (r Root) Init() tea.Cmd {
	return tea.Batch(doRefresh(), waitForActivity(r.activity))
}

// Update is called when a message is received.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case refreshMsg:
		r = r.reload(time.Time(msg))
		cmds = append(cmds, doRefresh())
	case activityMsg:
		r = r.reload(time.Now())
		cmds = append(cmds, waitForActivity(r.activity))
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
		r = r.resize()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case "e":
			r.onlyRejected = !r.onlyRejected
			r = r.reload(time.Now())
		}
	}

	// Handle keyboard and mouse events in the viewport
	if r.ready {
		var cmd tea.Cmd
		r.viewPort, cmd = r.viewPort.Update(msg)
		cmds = append(cmds, cmd)
	}

	return r, tea.Batch(cmds...)
}

// View renders the program's UI.
func (r Root) View() string {
	s := r.headerView()
	if r.ready {
		return s + r.viewPort.View()
	}
	return s + r.eventsView()
}

func (r Root) headerView() string {
	title := titleStyle.Render("PinWorker " + r.info.Version)
	uptime := "up since " + humanize.Time(r.started)
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", uptime),
		fmt.Sprintf("device %s, grammar %s, %s", r.info.Device, r.info.Grammar, r.info.Bridge),
		r.statsView(),
		"e - Toggle rejected only, q - Disconnect",
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func (r Root) statsView() string {
	stages := make([]string, 0, len(r.stats.PerStage))
	for stage := range r.stats.PerStage {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	parts := []string{fmt.Sprintf("%s lines", humanize.Comma(int64(r.stats.Total)))}
	for _, stage := range stages {
		parts = append(parts, fmt.Sprintf("%s: %s", stage, humanize.Comma(int64(r.stats.PerStage[diag.Stage(stage)]))))
	}
	return strings.Join(parts, ", ")
}

func (r Root) eventsView() string {
	var sb strings.Builder
	// Newest first
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if r.onlyRejected && !e.Rejected() {
			continue
		}
		line := fmt.Sprintf("%-10s %-6s %-8s %q", humanize.RelTime(e.Time, r.now, "ago", "from now"), e.Source, e.Stage, e.Line)
		if e.Command != "" {
			line += " " + e.Command
		}
		if e.Error != "" {
			line += ": " + e.Error
		}
		if e.Rejected() {
			line = rejectedStyle.Render(line)
		} else {
			line = okStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// reload fetches the latest events from the reporter.
func (r Root) reload(now time.Time) Root {
	r.now = now
	if r.reporter != nil {
		r.stats = r.reporter.Stats()
		r.events = r.reporter.Recent(0)
	}
	if r.ready {
		r.viewPort.SetContent(r.eventsView())
	}
	return r
}

// resize (re)creates the viewport for the current window size.
func (r Root) resize() Root {
	headerHeight := lipgloss.Height(r.headerView())
	height := r.height - headerHeight
	if height < 1 {
		height = 1
	}
	if !r.ready {
		r.viewPort = viewport.New(r.width, height)
		r.ready = true
	} else {
		r.viewPort.Width = r.width
		r.viewPort.Height = height
	}
	r.viewPort.SetContent(r.eventsView())
	return r
}

type refreshMsg time.Time

func doRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

type activityMsg struct{}

// waitForActivity waits until the reporter has seen a new event.
func waitForActivity(activity <-chan struct{}) tea.Cmd {
	if activity == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-activity; !ok {
			return nil
		}
		return activityMsg{}
	}
}
