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
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"

	"github.com/binkynet/PinWorker/pkg/service/diag"
)

// Info is the static description of the running pin worker.
type Info struct {
	Version string
	Device  string
	Grammar string
	Bridge  string
}

// UI serves a status view over SSH.
type UI struct {
	info     Info
	reporter *diag.Reporter
	started  time.Time

	mutex    sync.Mutex
	sessions map[chan struct{}]struct{}
}

// New creates a new UI for the given reporter.
func New(info Info, reporter *diag.Reporter) *UI {
	u := &UI{
		info:     info,
		reporter: reporter,
		started:  time.Now(),
		sessions: make(map[chan struct{}]struct{}),
	}
	// One subscription for all sessions; pubsub cannot tell closures apart on Leave.
	reporter.Subscribe(func(diag.Event) { u.notify() })
	return u
}

// notify wakes up all sessions without blocking on slow ones.
func (u *UI) notify() {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	for ch := range u.sessions {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// register adds a session that wants to be woken up on new events.
// The returned function removes it again.
func (u *UI) register() (chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	u.mutex.Lock()
	u.sessions[ch] = struct{}{}
	u.mutex.Unlock()
	return ch, func() {
		u.mutex.Lock()
		delete(u.sessions, ch)
		close(ch)
		u.mutex.Unlock()
	}
}

// Handler creates the model for an incoming SSH session.
func (u *UI) Handler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := s.Pty()
	root := NewRoot(u.info, u.reporter, u.started)
	activity, unregister := u.register()
	go func() {
		<-s.Context().Done()
		unregister()
	}()
	root.activity = activity
	root.term = pty.Term
	root.width = pty.Window.Width
	root.height = pty.Window.Height
	return root, []tea.ProgramOption{tea.WithAltScreen()}
}
