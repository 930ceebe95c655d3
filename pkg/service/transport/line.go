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

package transport

import (
	"bytes"
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// MaxLineLength is the longest line that is buffered.
	// Longer input is discarded up to the next terminator.
	MaxLineLength = 1024

	// Both CR and LF end a line; the empty line between CR LF is skipped.
	lineTerminators = "\r\n"
)

// Line turns the byte stream of a port into text lines.
type Line struct {
	log       zerolog.Logger
	port      Port
	idleFlush bool

	readMutex  sync.Mutex
	pending    []byte
	discarding bool
	chunk      []byte

	writeMutex sync.Mutex
}

// NewLine wraps the given port.
func NewLine(log zerolog.Logger, port Port, idleFlush bool) *Line {
	return &Line{
		log:       log.With().Str("component", "line").Logger(),
		port:      port,
		idleFlush: idleFlush,
		chunk:     make([]byte, MaxLineLength),
	}
}

// Receive performs a single bounded read of the port and returns the
// next complete line, with its terminator stripped.
// Returns false when no complete line is available yet.
// Empty lines are skipped.
func (l *Line) Receive(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	l.readMutex.Lock()
	defer l.readMutex.Unlock()

	// Serve lines buffered by an earlier read first
	if line, ok := l.nextLine(); ok {
		return line, true, nil
	}
	n, err := l.port.Read(l.chunk)
	if n > 0 {
		bytesReceivedCounter.Add(float64(n))
		l.append(l.chunk[:n])
		if line, ok := l.nextLine(); ok {
			return line, true, nil
		}
	}
	if err != nil {
		return "", false, errors.Wrap(err, "read failed")
	}
	if n == 0 && l.idleFlush && len(l.pending) > 0 && !l.discarding {
		// The sender went silent without a terminator
		line := string(l.pending)
		l.pending = l.pending[:0]
		if line != "" {
			linesReceivedCounter.Inc()
			return line, true, nil
		}
	}
	return "", false, nil
}

// append received data to the pending buffer, enforcing the line length limit.
func (l *Line) append(data []byte) {
	for len(data) > 0 {
		if l.discarding {
			idx := bytes.IndexAny(data, lineTerminators)
			if idx < 0 {
				return
			}
			l.discarding = false
			data = data[idx+1:]
			continue
		}
		idx := bytes.IndexAny(data, lineTerminators)
		end := len(data)
		if idx >= 0 {
			end = idx + 1
		}
		if len(l.pending)+end > MaxLineLength+1 {
			l.log.Warn().
				Int("length", len(l.pending)+end).
				Msg("Discarding overlong line")
			linesDiscardedCounter.Inc()
			l.pending = l.pending[:0]
			if idx < 0 {
				l.discarding = true
				return
			}
			data = data[end:]
			continue
		}
		l.pending = append(l.pending, data[:end]...)
		data = data[end:]
	}
}

// nextLine removes the first complete, non-empty line from the pending buffer.
func (l *Line) nextLine() (string, bool) {
	for {
		idx := bytes.IndexAny(l.pending, lineTerminators)
		if idx < 0 {
			return "", false
		}
		line := string(l.pending[:idx])
		l.pending = append(l.pending[:0], l.pending[idx+1:]...)
		if line != "" {
			linesReceivedCounter.Inc()
			return line, true
		}
	}
}

// Send writes the given line followed by a line terminator.
func (l *Line) Send(line string) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	data := make([]byte, 0, len(line)+1)
	data = append(data, line...)
	data = append(data, '\n')
	for len(data) > 0 {
		n, err := l.port.Write(data)
		if err != nil {
			return errors.Wrap(err, "write failed")
		}
		data = data[n:]
	}
	linesSentCounter.Inc()
	return nil
}

// Close the underlying port.
func (l *Line) Close() error {
	return l.port.Close()
}
