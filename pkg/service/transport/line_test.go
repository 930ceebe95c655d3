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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort returns one queued chunk per read, or a timeout (0 bytes)
// when the queue is empty.
type fakePort struct {
	mutex   sync.Mutex
	chunks  []string
	readErr error
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(data []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if len(p.chunks) == 0 {
		return 0, p.readErr
	}
	n := copy(data, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.written.Write(data)
}

func (p *fakePort) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	return nil
}

// receiveAll polls the line until the port has no more data.
func receiveAll(t *testing.T, l *Line, polls int) []string {
	var result []string
	for i := 0; i < polls; i++ {
		line, ok, err := l.Receive(context.Background())
		require.NoError(t, err)
		if ok {
			result = append(result, line)
		}
	}
	return result
}

func TestLineReceive(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []string
		expected []string
	}{
		{"single", []string{"rd050000000\n"}, []string{"rd050000000"}},
		{"crlf", []string{"rd050000000\r\n"}, []string{"rd050000000"}},
		{"split", []string{"rd05", "0000", "000\n"}, []string{"rd050000000"}},
		{"multiple", []string{"ra040000000\nwd050000001\n"}, []string{"ra040000000", "wd050000001"}},
		{"empty-lines", []string{"\n\r\n", "ra040000000\n\n"}, []string{"ra040000000"}},
		{"cr-only", []string{"wd050000001\r", "rd050000000\r"}, []string{"wd050000001", "rd050000000"}},
		{"crlf-split", []string{"wd050000001\r", "\nrd050000000\r\n"}, []string{"wd050000001", "rd050000000"}},
		{"unterminated", []string{"ra040000000"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			port := &fakePort{chunks: tc.chunks}
			l := NewLine(zerolog.Nop(), port, false)
			assert.Equal(t, tc.expected, receiveAll(t, l, 6))
		})
	}
}

func TestLineIdleFlush(t *testing.T) {
	port := &fakePort{chunks: []string{"ra04", "0000000"}}
	l := NewLine(zerolog.Nop(), port, true)
	assert.Equal(t, []string{"ra040000000"}, receiveAll(t, l, 4))
}

func TestLineDiscardsOverlong(t *testing.T) {
	long := strings.Repeat("x", MaxLineLength+10)
	port := &fakePort{chunks: []string{long, "yyy\nrd050000000\n"}}
	l := NewLine(zerolog.Nop(), port, true)
	assert.Equal(t, []string{"rd050000000"}, receiveAll(t, l, 4))

	port = &fakePort{chunks: []string{strings.Repeat("z", MaxLineLength-4), strings.Repeat("z", 10) + "\nwd050000001\n"}}
	l = NewLine(zerolog.Nop(), port, false)
	assert.Equal(t, []string{"wd050000001"}, receiveAll(t, l, 4))

	exact := strings.Repeat("a", MaxLineLength)
	port = &fakePort{chunks: []string{exact[:600], exact[600:] + "\n"}}
	l = NewLine(zerolog.Nop(), port, false)
	assert.Equal(t, []string{exact}, receiveAll(t, l, 3))
}

func TestLineReceiveError(t *testing.T) {
	port := &fakePort{readErr: errors.New("unplugged")}
	l := NewLine(zerolog.Nop(), port, false)
	_, ok, err := l.Receive(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = NewLine(zerolog.Nop(), &fakePort{}, false).Receive(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestLineSend(t *testing.T) {
	port := &fakePort{}
	l := NewLine(zerolog.Nop(), port, false)
	require.NoError(t, l.Send("rd050000001"))
	require.NoError(t, l.Send("ra040001234"))
	assert.Equal(t, "rd050000001\nra040001234\n", port.written.String())
	require.NoError(t, l.Close())
	assert.True(t, port.closed)
}

func TestOptionsNormalize(t *testing.T) {
	opts, err := Options{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, opts.BaudRate)
	assert.Equal(t, 8, opts.DataBits)
	assert.Equal(t, 1, opts.StopBits)
	assert.Equal(t, "N", opts.Parity)
	assert.Equal(t, DefaultReadTimeout, opts.ReadTimeout)
	assert.Equal(t, DefaultPollInterval, opts.PollInterval)
	assert.Equal(t, DefaultReopenDelay, opts.ReopenDelay)

	opts, err = Options{BaudRate: 9600, Parity: "even", StopBits: 2, ReadTimeout: time.Second}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 9600, opts.BaudRate)
	assert.Equal(t, "E", opts.Parity)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	invalid := []Options{
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "mark"},
		{PollInterval: -time.Second},
	}
	for _, o := range invalid {
		_, err := o.Normalize()
		assert.Error(t, err, "%+v", o)
	}
}

func TestOptionsSerialMode(t *testing.T) {
	mode, err := Options{Parity: "O", StopBits: 2}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.OddParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)

	mode, err = Options{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
}

func TestOpenPortRequiresDevice(t *testing.T) {
	_, err := OpenPort(Options{})
	assert.Error(t, err)
}
