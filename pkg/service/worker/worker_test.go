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

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
	"github.com/binkynet/PinWorker/pkg/service/diag"
	"github.com/binkynet/PinWorker/pkg/service/dispatch"
)

func newTestProcessor(cfg ProcessorConfig) (*Processor, *bridge.VirtualBridge, *diag.Reporter) {
	vb := bridge.NewVirtualBridge()
	reporter := diag.NewReporter(zerolog.Nop(), 16)
	p := NewProcessor(zerolog.Nop(), cfg, dispatch.NewDispatcher(zerolog.Nop()), dispatch.NewIO(vb.GPIO(), vb), reporter)
	return p, vb, reporter
}

func TestProcess(t *testing.T) {
	p, vb, reporter := newTestProcessor(ProcessorConfig{})
	vb.SetAnalogValue(model.Unit2, 0, 4095)

	tests := []struct {
		line     string
		stage    diag.Stage
		reply    string
		hasReply bool
		class    model.ErrorClass
	}{
		{"ra040000000", diag.StageReply, "ra040004095", true, model.ClassNone},
		{"wd050000001", diag.StageReply, "wd050000001", true, model.ClassNone},
		{"short", diag.StageDecode, "", false, model.ClassDecode},
		{"xa040000000", diag.StageDecode, "", false, model.ClassDecode},
		{"ra990000000", diag.StageDecode, "", false, model.ClassDecode},
		{"ra050000000", diag.StageResolve, "", false, model.ClassResolve},
		{"wa040000001", diag.StageExec, "", false, model.ClassExec},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			result := p.Process(context.Background(), diag.SourceSerial, tc.line)
			assert.Equal(t, tc.stage, result.Stage)
			assert.Equal(t, tc.hasReply, result.HasReply)
			assert.Equal(t, tc.reply, result.Reply)
			assert.Equal(t, tc.class, model.ClassOf(result.Err))
		})
	}
	assert.True(t, vb.OutputLevel(5))
	recent := reporter.Recent(0)
	require.Len(t, recent, len(tests))
	assert.Equal(t, "ra050000000", recent[5].Line)
	assert.Equal(t, model.ClassResolve, recent[5].Class)
	assert.NotEmpty(t, recent[5].Error)
}

func TestProcessNak(t *testing.T) {
	p, vb, _ := newTestProcessor(ProcessorConfig{Nak: true})
	vb.FailAnalog(model.Unit1, 0, errors.New("timeout"))

	tests := []struct {
		line     string
		reply    string
		hasReply bool
	}{
		{"ra050000000", "na050000001", true},
		{"ra360000000", "na360000002", true},
		{"wa040000001", "na040000003", true},
		// Decode failures are never answered
		{"ra990000000", "", false},
	}
	for _, tc := range tests {
		result := p.Process(context.Background(), diag.SourceSerial, tc.line)
		assert.Equal(t, tc.hasReply, result.HasReply, tc.line)
		assert.Equal(t, tc.reply, result.Reply, tc.line)
	}
}

func TestProcessLegacy(t *testing.T) {
	p, vb, _ := newTestProcessor(ProcessorConfig{Grammar: protocol.Legacy(), Nak: true})
	result := p.Process(context.Background(), diag.SourceSerial, "1011100")
	require.NoError(t, result.Err)
	assert.False(t, result.HasReply)
	assert.Equal(t, diag.StageOK, result.Stage)
	assert.True(t, vb.OutputLevel(4))

	vb.SetInputLevel(4, true)
	result = p.Process(context.Background(), diag.SourceSerial, "0010100")
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Response.Value)
	assert.False(t, result.HasReply)
}

func TestProcessOnCommand(t *testing.T) {
	count := 0
	p, _, _ := newTestProcessor(ProcessorConfig{OnCommand: func() { count++ }})
	p.Process(context.Background(), diag.SourceHTTP, "wd050000001")
	p.Process(context.Background(), diag.SourceHTTP, "bogus")
	assert.Equal(t, 1, count)
}

// scriptedLine serves queued lines, then cancels the context.
type scriptedLine struct {
	mutex    sync.Mutex
	lines    []string
	sent     []string
	receives int
	cancel   context.CancelFunc
	failAt   int
}

func (l *scriptedLine) Receive(ctx context.Context) (string, bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.receives++
	if l.failAt > 0 && l.receives == l.failAt {
		return "", false, errors.New("unplugged")
	}
	if len(l.lines) == 0 {
		if l.cancel != nil {
			l.cancel()
		}
		return "", false, nil
	}
	line := l.lines[0]
	l.lines = l.lines[1:]
	return line, true, nil
}

func (l *scriptedLine) Send(line string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.sent = append(l.sent, line)
	return nil
}

func TestWorkerRun(t *testing.T) {
	p, vb, _ := newTestProcessor(ProcessorConfig{})
	vb.SetInputLevel(7, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	line := &scriptedLine{
		lines:  []string{"rd070000000", "garbage", "wd050000001", "ra050000000"},
		cancel: cancel,
	}
	w := NewWorker(zerolog.Nop(), line, p, time.Millisecond)
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{"rd070000001", "wd050000001"}, line.sent)
	assert.Equal(t, 5, line.receives)
}

func TestWorkerRunReceiveError(t *testing.T) {
	p, _, _ := newTestProcessor(ProcessorConfig{})
	line := &scriptedLine{lines: []string{"rd070000000", "rd070000000"}, failAt: 2}
	w := NewWorker(zerolog.Nop(), line, p, time.Millisecond)
	err := w.Run(context.Background())
	assert.Error(t, err)
	assert.Len(t, line.sent, 1)
}
