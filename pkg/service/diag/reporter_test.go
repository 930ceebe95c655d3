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

package diag

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
)

type recordingPublisher struct {
	mutex   sync.Mutex
	topics  []string
	values  []interface{}
	err     error
	release chan struct{}
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, topic string, value interface{}) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
	return p.err
}

func (p *recordingPublisher) published() []interface{} {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]interface{}(nil), p.values...)
}

func TestReporterRecent(t *testing.T) {
	ctx := context.Background()
	r := NewReporter(zerolog.Nop(), 3)
	assert.Empty(t, r.Recent(0))

	for _, line := range []string{"a", "b"} {
		r.Report(ctx, Event{Source: SourceSerial, Line: line, Stage: StageOK})
	}
	recent := r.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].Line)
	assert.NotEmpty(t, recent[0].ID)
	assert.False(t, recent[0].Time.IsZero())

	for _, line := range []string{"c", "d", "e"} {
		r.Report(ctx, Event{Source: SourceSerial, Line: line, Stage: StageDecode, Class: model.ClassDecode})
	}
	recent = r.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{recent[0].Line, recent[1].Line, recent[2].Line})
	recent = r.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].Line)
	assert.Equal(t, "e", recent[1].Line)

	stats := r.Stats()
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.PerStage[StageOK])
	assert.Equal(t, 3, stats.PerStage[StageDecode])
}

func TestReporterKeepsGivenID(t *testing.T) {
	r := NewReporter(zerolog.Nop(), 0)
	e := r.Report(context.Background(), Event{ID: "fixed", Stage: StageReply})
	assert.Equal(t, "fixed", e.ID)
	assert.False(t, e.Rejected())
	assert.True(t, Event{Stage: StageExec}.Rejected())
}

func TestReporterSubscribe(t *testing.T) {
	r := NewReporter(zerolog.Nop(), 8)
	received := make(chan Event, 4)
	cancel := r.Subscribe(func(e Event) {
		received <- e
	})
	defer cancel()

	r.Report(context.Background(), Event{Line: "rd050000000", Stage: StageReply})
	select {
	case e := <-received:
		assert.Equal(t, "rd050000000", e.Line)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestReporterPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewReporter(zerolog.Nop(), 8)
	p := &recordingPublisher{err: errors.New("offline")}
	r.SetPublisher(ctx, p, "pinworker/events")

	e := r.Report(ctx, Event{Line: "xx", Stage: StageDecode})
	require.Eventually(t, func() bool {
		return len(p.published()) == 1
	}, time.Second, 5*time.Millisecond)
	p.mutex.Lock()
	assert.Equal(t, "pinworker/events", p.topics[0])
	assert.Equal(t, e, p.values[0])
	p.mutex.Unlock()
	// Publish failures do not affect the history
	assert.Len(t, r.Recent(0), 1)
}

func TestReporterDoesNotWaitForPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewReporter(zerolog.Nop(), 8)
	p := &recordingPublisher{release: make(chan struct{})}
	r.SetPublisher(ctx, p, "pinworker/events")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < publishQueueSize+10; i++ {
			r.Report(ctx, Event{Line: "rd050000000", Stage: StageReply})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a stalled publisher")
	}

	close(p.release)
	require.Eventually(t, func() bool {
		return len(p.published()) > 0
	}, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, len(p.published()), publishQueueSize+1)
}
