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
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-pubsub"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
)

// Stage is the point in the pipeline where processing of a line ended.
type Stage string

const (
	StageDecode  Stage = "decode"
	StageResolve Stage = "resolve"
	StageExec    Stage = "exec"
	StageReply   Stage = "reply"
	StageOK      Stage = "ok"
)

// Source of a line.
const (
	SourceSerial = "serial"
	SourceHTTP   = "http"
	SourceSSH    = "ssh"
	SourceMQTT   = "mqtt"
)

// Event describes the outcome of processing a single line.
type Event struct {
	ID      string           `json:"id"`
	Time    time.Time        `json:"time"`
	Source  string           `json:"source"`
	Line    string           `json:"line"`
	Command string           `json:"command,omitempty"`
	Stage   Stage            `json:"stage"`
	Class   model.ErrorClass `json:"class,omitempty"`
	Error   string           `json:"error,omitempty"`
	Reply   string           `json:"reply,omitempty"`
}

// Rejected returns true if the line did not result in a hardware operation.
func (e Event) Rejected() bool {
	return e.Stage != StageOK && e.Stage != StageReply
}

// Publisher sends events to an external system.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, value interface{}) error
}

// Stats counts events per stage.
type Stats struct {
	Total    int           `json:"total"`
	PerStage map[Stage]int `json:"per_stage"`
}

const (
	publishQueueSize = 256
)

// Reporter is the diagnostic channel of the pin worker.
// It logs rejected lines, keeps a bounded history of recent events
// and fans events out to subscribers.
type Reporter struct {
	log       zerolog.Logger
	mutex     sync.Mutex
	events    []Event
	next      int
	full      bool
	stats     Stats
	ps        *pubsub.PubSub
	publisher Publisher
	topic     string
	queue     chan Event
	startOnce sync.Once
}

// NewReporter creates a reporter that remembers the given number of events.
func NewReporter(log zerolog.Logger, capacity int) *Reporter {
	if capacity <= 0 {
		capacity = 64
	}
	return &Reporter{
		log:    log.With().Str("component", "diag").Logger(),
		events: make([]Event, capacity),
		stats:  Stats{PerStage: make(map[Stage]int)},
		ps:     pubsub.New(),
		queue:  make(chan Event, publishQueueSize),
	}
}

// SetPublisher configures an external destination of all events.
// Events are published in the background until the given context is canceled.
func (r *Reporter) SetPublisher(ctx context.Context, p Publisher, topic string) {
	r.mutex.Lock()
	r.publisher = p
	r.topic = topic
	r.mutex.Unlock()
	r.startOnce.Do(func() {
		go r.runPublisher(ctx)
	})
}

// Report the given event.
// ID and time are filled in when missing.
func (r *Reporter) Report(ctx context.Context, e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	if e.Rejected() {
		r.log.Warn().
			Str("source", e.Source).
			Str("line", e.Line).
			Str("stage", string(e.Stage)).
			Str("class", string(e.Class)).
			Str("error", e.Error).
			Msg("Line rejected")
	} else {
		r.log.Debug().
			Str("source", e.Source).
			Str("line", e.Line).
			Str("reply", e.Reply).
			Msg("Line processed")
	}
	eventCounters.WithLabelValues(e.Source, string(e.Stage)).Inc()

	r.mutex.Lock()
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	r.stats.Total++
	r.stats.PerStage[e.Stage]++
	publishing := r.publisher != nil
	r.mutex.Unlock()

	r.ps.Pub(e)
	if publishing {
		r.enqueue(e)
	}
	return e
}

// enqueue the given event for publication, dropping the oldest
// queued event when the publisher cannot keep up.
func (r *Reporter) enqueue(e Event) {
	for {
		select {
		case r.queue <- e:
			return
		default:
			select {
			case <-r.queue:
				droppedEventsCounter.Inc()
			default:
			}
		}
	}
}

func (r *Reporter) runPublisher(ctx context.Context) {
	for {
		select {
		case e := <-r.queue:
			r.mutex.Lock()
			publisher, topic := r.publisher, r.topic
			r.mutex.Unlock()
			if publisher == nil {
				continue
			}
			if err := publisher.PublishJSON(ctx, topic, e); err != nil {
				droppedEventsCounter.Inc()
				r.log.Debug().Err(err).Msg("Failed to publish event")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Recent returns up to limit of the most recent events, oldest first.
// A limit <= 0 returns all remembered events.
func (r *Reporter) Recent(limit int) []Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	result := make([]Event, 0, limit)
	for i := count - limit; i < count; i++ {
		idx := i
		if r.full {
			idx = (r.next + i) % len(r.events)
		}
		result = append(result, r.events[idx])
	}
	return result
}

// Stats returns a snapshot of the event counters.
func (r *Reporter) Stats() Stats {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	result := Stats{Total: r.stats.Total, PerStage: make(map[Stage]int, len(r.stats.PerStage))}
	for k, v := range r.stats.PerStage {
		result.PerStage[k] = v
	}
	return result
}

// Subscribe registers a callback that is invoked (asynchronously) for every event.
// Call the returned function to unsubscribe.
func (r *Reporter) Subscribe(cb func(Event)) context.CancelFunc {
	wcb := func(e Event) {
		cb(e)
	}
	r.ps.Sub(wcb)
	return func() {
		r.ps.Leave(wcb)
	}
}
