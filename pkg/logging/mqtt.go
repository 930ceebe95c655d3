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

package logging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/metrics"
	"github.com/binkynet/PinWorker/pkg/mqtt"
)

const (
	mqttQueueSize = 512
)

var (
	// Total number of log entries dropped before they could be published
	droppedLogEntries = metrics.MustRegisterCounter("logging",
		"mqtt_dropped_total",
		"Total number of log entries dropped before they could be published")
)

// MQTTWriter forwards zerolog JSON entries to an MQTT topic.
// Entries are queued until a destination is set; when the queue is full
// the oldest entries are dropped.
type MQTTWriter struct {
	minLevel zerolog.Level
	queue    chan json.RawMessage

	mutex   sync.Mutex
	topic   string
	service mqtt.Service
}

// NewMQTTWriter creates a new MQTT output for entries at or above the given level.
// The sender is stopped when the given context is canceled.
func NewMQTTWriter(ctx context.Context, minLevel zerolog.Level) *MQTTWriter {
	w := &MQTTWriter{
		minLevel: minLevel,
		queue:    make(chan json.RawMessage, mqttQueueSize),
	}
	go w.run(ctx)
	return w
}

// SetDestination configures where entries are published.
// A nil service pauses publishing.
func (w *MQTTWriter) SetDestination(topic string, service mqtt.Service) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.topic = topic
	w.service = service
}

// Write queues a single entry. It never fails.
func (w *MQTTWriter) Write(p []byte) (int, error) {
	var entry struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal(p, &entry); err != nil {
		// Not an entry we can forward
		return len(p), nil
	}
	if level, err := zerolog.ParseLevel(entry.Level); err == nil && level < w.minLevel {
		return len(p), nil
	}
	// zerolog reuses its buffer after Write returns
	msg := json.RawMessage(append([]byte(nil), p...))
	for {
		select {
		case w.queue <- msg:
			return len(p), nil
		default:
			select {
			case <-w.queue:
				droppedLogEntries.Inc()
			default:
			}
		}
	}
}

func (w *MQTTWriter) destination() (string, mqtt.Service) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.topic, w.service
}

func (w *MQTTWriter) run(ctx context.Context) {
	for {
		topic, service := w.destination()
		if topic == "" || service == nil {
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case msg := <-w.queue:
			if err := service.Publish(ctx, msg, topic, mqtt.QosDefault); err != nil {
				droppedLogEntries.Inc()
			}
		case <-time.After(time.Second):
			// Recheck destination
		case <-ctx.Done():
			return
		}
	}
}
