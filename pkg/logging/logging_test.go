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
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/pkg/mqtt"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("full")
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter(&a, nil, failingWriter{}, &b)
	n, err := w.Write([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Error(t, err)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())
}

type fakeMQTT struct {
	mutex    sync.Mutex
	topics   []string
	messages []interface{}
}

func (f *fakeMQTT) Publish(ctx context.Context, msg interface{}, topic string, qos mqtt.QoS) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.topics = append(f.topics, topic)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMQTT) PublishJSON(ctx context.Context, topic string, value interface{}) error {
	return f.Publish(ctx, value, topic, mqtt.QosDefault)
}

func (f *fakeMQTT) Subscribe(topic string, cb func(payload []byte)) error { return nil }
func (f *fakeMQTT) Close()                                                {}

func (f *fakeMQTT) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.messages)
}

func TestMQTTWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewMQTTWriter(ctx, zerolog.InfoLevel)
	buf := []byte(`{"level":"warn","message":"first"}`)
	_, err := w.Write(buf)
	require.NoError(t, err)
	// The writer must not keep a reference to the callers buffer
	copy(buf, "xxxxx")
	// Below the minimum level
	w.Write([]byte(`{"level":"debug","message":"skipped"}`))
	// Not JSON
	w.Write([]byte("plain text"))

	svc := &fakeMQTT{}
	w.SetDestination("pinworker/logs", svc)
	require.Eventually(t, func() bool { return svc.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "pinworker/logs", svc.topics[0])
	assert.JSONEq(t, `{"level":"warn","message":"first"}`, string(svc.messages[0].(json.RawMessage)))
}

func TestMQTTWriterWithLogger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := &fakeMQTT{}
	w := NewMQTTWriter(ctx, zerolog.DebugLevel)
	w.SetDestination("bench/logs", svc)
	log := zerolog.New(NewMultiWriter(w, nil))
	log.Info().Str("device", "/dev/ttyS0").Msg("Serial port opened")

	require.Eventually(t, func() bool { return svc.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Contains(t, string(svc.messages[0].(json.RawMessage)), "Serial port opened")
}

func TestNewFileWriter(t *testing.T) {
	assert.Nil(t, NewFileWriter(FileConfig{}))

	path := filepath.Join(t.TempDir(), "pinworker.log")
	w := NewFileWriter(FileConfig{Path: path})
	require.NotNil(t, w)
	_, err := w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}
