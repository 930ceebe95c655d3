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

package mqtt

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigTopic(t *testing.T) {
	assert.Equal(t, "pinworker/logs", Config{}.Topic("logs"))
	assert.Equal(t, "lab/bench1/events", Config{TopicPrefix: "lab/bench1/"}.Topic("events"))
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Broker: "localhost:1883"}.Enabled())
}

func TestDefaultClientID(t *testing.T) {
	id := DefaultClientID()
	assert.Contains(t, id, "pinworker")
	assert.Equal(t, id, DefaultClientID())
}

func TestNewServiceRequiresBroker(t *testing.T) {
	_, err := NewService(zerolog.Nop(), Config{})
	assert.Error(t, err)
}
