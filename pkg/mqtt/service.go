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
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// QoS is the MQTT quality of service level.
type QoS byte

const (
	QosAtMostOnce  QoS = 0
	QosAtLeastOnce QoS = 1
	QosDefault         = QosAtMostOnce

	connectTimeout = 5 * time.Second
	publishTimeout = 200 * time.Millisecond
	appID          = "pinworker"
)

// Config of the MQTT connection.
type Config struct {
	// Host:port of the broker. Empty disables MQTT.
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
}

// Enabled returns true when a broker is configured.
func (c Config) Enabled() bool {
	return c.Broker != ""
}

// Topic returns the full topic name of the given sub topic.
func (c Config) Topic(name string) string {
	prefix := strings.TrimSuffix(c.TopicPrefix, "/")
	if prefix == "" {
		prefix = appID
	}
	return prefix + "/" + name
}

// Service is a connection to an MQTT broker.
type Service interface {
	// Publish the given message as JSON on the given topic.
	Publish(ctx context.Context, msg interface{}, topic string, qos QoS) error
	// PublishJSON publishes the given value as JSON on the given topic.
	PublishJSON(ctx context.Context, topic string, value interface{}) error
	// Subscribe to the given topic.
	Subscribe(topic string, cb func(payload []byte)) error
	// Close the connection
	Close()
}

type service struct {
	log    zerolog.Logger
	mutex  sync.Mutex
	client mqttapi.Client
}

// DefaultClientID returns a stable client ID derived from the machine ID.
func DefaultClientID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return appID
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return appID + "-" + id
}

// NewService connects to the broker in the given config.
func NewService(log zerolog.Logger, cfg Config) (Service, error) {
	if !cfg.Enabled() {
		return nil, errors.New("no MQTT broker configured")
	}
	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID()
	}
	log = log.With().Str("component", "mqtt").Logger()
	opts := mqttapi.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	client := mqttapi.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("timeout connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to MQTT broker %s", broker)
	}
	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("Connected to MQTT broker")
	return &service{
		log:    log,
		client: client,
	}, nil
}

// Publish the given message as JSON on the given topic.
func (s *service) Publish(ctx context.Context, msg interface{}, topic string, qos QoS) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	s.mutex.Lock()
	client := s.client
	s.mutex.Unlock()
	if client == nil {
		return errors.New("MQTT service closed")
	}
	token := client.Publish(topic, byte(qos), false, payload)
	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return errors.Errorf("failed to deliver MQTT message to '%s' in time", topic)
	}
	return token.Error()
}

// PublishJSON publishes the given value as JSON on the given topic.
func (s *service) PublishJSON(ctx context.Context, topic string, value interface{}) error {
	return s.Publish(ctx, value, topic, QosDefault)
}

// Subscribe to the given topic.
func (s *service) Subscribe(topic string, cb func(payload []byte)) error {
	s.mutex.Lock()
	client := s.client
	s.mutex.Unlock()
	if client == nil {
		return errors.New("MQTT service closed")
	}
	token := client.Subscribe(topic, byte(QosAtMostOnce), func(c mqttapi.Client, m mqttapi.Message) {
		cb(m.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return errors.Errorf("timeout subscribing to '%s'", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "failed to subscribe to '%s'", topic)
	}
	return nil
}

// Close the connection
func (s *service) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
}
