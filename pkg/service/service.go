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

package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/mqtt"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
	"github.com/binkynet/PinWorker/pkg/service/devices"
	"github.com/binkynet/PinWorker/pkg/service/diag"
	"github.com/binkynet/PinWorker/pkg/service/dispatch"
	"github.com/binkynet/PinWorker/pkg/service/transport"
	"github.com/binkynet/PinWorker/pkg/service/util"
	"github.com/binkynet/PinWorker/pkg/service/worker"
)

type Service interface {
	// Run the pin worker until the given context is cancelled.
	Run(ctx context.Context) error
	// ProcessLine runs a single message line through the command pipeline.
	ProcessLine(ctx context.Context, source, line string) worker.Result
	// Reporter returns the diagnostic channel.
	Reporter() *diag.Reporter
}

type Config struct {
	ProgramVersion string
	// Serial line options
	Serial transport.Options
	// Message grammar
	Grammar protocol.Grammar
	// Answer rejected commands with a NAK line
	Nak bool
	// Converter units, used when the bridge has no converter of its own
	ADCUnits []devices.UnitConfig
	// Topics used when an MQTT service is given
	MQTT mqtt.Config
}

type Dependencies struct {
	Logger   zerolog.Logger
	Bridge   bridge.API
	Reporter *diag.Reporter
	// Optional MQTT connection, used as extra command source & event sink
	Broker mqtt.Service
	// Opens the serial port; defaults to transport.OpenPort
	OpenPort func(opts transport.Options) (transport.TimeoutPort, error)
}

type service struct {
	Config
	Dependencies

	serial      transport.Options
	converter   *devices.Converter
	processor   *worker.Processor
	activeCount uint32
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	if deps.Bridge == nil {
		return nil, errors.New("bridge is required")
	}
	if deps.Reporter == nil {
		deps.Reporter = diag.NewReporter(deps.Logger, 0)
	}
	if deps.OpenPort == nil {
		deps.OpenPort = transport.OpenPort
	}
	if conf.Grammar == nil {
		conf.Grammar = protocol.Current()
	}
	serial, err := conf.Serial.Normalize()
	if err != nil {
		return nil, errors.Wrap(err, "invalid serial options")
	}
	s := &service{
		Config:       conf,
		Dependencies: deps,
		serial:       serial,
	}

	// Prepare analog converter
	adc, ok := deps.Bridge.(bridge.ADC)
	if !ok {
		bus, err := deps.Bridge.I2CBus()
		if err != nil {
			return nil, errors.Wrap(err, "failed to open I2C bus")
		}
		s.converter, err = devices.NewConverter(deps.Logger, bus, conf.ADCUnits, s.onActive)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create converter")
		}
		adc = s.converter
	}

	io := dispatch.NewIO(deps.Bridge.GPIO(), adc)
	s.processor = worker.NewProcessor(deps.Logger, worker.ProcessorConfig{
		Grammar:   conf.Grammar,
		Nak:       conf.Nak,
		OnCommand: s.onActive,
	}, dispatch.NewDispatcher(deps.Logger), io, deps.Reporter)
	return s, nil
}

// Reporter returns the diagnostic channel.
func (s *service) Reporter() *diag.Reporter {
	return s.Dependencies.Reporter
}

// ProcessLine runs a single message line through the command pipeline.
func (s *service) ProcessLine(ctx context.Context, source, line string) worker.Result {
	return s.processor.Process(ctx, source, line)
}

// Run initializes the hardware and then serves the serial line,
// reopening it whenever it fails, until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	defer func() {
		if s.converter != nil {
			if err := s.converter.Close(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to close converter")
			}
		}
		s.Bridge.SetGreenLED(false)
		s.Bridge.SetRedLED(false)
		if err := s.Bridge.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close bridge")
		}
	}()

	s.Bridge.BlinkGreenLED(time.Millisecond * 250)
	s.Bridge.SetRedLED(false)

	if s.converter != nil {
		if missing := s.converter.Missing(); len(missing) > 0 {
			log.Warn().Strs("addresses", missing).Msg("Converter chips not found on I2C bus")
		}
		if err := s.converter.Configure(ctx); err != nil {
			// Conversions on failed chips report a conversion error
			log.Warn().Err(err).Msg("Not all converter chips could be configured")
		}
	}
	if s.Broker != nil {
		if err := s.startMQTT(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to start MQTT command source")
		}
	}

	log.Info().
		Str("version", s.ProgramVersion).
		Str("device", s.serial.Device).
		Int("baudrate", s.serial.BaudRate).
		Str("grammar", s.Grammar.Name()).
		Bool("nak", s.Nak).
		Msg("Pin worker started")

	go s.runActiveNotify(ctx)
	return util.UntilCanceled(ctx, log, "serial line", s.serial.ReopenDelay, func() error {
		return s.runLine(ctx)
	})
}

// runLine opens the serial port and runs the worker on it until the
// context is canceled or the port fails.
func (s *service) runLine(ctx context.Context) error {
	log := s.Logger
	port, err := s.OpenPort(s.serial)
	if err != nil {
		portOpenFailures.Inc()
		return errors.Wrap(err, "failed to open serial port")
	}
	line := transport.NewLine(log, port, s.serial.IdleFlush)
	defer func() {
		if err := line.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close serial port")
		}
		s.setConnected(false)
		s.Bridge.BlinkGreenLED(time.Millisecond * 250)
	}()

	log.Info().Str("device", s.serial.Device).Msg("Serial port opened")
	s.setConnected(true)
	s.Bridge.SetGreenLED(true)

	w := worker.NewWorker(log, line, s.processor, s.serial.PollInterval)
	return w.Run(ctx)
}

func (s *service) setConnected(connected bool) {
	if connected {
		serialConnected.Set(1)
	} else {
		serialConnected.Set(0)
	}
}

// mqttReply is published for every command received over MQTT.
type mqttReply struct {
	Line  string     `json:"line"`
	Stage diag.Stage `json:"stage"`
	Reply string     `json:"reply,omitempty"`
	Error string     `json:"error,omitempty"`
}

// startMQTT subscribes to the command topic and forwards all events.
func (s *service) startMQTT(ctx context.Context) error {
	s.Dependencies.Reporter.SetPublisher(ctx, s.Broker, s.Config.MQTT.Topic("events"))
	commandTopic := s.Config.MQTT.Topic("command")
	if err := s.Broker.Subscribe(commandTopic, func(payload []byte) {
		s.handleMQTTCommand(ctx, payload)
	}); err != nil {
		return errors.Wrapf(err, "failed to subscribe to %s", commandTopic)
	}
	s.Logger.Info().Str("topic", commandTopic).Msg("Listening for MQTT commands")
	return nil
}

// handleMQTTCommand processes a command received over MQTT.
// The payload is either a bare message line or a JSON string.
func (s *service) handleMQTTCommand(ctx context.Context, payload []byte) {
	var line string
	if err := json.Unmarshal(payload, &line); err != nil {
		line = string(payload)
	}
	line = strings.TrimRight(line, "\r\n")
	mqttCommands.Inc()
	result := s.ProcessLine(ctx, diag.SourceMQTT, line)
	reply := mqttReply{
		Line:  line,
		Stage: result.Stage,
		Reply: result.Reply,
	}
	if result.Err != nil {
		reply.Error = result.Err.Error()
	}
	if err := s.Broker.PublishJSON(ctx, s.Config.MQTT.Topic("reply"), reply); err != nil {
		s.Logger.Debug().Err(err).Msg("Failed to publish MQTT reply")
	}
}
