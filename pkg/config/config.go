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

package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/environment"
	"github.com/binkynet/PinWorker/pkg/logging"
	"github.com/binkynet/PinWorker/pkg/mqtt"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
	"github.com/binkynet/PinWorker/pkg/service/devices"
	"github.com/binkynet/PinWorker/pkg/service/transport"
)

const (
	DefaultDevice      = "/dev/serial0"
	DefaultHTTPPort    = 7129
	DefaultSSHPort     = 7122
	DefaultHostKeyPath = ".ssh/id_ed25519"
	DefaultGreenLEDPin = 23
	DefaultRedLEDPin   = 24
	DefaultHistorySize = 64
)

// Config is the complete configuration of the pin worker.
type Config struct {
	Serial   transport.Options `yaml:"serial"`
	Protocol ProtocolConfig    `yaml:"protocol"`
	Bridge   BridgeConfig      `yaml:"bridge"`
	HTTP     HTTPConfig        `yaml:"http"`
	SSH      SSHConfig         `yaml:"ssh"`
	MQTT     mqtt.Config       `yaml:"mqtt"`
	Log      LogConfig         `yaml:"log"`
}

// ProtocolConfig selects the message grammar.
type ProtocolConfig struct {
	// current or legacy
	Grammar string `yaml:"grammar"`
	// Answer rejected commands with a NAK line (current grammar only)
	Nak bool `yaml:"nak"`
	// Number of recent events kept for diagnostics
	HistorySize int `yaml:"history_size"`
}

// BridgeConfig selects and configures the hardware.
type BridgeConfig struct {
	// auto, rpi, sysfs or virtual
	Type        string               `yaml:"type"`
	I2CBus      string               `yaml:"i2c_bus"`
	StatusLEDs  bool                 `yaml:"status_leds"`
	GreenLEDPin int                  `yaml:"green_led_pin"`
	RedLEDPin   int                  `yaml:"red_led_pin"`
	ADCUnits    []devices.UnitConfig `yaml:"adc_units"`
}

// HTTPConfig holds the settings of the HTTP server.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SSHConfig holds the settings of the SSH status server.
type SSHConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Port        int    `yaml:"port"`
	HostKeyPath string `yaml:"host_key_path"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level              string `yaml:"level"`
	logging.FileConfig `yaml:",inline"`
	// Forward log lines to MQTT (when a broker is configured)
	MQTT bool `yaml:"mqtt"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Serial: transport.Options{
			Device:       DefaultDevice,
			BaudRate:     transport.DefaultBaudRate,
			DataBits:     8,
			StopBits:     1,
			Parity:       "N",
			ReadTimeout:  transport.DefaultReadTimeout,
			PollInterval: transport.DefaultPollInterval,
			ReopenDelay:  transport.DefaultReopenDelay,
		},
		Protocol: ProtocolConfig{
			Grammar:     protocol.GrammarCurrent,
			HistorySize: DefaultHistorySize,
		},
		Bridge: BridgeConfig{
			Type:        environment.BridgeAuto,
			GreenLEDPin: DefaultGreenLEDPin,
			RedLEDPin:   DefaultRedLEDPin,
			ADCUnits: []devices.UnitConfig{
				{Unit: 1, Devices: []string{"0x48", "0x49"}},
				{Unit: 2, Devices: []string{"0x4A", "0x4B", "0x4C"}},
			},
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: DefaultHTTPPort,
		},
		SSH: SSHConfig{
			Port:        DefaultSSHPort,
			HostKeyPath: DefaultHostKeyPath,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration file at the given path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return cfg, nil
}

// Parse the given YAML data into the given config.
// Fields not present in the data keep their current value.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (c Config) Validate() error {
	if c.Serial.Device == "" {
		return errors.New("serial device is required")
	}
	if _, err := c.Serial.Normalize(); err != nil {
		return errors.Wrap(err, "invalid serial options")
	}
	grammar, err := protocol.NewGrammar(c.Protocol.Grammar)
	if err != nil {
		return errors.WithStack(err)
	}
	if c.Protocol.Nak && grammar.Name() != protocol.GrammarCurrent {
		return errors.Errorf("nak replies are not supported by the %s grammar", grammar.Name())
	}
	if err := environment.ValidateBridgeType(c.Bridge.Type); err != nil {
		return errors.WithStack(err)
	}
	if c.Bridge.StatusLEDs && c.Bridge.GreenLEDPin == c.Bridge.RedLEDPin {
		return errors.Errorf("green and red led cannot share pin %d", c.Bridge.GreenLEDPin)
	}
	units := make(map[int]struct{})
	for _, u := range c.Bridge.ADCUnits {
		if u.Unit != model.Unit1 && u.Unit != model.Unit2 {
			return errors.Errorf("unknown adc unit %d", u.Unit)
		}
		if _, found := units[int(u.Unit)]; found {
			return errors.Errorf("adc unit %d configured more than once", u.Unit)
		}
		units[int(u.Unit)] = struct{}{}
	}
	if err := validatePort("http", c.HTTP.Port); err != nil {
		return err
	}
	if c.SSH.Enabled {
		if err := validatePort("ssh", c.SSH.Port); err != nil {
			return err
		}
		if c.SSH.Port == c.HTTP.Port {
			return errors.Errorf("http and ssh cannot share port %d", c.SSH.Port)
		}
	}
	return nil
}

// HardwareConfig returns the options used to create the bridge.
func (c BridgeConfig) HardwareConfig() bridge.Config {
	return bridge.Config{
		I2CBus:      c.I2CBus,
		StatusLEDs:  c.StatusLEDs,
		GreenLEDPin: c.GreenLEDPin,
		RedLEDPin:   c.RedLEDPin,
	}
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return errors.Errorf("invalid %s port %d", name, port)
	}
	return nil
}
