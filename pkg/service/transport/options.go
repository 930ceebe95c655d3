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
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultPollInterval = 10 * time.Millisecond
	DefaultReopenDelay  = 2 * time.Second
)

// Options of the serial line.
type Options struct {
	// Path of the serial device
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	// N, E or O
	Parity string `yaml:"parity"`
	// Maximum time a single receive waits for data
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// Pause between polls of the line
	PollInterval time.Duration `yaml:"poll_interval"`
	// Pause before reopening a failed port
	ReopenDelay time.Duration `yaml:"reopen_delay"`
	// If set, unterminated data followed by a silent poll is taken as a line
	IdleFlush bool `yaml:"idle_flush"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, errors.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, errors.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}
	switch parity := strings.TrimSpace(strings.ToUpper(opts.Parity)); parity {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, errors.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.PollInterval < 0 {
		return opts, errors.Errorf("invalid poll interval %s", opts.PollInterval)
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ReopenDelay <= 0 {
		opts.ReopenDelay = DefaultReopenDelay
	}
	return opts, nil
}

// SerialMode converts the options into the mode used to open the port.
func (o Options) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}
