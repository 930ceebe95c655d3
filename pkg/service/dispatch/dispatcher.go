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

package dispatch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

// IO is the hardware capability used to execute commands.
type IO interface {
	bridge.GPIO
	bridge.ADC
}

// ioPair combines a GPIO and an ADC into an IO.
type ioPair struct {
	bridge.GPIO
	bridge.ADC
}

// NewIO combines the given GPIO & ADC into an IO.
func NewIO(gpio bridge.GPIO, adc bridge.ADC) IO {
	return ioPair{GPIO: gpio, ADC: adc}
}

// Dispatcher executes resolved commands on the hardware.
type Dispatcher struct {
	log   zerolog.Logger
	locks *ResourceLocks
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:   log.With().Str("component", "dispatcher").Logger(),
		locks: NewResourceLocks(),
	}
}

// Execute the given command on the given resource.
// The hardware is accessed exactly once per command.
func (d *Dispatcher) Execute(ctx context.Context, cmd model.Command, res model.Resource, io IO) (model.Response, error) {
	start := time.Now()
	defer func() {
		executeDuration.Observe(time.Since(start).Seconds())
	}()

	if cmd.Operation == model.OperationWrite && cmd.Kind == model.KindAnalog {
		return model.Response{}, errors.Wrapf(model.UnsupportedOperationError, "analog write on pin %d", cmd.Address)
	}

	unlock, err := d.locks.Acquire(ctx, res)
	if err != nil {
		return model.Response{}, errors.Wrapf(err, "waiting for %s", res)
	}
	defer unlock()

	var resp model.Response
	switch {
	case cmd.Operation == model.OperationRead && cmd.Kind == model.KindDigital:
		resp, err = d.readDigital(ctx, cmd, res, io)
	case cmd.Operation == model.OperationRead && cmd.Kind == model.KindAnalog:
		resp, err = d.readAnalog(ctx, cmd, res, io)
	case cmd.Operation == model.OperationWrite && cmd.Kind == model.KindDigital:
		resp, err = d.writeDigital(ctx, cmd, res, io)
	default:
		return model.Response{}, errors.Wrapf(model.UnsupportedOperationError, "%s", cmd)
	}
	if err != nil {
		executeErrorCounters.WithLabelValues(cmd.Operation.String(), cmd.Kind.String()).Inc()
		return model.Response{}, err
	}
	executeCounters.WithLabelValues(cmd.Operation.String(), cmd.Kind.String()).Inc()
	d.log.Debug().
		Str("command", cmd.String()).
		Str("resource", res.String()).
		Int("value", resp.Value).
		Msg("Executed command")
	return resp, nil
}

func (d *Dispatcher) readDigital(ctx context.Context, cmd model.Command, res model.Resource, io IO) (model.Response, error) {
	if err := io.SetDirection(ctx, res.Pin, bridge.PinInput); err != nil {
		return model.Response{}, errors.Wrapf(model.IOError, "set %s to input: %v", res, err)
	}
	high, err := io.GetLevel(ctx, res.Pin)
	if err != nil {
		return model.Response{}, errors.Wrapf(model.IOError, "read %s: %v", res, err)
	}
	return cmd.Respond(levelValue(high)), nil
}

func (d *Dispatcher) readAnalog(ctx context.Context, cmd model.Command, res model.Resource, io IO) (model.Response, error) {
	value, err := io.ReadADC(ctx, res.Unit, res.Channel)
	if err != nil {
		return model.Response{}, errors.Wrapf(model.ConversionError, "%s: %v", res, err)
	}
	return cmd.Respond(value), nil
}

func (d *Dispatcher) writeDigital(ctx context.Context, cmd model.Command, res model.Resource, io IO) (model.Response, error) {
	if err := io.SetDirection(ctx, res.Pin, bridge.PinOutput); err != nil {
		return model.Response{}, errors.Wrapf(model.IOError, "set %s to output: %v", res, err)
	}
	high := cmd.Value > 0
	if err := io.SetLevel(ctx, res.Pin, high); err != nil {
		return model.Response{}, errors.Wrapf(model.IOError, "write %s: %v", res, err)
	}
	return cmd.Respond(levelValue(high)), nil
}

func levelValue(high bool) int {
	if high {
		return 1
	}
	return 0
}
