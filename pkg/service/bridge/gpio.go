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

package bridge

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// pinDriver creates input & output handles for local pins.
type pinDriver interface {
	Input(pin int) (InputPin, error)
	Output(pin int, initialValue bool) (OutputPin, error)
}

type localPin struct {
	direction PinDirection
	input     InputPin
	output    OutputPin
	level     bool
}

// localPins implements GPIO on top of a pin driver.
// It remembers the mode of every pin, so switching to the mode a pin
// already has does not touch the hardware.
type localPins struct {
	mutex    sync.Mutex
	driver   pinDriver
	pinCount int
	reserved map[int]string
	pins     map[int]*localPin
}

func newLocalPins(driver pinDriver, pinCount int) *localPins {
	return &localPins{
		driver:   driver,
		pinCount: pinCount,
		reserved: make(map[int]string),
		pins:     make(map[int]*localPin),
	}
}

// reserve the given pin for internal use (e.g. status leds).
func (p *localPins) reserve(pin int, usage string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.reserved[pin] = usage
}

func (p *localPins) checkPin(pin int) error {
	if pin < 0 || pin >= p.pinCount {
		return errors.Errorf("pin %d does not exist (0-%d)", pin, p.pinCount-1)
	}
	if usage, found := p.reserved[pin]; found {
		return errors.Errorf("pin %d is reserved for %s", pin, usage)
	}
	return nil
}

// SetDirection configures the mode of the given pin.
func (p *localPins) SetDirection(ctx context.Context, pin int, dir PinDirection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.checkPin(pin); err != nil {
		return err
	}
	current := p.pins[pin]
	if current != nil && current.direction == dir {
		return nil
	}
	var next *localPin
	switch dir {
	case PinInput:
		in, err := p.driver.Input(pin)
		if err != nil {
			return errors.Wrapf(err, "Input(%d) failed", pin)
		}
		next = &localPin{direction: PinInput, input: in}
	case PinOutput:
		initialValue := current != nil && current.level
		out, err := p.driver.Output(pin, initialValue)
		if err != nil {
			return errors.Wrapf(err, "Output(%d) failed", pin)
		}
		next = &localPin{direction: PinOutput, output: out, level: initialValue}
	default:
		return errors.Errorf("cannot set pin %d to %s", pin, dir)
	}
	p.pins[pin] = next
	gpioDirectionChangeCounters.WithLabelValues(strconv.Itoa(pin), dir.String()).Inc()
	return nil
}

// SetLevel drives an output pin high or low.
func (p *localPins) SetLevel(ctx context.Context, pin int, high bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.checkPin(pin); err != nil {
		return err
	}
	lp := p.pins[pin]
	if lp == nil || lp.direction != PinOutput {
		return errors.Errorf("pin %d is not configured as output", pin)
	}
	gpioAccessCounters.WithLabelValues("write").Inc()
	if err := lp.output.Write(high); err != nil {
		gpioAccessErrorCounters.WithLabelValues("write").Inc()
		return errors.Wrapf(err, "Write(%d) failed", pin)
	}
	lp.level = high
	return nil
}

// GetLevel returns the level of the given pin.
// For output pins, the last written level is returned.
func (p *localPins) GetLevel(ctx context.Context, pin int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.checkPin(pin); err != nil {
		return false, err
	}
	lp := p.pins[pin]
	if lp == nil {
		return false, errors.Errorf("pin %d is not configured", pin)
	}
	if lp.direction == PinOutput {
		return lp.level, nil
	}
	gpioAccessCounters.WithLabelValues("read").Inc()
	value, err := lp.input.Read()
	if err != nil {
		gpioAccessErrorCounters.WithLabelValues("read").Inc()
		return false, errors.Wrapf(err, "Read(%d) failed", pin)
	}
	lp.level = value
	return value, nil
}

// Direction returns the current mode of the given pin.
func (p *localPins) Direction(pin int) PinDirection {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if lp := p.pins[pin]; lp != nil {
		return lp.direction
	}
	return PinUnconfigured
}
