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
	"sync"
	"time"

	"github.com/pkg/errors"
)

type statusLed struct {
	sync.Mutex
	pin         OutputPin
	cancelBlink func()
}

// newStatusLeds prepares the green & red status leds, when configured.
// The led pins are reserved in the given pin table.
func newStatusLeds(cfg Config, driver pinDriver, pins *localPins) (green, red *statusLed, err error) {
	green, red = &statusLed{}, &statusLed{}
	if !cfg.StatusLEDs {
		return green, red, nil
	}
	if green.pin, err = driver.Output(cfg.GreenLEDPin, false); err != nil {
		return nil, nil, errors.Wrap(err, "Output[greenLed] failed")
	}
	if red.pin, err = driver.Output(cfg.RedLEDPin, false); err != nil {
		return nil, nil, errors.Wrap(err, "Output[redLed] failed")
	}
	pins.reserve(cfg.GreenLEDPin, "green status led")
	pins.reserve(cfg.RedLEDPin, "red status led")
	return green, red, nil
}

// Turn led on/off, cancel blink
func (l *statusLed) Set(on bool) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	if l.pin == nil {
		return nil
	}
	if err := l.pin.Write(on); err != nil {
		return errors.Wrap(err, "Write failed")
	}
	return nil
}

// Blink led on/off
func (l *statusLed) Blink(delay time.Duration) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	if l.pin == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelBlink = cancel
	go func() {
		value := true
		for {
			l.Mutex.Lock()
			if ctx.Err() == nil {
				l.pin.Write(value)
				value = !value
			}
			l.Mutex.Unlock()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// ledBridge implements the status led part of the API.
type ledBridge struct {
	greenLed *statusLed
	redLed   *statusLed
}

// Turn Green status led on/off
func (p *ledBridge) SetGreenLED(on bool) error {
	if err := p.greenLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[greenLed] failed")
	}
	return nil
}

// Turn Red status led on/off
func (p *ledBridge) SetRedLED(on bool) error {
	if err := p.redLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[redLed] failed")
	}
	return nil
}

// Blink Green status led with given duration between on/off
func (p *ledBridge) BlinkGreenLED(delay time.Duration) error {
	if err := p.greenLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[greenLed] failed")
	}
	return nil
}

// Blink Red status led with given duration between on/off
func (p *ledBridge) BlinkRedLED(delay time.Duration) error {
	if err := p.redLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[redLed] failed")
	}
	return nil
}

// stop all blinking and turn the leds off.
func (p *ledBridge) closeLeds() {
	p.greenLed.Set(false)
	p.redLed.Set(false)
}
