//    Copyright 2025 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package bridge

import (
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	rpio "github.com/stianeikeland/go-rpio/v4"
)

const (
	// Number of BCM GPIO lines on the Raspberry Pi header
	rpiPinCount = 28
	// Default I2C bus of the Raspberry Pi
	rpiI2CBus = "/dev/i2c-1"
)

// rpioPin adapts a go-rpio pin to InputPin & OutputPin.
type rpioPin rpio.Pin

func (p rpioPin) Read() (bool, error) {
	return rpio.Pin(p).Read() == rpio.High, nil
}

func (p rpioPin) Write(value bool) error {
	if value {
		rpio.Pin(p).High()
	} else {
		rpio.Pin(p).Low()
	}
	return nil
}

// rpioDriver accesses pins through the memory mapped GPIO registers.
type rpioDriver struct{}

func (rpioDriver) Input(pin int) (InputPin, error) {
	p := rpio.Pin(pin)
	p.Input()
	return rpioPin(p), nil
}

func (rpioDriver) Output(pin int, initialValue bool) (OutputPin, error) {
	p := rpio.Pin(pin)
	p.Output()
	out := rpioPin(p)
	out.Write(initialValue)
	return out, nil
}

type piBridge struct {
	ledBridge
	mutex   sync.Mutex
	pins    *localPins
	busPath string
	bus     I2CBus
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's
func NewRaspberryPiBridge(cfg Config) (API, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "rpio.Open failed")
	}
	driver := rpioDriver{}
	pins := newLocalPins(driver, rpiPinCount)
	greenLed, redLed, err := newStatusLeds(cfg, driver, pins)
	if err != nil {
		rpio.Close()
		return nil, err
	}
	busPath := cfg.I2CBus
	if busPath == "" {
		busPath = rpiI2CBus
	}
	return &piBridge{
		ledBridge: ledBridge{greenLed: greenLed, redLed: redLed},
		pins:      pins,
		busPath:   busPath,
	}, nil
}

// Returns number of local pins
func (p *piBridge) PinCount() int {
	return rpiPinCount
}

// Access to local GPIO
func (p *piBridge) GPIO() GPIO {
	return p.pins
}

// Open the I2C bus
func (p *piBridge) I2CBus() (I2CBus, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bus == nil {
		bus, err := NewI2CBus(p.busPath)
		if err != nil {
			return nil, errors.Wrap(err, "NewI2CBus failed")
		}
		p.bus = bus
	}
	return p.bus, nil
}

func (p *piBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.closeLeds()
	var ae aerr.AggregateError
	if p.bus != nil {
		bus := p.bus
		p.bus = nil
		if err := bus.Close(); err != nil {
			ae.Add(errors.Wrap(err, "Close failed"))
		}
	}
	if err := rpio.Close(); err != nil {
		ae.Add(errors.Wrap(err, "rpio.Close failed"))
	}
	return ae.AsError()
}
