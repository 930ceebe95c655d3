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
	"sync"

	"github.com/ecc1/gpio"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

const (
	// Default I2C bus of sunxi boards (Orange PI)
	sysfsI2CBus = "/dev/i2c-0"
)

// sysfsDriver accesses pins through /sys/class/gpio.
type sysfsDriver struct {
	activeLow bool
}

func (d sysfsDriver) Input(pin int) (InputPin, error) {
	return gpio.Input(pin, d.activeLow)
}

func (d sysfsDriver) Output(pin int, initialValue bool) (OutputPin, error) {
	return gpio.Output(pin, d.activeLow, initialValue)
}

type sysfsBridge struct {
	ledBridge
	mutex   sync.Mutex
	pins    *localPins
	busPath string
	bus     I2CBus
}

// NewSysfsBridge implements the bridge for boards (such as the Orange PI)
// that expose their pins through the sysfs GPIO interface.
func NewSysfsBridge(cfg Config) (API, error) {
	pins := newLocalPins(sysfsDriver{}, model.MaxAddress+1)
	greenLed, redLed, err := newStatusLeds(cfg, sysfsDriver{activeLow: true}, pins)
	if err != nil {
		return nil, err
	}
	busPath := cfg.I2CBus
	if busPath == "" {
		busPath = sysfsI2CBus
	}
	return &sysfsBridge{
		ledBridge: ledBridge{greenLed: greenLed, redLed: redLed},
		pins:      pins,
		busPath:   busPath,
	}, nil
}

// Returns number of local pins
func (p *sysfsBridge) PinCount() int {
	return p.pins.pinCount
}

// Access to local GPIO
func (p *sysfsBridge) GPIO() GPIO {
	return p.pins
}

// Open the I2C bus
func (p *sysfsBridge) I2CBus() (I2CBus, error) {
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

func (p *sysfsBridge) Close() error {
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
	return ae.AsError()
}
