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
	"context"
	"time"

	"github.com/binkynet/PinWorker/model"
)

// API of the bridge, the hardware of the host that the pins are
// connected to.
type API interface {
	// Turn Green status led on/off
	SetGreenLED(on bool) error
	// Turn Red status led on/off
	SetRedLED(on bool) error
	// Blink Green status led with given duration between on/off
	BlinkGreenLED(delay time.Duration) error
	// Blink Red status led with given duration between on/off
	BlinkRedLED(delay time.Duration) error

	// Open the I2C bus
	I2CBus() (I2CBus, error)

	// Access to local GPIO
	GPIO() GPIO
	// Returns number of local pins
	PinCount() int

	Close() error
}

// PinDirection is the mode of a local pin.
type PinDirection int

const (
	PinUnconfigured PinDirection = iota
	PinInput
	PinOutput
)

func (d PinDirection) String() string {
	switch d {
	case PinInput:
		return "input"
	case PinOutput:
		return "output"
	default:
		return "unconfigured"
	}
}

// GPIO gives access to the local digital pins.
type GPIO interface {
	// SetDirection configures the mode of the given pin.
	// Setting the mode the pin already has is a no-op.
	SetDirection(ctx context.Context, pin int, dir PinDirection) error
	// SetLevel drives an output pin high or low.
	SetLevel(ctx context.Context, pin int, high bool) error
	// GetLevel returns the level of the given pin.
	GetLevel(ctx context.Context, pin int) (bool, error)
}

// ADC performs analog to digital conversions.
type ADC interface {
	// ReadADC performs a single conversion on the given unit & channel.
	ReadADC(ctx context.Context, unit model.Unit, channel int) (int, error)
}

// InputPin is the interface satisfied by GPIO input pins.
type InputPin interface {
	Read() (bool, error)
}

// OutputPin is the interface satisfied by GPIO output pins.
type OutputPin interface {
	Write(bool) error
}

// Config of a hardware bridge.
type Config struct {
	// Device path of the I2C bus
	I2CBus string
	// If set, status leds are driven on the given pins
	StatusLEDs  bool
	GreenLEDPin int
	RedLEDPin   int
}
