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
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

// VirtualBridge is an in-memory bridge used for development and tests.
// It simulates all local pins and both analog converter units.
type VirtualBridge struct {
	pins *localPins

	mutex        sync.Mutex
	inputs       map[int]bool
	outputs      map[int]bool
	pinFailures  map[int]error
	analog       map[virtualChannel]int
	analogFaults map[virtualChannel]error
	hwCalls      int
}

type virtualChannel struct {
	unit    model.Unit
	channel int
}

var (
	_ API = &VirtualBridge{}
	_ ADC = &VirtualBridge{}
)

// NewVirtualBridge implements the bridge for a virtual pin worker.
func NewVirtualBridge() *VirtualBridge {
	vb := &VirtualBridge{
		inputs:       make(map[int]bool),
		outputs:      make(map[int]bool),
		pinFailures:  make(map[int]error),
		analog:       make(map[virtualChannel]int),
		analogFaults: make(map[virtualChannel]error),
	}
	vb.pins = newLocalPins(virtualDriver{vb}, model.MaxAddress+1)
	return vb
}

// Returns number of local pins
func (p *VirtualBridge) PinCount() int {
	return p.pins.pinCount
}

// Access to local GPIO
func (p *VirtualBridge) GPIO() GPIO {
	return p.pins
}

// ReadADC returns the simulated value of the given unit & channel.
func (p *VirtualBridge) ReadADC(ctx context.Context, unit model.Unit, channel int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.hwCalls++
	key := virtualChannel{unit, channel}
	if err := p.analogFaults[key]; err != nil {
		return 0, err
	}
	return p.analog[key], nil
}

// SetInputLevel sets the level seen when reading the given pin.
func (p *VirtualBridge) SetInputLevel(pin int, high bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.inputs[pin] = high
}

// OutputLevel returns the level last driven on the given pin.
func (p *VirtualBridge) OutputLevel(pin int) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.outputs[pin]
}

// Direction returns the current mode of the given pin.
func (p *VirtualBridge) Direction(pin int) PinDirection {
	return p.pins.Direction(pin)
}

// SetAnalogValue sets the result of conversions on the given unit & channel.
func (p *VirtualBridge) SetAnalogValue(unit model.Unit, channel, value int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.analog[virtualChannel{unit, channel}] = value
}

// FailAnalog makes conversions on the given unit & channel fail with given error.
// Pass a nil error to clear the failure.
func (p *VirtualBridge) FailAnalog(unit model.Unit, channel int, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.analogFaults[virtualChannel{unit, channel}] = err
}

// FailPin makes all access to the given pin fail with given error.
// Pass a nil error to clear the failure.
func (p *VirtualBridge) FailPin(pin int, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pinFailures[pin] = err
}

// HardwareCalls returns the number of simulated hardware accesses.
func (p *VirtualBridge) HardwareCalls() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.hwCalls
}

// Turn Green status led on/off
func (p *VirtualBridge) SetGreenLED(on bool) error {
	return nil
}

// Turn Red status led on/off
func (p *VirtualBridge) SetRedLED(on bool) error {
	return nil
}

// Blink Green status led with given duration between on/off
func (p *VirtualBridge) BlinkGreenLED(delay time.Duration) error {
	return nil
}

// Blink Red status led with given duration between on/off
func (p *VirtualBridge) BlinkRedLED(delay time.Duration) error {
	return nil
}

// Open the I2C bus
func (p *VirtualBridge) I2CBus() (I2CBus, error) {
	return p, nil
}

func (p *VirtualBridge) Close() error {
	return nil
}

// Execute an option on the bus.
func (p *VirtualBridge) Execute(ctx context.Context, address uint8, op func(ctx context.Context, dev I2CDevice) error) error {
	return fmt.Errorf("device %0x not found", address)
}

// DetectSlaveAddresses probes the bus to detect available addresses.
func (p *VirtualBridge) DetectSlaveAddresses() []byte {
	return nil
}

// virtualDriver creates simulated pin handles.
type virtualDriver struct {
	vb *VirtualBridge
}

type virtualPin struct {
	vb  *VirtualBridge
	pin int
}

func (d virtualDriver) Input(pin int) (InputPin, error) {
	if err := d.vb.access(pin); err != nil {
		return nil, err
	}
	return virtualPin{d.vb, pin}, nil
}

func (d virtualDriver) Output(pin int, initialValue bool) (OutputPin, error) {
	out := virtualPin{d.vb, pin}
	if err := out.Write(initialValue); err != nil {
		return nil, err
	}
	return out, nil
}

func (p virtualPin) Read() (bool, error) {
	if err := p.vb.access(p.pin); err != nil {
		return false, err
	}
	p.vb.mutex.Lock()
	defer p.vb.mutex.Unlock()
	return p.vb.inputs[p.pin], nil
}

func (p virtualPin) Write(value bool) error {
	if err := p.vb.access(p.pin); err != nil {
		return err
	}
	p.vb.mutex.Lock()
	defer p.vb.mutex.Unlock()
	p.vb.outputs[p.pin] = value
	return nil
}

// access records a hardware access of the given pin.
func (p *VirtualBridge) access(pin int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.hwCalls++
	if err := p.pinFailures[pin]; err != nil {
		return errors.Wrapf(err, "pin %d", pin)
	}
	return nil
}
