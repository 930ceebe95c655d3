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

package devices

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

const (
	// Register addresses
	ads1115RegConversion = 0x00
	ads1115RegConfig     = 0x01

	// Number of single ended inputs
	ads1115InputCount = 4
	// Maximum time a single conversion may take
	ads1115ConversionTimeout = 100 * time.Millisecond
)

// Config register bits
const (
	ads1115ConfigOSMask    = 0x8000 // Operational status mask
	ads1115ConfigOSSingle  = 0x8000 // Write: start a single conversion
	ads1115ConfigOSNotBusy = 0x8000 // Read: no conversion in progress

	ads1115ConfigMuxSingle0 = 0x4000 // Single-ended AIN0, AIN1-3 follow in steps of 0x1000
	ads1115ConfigMuxStep    = 0x1000

	ads1115ConfigPGA6144mV  = 0x0000 // +/-6.144V range = Gain 2/3
	ads1115ConfigModeSingle = 0x0100 // Power-down single-shot mode
	ads1115ConfigRate250SPS = 0x00A0 // 250 samples per second
	ads1115ConfigCQueNone   = 0x0003 // Disable the comparator
)

// ads1115 is a 4 channel, 16-bit analog to digital converter on the I2C bus.
type ads1115 struct {
	mutex    sync.Mutex
	onActive func()
	bus      bridge.I2CBus
	address  byte
}

// newADS1115 creates an ADS1115 device at the given address.
func newADS1115(bus bridge.I2CBus, address string, onActive func()) (*ads1115, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ADS1115 address '%s'", address)
	}
	if onActive == nil {
		onActive = func() {}
	}
	return &ads1115{
		onActive: onActive,
		bus:      bus,
		address:  byte(addr),
	}, nil
}

// Configure is called once to put the device in the desired state.
func (d *ads1115) Configure(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.onActive()
	return d.writeConfig(ctx, d.createConfigBits(0))
}

// Close brings the device back to a safe state.
func (d *ads1115) Close(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.onActive()
	return d.writeConfig(ctx, d.createConfigBits(0))
}

// Read performs a single conversion on the given input (0..3).
func (d *ads1115) Read(ctx context.Context, input int) (int, error) {
	if input < 0 || input >= ads1115InputCount {
		return 0, errors.Errorf("input %d out of range", input)
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.onActive()
	ctx, cancel := context.WithTimeout(ctx, ads1115ConversionTimeout)
	defer cancel()

	// Trigger a conversion
	if err := d.writeConfig(ctx, d.createConfigBits(input)|ads1115ConfigOSSingle); err != nil {
		return 0, err
	}

	// Wait until conversion ready
	for {
		complete, err := d.isConversionComplete(ctx)
		if err != nil {
			return 0, err
		}
		if complete {
			break
		}
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), "conversion did not complete")
		}
	}

	// Read conversion value
	result, err := d.readWordReg(ctx, ads1115RegConversion)
	if err != nil {
		return 0, err
	}
	return int(int16(result)), nil
}

// Is the conversion complete?
func (d *ads1115) isConversionComplete(ctx context.Context) (bool, error) {
	status, err := d.readWordReg(ctx, ads1115RegConfig)
	if err != nil {
		return false, err
	}
	return status&ads1115ConfigOSMask == ads1115ConfigOSNotBusy, nil
}

// write the config register
func (d *ads1115) writeConfig(ctx context.Context, configBits uint16) error {
	return d.writeWordReg(ctx, ads1115RegConfig, configBits)
}

// read a 16-bit register
func (d *ads1115) readWordReg(ctx context.Context, reg uint8) (uint16, error) {
	var result uint16
	if err := d.bus.Execute(ctx, d.address, func(ctx context.Context, dev bridge.I2CDevice) error {
		var buf [3]uint8
		buf[0] = reg
		if err := dev.WriteDevice(buf[:1]); err != nil {
			return errors.Wrap(err, "failed to write register")
		}
		if err := dev.ReadDevice(buf[1:]); err != nil {
			return errors.Wrap(err, "failed to read word")
		}
		// ADS1115 transfers MSB first, then LSB
		result = (uint16(buf[1]) << 8) | uint16(buf[2])
		return nil
	}); err != nil {
		return 0, err
	}
	return result, nil
}

// write a 16-bit register value
func (d *ads1115) writeWordReg(ctx context.Context, reg uint8, value uint16) error {
	// ADS1115 transfers MSB first, then LSB
	buf := [3]uint8{reg, uint8(value >> 8), uint8(value & 0xFF)}
	return d.bus.Execute(ctx, d.address, func(ctx context.Context, dev bridge.I2CDevice) error {
		return dev.WriteDevice(buf[:])
	})
}

// createConfigBits creates bits for the config register for a single shot
// on the given input (0..3).
// Note that the start of a single conversion bit is not included.
func (d *ads1115) createConfigBits(input int) uint16 {
	return ads1115ConfigCQueNone |
		ads1115ConfigRate250SPS |
		ads1115ConfigModeSingle |
		ads1115ConfigPGA6144mV |
		(ads1115ConfigMuxSingle0 + uint16(input)*ads1115ConfigMuxStep)
}
