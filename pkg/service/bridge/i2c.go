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
	"runtime"
	"strconv"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
)

type I2CBus interface {
	// Execute an option on the bus.
	Execute(ctx context.Context, address uint8, op func(ctx context.Context, dev I2CDevice) error) error
	// DetectSlaveAddresses probes the bus to detect available addresses.
	DetectSlaveAddresses() []byte
	// Close the bus and all devices on it
	Close() error
}

// I2CDevice communicates with a device on the I2C Bus that has a specific address.
type I2CDevice interface {
	// Read a block of data directly from the device (/dev/...)
	ReadDevice(data []byte) (err error)
	// Write a block of data directly to the device (/dev/...)
	WriteDevice(data []byte) (err error)
}

type i2cBus struct {
	location string
	devices  map[uint8]*i2cDevice
	queue    chan func()
	cancel   context.CancelFunc
}

// NewI2CBus returns accessors the the I2C bus at the given location.
// All operations on the bus are serialized on a single OS thread.
func NewI2CBus(location string) (I2CBus, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &i2cBus{
		location: location,
		devices:  make(map[uint8]*i2cDevice),
		queue:    make(chan func()),
		cancel:   cancel,
	}
	go b.queueProcessor(ctx)
	return b, nil
}

// Execute an option on the bus.
func (b *i2cBus) Execute(ctx context.Context, address uint8, op func(context.Context, I2CDevice) error) error {
	result := make(chan error, 1)
	req := func() {
		result <- b.execute(ctx, address, op)
	}

	// Put request in queue
	select {
	case b.queue <- req:
		// Request is on the queue
	case <-ctx.Done():
		// Context canceled
		return ctx.Err()
	}
	// Once queued, the request always completes
	return <-result
}

// Process bus requests from the queue until the given context is canceled.
func (b *i2cBus) queueProcessor(ctx context.Context) {
	// Ensure we're always using the same OS thread
	runtime.LockOSThread()

	for {
		select {
		case req := <-b.queue:
			req()
		case <-ctx.Done():
			// Context canceled
			return
		}
	}
}

// Execute an option on the bus.
func (b *i2cBus) execute(ctx context.Context, address uint8, op func(context.Context, I2CDevice) error) error {
	addressLabel := strconv.Itoa(int(address))
	i2cExecuteCounters.WithLabelValues(addressLabel).Inc()

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		// Open device
		var dev *i2cDevice
		dev, err = b.openDevice(address)
		if err != nil {
			i2cExecuteErrorCounters.WithLabelValues(addressLabel).Inc()
			return errors.Wrapf(err, "openDevice(0x%0x) failed", address)
		}

		// Execute operation
		if err = op(ctx, dev); err == nil {
			return nil
		}

		// Device call failed, close all devices and retry with fresh handles
		b.closeDevices()
	}
	i2cExecuteErrorCounters.WithLabelValues(addressLabel).Inc()
	return errors.Wrapf(err, "execute operation on i2c device 0x%0x failed", address)
}

// Open a connection to a device at the given address.
func (b *i2cBus) openDevice(address uint8) (*i2cDevice, error) {
	// Did we already open the device?
	if d, found := b.devices[address]; found {
		return d, nil
	}

	d, err := newI2CDevice(b.location, address)
	if err != nil {
		return nil, err
	}
	b.devices[address] = d
	return d, nil
}

// closeDevices closes all open devices.
// Must be called on the queue processor.
func (b *i2cBus) closeDevices() error {
	var ae aerr.AggregateError
	for addr, d := range b.devices {
		if err := d.closeFile(); err != nil {
			ae.Add(err)
		}
		delete(b.devices, addr)
	}
	return ae.AsError()
}

// DetectSlaveAddresses probes the bus to detect available addresses.
func (b *i2cBus) DetectSlaveAddresses() []byte {
	var result []byte
	for addr := uint8(1); addr < 128; addr++ {
		if d, err := newI2CDevice(b.location, addr); err == nil {
			if err := d.DetectDevice(); err == nil {
				result = append(result, addr)
			}
			d.closeFile()
		}
	}
	return result
}

// Close the bus and all devices on it
func (b *i2cBus) Close() error {
	result := make(chan error, 1)
	b.queue <- func() {
		result <- b.closeDevices()
	}
	err := <-result
	b.cancel()
	return err
}
