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
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

// fakeADS1115 emulates the register interface of an ADS1115.
type fakeADS1115 struct {
	pointer    uint8
	config     uint16
	values     [4]uint16
	busyReads  int
	pending    int
	failure    error
	configured bool
}

func (f *fakeADS1115) WriteDevice(data []byte) error {
	f.pointer = data[0]
	if len(data) == 3 && f.pointer == ads1115RegConfig {
		f.configured = true
		f.config = uint16(data[1])<<8 | uint16(data[2])
		if f.config&ads1115ConfigOSSingle != 0 {
			f.config &^= ads1115ConfigOSMask
			f.pending = f.busyReads
		}
	}
	return nil
}

func (f *fakeADS1115) ReadDevice(data []byte) error {
	var value uint16
	switch f.pointer {
	case ads1115RegConfig:
		value = f.config
		if f.pending > 0 {
			f.pending--
		} else {
			value |= ads1115ConfigOSNotBusy
		}
	case ads1115RegConversion:
		input := (f.config-ads1115ConfigMuxSingle0)>>12&0x3
		value = f.values[input]
	}
	data[0] = uint8(value >> 8)
	data[1] = uint8(value)
	return nil
}

type fakeBus struct {
	mutex sync.Mutex
	chips map[uint8]*fakeADS1115
}

func (b *fakeBus) Execute(ctx context.Context, address uint8, op func(context.Context, bridge.I2CDevice) error) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	chip, found := b.chips[address]
	if !found {
		return errors.Errorf("device 0x%0x not found", address)
	}
	if chip.failure != nil {
		return chip.failure
	}
	return op(ctx, chip)
}

func (b *fakeBus) DetectSlaveAddresses() []byte {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var result []byte
	for addr := range b.chips {
		result = append(result, addr)
	}
	return result
}

func (b *fakeBus) Close() error { return nil }

func newTestConverter(t *testing.T) (*Converter, *fakeBus) {
	bus := &fakeBus{chips: map[uint8]*fakeADS1115{
		0x48: {busyReads: 2},
		0x49: {},
		0x4A: {},
	}}
	bus.chips[0x48].values = [4]uint16{100, 200, 300, 400}
	bus.chips[0x49].values = [4]uint16{500, 600, 700, 0x8000}
	bus.chips[0x4A].values = [4]uint16{1000, 1100, 1200, 1300}
	conv, err := NewConverter(zerolog.Nop(), bus, []UnitConfig{
		{Unit: model.Unit1, Devices: []string{"0x48", "0x49"}},
		{Unit: model.Unit2, Devices: []string{"74"}},
	}, nil)
	require.NoError(t, err)
	return conv, bus
}

func TestConverterReadADC(t *testing.T) {
	ctx := context.Background()
	conv, bus := newTestConverter(t)
	require.NoError(t, conv.Configure(ctx))
	for _, chip := range bus.chips {
		assert.True(t, chip.configured)
	}

	tests := []struct {
		unit     model.Unit
		channel  int
		expected int
	}{
		{model.Unit1, 0, 100},
		{model.Unit1, 3, 400},
		{model.Unit1, 4, 500},
		{model.Unit1, 6, 700},
		{model.Unit2, 2, 1200},
	}
	for _, tc := range tests {
		value, err := conv.ReadADC(ctx, tc.unit, tc.channel)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, value, "unit %d channel %d", tc.unit, tc.channel)
	}

	// Conversion results are signed
	value, err := conv.ReadADC(ctx, model.Unit1, 7)
	require.NoError(t, err)
	assert.Equal(t, -32768, value)
}

func TestConverterMissingChip(t *testing.T) {
	ctx := context.Background()
	conv, _ := newTestConverter(t)

	_, err := conv.ReadADC(ctx, model.Unit1, 8)
	assert.Error(t, err)
	_, err = conv.ReadADC(ctx, model.Unit2, 9)
	assert.Error(t, err)
	_, err = conv.ReadADC(ctx, model.Unit2, -1)
	assert.Error(t, err)
}

func TestConverterMissing(t *testing.T) {
	conv, bus := newTestConverter(t)
	assert.Empty(t, conv.Missing())
	delete(bus.chips, 0x49)
	assert.Equal(t, []string{"0x49"}, conv.Missing())
}

func TestConverterChipFailure(t *testing.T) {
	ctx := context.Background()
	conv, bus := newTestConverter(t)
	bus.chips[0x4A].failure = errors.New("nack")

	assert.Error(t, conv.Configure(ctx))
	_, err := conv.ReadADC(ctx, model.Unit2, 0)
	assert.Error(t, err)
	// Other units keep working
	value, err := conv.ReadADC(ctx, model.Unit1, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, value)
}

func TestNewConverterRejects(t *testing.T) {
	bus := &fakeBus{}
	_, err := NewConverter(zerolog.Nop(), bus, []UnitConfig{{Unit: 3}}, nil)
	assert.Error(t, err)
	_, err = NewConverter(zerolog.Nop(), bus, []UnitConfig{{Unit: model.Unit1}, {Unit: model.Unit1}}, nil)
	assert.Error(t, err)
	_, err = NewConverter(zerolog.Nop(), bus, []UnitConfig{{Unit: model.Unit1, Devices: []string{"0xZZ"}}}, nil)
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0x48", 0x48},
		{"0X4a", 0x4A},
		{"72", 72},
		{" 0x49 ", 0x49},
	}
	for _, tc := range tests {
		addr, err := parseAddress(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, addr)
	}
	_, err := parseAddress("0x100")
	assert.Error(t, err)
	_, err = parseAddress("abc")
	assert.Error(t, err)
}
