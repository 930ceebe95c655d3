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
	"fmt"
	"sort"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

// UnitConfig describes the hardware of a single converter unit.
type UnitConfig struct {
	Unit model.Unit `yaml:"unit"`
	// I2C addresses of the ADS1115 chips of this unit.
	// Channel c is served by chip c/4, input c%4.
	Devices []string `yaml:"devices"`
}

// Converter implements the analog converter units on top of ADS1115 chips.
type Converter struct {
	log   zerolog.Logger
	bus   bridge.I2CBus
	units map[model.Unit][]*ads1115
}

var _ bridge.ADC = &Converter{}

// NewConverter creates the converter units described by the given config.
func NewConverter(log zerolog.Logger, bus bridge.I2CBus, configs []UnitConfig, onActive func()) (*Converter, error) {
	c := &Converter{
		log:   log.With().Str("component", "converter").Logger(),
		bus:   bus,
		units: make(map[model.Unit][]*ads1115),
	}
	for _, uc := range configs {
		if uc.Unit != model.Unit1 && uc.Unit != model.Unit2 {
			return nil, errors.Errorf("invalid converter unit %d", uc.Unit)
		}
		if _, found := c.units[uc.Unit]; found {
			return nil, errors.Errorf("duplicate converter unit %d", uc.Unit)
		}
		chips := make([]*ads1115, 0, len(uc.Devices))
		for _, addr := range uc.Devices {
			chip, err := newADS1115(bus, addr, onActive)
			if err != nil {
				return nil, err
			}
			chips = append(chips, chip)
		}
		c.units[uc.Unit] = chips
	}
	return c, nil
}

// Configure puts all chips in the desired state.
// Chips that fail are reported, conversions on them will fail later.
func (c *Converter) Configure(ctx context.Context) error {
	var ae aerr.AggregateError
	for _, unit := range c.sortedUnits() {
		for i, chip := range c.units[unit] {
			if err := chip.Configure(ctx); err != nil {
				c.log.Warn().Err(err).
					Int("unit", int(unit)).
					Str("address", fmt.Sprintf("0x%02x", chip.address)).
					Msg("Failed to configure ADS1115")
				ae.Add(errors.Wrapf(err, "unit %d chip %d", unit, i))
			}
		}
	}
	return ae.AsError()
}

// Missing probes the bus and returns the addresses of configured chips
// that do not respond.
func (c *Converter) Missing() []string {
	detected := make(map[uint8]struct{})
	for _, addr := range c.bus.DetectSlaveAddresses() {
		detected[addr] = struct{}{}
	}
	var result []string
	for _, unit := range c.sortedUnits() {
		for _, chip := range c.units[unit] {
			if _, found := detected[chip.address]; !found {
				result = append(result, fmt.Sprintf("0x%02x", chip.address))
			}
		}
	}
	return result
}

// Close brings all chips back to a safe state.
func (c *Converter) Close(ctx context.Context) error {
	var ae aerr.AggregateError
	for _, unit := range c.sortedUnits() {
		for _, chip := range c.units[unit] {
			if err := chip.Close(ctx); err != nil {
				ae.Add(err)
			}
		}
	}
	return ae.AsError()
}

// ReadADC performs a single conversion on the given unit & channel.
func (c *Converter) ReadADC(ctx context.Context, unit model.Unit, channel int) (int, error) {
	unitLabel := fmt.Sprintf("%d", unit)
	conversionCounters.WithLabelValues(unitLabel).Inc()
	chip, input, err := c.chipFor(unit, channel)
	if err != nil {
		conversionErrorCounters.WithLabelValues(unitLabel).Inc()
		return 0, err
	}
	start := time.Now()
	value, err := chip.Read(ctx, input)
	conversionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		conversionErrorCounters.WithLabelValues(unitLabel).Inc()
		return 0, errors.Wrapf(err, "unit %d channel %d", unit, channel)
	}
	return value, nil
}

// chipFor returns the chip and its input serving the given unit & channel.
func (c *Converter) chipFor(unit model.Unit, channel int) (*ads1115, int, error) {
	chips, found := c.units[unit]
	if !found {
		return nil, 0, errors.Errorf("converter unit %d not configured", unit)
	}
	if channel < 0 {
		return nil, 0, errors.Errorf("invalid channel %d", channel)
	}
	idx := channel / ads1115InputCount
	if idx >= len(chips) {
		return nil, 0, errors.Errorf("unit %d has no chip for channel %d", unit, channel)
	}
	return chips[idx], channel % ads1115InputCount, nil
}

func (c *Converter) sortedUnits() []model.Unit {
	result := make([]model.Unit, 0, len(c.units))
	for unit := range c.units {
		result = append(result, unit)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
