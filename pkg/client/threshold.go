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

package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
)

// ThresholdConfig configures a threshold loop.
type ThresholdConfig struct {
	// Analog pin that is sampled
	SensorPin int
	// Digital pin that is driven
	OutputPin int
	// Samples at or above this value drive the output high
	Threshold int
	// Time between samples
	Interval time.Duration
}

// DefaultThresholdConfig returns the threshold loop of the bench setup:
// a sensor on pin 4 drives pin 5.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		SensorPin: 4,
		OutputPin: 5,
		Threshold: 3000,
		Interval:  500 * time.Millisecond,
	}
}

// Sample is the outcome of a single threshold loop iteration.
type Sample struct {
	Value int
	High  bool
	Err   error
}

// RunThreshold samples the sensor pin and drives the output pin until the
// given context is canceled. Failed iterations are reported and retried.
func RunThreshold(ctx context.Context, log zerolog.Logger, c *Client, cfg ThresholdConfig, onSample func(Sample)) error {
	if onSample == nil {
		onSample = func(Sample) {}
	}
	for {
		sample := thresholdStep(ctx, c, cfg)
		if sample.Err != nil && ctx.Err() == nil {
			log.Warn().Err(sample.Err).Msg("Threshold step failed")
		}
		onSample(sample)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cfg.Interval):
		}
	}
}

func thresholdStep(ctx context.Context, c *Client, cfg ThresholdConfig) Sample {
	value, err := c.ReadPin(ctx, model.KindAnalog, cfg.SensorPin)
	if err != nil {
		return Sample{Err: err}
	}
	high := value >= cfg.Threshold
	level := 0
	if high {
		level = 1
	}
	if _, err := c.WritePin(ctx, model.KindDigital, cfg.OutputPin, level); err != nil {
		return Sample{Value: value, High: high, Err: err}
	}
	return Sample{Value: value, High: high}
}
