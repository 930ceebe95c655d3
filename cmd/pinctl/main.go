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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/binkynet/PinWorker/pkg/client"
	"github.com/binkynet/PinWorker/pkg/service/transport"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var opts transport.Options
	var timeout time.Duration
	var threshold bool
	thresholdCfg := client.DefaultThresholdConfig()

	pflag.StringVarP(&levelFlag, "level", "l", "warn", "Set log level")
	pflag.StringVarP(&opts.Device, "device", "d", "", "Serial device of the pin worker")
	pflag.IntVar(&opts.BaudRate, "baud", transport.DefaultBaudRate, "Baud rate of the serial device")
	pflag.DurationVar(&timeout, "timeout", client.DefaultTimeout, "Time to wait for a reply")
	pflag.BoolVar(&threshold, "threshold", false, "Run the threshold loop instead of a shell")
	pflag.IntVar(&thresholdCfg.SensorPin, "sensor-pin", thresholdCfg.SensorPin, "Analog pin sampled by the threshold loop")
	pflag.IntVar(&thresholdCfg.OutputPin, "output-pin", thresholdCfg.OutputPin, "Digital pin driven by the threshold loop")
	pflag.IntVar(&thresholdCfg.Threshold, "threshold-value", thresholdCfg.Threshold, "Sample value at or above which the output is driven high")
	pflag.DurationVar(&thresholdCfg.Interval, "interval", thresholdCfg.Interval, "Time between threshold loop samples")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(levelFlag); err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	} else {
		logger = logger.Level(level)
	}

	sh := newShell(logger, opts, timeout)
	defer sh.close()
	if opts.Device != "" {
		if err := sh.open(opts); err != nil {
			Exitf("Failed to open %s: %v\n", opts.Device, err)
		}
	}

	if threshold {
		if sh.client == nil {
			Exitf("--device is required with --threshold\n")
		}
		ctx, cancel := context.WithCancel(context.Background())
		t := terminate.NewTerminator(func(template string, args ...interface{}) {
			logger.Info().Msgf(template, args...)
		}, cancel)
		go t.ListenSignals()
		client.RunThreshold(ctx, logger, sh.client, thresholdCfg, func(s client.Sample) {
			if s.Err == nil {
				fmt.Printf("value %d => output %v\n", s.Value, s.High)
			}
		})
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		if err := sh.shell.Process(args...); err != nil {
			Exitf("%v\n", err)
		}
		return
	}
	sh.shell.Printf("PinWorker control %s (build %s)\n", projectVersion, projectBuild)
	sh.shell.Run()
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
