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

package service

import (
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "service"
)

var (
	// Set to 1 while the serial port is open
	serialConnected = metrics.MustRegisterGauge(subSystem,
		"serial_connected",
		"Set to 1 while the serial port is open")
	// Total number of failed attempts to open the serial port
	portOpenFailures = metrics.MustRegisterCounter(subSystem,
		"serial_open_failures_total",
		"Total number of failed attempts to open the serial port")
	// Total number of commands received over MQTT
	mqttCommands = metrics.MustRegisterCounter(subSystem,
		"mqtt_commands_total",
		"Total number of commands received over MQTT")
)
