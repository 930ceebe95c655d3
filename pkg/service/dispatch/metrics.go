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

package dispatch

import (
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "dispatch"
)

var (
	// Total number of successfully executed commands
	executeCounters = metrics.MustRegisterCounterVec(subSystem,
		"execute_total",
		"Total number of successfully executed commands",
		"operation", "kind")
	// Total number of commands that failed to execute
	executeErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"execute_error_total",
		"Total number of commands that failed to execute",
		"operation", "kind")
	// Duration of command execution
	executeDuration = metrics.MustRegisterHistogram(subSystem,
		"execute_duration_seconds",
		"Duration of command execution")
)
