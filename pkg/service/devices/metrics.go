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

package devices

import (
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "devices"
)

var (
	// Total number of analog conversions
	conversionCounters = metrics.MustRegisterCounterVec(subSystem,
		"conversions_total",
		"Total number of analog conversions",
		"unit")
	// Total number of failed analog conversions
	conversionErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"conversion_errors_total",
		"Total number of failed analog conversions",
		"unit")
	// Duration of analog conversions
	conversionDuration = metrics.MustRegisterHistogram(subSystem,
		"conversion_duration_seconds",
		"Duration of analog conversions")
)
