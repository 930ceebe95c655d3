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

package diag

import (
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "diag"
)

var (
	// Total number of processed lines by source & final stage
	eventCounters = metrics.MustRegisterCounterVec(subSystem,
		"events_total",
		"Total number of processed lines by source & final stage",
		"source", "stage")
	// Total number of events that could not be published
	droppedEventsCounter = metrics.MustRegisterCounter(subSystem,
		"events_dropped_total",
		"Total number of events that could not be published")
)
