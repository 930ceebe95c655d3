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

package transport

import (
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "transport"
)

var (
	// Total number of bytes received
	bytesReceivedCounter = metrics.MustRegisterCounter(subSystem,
		"bytes_received_total",
		"Total number of bytes received")
	// Total number of lines received
	linesReceivedCounter = metrics.MustRegisterCounter(subSystem,
		"lines_received_total",
		"Total number of lines received")
	// Total number of lines discarded because they were too long
	linesDiscardedCounter = metrics.MustRegisterCounter(subSystem,
		"lines_discarded_total",
		"Total number of lines discarded because they were too long")
	// Total number of lines sent
	linesSentCounter = metrics.MustRegisterCounter(subSystem,
		"lines_sent_total",
		"Total number of lines sent")
)
