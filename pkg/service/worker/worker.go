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

package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/service/diag"
)

// LineIO is the line transport used by the worker.
type LineIO interface {
	// Receive performs a single bounded read and returns the next line, if any.
	Receive(ctx context.Context) (string, bool, error)
	// Send a line followed by a line terminator.
	Send(line string) error
}

// Worker polls a serial line and processes every received line.
type Worker struct {
	log          zerolog.Logger
	line         LineIO
	processor    *Processor
	pollInterval time.Duration
}

// NewWorker creates a worker for the given line.
func NewWorker(log zerolog.Logger, line LineIO, processor *Processor, pollInterval time.Duration) *Worker {
	return &Worker{
		log:          log.With().Str("component", "worker").Logger(),
		line:         line,
		processor:    processor,
		pollInterval: pollInterval,
	}
}

// Run the polling loop until the given context is canceled or
// the line fails.
// One line is processed at a time; every poll is followed by a fixed pause,
// whether or not data arrived.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("Worker started")
	defer w.log.Info().Msg("Worker stopped")
	for {
		line, ok, err := w.line.Receive(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receive failed")
		}
		if ok {
			result := w.processor.Process(ctx, diag.SourceSerial, line)
			if result.HasReply {
				if err := w.line.Send(result.Reply); err != nil {
					return errors.Wrap(err, "send failed")
				}
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.pollInterval):
		}
	}
}
