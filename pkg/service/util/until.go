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

package util

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	minRetryDelay = 10 * time.Millisecond
)

// UntilCanceled calls the given callback over and over until the given
// context is canceled.
// After a failure, the next attempt is delayed, growing up to maxDelay.
func UntilCanceled(ctx context.Context, log zerolog.Logger, description string, maxDelay time.Duration, cb func() error) error {
	if maxDelay < minRetryDelay {
		maxDelay = minRetryDelay
	}
	delay := minRetryDelay
	for {
		if ctx.Err() != nil {
			// Context canceled
			return nil
		}
		if err := cb(); err != nil {
			retryCounters.WithLabelValues(description).Inc()
			log.Warn().Err(err).Dur("delay", delay).Msgf("%s failed", description)
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				delay = maxDelay
			}
		} else {
			delay = minRetryDelay
		}
		select {
		case <-ctx.Done():
			// Context canceled
			log.Info().Msgf("Stopping %s; context canceled", description)
			return nil
		case <-time.After(delay):
			// Continue
		}
	}
}
