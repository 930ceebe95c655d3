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

import "context"

// Device contains the API that is supported by all hardware on the I2C bus.
type Device interface {
	// Configure is called once to put the device in the desired state.
	Configure(ctx context.Context) error
	// Close brings the device back to a safe state.
	Close(ctx context.Context) error
}

var (
	_ Device = &ads1115{}
	_ Device = &Converter{}
)
