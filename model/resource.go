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

package model

import "fmt"

// Unit identifies one of the two analog to digital converter units.
type Unit int

const (
	Unit1 Unit = 1
	Unit2 Unit = 2
)

// Resource is the physical hardware needed to execute a command.
type Resource struct {
	Kind Kind
	// Logical pin number
	Pin int
	// Converter unit (analog only)
	Unit Unit
	// Channel within the converter unit (analog only)
	Channel int
}

// DigitalResource returns the resource for a plain digital line.
func DigitalResource(pin int) Resource {
	return Resource{Kind: KindDigital, Pin: pin}
}

// AnalogResource returns the resource for an analog input.
func AnalogResource(pin int, unit Unit, channel int) Resource {
	return Resource{Kind: KindAnalog, Pin: pin, Unit: unit, Channel: channel}
}

// IsAnalog returns true if the resource is a converter channel.
func (r Resource) IsAnalog() bool {
	return r.Kind == KindAnalog
}

func (r Resource) String() string {
	if r.IsAnalog() {
		return fmt.Sprintf("adc%d/ch%d(gpio%d)", r.Unit, r.Channel, r.Pin)
	}
	return fmt.Sprintf("gpio%d", r.Pin)
}
