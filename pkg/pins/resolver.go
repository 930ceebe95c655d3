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

package pins

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

type analogChannel struct {
	Unit    model.Unit
	Channel int
}

// analogPins maps logical pin numbers to converter channels.
var analogPins = map[int]analogChannel{
	// Unit 1
	36: {model.Unit1, 0},
	37: {model.Unit1, 1},
	38: {model.Unit1, 2},
	39: {model.Unit1, 3},
	32: {model.Unit1, 4},
	33: {model.Unit1, 5},
	34: {model.Unit1, 6},
	35: {model.Unit1, 7},
	// Unit 2
	4:  {model.Unit2, 0},
	0:  {model.Unit2, 1},
	2:  {model.Unit2, 2},
	15: {model.Unit2, 3},
	13: {model.Unit2, 4},
	12: {model.Unit2, 5},
	14: {model.Unit2, 6},
	27: {model.Unit2, 7},
	25: {model.Unit2, 8},
	26: {model.Unit2, 9},
}

// Resolve the hardware resource for given pin.
// The address is expected to be validated already.
func Resolve(kind model.Kind, address int) (model.Resource, error) {
	switch kind {
	case model.KindDigital:
		return model.DigitalResource(address), nil
	case model.KindAnalog:
		ch, found := analogPins[address]
		if !found {
			return model.Resource{}, errors.Wrapf(model.UnsupportedPinError, "pin %d has no analog input", address)
		}
		return model.AnalogResource(address, ch.Unit, ch.Channel), nil
	default:
		return model.Resource{}, errors.Wrapf(model.KindError, "unknown kind %q", byte(kind))
	}
}

// AnalogPins returns the resources of all analog capable pins,
// ordered by unit, then channel.
func AnalogPins() []model.Resource {
	result := make([]model.Resource, 0, len(analogPins))
	for pin, ch := range analogPins {
		result = append(result, model.AnalogResource(pin, ch.Unit, ch.Channel))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Unit != result[j].Unit {
			return result[i].Unit < result[j].Unit
		}
		return result[i].Channel < result[j].Channel
	})
	return result
}

// ChannelCount returns the number of channels used on the given converter unit.
func ChannelCount(unit model.Unit) int {
	count := 0
	for _, ch := range analogPins {
		if ch.Unit == unit {
			count++
		}
	}
	return count
}
