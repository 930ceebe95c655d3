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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
)

func TestResolveDigital(t *testing.T) {
	for address := 0; address <= model.MaxAddress; address++ {
		res, err := Resolve(model.KindDigital, address)
		require.NoError(t, err)
		assert.Equal(t, model.DigitalResource(address), res)
		assert.False(t, res.IsAnalog())
	}
}

func TestResolveAnalog(t *testing.T) {
	tests := []struct {
		address int
		unit    model.Unit
		channel int
	}{
		{36, model.Unit1, 0},
		{37, model.Unit1, 1},
		{38, model.Unit1, 2},
		{39, model.Unit1, 3},
		{32, model.Unit1, 4},
		{33, model.Unit1, 5},
		{34, model.Unit1, 6},
		{35, model.Unit1, 7},
		{4, model.Unit2, 0},
		{0, model.Unit2, 1},
		{2, model.Unit2, 2},
		{15, model.Unit2, 3},
		{13, model.Unit2, 4},
		{12, model.Unit2, 5},
		{14, model.Unit2, 6},
		{27, model.Unit2, 7},
		{25, model.Unit2, 8},
		{26, model.Unit2, 9},
	}
	for _, tc := range tests {
		res, err := Resolve(model.KindAnalog, tc.address)
		require.NoError(t, err, "pin %d", tc.address)
		assert.Equal(t, model.AnalogResource(tc.address, tc.unit, tc.channel), res)
	}
}

func TestResolveAnalogTotality(t *testing.T) {
	supported := 0
	for address := 0; address <= model.MaxAddress; address++ {
		res, err := Resolve(model.KindAnalog, address)
		if err != nil {
			assert.True(t, model.IsUnsupportedPinError(err), "pin %d: %v", address, err)
			assert.Equal(t, model.ClassResolve, model.ClassOf(err))
			continue
		}
		supported++
		assert.True(t, res.IsAnalog())
		assert.Equal(t, address, res.Pin)
	}
	assert.Equal(t, 18, supported)
}

func TestResolveUnsupportedAnalog(t *testing.T) {
	for _, address := range []int{1, 3, 5, 16, 31} {
		_, err := Resolve(model.KindAnalog, address)
		assert.True(t, model.IsUnsupportedPinError(err), "pin %d", address)
	}
}

func TestAnalogPins(t *testing.T) {
	list := AnalogPins()
	require.Len(t, list, 18)
	assert.Equal(t, 36, list[0].Pin)
	assert.Equal(t, 26, list[len(list)-1].Pin)
	assert.Equal(t, 8, ChannelCount(model.Unit1))
	assert.Equal(t, 10, ChannelCount(model.Unit2))
}
