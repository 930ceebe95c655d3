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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binkynet/PinWorker/model"
)

func TestParsePin(t *testing.T) {
	tests := []struct {
		args  []string
		kind  model.Kind
		pin   int
		valid bool
	}{
		{[]string{"a", "36"}, model.KindAnalog, 36, true},
		{[]string{"digital", "5"}, model.KindDigital, 5, true},
		{[]string{"D", "0", "1"}, model.KindDigital, 0, true},
		{[]string{"x", "5"}, 0, 0, false},
		{[]string{"d", "five"}, 0, 0, false},
		{[]string{"d", "40"}, 0, 0, false},
		{[]string{"d"}, 0, 0, false},
	}
	for _, test := range tests {
		kind, pin, err := parsePin(test.args)
		if !test.valid {
			assert.Error(t, err, test.args)
			continue
		}
		assert.NoError(t, err, test.args)
		assert.Equal(t, test.kind, kind)
		assert.Equal(t, test.pin, pin)
	}
}
