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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
)

func TestLegacyDecode(t *testing.T) {
	tests := []struct {
		line     string
		expected model.Command
	}{
		{"1011100", model.Command{Operation: model.OperationWrite, Kind: model.KindDigital, Address: 4, Value: 1}},
		{"1000100", model.Command{Operation: model.OperationWrite, Kind: model.KindDigital, Address: 4, Value: 0}},
		{"1111111", model.Command{Operation: model.OperationWrite, Kind: model.KindDigital, Address: 7, Value: 1}},
		{"0010100", model.Command{Operation: model.OperationRead, Kind: model.KindDigital, Address: 4}},
		{"0101000", model.Command{Operation: model.OperationRead, Kind: model.KindDigital, Address: 0}},
		{"0000011", model.Command{Operation: model.OperationRead, Kind: model.KindDigital, Address: 3}},
	}
	g := Legacy()
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := g.Decode(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmd)
		})
	}
}

func TestLegacyDecodeRejects(t *testing.T) {
	g := Legacy()
	_, err := g.Decode("101")
	assert.True(t, model.IsLengthError(err))
	_, err = g.Decode("10111001111")
	assert.True(t, model.IsLengthError(err))
	_, err = g.Decode("10111000")
	assert.True(t, model.IsLengthError(err))
	_, err = g.Decode("1012100")
	assert.True(t, model.IsNumericFormatError(err))
	_, err = g.Decode("ra04000")
	assert.True(t, model.IsNumericFormatError(err))
}

func TestLegacyNeverAnswers(t *testing.T) {
	g := Legacy()
	assert.Equal(t, GrammarLegacy, g.Name())
	line, ok := g.Encode(model.Response{Operation: model.OperationWrite, Kind: model.KindDigital, Address: 4, Value: 1})
	assert.False(t, ok)
	assert.Empty(t, line)
}
