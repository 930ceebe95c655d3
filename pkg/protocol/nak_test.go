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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
)

func TestEncodeNak(t *testing.T) {
	read := model.Command{Operation: model.OperationRead, Kind: model.KindAnalog, Address: 5}
	tests := []struct {
		err      error
		expected string
	}{
		{errors.Wrap(model.UnsupportedPinError, "pin 5"), "na050000001"},
		{errors.Wrap(model.ConversionError, "i2c"), "na050000002"},
		{model.UnsupportedOperationError, "na050000003"},
		{errors.WithStack(model.IOError), "na050000004"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			line, ok := EncodeNak(read, tc.err)
			require.True(t, ok)
			assert.Equal(t, tc.expected, line)
			assert.True(t, IsNak(line))

			nak, err := DecodeNak(line)
			require.NoError(t, err)
			assert.Equal(t, model.KindAnalog, nak.Kind)
			assert.Equal(t, 5, nak.Address)
			code, _ := NakCodeOf(tc.err)
			assert.Equal(t, code, nak.Code)
		})
	}
}

func TestEncodeNakIgnoresDecodeErrors(t *testing.T) {
	for _, err := range []error{model.LengthError, model.KindError, model.AddressRangeError, errors.New("other")} {
		_, ok := EncodeNak(model.Command{}, err)
		assert.False(t, ok, err.Error())
	}
}

func TestDecodeNakRejects(t *testing.T) {
	_, err := DecodeNak("na05")
	assert.True(t, model.IsLengthError(err))
	_, err = DecodeNak("ra050000001")
	assert.True(t, model.IsOperationError(err))
	assert.False(t, IsNak("ra050000001"))
	assert.False(t, IsNak(""))
}
