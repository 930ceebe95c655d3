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
	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

// Layout of a message in the legacy grammar, 7 characters of '0' or '1':
//
//	<op:1><value:3 bits><pin:3 bits>
//
// Bit fields are most significant bit first.
// Example: 1011100 drives pin 4 high, 0010100 reads pin 4.
const (
	// LegacyMessageLength is the number of characters of a legacy message.
	LegacyMessageLength = 7

	legacyValueStart = 1
	legacyPinStart   = 4
)

type legacyGrammar struct{}

// Legacy returns the superseded 7 bit grammar.
// Legacy commands are always digital and never answered.
func Legacy() Grammar {
	return legacyGrammar{}
}

func (legacyGrammar) Name() string {
	return GrammarLegacy
}

func (legacyGrammar) Decode(line string) (model.Command, error) {
	if len(line) != LegacyMessageLength {
		return model.Command{}, errors.Wrapf(model.LengthError, "got %d characters, expected %d", len(line), LegacyMessageLength)
	}
	op, err := parseBits("operation", line[:legacyValueStart])
	if err != nil {
		return model.Command{}, err
	}
	value, err := parseBits("value", line[legacyValueStart:legacyPinStart])
	if err != nil {
		return model.Command{}, err
	}
	pin, err := parseBits("pin", line[legacyPinStart:LegacyMessageLength])
	if err != nil {
		return model.Command{}, err
	}
	cmd := model.Command{
		Operation: model.OperationRead,
		Kind:      model.KindDigital,
		Address:   pin,
	}
	if op == 1 {
		cmd.Operation = model.OperationWrite
		if value > 0 {
			cmd.Value = 1
		}
	}
	return cmd, nil
}

// Encode never produces output, legacy commands are not answered.
func (legacyGrammar) Encode(model.Response) (string, bool) {
	return "", false
}

// parseBits parses a fixed width binary field.
func parseBits(name, field string) (int, error) {
	result := 0
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case '0':
			result <<= 1
		case '1':
			result = result<<1 | 1
		default:
			return 0, errors.Wrapf(model.NumericFormatError, "%s field %q contains %q", name, field, field[i])
		}
	}
	return result, nil
}
