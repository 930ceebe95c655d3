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

// Layout of a message in the current grammar:
//
//	<op:1><kind:1><address:2 digits><value:7 digits>
//
// Example: ra040000000 reads analog pin 4, wd050000001 drives pin 5 high.
const (
	// MessageLength is the number of characters of a message.
	MessageLength = 11

	addressStart = 2
	valueStart   = 4
)

type currentGrammar struct{}

// Current returns the canonical 11 character grammar.
func Current() Grammar {
	return currentGrammar{}
}

func (currentGrammar) Name() string {
	return GrammarCurrent
}

func (currentGrammar) Decode(line string) (model.Command, error) {
	return Decode(line)
}

func (currentGrammar) Encode(resp model.Response) (string, bool) {
	return Encode(resp), true
}

// Decode parses a line in the current grammar.
// Characters beyond MessageLength are ignored.
func Decode(line string) (model.Command, error) {
	if len(line) < MessageLength {
		return model.Command{}, errors.Wrapf(model.LengthError, "got %d characters, expected %d", len(line), MessageLength)
	}
	op := model.Operation(line[0])
	if err := op.Validate(); err != nil {
		return model.Command{}, err
	}
	kind := model.Kind(line[1])
	if err := kind.Validate(); err != nil {
		return model.Command{}, err
	}
	address, err := parseDigits("address", line[addressStart:valueStart])
	if err != nil {
		return model.Command{}, err
	}
	value, err := parseDigits("value", line[valueStart:MessageLength])
	if err != nil {
		return model.Command{}, err
	}
	if err := model.ValidateAddress(address); err != nil {
		return model.Command{}, err
	}
	return model.Command{
		Operation: op,
		Kind:      kind,
		Address:   address,
		Value:     value,
	}, nil
}

// Encode renders the given response in the current grammar.
func Encode(resp model.Response) string {
	return BuildMessage(resp.Operation, resp.Kind, resp.Address, resp.Value)
}

// BuildMessage renders the given fields in the current grammar.
// The result is always MessageLength characters: the address keeps its
// 2 and the value its 7 lowest decimal digits. Negative numbers render as zero.
func BuildMessage(op model.Operation, kind model.Kind, address, value int) string {
	var buf [MessageLength]byte
	buf[0] = byte(op)
	buf[1] = byte(kind)
	putDigits(buf[addressStart:valueStart], address)
	putDigits(buf[valueStart:], value)
	return string(buf[:])
}

// parseDigits parses a fixed width decimal field.
func parseDigits(name, field string) (int, error) {
	result := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(model.NumericFormatError, "%s field %q contains %q", name, field, c)
		}
		result = result*10 + int(c-'0')
	}
	return result, nil
}

// putDigits fills dst with the lowest decimal digits of v, zero padded.
func putDigits(dst []byte, v int) {
	if v < 0 {
		v = 0
	}
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
}
