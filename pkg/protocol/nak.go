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
	"fmt"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

// NakOperation is the operation character of a negative acknowledgement.
// A NAK has the same layout as a message: n<kind><address:2><code:7>.
const NakOperation = 'n'

// NakCode tells why a command was rejected.
type NakCode int

const (
	NakUnsupportedPin       NakCode = 1
	NakConversionFailed     NakCode = 2
	NakUnsupportedOperation NakCode = 3
	NakIOFailed             NakCode = 4
)

func (c NakCode) String() string {
	switch c {
	case NakUnsupportedPin:
		return "unsupported pin"
	case NakConversionFailed:
		return "conversion failed"
	case NakUnsupportedOperation:
		return "unsupported operation"
	case NakIOFailed:
		return "pin access failed"
	default:
		return "unknown"
	}
}

// Nak is a decoded negative acknowledgement.
type Nak struct {
	Kind    model.Kind
	Address int
	Code    NakCode
}

// Error implements the error interface.
func (n Nak) Error() string {
	return fmt.Sprintf("%s pin %d rejected: %s", n.Kind, n.Address, n.Code)
}

// NakCodeOf returns the code to report for the given error.
// Returns false for errors that must not be answered.
func NakCodeOf(err error) (NakCode, bool) {
	switch errors.Cause(err) {
	case model.UnsupportedPinError:
		return NakUnsupportedPin, true
	case model.ConversionError:
		return NakConversionFailed, true
	case model.UnsupportedOperationError:
		return NakUnsupportedOperation, true
	case model.IOError:
		return NakIOFailed, true
	default:
		return 0, false
	}
}

// EncodeNak renders a negative acknowledgement for the given command.
// Decode errors are never answered since the fields of the line cannot be trusted.
func EncodeNak(cmd model.Command, err error) (string, bool) {
	code, ok := NakCodeOf(err)
	if !ok {
		return "", false
	}
	return BuildMessage(NakOperation, cmd.Kind, cmd.Address, int(code)), true
}

// IsNak returns true when the given line is a negative acknowledgement.
func IsNak(line string) bool {
	return len(line) > 0 && line[0] == NakOperation
}

// DecodeNak parses a negative acknowledgement.
func DecodeNak(line string) (Nak, error) {
	if len(line) < MessageLength {
		return Nak{}, errors.Wrapf(model.LengthError, "got %d characters, expected %d", len(line), MessageLength)
	}
	if !IsNak(line) {
		return Nak{}, errors.Wrapf(model.OperationError, "expected %q, got %q", NakOperation, line[0])
	}
	kind := model.Kind(line[1])
	if err := kind.Validate(); err != nil {
		return Nak{}, err
	}
	address, err := parseDigits("address", line[addressStart:valueStart])
	if err != nil {
		return Nak{}, err
	}
	code, err := parseDigits("code", line[valueStart:MessageLength])
	if err != nil {
		return Nak{}, err
	}
	return Nak{Kind: kind, Address: address, Code: NakCode(code)}, nil
}
