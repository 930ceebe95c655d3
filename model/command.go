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

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MaxAddress is the highest logical pin number that can be addressed.
	MaxAddress = 39
	// MaxValue is the highest value that fits in the value field.
	MaxValue = 9999999
)

// Operation identifies what a command does with a pin.
// The underlying value is the character used on the wire.
type Operation byte

const (
	OperationRead  Operation = 'r'
	OperationWrite Operation = 'w'
)

// String returns a human readable name of the operation.
func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationWrite:
		return "write"
	default:
		return fmt.Sprintf("operation(%q)", byte(o))
	}
}

// Validate the given operation, returning nil on ok,
// or an error upon validation issues.
func (o Operation) Validate() error {
	switch o {
	case OperationRead, OperationWrite:
		return nil
	default:
		return errors.Wrapf(OperationError, "unknown operation %q", byte(o))
	}
}

// Kind identifies the type of pin access.
// The underlying value is the character used on the wire.
type Kind byte

const (
	KindAnalog  Kind = 'a'
	KindDigital Kind = 'd'
)

// String returns a human readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAnalog:
		return "analog"
	case KindDigital:
		return "digital"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

// Validate the given kind, returning nil on ok,
// or an error upon validation issues.
func (k Kind) Validate() error {
	switch k {
	case KindAnalog, KindDigital:
		return nil
	default:
		return errors.Wrapf(KindError, "unknown kind %q", byte(k))
	}
}

// ValidateAddress checks that the given logical pin number can be addressed.
func ValidateAddress(address int) error {
	if address < 0 || address > MaxAddress {
		return errors.Wrapf(AddressRangeError, "address %d not in 0-%d", address, MaxAddress)
	}
	return nil
}

// Command is a single decoded request.
// Commands are only constructed by a grammar after validation.
type Command struct {
	Operation Operation
	Kind      Kind
	// Logical pin number
	Address int
	// Requested value; only meaningful for writes
	Value int
}

// Validate the given command, returning nil on ok,
// or an error upon validation issues.
func (c Command) Validate() error {
	if err := c.Operation.Validate(); err != nil {
		return maskAny(err)
	}
	if err := c.Kind.Validate(); err != nil {
		return maskAny(err)
	}
	if err := ValidateAddress(c.Address); err != nil {
		return maskAny(err)
	}
	if c.Value < 0 || c.Value > MaxValue {
		return errors.Wrapf(NumericFormatError, "value %d not in 0-%d", c.Value, MaxValue)
	}
	return nil
}

// Respond creates a response for this command carrying the given value.
func (c Command) Respond(value int) Response {
	return Response{
		Operation: c.Operation,
		Kind:      c.Kind,
		Address:   c.Address,
		Value:     value,
	}
}

func (c Command) String() string {
	if c.Operation == OperationWrite {
		return fmt.Sprintf("%s %s pin %d value %d", c.Operation, c.Kind, c.Address, c.Value)
	}
	return fmt.Sprintf("%s %s pin %d", c.Operation, c.Kind, c.Address)
}

// Response is the outcome of a successfully executed command.
// Value holds the observed (read) or confirmed (write) value.
type Response struct {
	Operation Operation
	Kind      Kind
	Address   int
	Value     int
}
