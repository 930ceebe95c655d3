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
	"github.com/pkg/errors"
)

// Decode errors. The line is discarded.
var (
	LengthError        = errors.New("invalid message length")
	OperationError     = errors.New("invalid operation")
	KindError          = errors.New("invalid pin kind")
	NumericFormatError = errors.New("invalid numeric field")
	AddressRangeError  = errors.New("address out of range")
)

// Resolve errors. The command is dropped.
var (
	UnsupportedPinError = errors.New("unsupported pin")
)

// Exec errors. The command is dropped.
var (
	ConversionError           = errors.New("analog conversion failed")
	UnsupportedOperationError = errors.New("unsupported operation")
	IOError                   = errors.New("pin access failed")
)

var (
	IsLengthError               = isErrorFunc(LengthError)
	IsOperationError            = isErrorFunc(OperationError)
	IsKindError                 = isErrorFunc(KindError)
	IsNumericFormatError        = isErrorFunc(NumericFormatError)
	IsAddressRangeError         = isErrorFunc(AddressRangeError)
	IsUnsupportedPinError       = isErrorFunc(UnsupportedPinError)
	IsConversionError           = isErrorFunc(ConversionError)
	IsUnsupportedOperationError = isErrorFunc(UnsupportedOperationError)
	IsIOError                   = isErrorFunc(IOError)

	maskAny = errors.WithStack
)

// ErrorClass groups errors by the pipeline stage that produced them.
type ErrorClass string

const (
	ClassNone    ErrorClass = ""
	ClassDecode  ErrorClass = "decode"
	ClassResolve ErrorClass = "resolve"
	ClassExec    ErrorClass = "exec"
	ClassOther   ErrorClass = "other"
)

// ClassOf returns the class of the given error.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	switch errors.Cause(err) {
	case LengthError, OperationError, KindError, NumericFormatError, AddressRangeError:
		return ClassDecode
	case UnsupportedPinError:
		return ClassResolve
	case ConversionError, UnsupportedOperationError, IOError:
		return ClassExec
	default:
		return ClassOther
	}
}

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}
