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

package transport

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Port is the minimal interface needed for a serial port.
type Port interface {
	io.ReadWriteCloser
}

// TimeoutPort is a port that supports bounded reads.
// A read that times out returns 0 bytes and no error.
type TimeoutPort interface {
	Port
	SetReadTimeout(timeout time.Duration) error
}

// OpenPort opens the serial device described by the given options.
func OpenPort(opts Options) (TimeoutPort, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if opts.Device == "" {
		return nil, errors.New("no serial device specified")
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(opts.Device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", opts.Device)
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to set read timeout")
	}
	return port, nil
}

// ListPorts returns the names of the serial ports of this host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list serial ports")
	}
	return ports, nil
}
