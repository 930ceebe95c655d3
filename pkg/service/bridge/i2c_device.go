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

package bridge

import (
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	// From  /usr/include/linux/i2c-dev.h:
	// ioctl signals
	i2cSlave = 0x0703
	i2cFuncs = 0x0705
	i2cSmbus = 0x0720
	// Read/write markers
	i2cSmbusWrite = 0

	// From  /usr/include/linux/i2c.h:
	// Adapter functionality
	i2cFuncSmbusQuick = 0x00010000

	// Transaction types
	i2cSmbusQuick = 0
)

type i2cSmbusIoctlData struct {
	readWrite byte
	command   byte
	size      uint32
	data      uintptr
}

type i2cDevice struct {
	address uint8
	mutex   sync.Mutex
	file    *os.File
	funcs   uint64 // adapter functionality mask
}

// newI2CDevice opens the I2C bus at the given location for the device with given address.
func newI2CDevice(location string, address uint8) (*i2cDevice, error) {
	d := &i2cDevice{
		address: address,
	}

	var err error
	if d.file, err = os.OpenFile(location, os.O_RDWR, os.ModeDevice); err != nil {
		return nil, err
	}
	if err := d.ioctl(i2cFuncs, uintptr(unsafe.Pointer(&d.funcs))); err != nil {
		d.file.Close()
		return nil, errors.Wrap(err, "querying functionality failed")
	}
	if err := d.ioctl(i2cSlave, uintptr(address)); err != nil {
		d.file.Close()
		return nil, errors.Wrapf(err, "setting address 0x%0x failed", address)
	}
	return d, nil
}

func (d *i2cDevice) ioctl(request, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), request, arg); errno != 0 {
		return errno
	}
	return nil
}

func (d *i2cDevice) closeFile() error {
	return d.file.Close()
}

// DetectDevice checks if a device responds at the address.
func (d *i2cDevice) DetectDevice() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.funcs&i2cFuncSmbusQuick == 0 {
		return errors.New("SMBus quick not supported")
	}
	if err := d.smbusAccess(i2cSmbusWrite, 0, i2cSmbusQuick, 0); err != nil {
		return errors.Wrap(err, "quick failed")
	}
	return nil
}

// Read a block of data directly from the device (/dev/...)
func (d *i2cDevice) ReadDevice(data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	n, err := d.file.Read(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return errors.Errorf("expected to read %d bytes, actual read bytes is %d", len(data), n)
	}
	return nil
}

// Write a block of data directly to the device (/dev/...)
func (d *i2cDevice) WriteDevice(data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	n, err := d.file.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return errors.Errorf("expected to write %d bytes, actual written bytes is %d", len(data), n)
	}
	return nil
}

func (d *i2cDevice) smbusAccess(readWrite byte, command byte, size uint32, data uintptr) error {
	smbus := &i2cSmbusIoctlData{
		readWrite: readWrite,
		command:   command,
		size:      size,
		data:      data,
	}
	if err := d.ioctl(i2cSmbus, uintptr(unsafe.Pointer(smbus))); err != nil {
		return errors.Wrap(err, "smbus access failed")
	}
	return nil
}
