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

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/pins"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

func newTestSetup() (*Dispatcher, *bridge.VirtualBridge, IO) {
	vb := bridge.NewVirtualBridge()
	return NewDispatcher(zerolog.Nop()), vb, NewIO(vb.GPIO(), vb)
}

func execute(t *testing.T, d *Dispatcher, io IO, line string) (model.Response, error) {
	cmd, err := protocol.Decode(line)
	require.NoError(t, err)
	res, err := pins.Resolve(cmd.Kind, cmd.Address)
	require.NoError(t, err)
	return d.Execute(context.Background(), cmd, res, io)
}

func TestReadDigital(t *testing.T) {
	d, vb, io := newTestSetup()
	vb.SetInputLevel(7, true)

	resp, err := execute(t, d, io, "rd070000000")
	require.NoError(t, err)
	assert.Equal(t, "rd070000001", protocol.Encode(resp))
	assert.Equal(t, bridge.PinInput, vb.Direction(7))

	vb.SetInputLevel(7, false)
	resp, err = execute(t, d, io, "rd070000000")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Value)
}

func TestReadAnalog(t *testing.T) {
	d, vb, io := newTestSetup()
	// Pin 4 is unit 2, channel 0
	vb.SetAnalogValue(model.Unit2, 0, 1234)

	resp, err := execute(t, d, io, "ra040000000")
	require.NoError(t, err)
	assert.Equal(t, "ra040001234", protocol.Encode(resp))
}

func TestReadAnalogFailure(t *testing.T) {
	d, vb, io := newTestSetup()
	// Pin 36 is unit 1, channel 0
	vb.FailAnalog(model.Unit1, 0, errors.New("timeout"))

	_, err := execute(t, d, io, "ra360000000")
	require.Error(t, err)
	assert.True(t, model.IsConversionError(err))
	assert.Equal(t, model.ClassExec, model.ClassOf(err))
}

func TestWriteDigital(t *testing.T) {
	tests := []struct {
		line     string
		level    bool
		expected string
	}{
		{"wd050000001", true, "wd050000001"},
		{"wd050000000", false, "wd050000000"},
		{"wd050004711", true, "wd050000001"},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			d, vb, io := newTestSetup()
			resp, err := execute(t, d, io, tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, protocol.Encode(resp))
			assert.Equal(t, tc.level, vb.OutputLevel(5))
			assert.Equal(t, bridge.PinOutput, vb.Direction(5))
		})
	}
}

func TestWriteAnalogUnsupported(t *testing.T) {
	d, vb, io := newTestSetup()
	_, err := execute(t, d, io, "wa040000001")
	require.Error(t, err)
	assert.True(t, model.IsUnsupportedOperationError(err))
	assert.Equal(t, 0, vb.HardwareCalls())
}

func TestModeSwitchingIsIdempotent(t *testing.T) {
	d, vb, io := newTestSetup()
	_, err := execute(t, d, io, "rd050000000")
	require.NoError(t, err)
	calls := vb.HardwareCalls()
	_, err = execute(t, d, io, "rd050000000")
	require.NoError(t, err)
	// Second read only reads the level
	assert.Equal(t, calls+1, vb.HardwareCalls())

	_, err = execute(t, d, io, "wd050000001")
	require.NoError(t, err)
	calls = vb.HardwareCalls()
	_, err = execute(t, d, io, "wd050000001")
	require.NoError(t, err)
	// Second write only writes the level
	assert.Equal(t, calls+1, vb.HardwareCalls())
}

func TestDispatchIsDeterministic(t *testing.T) {
	d1, vb1, io1 := newTestSetup()
	d2, vb2, io2 := newTestSetup()
	vb1.SetAnalogValue(model.Unit1, 4, 77)
	vb2.SetAnalogValue(model.Unit1, 4, 77)
	for _, line := range []string{"ra320000000", "wd120000001", "rd130000000", "wd120000000"} {
		r1, err1 := execute(t, d1, io1, line)
		r2, err2 := execute(t, d2, io2, line)
		assert.Equal(t, r1, r2, line)
		assert.Equal(t, err1, err2, line)
	}
}

func TestPinFailureIsIOError(t *testing.T) {
	d, vb, io := newTestSetup()
	vb.FailPin(9, errors.New("gone"))
	_, err := execute(t, d, io, "wd090000001")
	require.Error(t, err)
	assert.True(t, model.IsIOError(err))
	_, err = execute(t, d, io, "rd090000000")
	assert.True(t, model.IsIOError(err))
}

func TestResourceLocks(t *testing.T) {
	locks := NewResourceLocks()
	ctx := context.Background()
	res := model.AnalogResource(32, model.Unit1, 4)
	assert.Equal(t, []string{"adc:1", "pin:32"}, LockKeys(res))
	assert.Equal(t, []string{"pin:5"}, LockKeys(model.DigitalResource(5)))

	unlock, err := locks.Acquire(ctx, res)
	require.NoError(t, err)

	// Another channel of the same unit must wait
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(timeout, model.AnalogResource(33, model.Unit1, 5))
	assert.Error(t, err)

	// Other units and digital pins are independent
	unlock2, err := locks.Acquire(ctx, model.AnalogResource(4, model.Unit2, 0))
	require.NoError(t, err)
	unlock2()
	unlock3, err := locks.Acquire(ctx, model.DigitalResource(5))
	require.NoError(t, err)
	unlock3()

	unlock()
	unlock4, err := locks.Acquire(ctx, model.AnalogResource(33, model.Unit1, 5))
	require.NoError(t, err)
	unlock4()
}
