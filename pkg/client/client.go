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

package client

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/transport"
)

const (
	// DefaultTimeout is the time to wait for a reply.
	DefaultTimeout = time.Second

	pollInterval = 5 * time.Millisecond
)

var (
	// TimeoutError is returned when no matching reply arrives in time.
	TimeoutError = errors.New("timeout waiting for reply")
	// IsTimeoutError returns true if the cause of the given error is a TimeoutError.
	IsTimeoutError = func(err error) bool { return errors.Cause(err) == TimeoutError }
)

// Client talks to a pin worker over a serial line.
type Client struct {
	log     zerolog.Logger
	line    *transport.Line
	timeout time.Duration
	mutex   sync.Mutex
}

// New creates a client on the given port.
// The port is expected to return from reads after a bounded time.
func New(log zerolog.Logger, port transport.Port, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		log:     log.With().Str("component", "client").Logger(),
		line:    transport.NewLine(log, port, false),
		timeout: timeout,
	}
}

// Close the underlying port.
func (c *Client) Close() error {
	return c.line.Close()
}

// ReadPin reads the given pin and returns its value.
func (c *Client) ReadPin(ctx context.Context, kind model.Kind, address int) (int, error) {
	resp, err := c.Do(ctx, model.Command{Operation: model.OperationRead, Kind: kind, Address: address})
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// WritePin writes the given value to the given pin and returns the confirmed value.
func (c *Client) WritePin(ctx context.Context, kind model.Kind, address, value int) (int, error) {
	resp, err := c.Do(ctx, model.Command{Operation: model.OperationWrite, Kind: kind, Address: address, Value: value})
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Do sends the given command and waits for the matching reply.
// A NAK for the command is returned as a protocol.Nak error.
func (c *Client) Do(ctx context.Context, cmd model.Command) (model.Response, error) {
	if err := cmd.Validate(); err != nil {
		return model.Response{}, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	msg := protocol.BuildMessage(cmd.Operation, cmd.Kind, cmd.Address, cmd.Value)
	if err := c.line.Send(msg); err != nil {
		return model.Response{}, errors.Wrap(err, "failed to send command")
	}
	c.log.Debug().Str("message", msg).Msg("Sent command")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	for {
		line, ok, err := c.line.Receive(ctx)
		if err := ctx.Err(); err != nil {
			return model.Response{}, c.waitError(err, msg)
		}
		if err != nil {
			return model.Response{}, errors.Wrap(err, "failed to receive reply")
		}
		if !ok {
			select {
			case <-ctx.Done():
			case <-time.After(pollInterval):
			}
			continue
		}
		if protocol.IsNak(line) {
			nak, err := protocol.DecodeNak(line)
			if err == nil && nak.Kind == cmd.Kind && nak.Address == cmd.Address {
				return model.Response{}, nak
			}
			c.log.Debug().Str("line", line).Msg("Ignoring unrelated NAK")
			continue
		}
		reply, err := protocol.Decode(line)
		if err != nil {
			c.log.Debug().Err(err).Str("line", line).Msg("Ignoring invalid line")
			continue
		}
		if reply.Operation != cmd.Operation || reply.Kind != cmd.Kind || reply.Address != cmd.Address {
			c.log.Debug().Str("line", line).Msg("Ignoring unrelated reply")
			continue
		}
		return cmd.Respond(reply.Value), nil
	}
}

// waitError converts the context error that ended a wait for a reply.
// Only an expired deadline is a TimeoutError.
func (c *Client) waitError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(TimeoutError, "no reply to %q within %s", msg, c.timeout)
	}
	return errors.Wrapf(err, "waiting for reply to %q", msg)
}

// Raw sends the given line as is and returns the first line received
// in return. Lines that are never answered result in a TimeoutError.
func (c *Client) Raw(ctx context.Context, line string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.line.Send(line); err != nil {
		return "", errors.Wrap(err, "failed to send line")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	for {
		reply, ok, err := c.line.Receive(ctx)
		if err := ctx.Err(); err != nil {
			return "", c.waitError(err, line)
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to receive reply")
		}
		if ok {
			return reply, nil
		}
		select {
		case <-ctx.Done():
		case <-time.After(pollInterval):
		}
	}
}
