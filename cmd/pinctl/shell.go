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

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/client"
	"github.com/binkynet/PinWorker/pkg/service/transport"
)

const unconnectedPrompt = "[none] > "

// shell is the interactive pin worker console.
type shell struct {
	log     zerolog.Logger
	opts    transport.Options
	timeout time.Duration
	shell   *ishell.Shell
	client  *client.Client
}

func newShell(log zerolog.Logger, opts transport.Options, timeout time.Duration) *shell {
	s := &shell{
		log:     log,
		opts:    opts,
		timeout: timeout,
		shell:   ishell.New(),
	}
	s.shell.SetPrompt(unconnectedPrompt)
	s.shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: s.cmdPorts,
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "open",
		Help: "open DEVICE [BAUD]",
		Func: s.cmdOpen,
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "close",
		Help: "close the serial port",
		Func: func(c *ishell.Context) { s.close() },
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "read",
		Help: "read a|d PIN",
		Func: s.mustBeConnected(s.cmdRead),
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "write",
		Help: "write d PIN VALUE",
		Func: s.mustBeConnected(s.cmdWrite),
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "raw MESSAGE, send a message as is",
		Func: s.mustBeConnected(s.cmdRaw),
	})
	s.shell.AddCmd(&ishell.Cmd{
		Name: "watch",
		Help: "watch a|d PIN [COUNT], read a pin every second",
		Func: s.mustBeConnected(s.cmdWatch),
	})
	return s
}

// open the given serial port, closing any current one.
func (s *shell) open(opts transport.Options) error {
	port, err := transport.OpenPort(opts)
	if err != nil {
		return err
	}
	s.close()
	s.opts = opts
	s.client = client.New(s.log, port, s.timeout)
	s.shell.SetPrompt(fmt.Sprintf("[%s] > ", opts.Device))
	return nil
}

func (s *shell) close() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
		s.shell.SetPrompt(unconnectedPrompt)
	}
}

// mustBeConnected wraps command func requires an open port.
func (s *shell) mustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if s.client == nil {
			c.Err(errors.New("not connected, use open DEVICE"))
			return
		}
		fn(c)
	}
}

func (s *shell) cmdPorts(c *ishell.Context) {
	ports, err := transport.ListPorts()
	if err != nil {
		c.Err(err)
		return
	}
	if len(ports) == 0 {
		c.Println("No serial ports found")
	}
	for _, p := range ports {
		c.Println(p)
	}
}

func (s *shell) cmdOpen(c *ishell.Context) {
	if len(c.Args) < 1 {
		c.Err(errors.New("DEVICE required"))
		return
	}
	opts := s.opts
	opts.Device = c.Args[0]
	if len(c.Args) > 1 {
		baud, err := strconv.Atoi(c.Args[1])
		if err != nil {
			c.Err(fmt.Errorf("Invalid BAUD: %v", err))
			return
		}
		opts.BaudRate = baud
	}
	if err := s.open(opts); err != nil {
		c.Err(err)
		return
	}
	c.Printf("Opened %s\n", opts.Device)
}

func (s *shell) cmdRead(c *ishell.Context) {
	kind, pin, err := parsePin(c.Args)
	if err != nil {
		c.Err(err)
		return
	}
	value, err := s.client.ReadPin(context.Background(), kind, pin)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("%s pin %d = %d\n", kind, pin, value)
}

func (s *shell) cmdWrite(c *ishell.Context) {
	kind, pin, err := parsePin(c.Args)
	if err != nil {
		c.Err(err)
		return
	}
	if len(c.Args) < 3 {
		c.Err(errors.New("VALUE required"))
		return
	}
	value, err := strconv.Atoi(c.Args[2])
	if err != nil {
		c.Err(fmt.Errorf("Invalid VALUE: %v", err))
		return
	}
	confirmed, err := s.client.WritePin(context.Background(), kind, pin, value)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("%s pin %d := %d\n", kind, pin, confirmed)
}

func (s *shell) cmdRaw(c *ishell.Context) {
	if len(c.Args) < 1 {
		c.Err(errors.New("MESSAGE required"))
		return
	}
	reply, err := s.client.Raw(context.Background(), strings.Join(c.Args, " "))
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(reply)
}

func (s *shell) cmdWatch(c *ishell.Context) {
	kind, pin, err := parsePin(c.Args)
	if err != nil {
		c.Err(err)
		return
	}
	count := 10
	if len(c.Args) > 2 {
		if count, err = strconv.Atoi(c.Args[2]); err != nil {
			c.Err(fmt.Errorf("Invalid COUNT: %v", err))
			return
		}
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(time.Second)
		}
		value, err := s.client.ReadPin(context.Background(), kind, pin)
		if err != nil {
			c.Err(err)
			continue
		}
		c.Printf("%s %s pin %d = %d\n", time.Now().Format("15:04:05"), kind, pin, value)
	}
}

// parsePin parses the KIND PIN arguments of a command.
func parsePin(args []string) (model.Kind, int, error) {
	if len(args) < 2 {
		return 0, 0, errors.New("KIND and PIN required")
	}
	var kind model.Kind
	switch strings.ToLower(args[0]) {
	case "a", "analog":
		kind = model.KindAnalog
	case "d", "digital":
		kind = model.KindDigital
	default:
		return 0, 0, fmt.Errorf("Invalid KIND '%s' (a|d)", args[0])
	}
	pin, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("Invalid PIN: %v", err)
	}
	if err := model.ValidateAddress(pin); err != nil {
		return 0, 0, err
	}
	return kind, pin, nil
}
