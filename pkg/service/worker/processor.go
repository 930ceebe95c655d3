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

package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/pins"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/service/diag"
	"github.com/binkynet/PinWorker/pkg/service/dispatch"
)

// Processor runs a single line through decode, resolve, execute & encode.
// It is shared by all command sources.
type Processor struct {
	log        zerolog.Logger
	grammar    protocol.Grammar
	dispatcher *dispatch.Dispatcher
	io         dispatch.IO
	nak        bool
	reporter   *diag.Reporter
	onCommand  func()
}

// ProcessorConfig holds the options of a processor.
type ProcessorConfig struct {
	Grammar protocol.Grammar
	// If set, resolve & exec failures are answered with a NAK line
	Nak bool
	// Called for every executed command (optional)
	OnCommand func()
}

// NewProcessor creates a new processor.
func NewProcessor(log zerolog.Logger, cfg ProcessorConfig, dispatcher *dispatch.Dispatcher, io dispatch.IO, reporter *diag.Reporter) *Processor {
	grammar := cfg.Grammar
	if grammar == nil {
		grammar = protocol.Current()
	}
	onCommand := cfg.OnCommand
	if onCommand == nil {
		onCommand = func() {}
	}
	return &Processor{
		log:        log.With().Str("component", "processor").Logger(),
		grammar:    grammar,
		dispatcher: dispatcher,
		io:         io,
		nak:        cfg.Nak,
		reporter:   reporter,
		onCommand:  onCommand,
	}
}

// Result of processing a line.
type Result struct {
	Command  model.Command
	Response model.Response
	// Reply is the line to send back (only valid when HasReply is set)
	Reply    string
	HasReply bool
	Stage    diag.Stage
	Err      error
}

// Grammar returns the grammar used to decode lines.
func (p *Processor) Grammar() protocol.Grammar {
	return p.grammar
}

// Process a single line (terminator already stripped) from given source.
// Failures never stop processing of later lines; they are reported on the
// diagnostic channel and returned in the result.
func (p *Processor) Process(ctx context.Context, source, line string) Result {
	result := p.process(ctx, line)
	event := diag.Event{
		Source: source,
		Line:   line,
		Stage:  result.Stage,
		Class:  model.ClassOf(result.Err),
		Reply:  result.Reply,
	}
	if result.Stage != diag.StageDecode {
		event.Command = result.Command.String()
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}
	if p.reporter != nil {
		p.reporter.Report(ctx, event)
	}
	return result
}

func (p *Processor) process(ctx context.Context, line string) Result {
	cmd, err := p.grammar.Decode(line)
	if err != nil {
		return Result{Stage: diag.StageDecode, Err: err}
	}
	res, err := pins.Resolve(cmd.Kind, cmd.Address)
	if err != nil {
		return p.reject(Result{Command: cmd, Stage: diag.StageResolve, Err: err})
	}
	resp, err := p.dispatcher.Execute(ctx, cmd, res, p.io)
	if err != nil {
		return p.reject(Result{Command: cmd, Stage: diag.StageExec, Err: err})
	}
	p.onCommand()
	result := Result{Command: cmd, Response: resp, Stage: diag.StageOK}
	if reply, ok := p.grammar.Encode(resp); ok {
		result.Reply = reply
		result.HasReply = true
		result.Stage = diag.StageReply
	}
	return result
}

// reject adds a NAK reply to the given result, when enabled.
func (p *Processor) reject(result Result) Result {
	if !p.nak || p.grammar.Name() != protocol.GrammarCurrent {
		return result
	}
	if reply, ok := protocol.EncodeNak(result.Command, result.Err); ok {
		result.Reply = reply
		result.HasReply = true
	}
	return result
}
