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
	"strings"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/model"
)

// Grammar turns wire lines into commands and responses into wire lines.
type Grammar interface {
	// Name of the grammar
	Name() string
	// Decode a single line (terminator already stripped) into a validated command.
	Decode(line string) (model.Command, error)
	// Encode the given response.
	// Returns false when the grammar does not send responses.
	Encode(resp model.Response) (string, bool)
}

const (
	// GrammarCurrent is the canonical 11 character grammar.
	GrammarCurrent = "current"
	// GrammarLegacy is the superseded 7 bit grammar.
	GrammarLegacy = "legacy"
)

// NewGrammar returns the grammar with given name.
func NewGrammar(name string) (Grammar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case GrammarCurrent, "":
		return Current(), nil
	case GrammarLegacy:
		return Legacy(), nil
	default:
		return nil, errors.Errorf("unknown grammar '%s' (%s|%s)", name, GrammarCurrent, GrammarLegacy)
	}
}
