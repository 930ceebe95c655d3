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

package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures a rotating log file.
type FileConfig struct {
	// Path of the log file. Empty disables file logging.
	Path string `yaml:"file"`
	// Maximum size in megabytes before rotation
	MaxSizeMB int `yaml:"max_size_mb"`
	// Number of rotated files to keep
	MaxBackups int `yaml:"max_backups"`
}

// NewFileWriter returns a rotating file output, or nil when no path is configured.
func NewFileWriter(cfg FileConfig) io.WriteCloser {
	if cfg.Path == "" {
		return nil
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
	}
}
