// Copyright 2024 Alexandre Mahdhaoui
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

// Package logging sets up the process logger. It uses log/slog as the standard
// library logger and bridges it to logr for the packages that take a logr.Logger.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
)

var errInvalidLevel = errors.New("invalid log level")

// Options configures the logger behavior.
type Options struct {
	// Development enables the human-readable text handler instead of JSON.
	Development bool

	// Level sets the minimum log level. Defaults to slog.LevelInfo.
	Level slog.Level

	// Output receives the log lines. Defaults to os.Stderr, which keeps stdout for
	// the progress lines of the generator.
	Output io.Writer
}

// DefaultOptions returns the default logging options.
func DefaultOptions() Options {
	return Options{
		Development: false,
		Level:       slog.LevelInfo,
		Output:      os.Stderr,
	}
}

// ParseLevel parses "debug", "info", "warn" or "error", case-insensitively.
// An offset such as "debug-2" lowers the level further, enabling logr V(n) > 1.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, errors.Join(err, errInvalidLevel)
	}

	return level, nil
}

// Setup configures the default slog logger and returns a logr.Logger writing
// through the same handler.
//
// logr verbosity maps onto slog levels: V(1) is logged at slog.LevelDebug+3, so it
// shows once Level is slog.LevelDebug.
func Setup(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Development {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	return logr.FromSlogHandler(handler)
}
