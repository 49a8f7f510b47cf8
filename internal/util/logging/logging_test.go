//go:build unit

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

package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/vmident/internal/util/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	t.Run("JSON", func(t *testing.T) {
		buf := &bytes.Buffer{}
		opts := logging.DefaultOptions()
		opts.Output = buf

		log := logging.Setup(opts)
		log.Info("record written", "vmID", 3)
		log.V(1).Info("hidden")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "record written", entry["msg"])
		assert.Equal(t, float64(3), entry["vmID"])
	})

	t.Run("Debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logging.Setup(logging.Options{Development: true, Level: slog.LevelDebug, Output: buf})

		log.V(1).Info("shown")
		slog.Debug("from slog")

		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), `msg="from slog"`)
	})
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"debug-2": slog.LevelDebug - 2,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}
