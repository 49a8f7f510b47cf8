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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/vmident/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func countFiles(t *testing.T, dir, pattern string) int {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)

	return len(matches)
}

func TestGenerate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "vm_configs")

		out, err := execute(t, "generate", "--output-dir", dir, "--seed", "1")
		require.NoError(t, err)

		assert.Equal(t, 10, countFiles(t, dir, "vm-*.json"))
		assert.Equal(t, 10, strings.Count(out, "Generated config for ubuntu-vm-"))
		assert.Contains(t, out, fmt.Sprintf("Generated config for ubuntu-vm-10 at %s\n", filepath.Join(dir, "vm-10.json")))
		assert.True(t, strings.HasSuffix(out, fmt.Sprintf("Successfully generated 10 VM configuration files in %s.\n", dir)))
	})

	t.Run("Seeded", func(t *testing.T) {
		a := filepath.Join(t.TempDir(), "a")
		b := filepath.Join(t.TempDir(), "b")

		_, err := execute(t, "generate", "--output-dir", a, "--seed", "7", "--count", "2")
		require.NoError(t, err)
		_, err = execute(t, "generate", "--output-dir", b, "--seed", "7", "--count", "2")
		require.NoError(t, err)

		dataA, err := os.ReadFile(filepath.Join(a, "vm-2.json"))
		require.NoError(t, err)
		dataB, err := os.ReadFile(filepath.Join(b, "vm-2.json"))
		require.NoError(t, err)
		assert.Equal(t, string(dataA), string(dataB))
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		t.Setenv("VMIDENT_COUNT", "3")
		t.Setenv("VMIDENT_OUTPUT_DIR", dir)
		t.Setenv("VMIDENT_CPU_MODELS", "kvm64,qemu64")

		_, err := execute(t, "generate")
		require.NoError(t, err)

		assert.Equal(t, 3, countFiles(t, dir, "vm-*.json"))

		data, err := os.ReadFile(filepath.Join(dir, "vm-3.json"))
		require.NoError(t, err)

		record := &types.Identity{}
		require.NoError(t, json.Unmarshal(data, record))
		assert.Contains(t, []string{"kvm64", "qemu64"}, record.CPUModel)
	})

	t.Run("FlagsOverrideEnvironmentAndFile", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(
			"count: 5\noutputDir: %s\nformat: yaml\nram:\n  baseline: 4GiB\n", filepath.Join(dir, "out"))), 0o600))

		t.Setenv("VMIDENT_COUNT", "4")

		_, err := execute(t, "generate", "--config", configPath, "--count", "2")
		require.NoError(t, err)

		assert.Equal(t, 2, countFiles(t, filepath.Join(dir, "out"), "vm-*.yaml"))

		data, err := os.ReadFile(filepath.Join(dir, "out", "vm-1.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "ram_size_mb: 4096\n")
	})

	t.Run("ConfigPathEnvKey", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(
			"count: 1\noutputDir: %s\n", filepath.Join(dir, "out"))), 0o600))

		t.Setenv(ConfigPathEnvKey, configPath)

		_, err := execute(t, "generate")
		require.NoError(t, err)
		assert.Equal(t, 1, countFiles(t, filepath.Join(dir, "out"), "vm-*.json"))
	})

	t.Run("Artifacts", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		metricsPath := filepath.Join(t.TempDir(), "vmident.prom")

		_, err := execute(t, "generate", "--output-dir", dir, "--count", "2",
			"--domain-xml", "--cloud-init", "--metrics-textfile", metricsPath)
		require.NoError(t, err)

		assert.Equal(t, 2, countFiles(t, dir, "vm-*.json"))
		assert.Equal(t, 2, countFiles(t, dir, "vm-*.xml"))
		assert.Equal(t, 2, countFiles(t, dir, "vm-*.meta-data"))
		assert.Equal(t, 2, countFiles(t, dir, "vm-*.network-config"))

		data, err := os.ReadFile(metricsPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "vmident_records_generated_total 2\n")
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")

		_, err := execute(t, "generate", "--output-dir", dir, "--vnc-password-length", "0")
		assert.Error(t, err)

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("InvalidSize", func(t *testing.T) {
		_, err := execute(t, "generate", "--output-dir", t.TempDir(), "--disk-size", "big")
		assert.ErrorIs(t, err, errParseSize)
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		_, err := execute(t, "generate", "--output-dir", t.TempDir(), "--log-level", "loud")
		assert.ErrorIs(t, err, errLogLevel)
	})
}

func TestVerify(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vm_configs")

	_, err := execute(t, "generate", "--output-dir", dir, "--count", "4")
	require.NoError(t, err)

	out, err := execute(t, "verify", "--output-dir", dir, "--count", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Verified 4 VM configuration files")
	assert.Contains(t, out, ": OK.")

	require.NoError(t, os.Remove(filepath.Join(dir, "vm-2.json")))

	out, err = execute(t, "verify", "--output-dir", dir, "--count", "4")
	assert.ErrorIs(t, err, errVerifyFailed)
	assert.Contains(t, out, "violation(s).")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vmident dev\n", out)

	out, err = execute(t, "version", "--long")
	require.NoError(t, err)
	assert.Contains(t, out, "CommitSHA:      n/a")
}
