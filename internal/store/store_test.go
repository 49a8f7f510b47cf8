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

package store_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/alexandremahdhaoui/vmident/internal/types"
	"github.com/alexandremahdhaoui/vmident/internal/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id int) *types.Identity {
	return testutil.NewTypesIdentity(id)
}

func newStore(t *testing.T, format store.Format) (*store.FileStore, string) {
	t.Helper()

	codec, err := store.NewCodec(format)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "vm_configs")
	s := store.NewFileStore(dir, "vm-", codec)
	require.NoError(t, s.Init())

	return s, dir
}

func TestFileStore_Init(t *testing.T) {
	s, dir := newStore(t, store.FormatJSON)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// existing directory is fine
	assert.NoError(t, s.Init())
}

func TestFileStore_Init_Failure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	codec, err := store.NewCodec(store.FormatJSON)
	require.NoError(t, err)

	s := store.NewFileStore(filepath.Join(blocker, "out"), "vm-", codec)
	assert.Error(t, s.Init())
}

func TestFileStore_SaveLoad(t *testing.T) {
	for _, format := range []store.Format{store.FormatJSON, store.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			s, dir := newStore(t, format)

			expected := newRecord(3)
			path, err := s.Save(expected)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "vm-3."+string(format)), path)

			actual, err := s.Load(3)
			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}

func TestFileStore_Save_JSONLayout(t *testing.T) {
	s, _ := newStore(t, store.FormatJSON)

	path, err := s.Save(newRecord(1))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(string(data), "\n")
	assert.Equal(t, "{", lines[0])
	assert.Equal(t, `    "vm_id": 1,`, lines[1])
	assert.Equal(t, `    "vm_name": "ubuntu-vm-1",`, lines[2])
	assert.Equal(t, `    "openvpn_config_file": "vpn-1.ovpn"`, lines[11])
	assert.Equal(t, "}", lines[12])

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 11)
}

func TestFileStore_Save_Overwrites(t *testing.T) {
	s, _ := newStore(t, store.FormatJSON)

	first := newRecord(1)
	_, err := s.Save(first)
	require.NoError(t, err)

	second := newRecord(1)
	second.VNCPassword = "zzzzzzzz"
	_, err = s.Save(second)
	require.NoError(t, err)

	actual, err := s.Load(1)
	require.NoError(t, err)
	assert.Equal(t, "zzzzzzzz", actual.VNCPassword)
}

func TestFileStore_Save_Failure(t *testing.T) {
	s, _ := newStore(t, store.FormatJSON)

	_, err := s.Save(nil)
	assert.Error(t, err)

	_, err = s.Save(&types.Identity{VMID: 0})
	assert.Error(t, err)
}

func TestFileStore_Load_NotFound(t *testing.T) {
	s, _ := newStore(t, store.FormatJSON)

	_, err := s.Load(42)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestFileStore_Load_Corrupted(t *testing.T) {
	s, dir := newStore(t, store.FormatJSON)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vm-1.json"), []byte("{not json"), 0o644))

	_, err := s.Load(1)
	assert.ErrorIs(t, err, store.ErrRecordCorrupted)
}

func TestFileStore_List(t *testing.T) {
	s, dir := newStore(t, store.FormatJSON)

	for _, id := range []int{10, 2, 1} {
		_, err := s.Save(newRecord(id))
		require.NoError(t, err)
	}

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vm-info.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vm-99.json"), 0o755))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, id := range []int{1, 2, 10} {
		assert.Equal(t, id, entries[i].Record.VMID)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("vm-%d.json", id)), entries[i].Path)
	}
}

func TestFileStore_SaveArtifactAndRemove(t *testing.T) {
	s, dir := newStore(t, store.FormatJSON)

	path, err := s.SaveArtifact(4, ".xml", []byte("<domain/>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vm-4.xml"), path)

	require.NoError(t, s.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is not an error
	assert.NoError(t, s.Remove(path))
}

func TestFileStore_Remove_OutsideStore(t *testing.T) {
	s, dir := newStore(t, store.FormatJSON)

	outside := filepath.Join(filepath.Dir(dir), "other.json")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0o644))

	assert.ErrorIs(t, s.Remove(outside), store.ErrOutsideStore)
	assert.ErrorIs(t, s.Remove(dir), store.ErrOutsideStore)
	assert.FileExists(t, outside)
}

func TestFileStore_VMIDFromPath(t *testing.T) {
	s, _ := newStore(t, store.FormatJSON)

	id, ok := s.VMIDFromPath("/tmp/vm_configs/vm-7.json")
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	for _, p := range []string{"vm-0.json", "vm-x.json", "vm-7.yaml", "other-7.json"} {
		_, ok := s.VMIDFromPath(p)
		assert.False(t, ok, p)
	}
}

func TestNewCodec_Unsupported(t *testing.T) {
	_, err := store.NewCodec("toml")
	assert.ErrorIs(t, err, store.ErrUnsupportedFormat)
}
