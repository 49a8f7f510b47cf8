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

// Package store persists identity records as one file per VM in a flat directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alexandremahdhaoui/vmident/internal/types"
	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrRecordNotFound indicates no record file exists for the requested VM id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordCorrupted indicates a record file could not be decoded.
	ErrRecordCorrupted = errors.New("record corrupted")
	// ErrUnsupportedFormat indicates an unknown record format.
	ErrUnsupportedFormat = errors.New("unsupported record format")
	// ErrOutsideStore indicates a path that does not belong to the store directory.
	ErrOutsideStore = errors.New("path is outside of the store directory")

	errCreateDir   = errors.New("failed to create output directory")
	errMarshal     = errors.New("failed to marshal record")
	errWriteRecord = errors.New("failed to write record file")
	errReadRecord  = errors.New("failed to read record file")
	errWriteFile   = errors.New("failed to write artifact file")
	errRemoveFile  = errors.New("failed to remove file")
	errGlobRecords = errors.New("failed to list record files")
	errInvalidVMID = errors.New("vm id must be greater than 0")
	errNilRecord   = errors.New("record is nil")
)

// Entry is a record loaded from the store together with the file it came from.
type Entry struct {
	Path   string
	Record *types.Identity
}

// Store persists identity records, one file per VM id.
type Store interface {
	// Init creates the store directory and its parents. It succeeds if it already exists.
	Init() error
	// Save writes the record, overwriting any existing file for the same VM id,
	// and returns the path written.
	Save(record *types.Identity) (string, error)
	// SaveArtifact writes an auxiliary file named after the VM id with the given extension.
	SaveArtifact(vmID int, ext string, data []byte) (string, error)
	// Load reads the record of the given VM id.
	Load(vmID int) (*types.Identity, error)
	// List returns every record file of the store sorted by VM id. Files that do not
	// follow the record naming scheme are ignored.
	List() ([]Entry, error)
	// Remove deletes a file previously written by this store.
	Remove(path string) error
	// Dir returns the store directory.
	Dir() string
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	dir    string
	prefix string
	codec  Codec
}

// NewFileStore returns a FileStore writing <dir>/<prefix><id><codec ext>.
// It does not touch the filesystem; call Init first.
func NewFileStore(dir, prefix string, codec Codec) *FileStore {
	return &FileStore{
		dir:    dir,
		prefix: prefix,
		codec:  codec,
	}
}

// Init implements Store.
func (s *FileStore) Init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Join(err, errCreateDir)
	}

	return nil
}

// Save implements Store.
func (s *FileStore) Save(record *types.Identity) (string, error) {
	if record == nil {
		return "", errNilRecord
	}
	if record.VMID <= 0 {
		return "", errInvalidVMID
	}

	data, err := s.codec.Marshal(record)
	if err != nil {
		return "", errors.Join(err, errMarshal)
	}

	path := s.filePath(record.VMID, s.codec.Ext())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Join(err, errWriteRecord)
	}

	return path, nil
}

// SaveArtifact implements Store.
func (s *FileStore) SaveArtifact(vmID int, ext string, data []byte) (string, error) {
	if vmID <= 0 {
		return "", errInvalidVMID
	}

	path := s.filePath(vmID, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Join(err, errWriteFile)
	}

	return path, nil
}

// Load implements Store.
func (s *FileStore) Load(vmID int) (*types.Identity, error) {
	path := s.filePath(vmID, s.codec.Ext())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: vm_id=%d", ErrRecordNotFound, vmID)
	}

	return s.load(path)
}

// List implements Store.
func (s *FileStore) List() ([]Entry, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), s.prefix+"*"+s.codec.Ext(), doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Join(err, errGlobRecords)
	}

	entries := make([]Entry, 0, len(matches))
	for _, name := range matches {
		if _, ok := s.parseVMID(name); !ok {
			continue
		}

		path := filepath.Join(s.dir, name)
		record, err := s.load(path)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Path: path, Record: record})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		ai, _ := s.parseVMID(filepath.Base(a.Path))
		bi, _ := s.parseVMID(filepath.Base(b.Path))

		return ai - bi
	})

	return entries, nil
}

// Remove implements Store.
func (s *FileStore) Remove(path string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return fmt.Errorf("%w: %s", ErrOutsideStore, path)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Join(err, errRemoveFile)
	}

	return nil
}

// Dir implements Store.
func (s *FileStore) Dir() string {
	return s.dir
}

// VMIDFromPath returns the VM id encoded in a record file name, e.g. 7 for vm_configs/vm-7.json.
func (s *FileStore) VMIDFromPath(path string) (int, bool) {
	return s.parseVMID(filepath.Base(path))
}

func (s *FileStore) load(path string) (*types.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(err, errReadRecord)
	}

	record := &types.Identity{}
	if err := s.codec.Unmarshal(data, record); err != nil {
		return nil, errors.Join(err, fmt.Errorf("%w: %s", ErrRecordCorrupted, path))
	}

	return record, nil
}

func (s *FileStore) parseVMID(name string) (int, bool) {
	ext := s.codec.Ext()
	if !strings.HasPrefix(name, s.prefix) || !strings.HasSuffix(name, ext) {
		return 0, false
	}

	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, s.prefix), ext))
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func (s *FileStore) filePath(vmID int, ext string) string {
	return filepath.Join(s.dir, s.prefix+strconv.Itoa(vmID)+ext)
}
