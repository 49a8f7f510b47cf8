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

package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alexandremahdhaoui/vmident/internal/types"
	"gopkg.in/yaml.v3"
)

// Format names a record serialization.
type Format string

const (
	// FormatJSON writes records as 4-space indented JSON.
	FormatJSON Format = "json"
	// FormatYAML writes records as YAML, keeping the struct field order.
	FormatYAML Format = "yaml"
)

const indent = 4

// Codec serializes identity records.
type Codec interface {
	// Ext is the file extension, including the leading dot.
	Ext() string
	Marshal(record *types.Identity) ([]byte, error)
	Unmarshal(data []byte, record *types.Identity) error
}

// NewCodec returns the Codec for the given format.
func NewCodec(format Format) (Codec, error) {
	switch format {
	case FormatJSON, "":
		return jsonCodec{}, nil
	case FormatYAML:
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid values: json, yaml)", ErrUnsupportedFormat, format)
	}
}

type jsonCodec struct{}

func (jsonCodec) Ext() string { return ".json" }

func (jsonCodec) Marshal(record *types.Identity) ([]byte, error) {
	b, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return nil, err
	}

	return append(b, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte, record *types.Identity) error {
	return json.Unmarshal(data, record)
}

type yamlCodec struct{}

func (yamlCodec) Ext() string { return ".yaml" }

func (yamlCodec) Marshal(record *types.Identity) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (yamlCodec) Unmarshal(data []byte, record *types.Identity) error {
	return yaml.Unmarshal(data, record)
}
