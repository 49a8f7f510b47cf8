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

// Package random provides the randomness consumed by the identity synthesizers.
//
// A Source is passed explicitly to every synthesizer instead of relying on a
// package-global generator. NewSeeded returns a reproducible Source for tests and
// for the --seed flag; New draws its seed from the platform entropy.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"math/rand/v2"

	"github.com/google/uuid"
)

var errReadEntropy = errors.New("failed to read platform entropy")

// Source is a sequential random-generation context. It is not safe for concurrent use.
type Source interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a uniform float in [0.0, 1.0).
	Float64() float64
	// UUID returns a random (version 4) UUID.
	UUID() (uuid.UUID, error)
}

type source struct {
	rng    *rand.Rand
	reader io.Reader
}

// New returns a Source seeded from crypto/rand. UUIDs are read from crypto/rand too.
func New() (Source, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, errors.Join(err, errReadEntropy)
	}

	return &source{
		rng:    rand.New(rand.NewChaCha8(seed)),
		reader: crand.Reader,
	}, nil
}

// NewSeeded returns a deterministic Source: two Sources built from the same seed
// yield the same sequence of integers, floats and UUIDs.
func NewSeeded(seed uint64) Source {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)

	chacha := rand.NewChaCha8(s)

	return &source{
		rng:    rand.New(chacha),
		reader: chacha,
	}
}

// IntN implements Source.
func (s *source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Float64 implements Source.
func (s *source) Float64() float64 {
	return s.rng.Float64()
}

// UUID implements Source.
func (s *source) UUID() (uuid.UUID, error) {
	return uuid.NewRandomFromReader(s.reader)
}

// Between returns a uniform integer in the closed range [lo, hi]. It panics if hi < lo.
func Between(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo+1)
}

// Pick returns a uniformly chosen element of items. It panics if items is empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
