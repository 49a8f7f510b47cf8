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

package random_test

import (
	"testing"

	"github.com/alexandremahdhaoui/vmident/pkg/random"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeeded_Deterministic(t *testing.T) {
	a := random.NewSeeded(42)
	b := random.NewSeeded(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}

	ua, err := a.UUID()
	require.NoError(t, err)
	ub, err := b.UUID()
	require.NoError(t, err)
	assert.Equal(t, ua, ub)
}

func TestNewSeeded_DifferentSeeds(t *testing.T) {
	ua, err := random.NewSeeded(1).UUID()
	require.NoError(t, err)
	ub, err := random.NewSeeded(2).UUID()
	require.NoError(t, err)

	assert.NotEqual(t, ua, ub)
}

func TestNew(t *testing.T) {
	src, err := random.New()
	require.NoError(t, err)

	seen := make(map[uuid.UUID]struct{})
	for i := 0; i < 64; i++ {
		u, err := src.UUID()
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
		assert.Equal(t, uuid.RFC4122, u.Variant())
		seen[u] = struct{}{}
	}
	assert.Len(t, seen, 64)
}

func TestRanges(t *testing.T) {
	src := random.NewSeeded(7)

	for i := 0; i < 1000; i++ {
		n := src.IntN(10)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 10)

		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)

		b := random.Between(src, 1000, 9999)
		assert.GreaterOrEqual(t, b, 1000)
		assert.LessOrEqual(t, b, 9999)
	}
}

func TestBetween_SingleValue(t *testing.T) {
	assert.Equal(t, 5, random.Between(random.NewSeeded(0), 5, 5))
}

func TestPick(t *testing.T) {
	src := random.NewSeeded(3)
	items := []int{2000, 2096, 2144}

	for i := 0; i < 100; i++ {
		assert.Contains(t, items, random.Pick(src, items))
	}
}
