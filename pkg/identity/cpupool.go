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

package identity

import (
	"github.com/alexandremahdhaoui/vmident/pkg/random"
)

// CPUModelPool returns exactly n labels taken from catalog, one per VM of a batch.
//
// When the catalog holds at least n labels, the result is a uniform random subset of
// size n without repetition. Otherwise the whole catalog is repeated as many times as
// it fits, followed by its first n%len(catalog) labels; duplicates are expected then.
//
// The catalog is never modified.
func CPUModelPool(src random.Source, catalog []string, n int) ([]string, error) {
	if n < 0 {
		return nil, ErrInvalidCount
	}
	if n == 0 {
		return []string{}, nil
	}
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	if len(catalog) < n {
		pool := make([]string, 0, n)
		for range n / len(catalog) {
			pool = append(pool, catalog...)
		}

		return append(pool, catalog[:n%len(catalog)]...), nil
	}

	// Partial Fisher-Yates: the first n slots end up holding the sample.
	shuffled := make([]string, len(catalog))
	copy(shuffled, catalog)
	for i := range n {
		j := i + src.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled[:n:n], nil
}
