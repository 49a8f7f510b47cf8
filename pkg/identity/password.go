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
	"strings"

	"github.com/alexandremahdhaoui/vmident/pkg/random"
)

const (
	// Alphanumeric is the 62-symbol alphabet VNC passwords are drawn from.
	Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultVNCPasswordLength is the length of generated VNC passwords.
	DefaultVNCPasswordLength = 8
)

// VNCPassword returns a string of the given length whose characters are drawn
// independently and uniformly from Alphanumeric.
func VNCPassword(src random.Source, length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidPasswordLength
	}

	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(Alphanumeric[src.IntN(len(Alphanumeric))])
	}

	return b.String(), nil
}
