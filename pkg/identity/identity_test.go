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

package identity_test

import (
	"net"
	"regexp"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/vmident/pkg/identity"
	"github.com/alexandremahdhaoui/vmident/pkg/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var macRegexp = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

func TestMACAddress(t *testing.T) {
	src := random.NewSeeded(1)

	for i := 0; i < 500; i++ {
		mac, err := identity.MACAddress(src, identity.DefaultMACPrefix)
		require.NoError(t, err)

		assert.Regexp(t, macRegexp, mac)
		assert.True(t, strings.HasPrefix(mac, "52:54:00:"), mac)

		hw, err := net.ParseMAC(mac)
		require.NoError(t, err)
		assert.Less(t, hw[3], byte(0x80))
	}
}

func TestMACAddress_InvalidPrefix(t *testing.T) {
	for _, prefix := range []net.HardwareAddr{nil, {0x52, 0x54}, {0x52, 0x54, 0x00, 0x01}} {
		mac, err := identity.MACAddress(random.NewSeeded(1), prefix)
		assert.ErrorIs(t, err, identity.ErrInvalidMACPrefix)
		assert.Empty(t, mac)
	}
}

func TestBIOSSerial(t *testing.T) {
	src := random.NewSeeded(2)
	re := regexp.MustCompile(`^VMBS0007RND[1-9][0-9]{3}$`)

	for i := 0; i < 200; i++ {
		assert.Regexp(t, re, identity.BIOSSerial(src, identity.DefaultBIOSSerialPrefix, 7))
	}

	assert.True(t, strings.HasPrefix(identity.BIOSSerial(src, "X", 12345), "X12345RND"))
}

func TestVNCPassword(t *testing.T) {
	src := random.NewSeeded(3)

	for _, length := range []int{1, 8, 32} {
		pw, err := identity.VNCPassword(src, length)
		require.NoError(t, err)
		assert.Len(t, pw, length)
		for _, c := range pw {
			assert.True(t, strings.ContainsRune(identity.Alphanumeric, c), "unexpected rune %q", c)
		}
	}
}

func TestVNCPassword_InvalidLength(t *testing.T) {
	for _, length := range []int{0, -1} {
		pw, err := identity.VNCPassword(random.NewSeeded(3), length)
		assert.ErrorIs(t, err, identity.ErrInvalidPasswordLength)
		assert.Empty(t, pw)
	}
}

func TestAlphanumeric(t *testing.T) {
	assert.Len(t, identity.Alphanumeric, 62)
}
