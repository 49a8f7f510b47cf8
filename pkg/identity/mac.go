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
	"net"

	"github.com/alexandremahdhaoui/vmident/pkg/random"
)

// DefaultMACPrefix is the QEMU/libvirt OUI.
var DefaultMACPrefix = net.HardwareAddr{0x52, 0x54, 0x00}

// MACAddress returns a hardware address made of the 3-byte vendor prefix followed by
// 3 random octets, formatted as lowercase colon-separated hex (e.g. 52:54:00:1a:2b:3c).
//
// The fourth octet is kept below 0x80.
func MACAddress(src random.Source, prefix net.HardwareAddr) (string, error) {
	if len(prefix) != 3 {
		return "", ErrInvalidMACPrefix
	}

	mac := make(net.HardwareAddr, 6)
	copy(mac, prefix)
	mac[3] = byte(src.IntN(0x80))
	mac[4] = byte(src.IntN(0x100))
	mac[5] = byte(src.IntN(0x100))

	return mac.String(), nil
}
