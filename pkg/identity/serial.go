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
	"fmt"

	"github.com/alexandremahdhaoui/vmident/pkg/random"
)

const (
	// DefaultBIOSSerialPrefix prefixes every generated firmware serial.
	DefaultBIOSSerialPrefix = "VMBS"

	serialSuffixMin = 1000
	serialSuffixMax = 9999
)

// BIOSSerial returns prefix + zero-padded 4-digit vmID + "RND" + a random 4-digit suffix,
// e.g. VMBS0007RND4821.
func BIOSSerial(src random.Source, prefix string, vmID int) string {
	return fmt.Sprintf("%s%04dRND%d", prefix, vmID, random.Between(src, serialSuffixMin, serialSuffixMax))
}
