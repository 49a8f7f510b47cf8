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

// Package testutil holds fixtures shared by the tests of several packages.
package testutil

import (
	"fmt"

	"github.com/alexandremahdhaoui/vmident/internal/types"
)

const (
	TestVNCPassword = "Zx9Zx9Zx"
	TestCPUModel    = "Opteron_G3"
)

// NewTypesIdentity returns a valid record for vmID. Every field is derived from
// vmID, so two calls with the same id return equal records.
func NewTypesIdentity(vmID int) *types.Identity {
	ram := 2048
	if vmID%4 == 0 {
		ram = 2096
	}

	return &types.Identity{
		VMID:              vmID,
		VMName:            fmt.Sprintf("ubuntu-vm-%d", vmID),
		MACAddress:        fmt.Sprintf("52:54:00:7f:%02x:%02x", (vmID>>8)&0xff, vmID&0xff),
		VNCPortHost:       5900 + vmID - 1,
		VNCPassword:       TestVNCPassword,
		UUID:              fmt.Sprintf("0b3f9a52-8f6e-4c1d-9a2b-%012x", vmID),
		BIOSSerial:        fmt.Sprintf("VMBS%04dRND5555", vmID),
		CPUModel:          TestCPUModel,
		RAMSizeMB:         ram,
		DiskSizeGB:        20,
		OpenVPNConfigFile: fmt.Sprintf("vpn-%d.ovpn", vmID),
	}
}
