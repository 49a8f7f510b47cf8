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

package types

// ---------------------------------------------------- IDENTITY ---------------------------------------------------- //

// Identity is the identity of one virtual machine of a batch.
//
// Field order and tags are the on-disk format read by fleet tooling: do not rename.
type Identity struct {
	// VMID is the 1-based index of the VM within its batch.
	VMID int `json:"vm_id" yaml:"vm_id"`
	// VMName is derived from VMID.
	VMName string `json:"vm_name" yaml:"vm_name"`
	// MACAddress is the NIC hardware address, e.g. 52:54:00:1a:2b:3c.
	MACAddress string `json:"mac_address" yaml:"mac_address"`
	// VNCPortHost is the host port the VM display is exposed on.
	VNCPortHost int `json:"vnc_port_host" yaml:"vnc_port_host"`
	// VNCPassword is the display-access credential.
	VNCPassword string `json:"vnc_password" yaml:"vnc_password"`
	// UUID is the SMBIOS system UUID.
	UUID string `json:"uuid" yaml:"uuid"`
	// BIOSSerial is the SMBIOS system serial number.
	BIOSSerial string `json:"bios_serial" yaml:"bios_serial"`
	// CPUModel is the QEMU CPU model label.
	CPUModel string `json:"cpu_model" yaml:"cpu_model"`
	// RAMSizeMB is the guest memory in MiB.
	RAMSizeMB int `json:"ram_size_mb" yaml:"ram_size_mb"`
	// DiskSizeGB is the guest disk size in GiB.
	DiskSizeGB int `json:"disk_size_gb" yaml:"disk_size_gb"`
	// OpenVPNConfigFile names the VPN credential file provisioned out of band.
	OpenVPNConfigFile string `json:"openvpn_config_file" yaml:"openvpn_config_file"`
}
