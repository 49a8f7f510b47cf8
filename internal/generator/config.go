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

package generator

import (
	"net"
	"strings"

	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/alexandremahdhaoui/vmident/pkg/identity"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// FailurePolicy decides what happens to files already written when a batch aborts.
type FailurePolicy string

const (
	// FailurePolicyKeep leaves the files of earlier records on disk.
	FailurePolicyKeep FailurePolicy = "keep"
	// FailurePolicyRollback removes every file written by the aborted run.
	FailurePolicyRollback FailurePolicy = "rollback"
)

const (
	DefaultCount              = 10
	DefaultOutputDir          = "vm_configs"
	DefaultFileNamePrefix     = "vm-"
	DefaultVMNamePrefix       = "ubuntu-vm-"
	DefaultVNCBasePort        = 5900
	DefaultRAMBaselineMB      = 2048
	DefaultRAMVariantEvery    = 4
	DefaultDiskSizeGB         = 20
	DefaultOpenVPNFilePattern = "vpn-%d.ovpn"

	maxPort = 65535
)

// DefaultRAMVariantsMB are the memory sizes assigned to every RAMVariantEvery-th VM.
var DefaultRAMVariantsMB = []int{2000, 2096, 2144}

// Config parametrizes a batch. DefaultConfig reproduces the reference batch.
type Config struct {
	// Count is the number of VMs in the batch.
	Count int

	// OutputDir receives one record file per VM. It is created if missing.
	OutputDir string
	// FileNamePrefix prefixes the record file names: <prefix><vm_id>.<format>.
	FileNamePrefix string
	// Format is the record serialization.
	Format store.Format

	// VMNamePrefix prefixes the VM names: <prefix><vm_id>.
	VMNamePrefix string
	// MACPrefix is the 3-byte vendor prefix of every MAC address.
	MACPrefix net.HardwareAddr
	// VNCBasePort is the VNC port of the first VM; VM n uses VNCBasePort+n-1.
	VNCBasePort int
	// VNCPasswordLength is the length of the VNC passwords.
	VNCPasswordLength int
	// BIOSSerialPrefix prefixes the firmware serials.
	BIOSSerialPrefix string
	// CPUModels is the catalog the CPU model pool is drawn from.
	CPUModels []string

	// RAMBaselineMB is the memory of most VMs.
	RAMBaselineMB int
	// RAMVariantsMB are picked from for every VM whose id is a multiple of RAMVariantEvery.
	RAMVariantsMB   []int
	RAMVariantEvery int
	// DiskSizeGB is the disk size of every VM.
	DiskSizeGB int

	// OpenVPNFilePattern is formatted with the VM id, e.g. "vpn-%d.ovpn".
	OpenVPNFilePattern string

	// OnFailure is applied when the batch aborts.
	OnFailure FailurePolicy
}

// DefaultConfig returns the configuration of the reference batch: 10 VMs written as
// JSON to ./vm_configs.
func DefaultConfig() Config {
	return Config{
		Count:              DefaultCount,
		OutputDir:          DefaultOutputDir,
		FileNamePrefix:     DefaultFileNamePrefix,
		Format:             store.FormatJSON,
		VMNamePrefix:       DefaultVMNamePrefix,
		MACPrefix:          append(net.HardwareAddr(nil), identity.DefaultMACPrefix...),
		VNCBasePort:        DefaultVNCBasePort,
		VNCPasswordLength:  identity.DefaultVNCPasswordLength,
		BIOSSerialPrefix:   identity.DefaultBIOSSerialPrefix,
		CPUModels:          append([]string(nil), identity.DefaultCPUModels...),
		RAMBaselineMB:      DefaultRAMBaselineMB,
		RAMVariantsMB:      append([]int(nil), DefaultRAMVariantsMB...),
		RAMVariantEvery:    DefaultRAMVariantEvery,
		DiskSizeGB:         DefaultDiskSizeGB,
		OpenVPNFilePattern: DefaultOpenVPNFilePattern,
		OnFailure:          FailurePolicyKeep,
	}
}

// Validate returns every problem of the configuration at once.
func (c Config) Validate() error {
	var errs field.ErrorList

	if c.Count < 0 {
		errs = append(errs, field.Invalid(field.NewPath("count"), c.Count, "must be greater than or equal to 0"))
	}

	if c.OutputDir == "" {
		errs = append(errs, field.Required(field.NewPath("outputDir"), ""))
	}

	prefixPath := field.NewPath("fileNamePrefix")
	switch {
	case c.FileNamePrefix == "":
		errs = append(errs, field.Required(prefixPath, ""))
	case strings.ContainsAny(c.FileNamePrefix, `/\*?[]{}`):
		errs = append(errs, field.Invalid(prefixPath, c.FileNamePrefix, "must not contain path separators or glob characters"))
	}

	if _, err := store.NewCodec(c.Format); err != nil {
		errs = append(errs, field.NotSupported(field.NewPath("format"), c.Format,
			[]store.Format{store.FormatJSON, store.FormatYAML}))
	}

	if len(c.MACPrefix) != 3 {
		errs = append(errs, field.Invalid(field.NewPath("macPrefix"), c.MACPrefix.String(), "must be exactly 3 bytes"))
	}

	portPath := field.NewPath("vnc", "basePort")
	switch {
	case c.VNCBasePort <= 0 || c.VNCBasePort > maxPort:
		errs = append(errs, field.Invalid(portPath, c.VNCBasePort, "must be a valid TCP port"))
	case c.Count > 0 && c.VNCBasePort+c.Count-1 > maxPort:
		errs = append(errs, field.Invalid(portPath, c.VNCBasePort, "port range of the batch exceeds 65535"))
	}

	if c.VNCPasswordLength <= 0 {
		errs = append(errs, field.Invalid(field.NewPath("vnc", "passwordLength"), c.VNCPasswordLength, "must be greater than 0"))
	}

	cpuPath := field.NewPath("cpuModels")
	if c.Count > 0 && len(c.CPUModels) == 0 {
		errs = append(errs, field.Required(cpuPath, "at least one CPU model is required"))
	}
	for i, model := range c.CPUModels {
		if strings.TrimSpace(model) == "" {
			errs = append(errs, field.Invalid(cpuPath.Index(i), model, "must not be empty"))
		}
	}

	ramPath := field.NewPath("ram")
	if c.RAMBaselineMB <= 0 {
		errs = append(errs, field.Invalid(ramPath.Child("baseline"), c.RAMBaselineMB, "must be greater than 0"))
	}
	for i, v := range c.RAMVariantsMB {
		if v <= 0 {
			errs = append(errs, field.Invalid(ramPath.Child("variants").Index(i), v, "must be greater than 0"))
		}
	}
	if c.RAMVariantEvery <= 0 {
		errs = append(errs, field.Invalid(ramPath.Child("variantEvery"), c.RAMVariantEvery, "must be greater than 0"))
	}

	if c.DiskSizeGB <= 0 {
		errs = append(errs, field.Invalid(field.NewPath("disk", "size"), c.DiskSizeGB, "must be greater than 0"))
	}

	if strings.Count(c.OpenVPNFilePattern, "%d") != 1 || strings.Count(c.OpenVPNFilePattern, "%") != 1 {
		errs = append(errs, field.Invalid(field.NewPath("openVPN", "fileNamePattern"), c.OpenVPNFilePattern,
			"must contain exactly one %d verb"))
	}

	switch c.OnFailure {
	case FailurePolicyKeep, FailurePolicyRollback:
	default:
		errs = append(errs, field.NotSupported(field.NewPath("onFailure"), c.OnFailure,
			[]FailurePolicy{FailurePolicyKeep, FailurePolicyRollback}))
	}

	return errs.ToAggregate()
}
