/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package vmm renders libvirt domain definitions for generated VM identities.
package vmm

import (
	"errors"
	"path/filepath"

	"k8s.io/utils/ptr"
	"libvirt.org/go/libvirtxml"
)

var (
	errMissingName = errors.New("domain name is required")
	errMissingMAC  = errors.New("MAC address is required")
	errMarshalXML  = errors.New("failed to marshal domain XML")
)

const (
	defaultVCPUs       = 2
	defaultNetworkMode = "network"
	defaultNetwork     = "default"
	defaultVNCListen   = "0.0.0.0"

	// cpuModelMax is QEMU's "max" model; libvirt expresses it as a CPU mode.
	cpuModelMax = "max"
)

// DomainConfig describes the libvirt domain of one VM identity.
type DomainConfig struct {
	Name       string
	UUID       string
	MemoryMB   uint
	VCPUs      uint
	CPUModel   string
	MACAddress string
	BIOSSerial string

	VNCPort     int
	VNCPassword string
	VNCListen   string

	DiskPath    string
	NetworkMode string   // "bridge", "network", "user"
	BridgeName  string   // bridge or network name
	BootOrder   []string // e.g., ["hd", "network"]
}

// GenerateDomainXML returns the libvirt domain XML of cfg, ready for
// `virsh define`.
func GenerateDomainXML(cfg DomainConfig) (string, error) {
	if cfg.Name == "" {
		return "", errMissingName
	}
	if cfg.MACAddress == "" {
		return "", errMissingMAC
	}

	vcpus := cfg.VCPUs
	if vcpus == 0 {
		vcpus = defaultVCPUs
	}

	listen := cfg.VNCListen
	if listen == "" {
		listen = defaultVNCListen
	}

	// Build boot devices list
	bootDevices := make([]libvirtxml.DomainBootDevice, 0, len(cfg.BootOrder))
	for _, dev := range cfg.BootOrder {
		bootDevices = append(bootDevices, libvirtxml.DomainBootDevice{Dev: dev})
	}
	if len(bootDevices) == 0 {
		bootDevices = []libvirtxml.DomainBootDevice{{Dev: "hd"}}
	}

	domain := &libvirtxml.Domain{
		Type: "kvm",
		Name: cfg.Name,
		UUID: cfg.UUID,
		Memory: &libvirtxml.DomainMemory{
			Value: cfg.MemoryMB,
			Unit:  "MiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Value: vcpus,
		},
		CPU: buildCPU(cfg.CPUModel),
		SysInfo: []libvirtxml.DomainSysInfo{
			{
				SMBIOS: &libvirtxml.DomainSysInfoSMBIOS{
					System: &libvirtxml.DomainSysInfoSystem{
						Entry: buildSystemEntries(cfg),
					},
				},
			},
		},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{
				Arch:    "x86_64",
				Machine: "pc",
				Type:    "hvm",
			},
			BootDevices: bootDevices,
			SMBios: &libvirtxml.DomainSMBios{
				Mode: "sysinfo",
			},
		},
		Devices: &libvirtxml.DomainDeviceList{
			Disks: buildDisks(cfg.DiskPath),
			Interfaces: []libvirtxml.DomainInterface{
				buildNetworkInterface(cfg.NetworkMode, cfg.BridgeName, cfg.MACAddress),
			},
			Serials: []libvirtxml.DomainSerial{
				{
					Source: &libvirtxml.DomainChardevSource{
						Pty: &libvirtxml.DomainChardevSourcePty{},
					},
					Target: &libvirtxml.DomainSerialTarget{
						Port: ptr.To[uint](0),
					},
				},
			},
			Consoles: []libvirtxml.DomainConsole{
				{
					Source: &libvirtxml.DomainChardevSource{
						Pty: &libvirtxml.DomainChardevSourcePty{},
					},
					Target: &libvirtxml.DomainConsoleTarget{
						Type: "serial",
						Port: ptr.To[uint](0),
					},
				},
			},
			Graphics: []libvirtxml.DomainGraphic{
				{
					VNC: &libvirtxml.DomainGraphicVNC{
						Port:     cfg.VNCPort,
						AutoPort: "no",
						Listen:   listen,
						Passwd:   cfg.VNCPassword,
					},
				},
			},
		},
	}

	xmlStr, err := domain.Marshal()
	if err != nil {
		return "", errors.Join(err, errMarshalXML)
	}

	return xmlStr, nil
}

// buildCPU pins the guest to a named CPU model so the guest-visible CPUID varies
// across the fleet.
func buildCPU(model string) *libvirtxml.DomainCPU {
	switch model {
	case "":
		return nil
	case cpuModelMax:
		return &libvirtxml.DomainCPU{Mode: "maximum"}
	default:
		return &libvirtxml.DomainCPU{
			Mode:  "custom",
			Match: "exact",
			Model: &libvirtxml.DomainCPUModel{
				Fallback: "allow",
				Value:    model,
			},
		}
	}
}

func buildSystemEntries(cfg DomainConfig) []libvirtxml.DomainSysInfoEntry {
	entries := make([]libvirtxml.DomainSysInfoEntry, 0, 2)
	if cfg.BIOSSerial != "" {
		entries = append(entries, libvirtxml.DomainSysInfoEntry{Name: "serial", Value: cfg.BIOSSerial})
	}
	if cfg.UUID != "" {
		entries = append(entries, libvirtxml.DomainSysInfoEntry{Name: "uuid", Value: cfg.UUID})
	}

	return entries
}

func buildDisks(path string) []libvirtxml.DomainDisk {
	if path == "" {
		return nil
	}

	return []libvirtxml.DomainDisk{
		{
			Device: "disk",
			Driver: &libvirtxml.DomainDiskDriver{
				Name: "qemu",
				Type: "qcow2",
			},
			Source: &libvirtxml.DomainDiskSource{
				File: &libvirtxml.DomainDiskSourceFile{
					File: path,
				},
			},
			Target: &libvirtxml.DomainDiskTarget{
				Dev: "vda",
				Bus: "virtio",
			},
		},
	}
}

// buildNetworkInterface creates a network interface configuration
func buildNetworkInterface(mode, bridgeName, macAddress string) libvirtxml.DomainInterface {
	iface := libvirtxml.DomainInterface{
		Model: &libvirtxml.DomainInterfaceModel{
			Type: "virtio",
		},
		MAC: &libvirtxml.DomainInterfaceMAC{
			Address: macAddress,
		},
	}

	if mode == "" {
		mode = defaultNetworkMode
	}

	switch mode {
	case "bridge":
		iface.Source = &libvirtxml.DomainInterfaceSource{
			Bridge: &libvirtxml.DomainInterfaceSourceBridge{
				Bridge: bridgeName,
			},
		}
	case "nat", "network":
		networkName := defaultNetwork
		if bridgeName != "" {
			networkName = bridgeName
		}
		iface.Source = &libvirtxml.DomainInterfaceSource{
			Network: &libvirtxml.DomainInterfaceSourceNetwork{
				Network: networkName,
			},
		}
	default:
		iface.Source = &libvirtxml.DomainInterfaceSource{
			User: &libvirtxml.DomainInterfaceSourceUser{},
		}
	}

	return iface
}

// DiskPath returns the conventional qcow2 path of a VM inside dir.
func DiskPath(dir, name string) string {
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, name+".qcow2")
}
