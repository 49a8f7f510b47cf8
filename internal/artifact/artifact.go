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

// Package artifact renders optional per-VM files derived from an identity record,
// written next to the record itself.
package artifact

import (
	"errors"

	"github.com/alexandremahdhaoui/vmident/internal/types"
	"github.com/alexandremahdhaoui/vmident/pkg/cloudinit"
	"github.com/alexandremahdhaoui/vmident/pkg/vmm"
)

var (
	errRenderDomainXML     = errors.New("failed to render libvirt domain XML")
	errRenderMetaData      = errors.New("failed to render cloud-init meta-data")
	errRenderNetworkConfig = errors.New("failed to render cloud-init network-config")
)

// Renderer renders one artifact for an identity.
type Renderer interface {
	// Name identifies the artifact in logs.
	Name() string
	// Ext is the file extension of the artifact, including the leading dot.
	Ext() string
	Render(record *types.Identity) ([]byte, error)
}

// DomainXMLOptions holds the host-side settings of the rendered domains.
type DomainXMLOptions struct {
	VCPUs       uint
	DiskDir     string
	NetworkMode string
	NetworkName string
	VNCListen   string
}

// NewDomainXML returns a Renderer producing a libvirt domain definition (<id>.xml).
func NewDomainXML(opts DomainXMLOptions) Renderer {
	return domainXML{opts: opts}
}

type domainXML struct {
	opts DomainXMLOptions
}

func (domainXML) Name() string { return "libvirt-domain" }

func (domainXML) Ext() string { return ".xml" }

func (r domainXML) Render(record *types.Identity) ([]byte, error) {
	xmlStr, err := vmm.GenerateDomainXML(vmm.DomainConfig{
		Name:        record.VMName,
		UUID:        record.UUID,
		MemoryMB:    uint(record.RAMSizeMB),
		VCPUs:       r.opts.VCPUs,
		CPUModel:    record.CPUModel,
		MACAddress:  record.MACAddress,
		BIOSSerial:  record.BIOSSerial,
		VNCPort:     record.VNCPortHost,
		VNCPassword: record.VNCPassword,
		VNCListen:   r.opts.VNCListen,
		DiskPath:    vmm.DiskPath(r.opts.DiskDir, record.VMName),
		NetworkMode: r.opts.NetworkMode,
		BridgeName:  r.opts.NetworkName,
	})
	if err != nil {
		return nil, errors.Join(err, errRenderDomainXML)
	}

	return []byte(xmlStr + "\n"), nil
}

// NewCloudInitMetaData returns a Renderer producing a NoCloud meta-data file (<id>.meta-data).
func NewCloudInitMetaData() Renderer {
	return metaData{}
}

type metaData struct{}

func (metaData) Name() string { return "cloud-init-meta-data" }

func (metaData) Ext() string { return ".meta-data" }

func (metaData) Render(record *types.Identity) ([]byte, error) {
	out, err := cloudinit.MetaData{
		InstanceID:    record.UUID,
		LocalHostname: record.VMName,
	}.Render()
	if err != nil {
		return nil, errors.Join(err, errRenderMetaData)
	}

	return []byte(out), nil
}

// NewCloudInitNetworkConfig returns a Renderer producing a NoCloud network-config file
// (<id>.network-config) bound to the record's MAC address.
func NewCloudInitNetworkConfig() Renderer {
	return networkConfig{}
}

type networkConfig struct{}

func (networkConfig) Name() string { return "cloud-init-network-config" }

func (networkConfig) Ext() string { return ".network-config" }

func (networkConfig) Render(record *types.Identity) ([]byte, error) {
	out, err := cloudinit.NewDHCPNetworkConfig(record.MACAddress).Render()
	if err != nil {
		return nil, errors.Join(err, errRenderNetworkConfig)
	}

	return []byte(out), nil
}
