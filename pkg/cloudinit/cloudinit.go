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

// Package cloudinit renders NoCloud seed documents for a generated VM identity.
package cloudinit

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// MetaData is the NoCloud meta-data document.
type MetaData struct {
	InstanceID    string `json:"instance-id"`
	LocalHostname string `json:"local-hostname"`
}

// Render returns the YAML meta-data document.
func (md MetaData) Render() (string, error) {
	b, err := yaml.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("cannot render meta-data: %w", err)
	}
	return string(b), nil
}

type MACMatch struct {
	MACAddress string `json:"macaddress"`
}

type Ethernet struct {
	Match   MACMatch `json:"match"`
	SetName string   `json:"set-name,omitempty"`
	DHCP4   bool     `json:"dhcp4"`
}

// NetworkConfig is a network-config version 2 document.
type NetworkConfig struct {
	Version   int                 `json:"version"`
	Ethernets map[string]Ethernet `json:"ethernets"`
}

// NewDHCPNetworkConfig returns a network-config enabling DHCPv4 on the interface
// carrying the given MAC address.
func NewDHCPNetworkConfig(macAddress string) NetworkConfig {
	return NetworkConfig{
		Version: 2,
		Ethernets: map[string]Ethernet{
			"primary": {
				Match:   MACMatch{MACAddress: macAddress},
				SetName: "eth0",
				DHCP4:   true,
			},
		},
	}
}

// Render returns the YAML network-config document.
func (nc NetworkConfig) Render() (string, error) {
	b, err := yaml.Marshal(nc)
	if err != nil {
		return "", fmt.Errorf("cannot render network-config: %w", err)
	}
	return string(b), nil
}
