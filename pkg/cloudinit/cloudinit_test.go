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

package cloudinit_test

import (
	"testing"

	"github.com/alexandremahdhaoui/vmident/pkg/cloudinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestMetaData_Render(t *testing.T) {
	out, err := cloudinit.MetaData{
		InstanceID:    "550e8400-e29b-41d4-a716-446655440000",
		LocalHostname: "ubuntu-vm-1",
	}.Render()
	require.NoError(t, err)

	assert.Equal(t, "instance-id: 550e8400-e29b-41d4-a716-446655440000\nlocal-hostname: ubuntu-vm-1\n", out)
}

func TestNetworkConfig_Render(t *testing.T) {
	out, err := cloudinit.NewDHCPNetworkConfig("52:54:00:12:34:56").Render()
	require.NoError(t, err)

	var actual cloudinit.NetworkConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &actual))

	assert.Equal(t, 2, actual.Version)
	require.Contains(t, actual.Ethernets, "primary")
	assert.Equal(t, "52:54:00:12:34:56", actual.Ethernets["primary"].Match.MACAddress)
	assert.True(t, actual.Ethernets["primary"].DHCP4)
}
