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

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/alexandremahdhaoui/vmident/internal/artifact"
	"github.com/alexandremahdhaoui/vmident/internal/generator"
	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/alexandremahdhaoui/vmident/pkg/random"
	"github.com/docker/go-units"
	"sigs.k8s.io/yaml"
)

var (
	errReadConfig  = errors.New("failed to read config file")
	errParseConfig = errors.New("failed to parse config file")
	errParseSize   = errors.New("failed to parse size")
	errMACPrefix   = errors.New("macPrefix must hold 3 colon-separated octets")
)

// Config is used to configure the application.
//
// Every field may be overridden by the flag of the same name or by the matching
// VMIDENT_<FLAG> environment variable.
type Config struct {
	// Count is the number of VMs in the batch.
	Count int `json:"count"`
	// OutputDir receives the record files.
	OutputDir string `json:"outputDir"`
	// Format is "json" or "yaml".
	Format string `json:"format"`
	// FileNamePrefix prefixes the record file names.
	FileNamePrefix string `json:"fileNamePrefix"`
	// VMNamePrefix prefixes the VM names.
	VMNamePrefix string `json:"vmNamePrefix"`
	// MACPrefix is the vendor prefix, e.g. "52:54:00".
	MACPrefix string `json:"macPrefix"`

	VNC struct {
		// BasePort is the VNC port of vm_id 1.
		BasePort int `json:"basePort"`
		// PasswordLength is the length of the generated VNC passwords.
		PasswordLength int `json:"passwordLength"`
	} `json:"vnc"`

	BIOS struct {
		SerialPrefix string `json:"serialPrefix"`
	} `json:"bios"`

	// RAM sizes accept binary units ("2048MiB", "2g"). A bare number is read as MiB.
	RAM struct {
		Baseline     string   `json:"baseline"`
		Variants     []string `json:"variants"`
		VariantEvery int      `json:"variantEvery"`
	} `json:"ram"`

	// Disk size accepts binary units ("20GiB"). A bare number is read as GiB.
	Disk struct {
		Size string `json:"size"`
	} `json:"disk"`

	// CPUModels is the catalog the CPU models are drawn from.
	CPUModels []string `json:"cpuModels"`

	OpenVPN struct {
		// FileNamePattern is formatted with the vm_id.
		FileNamePattern string `json:"fileNamePattern"`
	} `json:"openVPN"`

	// OnFailure is "keep" or "rollback".
	OnFailure string `json:"onFailure"`

	// Artifacts configures the optional files written next to each record.
	Artifacts struct {
		// DomainXML writes a libvirt domain definition per VM.
		DomainXML bool `json:"domainXML"`
		// CloudInit writes NoCloud meta-data and network-config per VM.
		CloudInit bool `json:"cloudInit"`

		VCPUs       uint   `json:"vcpus"`
		DiskDir     string `json:"diskDir"`
		NetworkMode string `json:"networkMode"`
		NetworkName string `json:"networkName"`
		VNCListen   string `json:"vncListen"`
	} `json:"artifacts"`

	// MetricsTextfile, if set, receives the run metrics in the Prometheus textfile format.
	MetricsTextfile string `json:"metricsTextfile,omitempty"`

	// Seed makes the batch reproducible. Unset means a random seed.
	Seed *uint64 `json:"seed,omitempty"`

	Logging struct {
		Level       string `json:"level"`
		Development bool   `json:"development"`
	} `json:"logging"`
}

// NewDefaultConfig returns a Config producing the reference batch.
func NewDefaultConfig() *Config {
	defaults := generator.DefaultConfig()

	cfg := &Config{
		Count:          defaults.Count,
		OutputDir:      defaults.OutputDir,
		Format:         string(defaults.Format),
		FileNamePrefix: defaults.FileNamePrefix,
		VMNamePrefix:   defaults.VMNamePrefix,
		MACPrefix:      defaults.MACPrefix.String(),
		CPUModels:      defaults.CPUModels,
		OnFailure:      string(defaults.OnFailure),
	}

	cfg.VNC.BasePort = defaults.VNCBasePort
	cfg.VNC.PasswordLength = defaults.VNCPasswordLength
	cfg.BIOS.SerialPrefix = defaults.BIOSSerialPrefix
	cfg.RAM.Baseline = strconv.Itoa(defaults.RAMBaselineMB) + "MiB"
	cfg.RAM.VariantEvery = defaults.RAMVariantEvery
	for _, v := range defaults.RAMVariantsMB {
		cfg.RAM.Variants = append(cfg.RAM.Variants, strconv.Itoa(v)+"MiB")
	}
	cfg.Disk.Size = strconv.Itoa(defaults.DiskSizeGB) + "GiB"
	cfg.OpenVPN.FileNamePattern = defaults.OpenVPNFilePattern
	cfg.Artifacts.VCPUs = 2
	cfg.Artifacts.NetworkMode = "network"
	cfg.Artifacts.NetworkName = "default"
	cfg.Artifacts.VNCListen = "0.0.0.0"
	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig returns the defaults overridden by the YAML file at path, if any.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("%w: %s", errReadConfig, path))
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Join(err, fmt.Errorf("%w: %s", errParseConfig, path))
	}

	return cfg, nil
}

// GeneratorConfig converts the human-facing configuration into a generator.Config.
// It does not validate the result; generator.New does.
func (c *Config) GeneratorConfig() (generator.Config, error) {
	cfg := generator.Config{
		Count:              c.Count,
		OutputDir:          c.OutputDir,
		FileNamePrefix:     c.FileNamePrefix,
		Format:             store.Format(c.Format),
		VMNamePrefix:       c.VMNamePrefix,
		VNCBasePort:        c.VNC.BasePort,
		VNCPasswordLength:  c.VNC.PasswordLength,
		BIOSSerialPrefix:   c.BIOS.SerialPrefix,
		CPUModels:          c.CPUModels,
		RAMVariantEvery:    c.RAM.VariantEvery,
		OpenVPNFilePattern: c.OpenVPN.FileNamePattern,
		OnFailure:          generator.FailurePolicy(c.OnFailure),
	}

	var errs []error

	mac, err := parseMACPrefix(c.MACPrefix)
	errs = append(errs, err)
	cfg.MACPrefix = mac

	cfg.RAMBaselineMB, err = parseSize(c.RAM.Baseline, units.MiB)
	errs = append(errs, err)

	for _, s := range c.RAM.Variants {
		v, err := parseSize(s, units.MiB)
		errs = append(errs, err)
		cfg.RAMVariantsMB = append(cfg.RAMVariantsMB, v)
	}

	cfg.DiskSizeGB, err = parseSize(c.Disk.Size, units.GiB)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return generator.Config{}, err
	}

	return cfg, nil
}

// Renderers returns the artifact renderers enabled by the configuration.
func (c *Config) Renderers() []artifact.Renderer {
	var renderers []artifact.Renderer

	if c.Artifacts.DomainXML {
		renderers = append(renderers, artifact.NewDomainXML(artifact.DomainXMLOptions{
			VCPUs:       c.Artifacts.VCPUs,
			DiskDir:     c.Artifacts.DiskDir,
			NetworkMode: c.Artifacts.NetworkMode,
			NetworkName: c.Artifacts.NetworkName,
			VNCListen:   c.Artifacts.VNCListen,
		}))
	}

	if c.Artifacts.CloudInit {
		renderers = append(renderers, artifact.NewCloudInitMetaData(), artifact.NewCloudInitNetworkConfig())
	}

	return renderers
}

// RandomSource returns a seeded source if Seed is set, a crypto-seeded one otherwise.
func (c *Config) RandomSource() (random.Source, error) {
	if c.Seed != nil {
		return random.NewSeeded(*c.Seed), nil
	}

	return random.New()
}

func parseMACPrefix(s string) (net.HardwareAddr, error) {
	if s == "" {
		return nil, errMACPrefix
	}

	hw, err := net.ParseMAC(s + ":00:00:00")
	if err != nil || len(hw) != 6 {
		return nil, errors.Join(err, fmt.Errorf("%w: %q", errMACPrefix, s))
	}

	return hw[:3:3], nil
}

// parseSize parses a binary size and returns it as a whole number of unit.
// A bare number is already expressed in unit.
func parseSize(s string, unit int64) (int, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	b, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Join(err, fmt.Errorf("%w: %q", errParseSize, s))
	}

	if b%unit != 0 {
		return 0, fmt.Errorf("%w: %q is not a whole number of %s", errParseSize, s, units.BytesSize(float64(unit)))
	}

	return int(b / unit), nil
}
