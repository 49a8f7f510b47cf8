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
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFlag      = "config"
	logLevelFlag    = "log-level"
	logDevFlag      = "log-dev"
	countFlag       = "count"
	outputDirFlag   = "output-dir"
	formatFlag      = "format"
	filePrefixFlag  = "file-prefix"
	namePrefixFlag  = "vm-name-prefix"
	macPrefixFlag   = "mac-prefix"
	vncBasePortFlag = "vnc-base-port"
	vncPasswordFlag = "vnc-password-length"
	biosPrefixFlag  = "bios-serial-prefix"
	ramBaselineFlag = "ram-baseline"
	ramVariantsFlag = "ram-variants"
	ramEveryFlag    = "ram-variant-every"
	diskSizeFlag    = "disk-size"
	cpuModelsFlag   = "cpu-models"
	openVPNFlag     = "openvpn-pattern"
	onFailureFlag   = "on-failure"
	domainXMLFlag   = "domain-xml"
	cloudInitFlag   = "cloud-init"
	vcpusFlag       = "vcpus"
	diskDirFlag     = "disk-dir"
	networkModeFlag = "network-mode"
	networkNameFlag = "network-name"
	vncListenFlag   = "vnc-listen"
	metricsFlag     = "metrics-textfile"
	seedFlag        = "seed"
)

// addBatchFlags adds the flags describing the shape of a batch. They are shared by
// the generate and verify commands. Defaults are read from cfg.
func addBatchFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Count, countFlag, cfg.Count, "Number of VMs in the batch.")
	fs.StringVar(&cfg.OutputDir, outputDirFlag, cfg.OutputDir, "Directory receiving the record files.")
	fs.StringVar(&cfg.Format, formatFlag, cfg.Format, "Record format: json or yaml.")
	fs.StringVar(&cfg.FileNamePrefix, filePrefixFlag, cfg.FileNamePrefix, "Prefix of the record file names.")
	fs.StringVar(&cfg.VMNamePrefix, namePrefixFlag, cfg.VMNamePrefix, "Prefix of the VM names.")
	fs.StringVar(&cfg.MACPrefix, macPrefixFlag, cfg.MACPrefix, "3-octet vendor prefix of the MAC addresses.")
	fs.IntVar(&cfg.VNC.BasePort, vncBasePortFlag, cfg.VNC.BasePort, "VNC port of the first VM.")
	fs.IntVar(&cfg.VNC.PasswordLength, vncPasswordFlag, cfg.VNC.PasswordLength, "Length of the VNC passwords.")
	fs.StringVar(&cfg.BIOS.SerialPrefix, biosPrefixFlag, cfg.BIOS.SerialPrefix, "Prefix of the BIOS serials.")
	fs.StringVar(&cfg.RAM.Baseline, ramBaselineFlag, cfg.RAM.Baseline, "Memory of most VMs.")
	fs.StringSliceVar(&cfg.RAM.Variants, ramVariantsFlag, cfg.RAM.Variants,
		"Memory sizes picked from for every --ram-variant-every-th VM.")
	fs.IntVar(&cfg.RAM.VariantEvery, ramEveryFlag, cfg.RAM.VariantEvery, "Period of the memory variants.")
	fs.StringVar(&cfg.Disk.Size, diskSizeFlag, cfg.Disk.Size, "Disk size of every VM.")
	fs.StringSliceVar(&cfg.CPUModels, cpuModelsFlag, cfg.CPUModels, "Catalog of CPU models.")
	fs.StringVar(&cfg.OpenVPN.FileNamePattern, openVPNFlag, cfg.OpenVPN.FileNamePattern,
		"OpenVPN config file name, formatted with the vm_id.")
}

// addGenerateFlags adds the flags that only matter when writing a batch.
func addGenerateFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OnFailure, onFailureFlag, cfg.OnFailure,
		"What to do with the written files when the batch aborts: keep or rollback.")
	fs.BoolVar(&cfg.Artifacts.DomainXML, domainXMLFlag, cfg.Artifacts.DomainXML,
		"Write a libvirt domain definition next to each record.")
	fs.BoolVar(&cfg.Artifacts.CloudInit, cloudInitFlag, cfg.Artifacts.CloudInit,
		"Write cloud-init NoCloud meta-data and network-config next to each record.")
	fs.UintVar(&cfg.Artifacts.VCPUs, vcpusFlag, cfg.Artifacts.VCPUs, "vCPUs of the libvirt domains.")
	fs.StringVar(&cfg.Artifacts.DiskDir, diskDirFlag, cfg.Artifacts.DiskDir,
		"Directory of the qcow2 disks referenced by the libvirt domains.")
	fs.StringVar(&cfg.Artifacts.NetworkMode, networkModeFlag, cfg.Artifacts.NetworkMode,
		"Interface type of the libvirt domains: network or bridge.")
	fs.StringVar(&cfg.Artifacts.NetworkName, networkNameFlag, cfg.Artifacts.NetworkName,
		"libvirt network or bridge the domains are attached to.")
	fs.StringVar(&cfg.Artifacts.VNCListen, vncListenFlag, cfg.Artifacts.VNCListen,
		"VNC listen address of the libvirt domains.")
	fs.StringVar(&cfg.MetricsTextfile, metricsFlag, cfg.MetricsTextfile,
		"Write run metrics to this Prometheus textfile.")
	fs.Var(&seedValue{p: &cfg.Seed}, seedFlag, "Seed making the batch reproducible.")
}

// addLoggingFlags adds the logging flags, persistent on the root command.
func addLoggingFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Logging.Level, logLevelFlag, cfg.Logging.Level, "Log level: debug, info, warn or error.")
	fs.BoolVar(&cfg.Logging.Development, logDevFlag, cfg.Logging.Development, "Human-readable logs.")
}

// newViper returns a viper reading VMIDENT_<FLAG> environment variables, dashes
// replaced by underscores.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// bindFlagsToViper sets every flag left unset on the command line from its
// environment variable.
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error

	fs.VisitAll(func(flag *pflag.Flag) {
		_ = v.BindPFlag(flag.Name, flag)

		if !flag.Changed && v.IsSet(flag.Name) {
			if err := fs.Set(flag.Name, fmt.Sprintf("%v", v.Get(flag.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", flag.Name, err))
			}
		}
	})

	return errors.Join(errs...)
}

// applyChangedFlags copies the flags set in from, on the command line or through
// the environment, onto cfg.
func applyChangedFlags(from *pflag.FlagSet, cfg *Config, adders ...func(*pflag.FlagSet, *Config)) error {
	to := pflag.NewFlagSet("", pflag.ContinueOnError)
	for _, add := range adders {
		add(to, cfg)
	}

	var errs []error

	from.Visit(func(flag *pflag.Flag) {
		target := to.Lookup(flag.Name)
		if target == nil {
			return
		}

		if src, ok := flag.Value.(pflag.SliceValue); ok {
			if dst, ok := target.Value.(pflag.SliceValue); ok {
				errs = append(errs, dst.Replace(src.GetSlice()))
				return
			}
		}

		errs = append(errs, to.Set(flag.Name, flag.Value.String()))
	})

	return errors.Join(errs...)
}

// seedValue is an optional uint64 flag: it stays nil until set.
type seedValue struct {
	p **uint64
}

func (s *seedValue) String() string {
	if s.p == nil || *s.p == nil {
		return ""
	}

	return strconv.FormatUint(**s.p, 10)
}

func (s *seedValue) Set(val string) error {
	seed, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return err
	}

	*s.p = &seed

	return nil
}

func (s *seedValue) Type() string {
	return "uint64"
}
