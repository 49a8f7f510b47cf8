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

// Package verify checks a generated batch against the rules it was generated with.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/alexandremahdhaoui/vmident/internal/generator"
	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

var errListRecords = errors.New("failed to list batch records")

var passwordRegexp = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Store is the read side of store.Store needed to verify a batch.
type Store interface {
	List() ([]store.Entry, error)
	VMIDFromPath(path string) (int, bool)
}

// Report lists the violations found in a batch.
type Report struct {
	Dir     string
	Checked int
	Errors  field.ErrorList
}

// OK reports whether the batch is free of violations.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Print writes one line per violation followed by a summary line.
func (r *Report) Print(w io.Writer) {
	for _, err := range r.Errors {
		fmt.Fprintln(w, err.Error())
	}

	if r.OK() {
		fmt.Fprintf(w, "Verified %d VM configuration files in %s: OK.\n", r.Checked, r.Dir)
		return
	}

	fmt.Fprintf(w, "Verified %d VM configuration files in %s: %d violation(s).\n", r.Checked, r.Dir, len(r.Errors))
}

// Batch loads every record of st and checks it against cfg.
//
// The checks are those that hold for any batch generated with cfg: record count,
// contiguous ids from 1, file name matching vm_id, derived fields (name, port, serial
// prefix, disk, OpenVPN file), MAC format and prefix, password alphabet and length,
// distinct UUIDs, RAM rule and CPU model catalog membership.
func Batch(st Store, dir string, cfg generator.Config) (*Report, error) {
	entries, err := st.List()
	if err != nil {
		return nil, errors.Join(err, errListRecords)
	}

	report := &Report{Dir: dir, Checked: len(entries)}
	if abs, err := filepath.Abs(dir); err == nil {
		report.Dir = abs
	}

	if len(entries) != cfg.Count {
		report.Errors = append(report.Errors, field.Invalid(field.NewPath("count"), len(entries),
			fmt.Sprintf("expected %d records", cfg.Count)))
	}

	catalog := sets.New(cfg.CPUModels...)
	uniqueModels := len(catalog) >= len(entries)
	uuids := sets.New[string]()
	models := sets.New[string]()
	ids := make([]int, 0, len(entries))

	for _, entry := range entries {
		r := entry.Record
		p := field.NewPath(filepath.Base(entry.Path))
		ids = append(ids, r.VMID)

		if fileID, ok := st.VMIDFromPath(entry.Path); !ok || fileID != r.VMID {
			report.Errors = append(report.Errors, field.Invalid(p.Child("vm_id"), r.VMID, "does not match the file name"))
		}

		expect := func(name string, got, want any) {
			if got != want {
				report.Errors = append(report.Errors, field.Invalid(p.Child(name), got, fmt.Sprintf("expected %v", want)))
			}
		}

		expect("vm_name", r.VMName, cfg.VMNamePrefix+strconv.Itoa(r.VMID))
		expect("vnc_port_host", r.VNCPortHost, cfg.VNCBasePort+r.VMID-1)
		expect("disk_size_gb", r.DiskSizeGB, cfg.DiskSizeGB)
		expect("openvpn_config_file", r.OpenVPNConfigFile, fmt.Sprintf(cfg.OpenVPNFilePattern, r.VMID))

		report.Errors = append(report.Errors, checkMAC(p.Child("mac_address"), r.MACAddress, cfg.MACPrefix)...)

		if len(r.VNCPassword) != cfg.VNCPasswordLength || !passwordRegexp.MatchString(r.VNCPassword) {
			report.Errors = append(report.Errors, field.Invalid(p.Child("vnc_password"), "<redacted>",
				fmt.Sprintf("must be %d alphanumeric characters", cfg.VNCPasswordLength)))
		}

		if u, err := uuid.Parse(r.UUID); err != nil || u.Version() != 4 || u.String() != r.UUID {
			report.Errors = append(report.Errors, field.Invalid(p.Child("uuid"), r.UUID, "must be a canonical version 4 UUID"))
		} else if uuids.Has(r.UUID) {
			report.Errors = append(report.Errors, field.Duplicate(p.Child("uuid"), r.UUID))
		}
		uuids.Insert(r.UUID)

		serialRegexp := regexp.MustCompile(fmt.Sprintf(`^%s%04dRND[1-9][0-9]{3}$`, regexp.QuoteMeta(cfg.BIOSSerialPrefix), r.VMID))
		if !serialRegexp.MatchString(r.BIOSSerial) {
			report.Errors = append(report.Errors, field.Invalid(p.Child("bios_serial"), r.BIOSSerial,
				fmt.Sprintf("must match %s", serialRegexp)))
		}

		if catalog.Len() > 0 && !catalog.Has(r.CPUModel) {
			report.Errors = append(report.Errors, field.NotSupported(p.Child("cpu_model"), r.CPUModel, sets.List(catalog)))
		} else if uniqueModels && models.Has(r.CPUModel) {
			report.Errors = append(report.Errors, field.Duplicate(p.Child("cpu_model"), r.CPUModel))
		}
		models.Insert(r.CPUModel)

		report.Errors = append(report.Errors, checkRAM(p.Child("ram_size_mb"), r.VMID, r.RAMSizeMB, cfg)...)
	}

	slices.Sort(ids)
	for i, id := range ids {
		if id != i+1 {
			report.Errors = append(report.Errors, field.Invalid(field.NewPath("vm_id"), ids,
				"ids must be contiguous and start at 1"))
			break
		}
	}

	return report, nil
}

func checkMAC(p *field.Path, mac string, prefix net.HardwareAddr) field.ErrorList {
	hw, err := net.ParseMAC(mac)
	if err != nil || len(hw) != 6 || hw.String() != mac {
		return field.ErrorList{field.Invalid(p, mac, "must be 6 lowercase colon-separated octets")}
	}

	var errs field.ErrorList
	if !bytes.Equal(hw[:3], prefix) {
		errs = append(errs, field.Invalid(p, mac, fmt.Sprintf("must start with %s", prefix)))
	}
	if hw[3] > 0x7f {
		errs = append(errs, field.Invalid(p, mac, "fourth octet must be at most 7f"))
	}

	return errs
}

func checkRAM(p *field.Path, vmID, ram int, cfg generator.Config) field.ErrorList {
	if cfg.RAMVariantEvery > 0 && len(cfg.RAMVariantsMB) > 0 && vmID%cfg.RAMVariantEvery == 0 {
		if !slices.Contains(cfg.RAMVariantsMB, ram) {
			return field.ErrorList{field.NotSupported(p, strconv.Itoa(ram), toStrings(cfg.RAMVariantsMB))}
		}

		return nil
	}

	if ram != cfg.RAMBaselineMB {
		return field.ErrorList{field.Invalid(p, ram, fmt.Sprintf("expected %d", cfg.RAMBaselineMB))}
	}

	return nil
}

func toStrings(values []int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Itoa(v))
	}

	return out
}
