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

// Package identity synthesizes the randomized attributes of a virtual-machine
// identity: hardware address, firmware serial, display credential and the pool of
// processor-model labels assigned across a batch.
//
// Every synthesizer reads from an explicit random.Source and keeps no state
// between calls.
package identity

import "errors"

var (
	// ErrInvalidMACPrefix is returned when the vendor prefix is not exactly 3 bytes.
	ErrInvalidMACPrefix = errors.New("MAC vendor prefix must be 3 bytes")

	// ErrInvalidPasswordLength is returned when a credential of length <= 0 is requested.
	ErrInvalidPasswordLength = errors.New("password length must be greater than 0")

	// ErrEmptyCatalog is returned when a non-empty pool is requested from an empty catalog.
	ErrEmptyCatalog = errors.New("cpu model catalog is empty")

	// ErrInvalidCount is returned when a negative pool size is requested.
	ErrInvalidCount = errors.New("count must not be negative")
)

// DefaultCPUModels is the catalog of QEMU x86_64 CPU models (see
// `qemu-system-x86_64 -cpu help`) used to diversify guests.
var DefaultCPUModels = []string{
	"Nehalem-IBRS", "Westmere-IBRS", "SandyBridge-IBRS", "IvyBridge-IBRS",
	"Haswell-noTSX-IBRS", "Broadwell-noTSX-IBRS", "Skylake-Client-IBRS",
	"Cascadelake-Server-noTSX", "EPYC-IBPB", "EPYC-Rome", "EPYC-Milan",
	"athlon", "phenom", "Opteron_G1", "Opteron_G2", "Opteron_G3", "Opteron_G4", "Opteron_G5",
	"kvm64", "qemu64", "max",
}
