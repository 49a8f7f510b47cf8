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

// Package generator synthesizes a batch of VM identities and persists one record
// per VM.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexandremahdhaoui/vmident/internal/artifact"
	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/alexandremahdhaoui/vmident/internal/types"
	"github.com/alexandremahdhaoui/vmident/pkg/identity"
	"github.com/alexandremahdhaoui/vmident/pkg/random"
	"github.com/go-logr/logr"
)

var (
	// ErrInvariant is returned when the CPU model pool does not hold exactly one
	// label per VM. No file is written in that case.
	ErrInvariant = errors.New("cpu model pool size does not match the number of VMs")

	errInvalidConfig = errors.New("invalid generator configuration")
	errPrepareStore  = errors.New("failed to prepare output directory")
	errBuildPool     = errors.New("failed to build cpu model pool")
	errSynthesize    = errors.New("failed to synthesize identity")
	errRenderFile    = errors.New("failed to render artifact")
	errRollback      = errors.New("failed to roll back written files")
	errResolveDir    = errors.New("failed to resolve output directory")
)

// RecordError is returned when the batch aborts while producing the record of VMID.
type RecordError struct {
	VMID int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("vm_id=%d: %s", e.VMID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Summary describes a completed batch.
type Summary struct {
	// Count is the number of records written.
	Count int
	// OutputDir is the absolute path of the output directory.
	OutputDir string
	// Files lists every file written, records and artifacts, in write order.
	Files []string
	// TotalRAMMB is the sum of ram_size_mb over the batch.
	TotalRAMMB int
	Duration   time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithStore replaces the file store derived from the Config.
func WithStore(st store.Store) Option {
	return func(g *Generator) {
		g.store = st
	}
}

// WithRenderers adds artifact renderers. Each renderer writes one extra file per VM.
func WithRenderers(renderers ...artifact.Renderer) Option {
	return func(g *Generator) {
		g.renderers = append(g.renderers, renderers...)
	}
}

// WithOutput sets where the progress lines and the final summary line are printed.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(g *Generator) {
		g.out = w
	}
}

// WithLogger sets the structured logger. Defaults to logr.Discard().
func WithLogger(log logr.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// PoolFunc builds the CPU model pool of a batch of n VMs.
type PoolFunc func(src random.Source, catalog []string, n int) ([]string, error)

// WithPoolFunc replaces identity.CPUModelPool.
func WithPoolFunc(fn PoolFunc) Option {
	return func(g *Generator) {
		g.pool = fn
	}
}

// Generator produces one batch of identities.
type Generator struct {
	cfg       Config
	src       random.Source
	store     store.Store
	pool      PoolFunc
	renderers []artifact.Renderer
	out       io.Writer
	log       logr.Logger
}

// New validates cfg and returns a Generator reading its randomness from src.
func New(cfg Config, src random.Source, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(err, errInvalidConfig)
	}

	g := &Generator{
		cfg:  cfg,
		src:  src,
		pool: identity.CPUModelPool,
		out:  os.Stdout,
		log:  logr.Discard(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.store == nil {
		codec, err := store.NewCodec(cfg.Format)
		if err != nil {
			return nil, errors.Join(err, errInvalidConfig)
		}

		g.store = store.NewFileStore(cfg.OutputDir, cfg.FileNamePrefix, codec)
	}

	return g, nil
}

// Run generates the batch: vm ids 1..Count, in order, one record file each.
//
// The first failure aborts the batch. The returned error is a *RecordError naming
// the VM id, and the files already written are kept or removed according to
// Config.OnFailure. Run stops between records when ctx is done.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := g.store.Init(); err != nil {
		return nil, errors.Join(err, errPrepareStore)
	}

	outputDir, err := filepath.Abs(g.store.Dir())
	if err != nil {
		return nil, errors.Join(err, errResolveDir)
	}

	pool, err := g.pool(g.src, g.cfg.CPUModels, g.cfg.Count)
	if err != nil {
		return nil, errors.Join(err, errBuildPool)
	}

	if len(pool) != g.cfg.Count {
		return nil, fmt.Errorf("%w: got %d labels for %d VMs", ErrInvariant, len(pool), g.cfg.Count)
	}

	summary := &Summary{OutputDir: outputDir}

	g.log.Info("generating batch", "count", g.cfg.Count, "outputDir", outputDir, "onFailure", g.cfg.OnFailure)

	for vmID := 1; vmID <= g.cfg.Count; vmID++ {
		if err := ctx.Err(); err != nil {
			return nil, g.abort(vmID, err, summary.Files)
		}

		record, err := g.synthesize(vmID, pool[vmID-1])
		if err != nil {
			return nil, g.abort(vmID, errors.Join(err, errSynthesize), summary.Files)
		}

		path, err := g.store.Save(record)
		if err != nil {
			return nil, g.abort(vmID, err, summary.Files)
		}

		summary.Files = append(summary.Files, path)

		for _, r := range g.renderers {
			data, err := r.Render(record)
			if err != nil {
				return nil, g.abort(vmID, errors.Join(err, fmt.Errorf("%w: %s", errRenderFile, r.Name())), summary.Files)
			}

			artifactPath, err := g.store.SaveArtifact(vmID, r.Ext(), data)
			if err != nil {
				return nil, g.abort(vmID, err, summary.Files)
			}

			summary.Files = append(summary.Files, artifactPath)
		}

		summary.Count++
		summary.TotalRAMMB += record.RAMSizeMB

		g.log.V(1).Info("record written", "vmID", vmID, "path", path, "cpuModel", record.CPUModel)
		fmt.Fprintf(g.out, "Generated config for %s at %s\n", record.VMName, path)
	}

	summary.Duration = time.Since(start)

	fmt.Fprintf(g.out, "\nSuccessfully generated %d VM configuration files in %s.\n", summary.Count, summary.OutputDir)

	return summary, nil
}

func (g *Generator) synthesize(vmID int, cpuModel string) (*types.Identity, error) {
	mac, err := identity.MACAddress(g.src, g.cfg.MACPrefix)
	if err != nil {
		return nil, err
	}

	password, err := identity.VNCPassword(g.src, g.cfg.VNCPasswordLength)
	if err != nil {
		return nil, err
	}

	id, err := g.src.UUID()
	if err != nil {
		return nil, err
	}

	return &types.Identity{
		VMID:              vmID,
		VMName:            g.cfg.VMNamePrefix + strconv.Itoa(vmID),
		MACAddress:        mac,
		VNCPortHost:       g.cfg.VNCBasePort + vmID - 1,
		VNCPassword:       password,
		UUID:              id.String(),
		BIOSSerial:        identity.BIOSSerial(g.src, g.cfg.BIOSSerialPrefix, vmID),
		CPUModel:          cpuModel,
		RAMSizeMB:         g.ramSizeMB(vmID),
		DiskSizeGB:        g.cfg.DiskSizeGB,
		OpenVPNConfigFile: fmt.Sprintf(g.cfg.OpenVPNFilePattern, vmID),
	}, nil
}

// ramSizeMB returns the baseline, except for every RAMVariantEvery-th VM which gets
// one of the variants.
func (g *Generator) ramSizeMB(vmID int) int {
	if len(g.cfg.RAMVariantsMB) > 0 && vmID%g.cfg.RAMVariantEvery == 0 {
		return random.Pick(g.src, g.cfg.RAMVariantsMB)
	}

	return g.cfg.RAMBaselineMB
}

// abort wraps cause with the failing vm id and applies the failure policy to the
// files written so far.
func (g *Generator) abort(vmID int, cause error, written []string) error {
	err := &RecordError{VMID: vmID, Err: cause}

	g.log.Error(cause, "batch aborted", "vmID", vmID, "written", len(written), "onFailure", g.cfg.OnFailure)

	if g.cfg.OnFailure != FailurePolicyRollback {
		return err
	}

	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		if rmErr := g.store.Remove(written[i]); rmErr != nil {
			errs = append(errs, rmErr)
		}
	}

	if len(errs) > 0 {
		return errors.Join(err, errors.Join(errs...), errRollback)
	}

	g.log.Info("rolled back written files", "count", len(written))

	return err
}
