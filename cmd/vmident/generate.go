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
	"context"
	"errors"
	"io"
	"time"

	"github.com/alexandremahdhaoui/vmident/internal/generator"
	"github.com/alexandremahdhaoui/vmident/internal/metrics"
	"github.com/docker/go-units"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one identity record per VM",
		Long: `Write one identity record per VM into the output directory.

Every record holds a VM id and name, a MAC address, a VNC port and password, a UUID,
a BIOS serial, a CPU model, memory and disk sizes and an OpenVPN config file name.
Existing files with the same names are overwritten; other files are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runGenerate(c.Context(), a.cfg, c.OutOrStdout(), a.log)
		},
	}

	addBatchFlags(cmd.Flags(), a.flags)
	addGenerateFlags(cmd.Flags(), a.flags)

	return cmd
}

func runGenerate(ctx context.Context, cfg *Config, out io.Writer, log logr.Logger) error {
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return err
	}

	src, err := cfg.RandomSource()
	if err != nil {
		return err
	}

	g, err := generator.New(genCfg, src,
		generator.WithOutput(out),
		generator.WithLogger(log.WithName("generator")),
		generator.WithRenderers(cfg.Renderers()...),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, runErr := g.Run(ctx)

	if cfg.MetricsTextfile != "" {
		recorder := metrics.NewRecorder()
		recorder.ObserveRun(recordsWritten(summary, runErr, genCfg.OnFailure), time.Since(start), runErr)

		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error(err, "writing metrics", "path", cfg.MetricsTextfile)
		}
	}

	if runErr != nil {
		return runErr
	}

	log.Info("batch generated",
		"count", summary.Count,
		"files", len(summary.Files),
		"outputDir", summary.OutputDir,
		"totalRAM", units.BytesSize(float64(summary.TotalRAMMB)*units.MiB),
		"duration", summary.Duration.String(),
	)

	return nil
}

// recordsWritten returns the number of records left on disk by a run.
func recordsWritten(summary *generator.Summary, err error, policy generator.FailurePolicy) int {
	if summary != nil {
		return summary.Count
	}

	var recordErr *generator.RecordError
	if policy == generator.FailurePolicyKeep && errors.As(err, &recordErr) {
		return recordErr.VMID - 1
	}

	return 0
}
