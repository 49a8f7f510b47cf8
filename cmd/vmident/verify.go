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
	"io"

	"github.com/alexandremahdhaoui/vmident/internal/store"
	"github.com/alexandremahdhaoui/vmident/internal/verify"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("batch verification failed")

func newVerifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a generated batch against the batch settings",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runVerify(a.cfg, c.OutOrStdout(), a.log)
		},
	}

	addBatchFlags(cmd.Flags(), a.flags)

	return cmd
}

func runVerify(cfg *Config, out io.Writer, log logr.Logger) error {
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return err
	}

	if err := genCfg.Validate(); err != nil {
		return err
	}

	codec, err := store.NewCodec(genCfg.Format)
	if err != nil {
		return err
	}

	st := store.NewFileStore(genCfg.OutputDir, genCfg.FileNamePrefix, codec)

	report, err := verify.Batch(st, genCfg.OutputDir, genCfg)
	if err != nil {
		return err
	}

	report.Print(out)

	if !report.OK() {
		return fmt.Errorf("%w: %d violation(s)", errVerifyFailed, len(report.Errors))
	}

	log.V(1).Info("batch verified", "dir", report.Dir, "records", report.Checked)

	return nil
}
