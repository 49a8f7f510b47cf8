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
	"fmt"
	"os"

	"github.com/alexandremahdhaoui/vmident/internal/util/gracefulshutdown"
	"github.com/alexandremahdhaoui/vmident/internal/util/logging"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Name             = "vmident"
	EnvPrefix        = "VMIDENT"
	ConfigPathEnvKey = "VMIDENT_CONFIG_PATH"
)

var (
	Version        = "dev" //nolint:gochecknoglobals // set by ldflags
	CommitSHA      = "n/a" //nolint:gochecknoglobals // set by ldflags
	BuildTimestamp = "n/a" //nolint:gochecknoglobals // set by ldflags
)

var errLogLevel = errors.New("invalid --log-level")

// ------------------------------------------------- Main ----------------------------------------------------------- //

func main() {
	gracefulshutdown.New(Name).Run(func(ctx context.Context) int {
		if err := newRootCommand().ExecuteContext(ctx); err != nil {
			return 1
		}

		return 0
	})
}

// app holds the state shared by the commands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	// flags is the target of every flag. Only the flags that were set are copied
	// onto cfg, on top of the config file.
	flags *Config
	cfg   *Config
	log   logr.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{
		v:     newViper(),
		flags: NewDefaultConfig(),
		log:   logr.Discard(),
	}

	cmd := &cobra.Command{
		Use:          Name,
		Short:        "Generate batches of unique virtual-machine identities",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return a.resolve(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return c.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, configFlag, "",
		fmt.Sprintf("Path to a YAML config file. Defaults to $%s.", ConfigPathEnvKey))
	addLoggingFlags(cmd.PersistentFlags(), a.flags)

	cmd.AddCommand(newGenerateCommand(a))
	cmd.AddCommand(newVerifyCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// resolve builds the effective configuration of c: defaults, then the config file,
// then the environment, then the command line.
func (a *app) resolve(c *cobra.Command) error {
	if err := bindFlagsToViper(a.v, c.Flags()); err != nil {
		return err
	}

	path := a.configPath
	if path == "" {
		path = os.Getenv(ConfigPathEnvKey)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	if err := applyChangedFlags(c.Flags(), cfg, addLoggingFlags, addBatchFlags, addGenerateFlags); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return errors.Join(err, errLogLevel)
	}

	a.log = logging.Setup(logging.Options{
		Development: cfg.Logging.Development,
		Level:       level,
		Output:      c.ErrOrStderr(),
	}).WithName(Name)
	a.cfg = cfg

	a.log.V(1).Info("configuration resolved", "configPath", path, "command", c.Name())

	return nil
}
