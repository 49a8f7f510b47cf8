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
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of " + Name,
		Args:  cobra.NoArgs,
		// Does not read the configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(c *cobra.Command, _ []string) error {
			long, err := c.Flags().GetBool("long")
			if err != nil {
				return err
			}

			if long {
				fmt.Fprintf(c.OutOrStdout(), "%s\n  Version:        %s\n  CommitSHA:      %s\n  BuildTimestamp: %s\n",
					Name, Version, CommitSHA, BuildTimestamp)

				return nil
			}

			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", Name, Version)

			return nil
		},
	}

	_ = cmd.Flags().Bool("long", false, "Print long version information")

	return cmd
}
