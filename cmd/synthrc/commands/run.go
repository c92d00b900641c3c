// Copyright 2025 walteh LLC
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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/synthrc/cmd/synthrc/opts"
	"github.com/walteh/synthrc/pkg/log"
	"github.com/walteh/synthrc/pkg/synth"
)

// NewRunCmd creates a new run command
func NewRunCmd(root *opts.RootOpts) *cobra.Command {
	var (
		sources map[string]string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply the manifest to the working tree",
		Long: `Run resolves every source, applies each step in order and writes the
result only if all of them succeed. It will:
1. Load and validate the manifest
2. Fetch git, github and archive sources into the cache
3. Apply copy, replace and rename steps to an in-memory view of the tree
4. Write the changed files and the lock file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := root.SynthOptions()
			o.Overrides = sources
			o.DryRun = dryRun
			o.Diff = cmd.OutOrStdout()
			if dryRun {
				// stdout carries only the diff
				o.Log = log.New(cmd.ErrOrStderr(), *zerolog.Ctx(cmd.Context()))
			}

			_, err := synth.Run(cmd.Context(), o)
			return err
		},
	}

	cmd.Flags().StringToStringVar(&sources, "source", nil, "use a local directory for a source (name=dir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print a diff on stdout instead of writing, progress goes to stderr")

	return cmd
}
