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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/cmd/synthrc/opts"
	"github.com/walteh/synthrc/pkg/synth"
)

// ErrDrift is returned when the tree no longer matches the last run
var ErrDrift = errors.New("tree drifted from the last run")

// NewStatusCmd creates a new status command
func NewStatusCmd(root *opts.RootOpts) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the tree against the last run",
		Long: `Status compares every file recorded in the lock file with the tree.
Edited and removed files are listed on stdout, every recorded file with
--verbose. It exits non-zero when a file drifted since the last run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := synth.Status(cmd.Context(), root.SynthOptions())
			if err != nil {
				return errors.Errorf("checking status: %w", err)
			}
			report.Tracker.Print(cmd.OutOrStdout(), verbose)
			if report.Drifted() {
				return ErrDrift
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list unchanged files too")

	return cmd
}
