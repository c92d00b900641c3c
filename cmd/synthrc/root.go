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

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/walteh/synthrc/cmd/synthrc/commands"
	"github.com/walteh/synthrc/cmd/synthrc/opts"
	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/log"
)

// newRootCmd wires every command to a shared set of options
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "synthrc",
		Short: "Patch generated client libraries with an ordered manifest",
		Long: `synthrc copies generated source trees into a repository and applies an
ordered list of text substitutions to them. Runs are all or nothing: a
failing step leaves the repository untouched.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zlog := log.NewZerolog(stderr, root.Debug)
			root.Logger = log.New(stdout, zlog)

			ctx := zlog.WithContext(cmd.Context())
			ctx = log.NewContext(ctx, root.Logger)
			cmd.SetContext(ctx)
		},
	}

	addRootFlags(cmd, root)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(
		commands.NewRunCmd(root),
		commands.NewStatusCmd(root),
		newVersionCmd(),
	)
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, root *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&root.ManifestPath, "config", "c", config.DefaultFile, "manifest file path")
	cmd.PersistentFlags().StringVar(&root.Dir, "dir", "", "tree to patch (default: the manifest's directory)")
	cmd.PersistentFlags().StringVar(&root.CacheDir, "cache-dir", "", "directory for fetched sources")
	cmd.PersistentFlags().BoolVarP(&root.Debug, "debug", "d", false, "enable debug logging")
}
