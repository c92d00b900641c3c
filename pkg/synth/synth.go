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

package synth

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/log"
	"github.com/walteh/synthrc/pkg/operation"
	"github.com/walteh/synthrc/pkg/provider"
	_ "github.com/walteh/synthrc/pkg/provider/github"
	"github.com/walteh/synthrc/pkg/state"
	"github.com/walteh/synthrc/pkg/status"
	"github.com/walteh/synthrc/pkg/tree"
)

// Options configure a run
type Options struct {
	// ManifestPath defaults to config.DefaultFile.
	ManifestPath string
	// Dir is the tree to patch. It defaults to the manifest's directory.
	Dir string
	// Overrides replace declared sources with local directories by name.
	Overrides map[string]string
	// DryRun prints a diff instead of writing.
	DryRun   bool
	CacheDir string
	// Diff receives the unified diff of a dry run.
	Diff io.Writer
	// Log receives user-facing progress. Nil discards it.
	Log *log.Logger
}

// Result describes a finished run
type Result struct {
	RunID   string
	Steps   int
	Tracker *status.Tracker
}

func (o Options) logger(ctx context.Context) *log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.New(io.Discard, *zerolog.Ctx(ctx))
}

func (o Options) manifestPath() string {
	if o.ManifestPath == "" {
		return config.DefaultFile
	}
	return o.ManifestPath
}

func (o Options) dir(m *config.Manifest) string {
	if o.Dir == "" {
		return m.Dir()
	}
	return o.Dir
}

func (o Options) cacheDir() string {
	if o.CacheDir != "" {
		return o.CacheDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "synthrc")
	}
	return filepath.Join(os.TempDir(), "synthrc")
}

// 🏃 Run applies the manifest to the tree. Nothing is written unless every
// step succeeds.
func Run(ctx context.Context, opts Options) (*Result, error) {
	ulog := opts.logger(ctx)

	m, err := config.Load(ctx, opts.manifestPath())
	if err != nil {
		return nil, errors.Errorf("loading manifest: %w", err)
	}

	disk, err := tree.NewDisk(opts.dir(m))
	if err != nil {
		return nil, errors.Errorf("opening tree: %w", err)
	}
	ulog.Header(disk.Root())

	st := state.New(disk)
	if err := st.Load(ctx); err != nil {
		return nil, errors.Errorf("loading state: %w", err)
	}
	if !st.IsEmpty() {
		warnDrift(ctx, ulog, st)
	}

	resolved, err := provider.Resolve(ctx, m, opts.Overrides, provider.Options{BaseDir: m.Dir(), CacheDir: opts.cacheDir()})
	if err != nil {
		return nil, errors.Errorf("resolving sources: %w", err)
	}

	ops, err := operation.Build(ctx, m, provider.Trees(resolved))
	if err != nil {
		return nil, errors.Errorf("building operations: %w", err)
	}

	overlay := tree.NewOverlay(disk)
	runner := operation.NewRunner(ops)
	runner.OnStep = func(ctx context.Context, index, total int, op operation.Operation) {
		ulog.Step(index, total, op.Describe())
	}
	if err := runner.Run(ctx, overlay); err != nil {
		ulog.Error(err.Error())
		return nil, err
	}

	tracker, err := status.FromOverlay(ctx, overlay)
	if err != nil {
		return nil, errors.Errorf("tracking changes: %w", err)
	}
	for _, info := range tracker.List() {
		if info.Status != status.StatusUnchanged {
			ulog.File(info)
		}
	}

	result := &Result{Steps: len(ops), Tracker: tracker}
	if opts.DryRun {
		if opts.Diff != nil {
			if err := overlay.Diff(ctx, opts.Diff); err != nil {
				return nil, errors.Errorf("writing diff: %w", err)
			}
		}
		ulog.Info("dry run, nothing written")
		ulog.Success(tracker.Summary())
		return result, nil
	}

	if _, err := overlay.Commit(ctx); err != nil {
		return nil, errors.Errorf("committing changes: %w", err)
	}

	result.RunID = st.Record(m.Hash(), sourceStates(resolved), tracker.List())
	if err := st.Save(ctx); err != nil {
		return nil, errors.Errorf("saving state: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("run_id", result.RunID).Int("steps", len(ops)).Msg("run complete")
	ulog.Success(tracker.Summary())
	return result, nil
}

func warnDrift(ctx context.Context, ulog *log.Logger, st *state.State) {
	report, err := st.Drift(ctx, "")
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("skipping drift check")
		return
	}
	for _, info := range report.Tracker.List() {
		if info.Status == status.StatusModified {
			ulog.Warningf("%s was edited since the last run and will be regenerated", info.Path)
		}
	}
}

func sourceStates(resolved map[string]*provider.Resolved) []state.SourceState {
	out := make([]state.SourceState, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, state.SourceState{Name: r.Name, Kind: r.Kind, Location: r.Location, Ref: r.Ref})
	}
	return out
}
