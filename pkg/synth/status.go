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

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/state"
	"github.com/walteh/synthrc/pkg/status"
	"github.com/walteh/synthrc/pkg/tree"
)

// 🔍 Status compares the tree with the lock written by the last run. The
// per-file result is left to the caller in the report's tracker.
func Status(ctx context.Context, opts Options) (*state.Report, error) {
	ulog := opts.logger(ctx)

	m, err := config.Load(ctx, opts.manifestPath())
	if err != nil {
		return nil, errors.Errorf("loading manifest: %w", err)
	}

	disk, err := tree.NewDisk(opts.dir(m))
	if err != nil {
		return nil, errors.Errorf("opening tree: %w", err)
	}

	st := state.New(disk)
	if err := st.Load(ctx); err != nil {
		return nil, errors.Errorf("loading state: %w", err)
	}

	report, err := st.Drift(ctx, m.Hash())
	if err != nil {
		return nil, err
	}

	if report.ManifestChanged {
		ulog.Warning("manifest changed since the last run")
	}
	if report.Drifted() {
		ulog.Warningf("%d files drifted from the last run", len(report.Tracker.List())-report.Tracker.Counts()[status.StatusUnchanged])
	} else {
		ulog.Success("tree matches the last run")
	}
	return report, nil
}
