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

package state

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/status"
	"github.com/walteh/synthrc/pkg/tree"
)

// Report is the result of comparing a tree with its lock
type Report struct {
	// ManifestChanged is set when the manifest no longer matches the one the
	// lock was written for.
	ManifestChanged bool
	Tracker         *status.Tracker
}

// Drifted reports whether any recorded file was edited or removed
func (r *Report) Drifted() bool {
	return r.Tracker.Changed()
}

// Drift compares every file recorded in the lock with the tree. Files
// edited since the last run are Modified, missing ones are Deleted.
func (s *State) Drift(ctx context.Context, manifestHash string) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	if s.IsEmpty() {
		return nil, errors.Errorf("no run recorded in %s", s.path)
	}

	report := &Report{
		ManifestChanged: manifestHash != "" && manifestHash != s.file.ManifestHash,
		Tracker:         status.NewTracker(),
	}
	if report.ManifestChanged {
		logger.Info().
			Str("lock_hash", s.file.ManifestHash).
			Str("manifest_hash", manifestHash).
			Msg("manifest has changed")
	}

	for _, f := range s.file.Files {
		content, err := s.tree.ReadFile(ctx, f.Path)
		if err != nil {
			if isNotExist(err) {
				report.Tracker.Track(ctx, status.FileInfo{Path: f.Path, Status: status.StatusDeleted, Checksum: f.Checksum})
				continue
			}
			return nil, errors.Errorf("reading %s: %w", f.Path, err)
		}

		info := status.FileInfo{Path: f.Path, Status: status.StatusUnchanged, Size: int64(len(content)), Checksum: tree.Checksum(content)}
		if info.Checksum != f.Checksum {
			info.Status = status.StatusModified
		}
		report.Tracker.Track(ctx, info)
	}
	return report, nil
}
