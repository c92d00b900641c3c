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

package status

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/tree"
)

// 📊 FileStatus represents the current state of a file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // File doesn't exist in the tree yet
	StatusModified             // File exists but content differs
	StatusUnchanged            // File exists and content matches
	StatusDeleted              // File recorded in the lock is gone
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a file
type FileInfo struct {
	Path     string     // Relative path to the file
	Status   FileStatus // Current status
	Size     int64      // File size in bytes
	Checksum string     // Content hash for diff detection
}

// 📈 Tracker records what happened to each file during a run
type Tracker struct {
	formatter FileFormatter

	mu    sync.RWMutex
	files map[string]FileInfo
}

// 🏭 NewTracker creates a new tracker
func NewTracker() *Tracker {
	return &Tracker{
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// FromOverlay classifies every file written through o. It must be called
// before the overlay is committed.
func FromOverlay(ctx context.Context, o *tree.Overlay) (*Tracker, error) {
	changes, err := o.Changes(ctx)
	if err != nil {
		return nil, errors.Errorf("collecting changes: %w", err)
	}

	t := NewTracker()
	changed := make(map[string]bool, len(changes))
	for _, c := range changes {
		st := StatusModified
		if c.IsNew() {
			st = StatusNew
		}
		changed[c.Path] = true
		t.Track(ctx, FileInfo{Path: c.Path, Status: st, Size: int64(len(c.New)), Checksum: tree.Checksum(c.New)})
	}

	for _, p := range o.Written() {
		if changed[p] {
			continue
		}
		content, err := o.ReadFile(ctx, p)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", p, err)
		}
		t.Track(ctx, FileInfo{Path: p, Status: StatusUnchanged, Size: int64(len(content)), Checksum: tree.Checksum(content)})
	}
	return t, nil
}

// Track records info, replacing any earlier entry for the same path.
func (t *Tracker) Track(ctx context.Context, info FileInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files[info.Path] = info
	zerolog.Ctx(ctx).Debug().
		Str("path", info.Path).
		Str("status", info.Status.String()).
		Msg(t.formatter.FormatFileOperation(info))
}

func (t *Tracker) Get(path string) (FileInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.files[path]
	return info, ok
}

// List returns every tracked file sorted by path.
func (t *Tracker) List() []FileInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	files := make([]FileInfo, 0, len(t.files))
	for _, info := range t.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// Counts tallies tracked files by status.
func (t *Tracker) Counts() map[FileStatus]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[FileStatus]int)
	for _, info := range t.files {
		counts[info.Status]++
	}
	return counts
}

// Changed reports whether any tracked file is not unchanged.
func (t *Tracker) Changed() bool {
	for st, n := range t.Counts() {
		if st != StatusUnchanged && n > 0 {
			return true
		}
	}
	return false
}

// Summary is a one line tally for the end of a run.
func (t *Tracker) Summary() string {
	return t.formatter.FormatSummary(t.Counts())
}
