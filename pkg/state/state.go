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
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/synthrc/pkg/status"
	"github.com/walteh/synthrc/pkg/tree"
)

const (
	// LockFile is written at the root of the patched tree.
	LockFile      = ".synthrc.lock"
	SchemaVersion = "1.0.0"
)

// runNamespace seeds the name-based run ids.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/walteh/synthrc/run"))

// Lock is the on-disk record of the last successful run
type Lock struct {
	SchemaVersion string `yaml:"schema_version"`
	RunID         string `yaml:"run_id"`

	// ManifestHash is used to detect if the lock matches the current manifest
	ManifestHash string `yaml:"manifest_hash"`

	Sources []SourceState `yaml:"sources"`
	Files   []FileState   `yaml:"files"`
}

// SourceState tracks where a source was resolved from
type SourceState struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Location string `yaml:"location"`
	Ref      string `yaml:"ref,omitempty"`
}

// FileState tracks a file written by the last run
type FileState struct {
	Path     string `yaml:"path"`
	Checksum string `yaml:"sha256"`
}

// State manages the lock file of one tree
type State struct {
	tree tree.Tree
	path string
	file Lock
}

// 🏭 New creates an empty state for t
func New(t tree.Tree) *State {
	return &State{
		tree: t,
		path: LockFile,
		file: Lock{SchemaVersion: SchemaVersion},
	}
}

// Load reads the lock file. A missing lock leaves the state clean.
func (s *State) Load(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("loading state")

	exists, err := s.tree.Exists(ctx, s.path)
	if err != nil {
		return errors.Errorf("checking lock file: %w", err)
	}
	if !exists {
		s.file = Lock{SchemaVersion: SchemaVersion}
		return nil
	}

	content, err := s.tree.ReadFile(ctx, s.path)
	if err != nil {
		return errors.Errorf("reading lock file: %w", err)
	}

	var lock Lock
	if err := yaml.Unmarshal(content, &lock); err != nil {
		return errors.Errorf("parsing %s: %w", s.path, err)
	}
	if lock.SchemaVersion != SchemaVersion {
		return errors.Errorf("unsupported lock schema version %q", lock.SchemaVersion)
	}
	s.file = lock
	return nil
}

// Save writes the lock file
func (s *State) Save(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Str("path", s.path).Str("run_id", s.file.RunID).Msg("writing state")

	content, err := yaml.Marshal(&s.file)
	if err != nil {
		return errors.Errorf("encoding lock file: %w", err)
	}
	if err := s.tree.WriteFile(ctx, s.path, content); err != nil {
		return errors.Errorf("writing lock file: %w", err)
	}
	return nil
}

// Lock returns a copy of the loaded lock
func (s *State) Lock() Lock {
	return s.file
}

// IsEmpty reports whether no run has been recorded
func (s *State) IsEmpty() bool {
	return s.file.RunID == ""
}

// Record replaces the lock contents with the result of a run. The run id is
// derived from the manifest hash, the sources and the written files, so the
// same run over the same inputs writes the same lock.
func (s *State) Record(manifestHash string, sources []SourceState, files []status.FileInfo) string {
	s.file.SchemaVersion = SchemaVersion
	s.file.ManifestHash = manifestHash

	s.file.Sources = append([]SourceState(nil), sources...)
	sort.Slice(s.file.Sources, func(i, j int) bool {
		return s.file.Sources[i].Name < s.file.Sources[j].Name
	})

	s.file.Files = make([]FileState, 0, len(files))
	for _, f := range files {
		if f.Path == s.path || f.Status == status.StatusDeleted {
			continue
		}
		s.file.Files = append(s.file.Files, FileState{Path: f.Path, Checksum: f.Checksum})
	}
	sort.Slice(s.file.Files, func(i, j int) bool {
		return s.file.Files[i].Path < s.file.Files[j].Path
	})

	s.file.RunID = runID(s.file).String()
	return s.file.RunID
}

func runID(lock Lock) uuid.UUID {
	var b strings.Builder
	fmt.Fprintf(&b, "manifest %s\n", lock.ManifestHash)
	for _, src := range lock.Sources {
		fmt.Fprintf(&b, "source %s %s %s %s\n", src.Name, src.Kind, src.Location, src.Ref)
	}
	for _, f := range lock.Files {
		fmt.Fprintf(&b, "file %s %s\n", f.Path, f.Checksum)
	}
	return uuid.NewSHA1(runNamespace, []byte(b.String()))
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
