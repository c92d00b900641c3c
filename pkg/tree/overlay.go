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

package tree

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/diff"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📑 Overlay buffers writes in memory on top of a base tree. Nothing reaches
// the base until Commit.
type Overlay struct {
	base  Tree
	files map[string][]byte
}

var _ Tree = (*Overlay)(nil)

// 🏭 NewOverlay creates an overlay over base
func NewOverlay(base Tree) *Overlay {
	return &Overlay{
		base:  base,
		files: make(map[string][]byte),
	}
}

// 📄 Change is a file whose overlay content differs from the base.
type Change struct {
	Path string
	Old  []byte // nil when the file is new
	New  []byte
}

// IsNew reports whether the file did not exist in the base.
func (c Change) IsNew() bool {
	return c.Old == nil
}

func (o *Overlay) Root() string {
	return o.base.Root()
}

func (o *Overlay) ReadFile(ctx context.Context, name string) ([]byte, error) {
	cleaned, err := Clean(name)
	if err != nil {
		return nil, err
	}
	if content, ok := o.files[cleaned]; ok {
		return bytes.Clone(content), nil
	}
	return o.base.ReadFile(ctx, cleaned)
}

func (o *Overlay) WriteFile(ctx context.Context, name string, content []byte) error {
	cleaned, err := Clean(name)
	if err != nil {
		return err
	}
	o.files[cleaned] = bytes.Clone(content)
	return nil
}

func (o *Overlay) Exists(ctx context.Context, name string) (bool, error) {
	cleaned, err := Clean(name)
	if err != nil {
		return false, err
	}
	if _, ok := o.files[cleaned]; ok {
		return true, nil
	}
	return o.base.Exists(ctx, cleaned)
}

func (o *Overlay) Glob(ctx context.Context, pattern string) ([]string, error) {
	matches, err := o.base.Glob(ctx, pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m] = true
	}
	for name := range o.files {
		if seen[name] {
			continue
		}
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, errors.Errorf("matching %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, name)
			seen[name] = true
		}
	}

	sort.Strings(matches)
	return matches, nil
}

// Changes returns the buffered files that differ from the base, sorted by
// path.
func (o *Overlay) Changes(ctx context.Context) ([]Change, error) {
	names := make([]string, 0, len(o.files))
	for name := range o.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []Change
	for _, name := range names {
		content := o.files[name]
		exists, err := o.base.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			changes = append(changes, Change{Path: name, New: content})
			continue
		}
		old, err := o.base.ReadFile(ctx, name)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(old, content) {
			continue
		}
		changes = append(changes, Change{Path: name, Old: old, New: content})
	}
	return changes, nil
}

// Written returns every path written through the overlay, sorted.
func (o *Overlay) Written() []string {
	names := make([]string, 0, len(o.files))
	for name := range o.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 💾 Commit writes all changed files to the base tree and clears the overlay.
func (o *Overlay) Commit(ctx context.Context) ([]Change, error) {
	changes, err := o.Changes(ctx)
	if err != nil {
		return nil, errors.Errorf("collecting changes: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	for _, c := range changes {
		if err := o.base.WriteFile(ctx, c.Path, c.New); err != nil {
			return nil, errors.Errorf("writing %s: %w", c.Path, err)
		}
		logger.Debug().Str("path", c.Path).Bool("new", c.IsNew()).Msg("committed file")
	}

	o.files = make(map[string][]byte)
	return changes, nil
}

// Diff writes a unified diff of every change to w.
func (o *Overlay) Diff(ctx context.Context, w io.Writer) error {
	changes, err := o.Changes(ctx)
	if err != nil {
		return errors.Errorf("collecting changes: %w", err)
	}
	for _, c := range changes {
		oldName := "a/" + c.Path
		if c.IsNew() {
			oldName = "/dev/null"
		}
		if err := diff.Text(oldName, "b/"+c.Path, string(c.Old), string(c.New), w); err != nil {
			return errors.Errorf("diffing %s: %w", c.Path, err)
		}
	}
	return nil
}
