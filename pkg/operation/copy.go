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

package operation

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/merge"
	"github.com/walteh/synthrc/pkg/tree"
)

// 📦 Copy copies a file, directory or glob out of a source tree
type Copy struct {
	SourceName string
	Source     tree.Tree
	Path       string   // file, directory or doublestar glob inside Source
	To         string   // destination; defaults to the static base of Path
	Excludes   []string // doublestar patterns relative to the source root
	MergeName  string
	Merge      merge.Func // nil overwrites
	Label      string
}

var _ Operation = (*Copy)(nil)

func (c *Copy) Describe() string {
	if c.Label != "" {
		return c.Label
	}
	if c.To != "" {
		return fmt.Sprintf("copy %s:%s -> %s", c.SourceName, c.Path, c.To)
	}
	return fmt.Sprintf("copy %s:%s", c.SourceName, c.Path)
}

// 🏃 Execute runs the copy operation
func (c *Copy) Execute(ctx context.Context, t tree.Tree) error {
	logger := zerolog.Ctx(ctx)

	files, base, single, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	copied := 0
	for _, file := range files {
		if c.shouldExclude(ctx, file) {
			continue
		}

		dest := c.destination(file, base, single)
		if err := c.copyFile(ctx, t, file, dest); err != nil {
			return err
		}
		copied++
	}

	logger.Debug().
		Str("source", c.SourceName).
		Str("path", c.Path).
		Int("files", copied).
		Msg("copied files")
	return nil
}

// resolve lists the source files Path refers to and the base their
// destination paths are computed from.
func (c *Copy) resolve(ctx context.Context) (files []string, base string, single bool, err error) {
	p, err := tree.Clean(c.Path)
	if err != nil {
		return nil, "", false, errors.Errorf("copy path: %w", err)
	}

	switch {
	case p == ".":
		base = "."
		files, err = c.Source.Glob(ctx, "**")
	case hasMeta(p):
		base, _ = doublestar.SplitPattern(p)
		files, err = c.Source.Glob(ctx, p)
	default:
		exists, existsErr := c.Source.Exists(ctx, p)
		if existsErr != nil {
			return nil, "", false, errors.Errorf("checking %s: %w", p, existsErr)
		}
		if exists {
			return []string{p}, p, true, nil
		}
		base = p
		files, err = c.Source.Glob(ctx, p+"/**")
	}
	if err != nil {
		return nil, "", false, errors.Errorf("listing %s: %w", p, err)
	}
	if len(files) == 0 {
		return nil, "", false, errors.WithStack(&NotFoundError{Source: c.SourceName, Path: c.Path})
	}
	return files, base, false, nil
}

func (c *Copy) destination(file, base string, single bool) string {
	if single {
		if c.To != "" {
			return c.To
		}
		return file
	}

	rel := file
	if base != "." {
		rel = strings.TrimPrefix(file, base+"/")
	}
	to := c.To
	if to == "" {
		to = base
	}
	return path.Join(to, rel)
}

func (c *Copy) copyFile(ctx context.Context, t tree.Tree, file, dest string) error {
	logger := zerolog.Ctx(ctx)

	content, err := c.Source.ReadFile(ctx, file)
	if err != nil {
		return errors.Errorf("reading %s:%s: %w", c.SourceName, file, err)
	}

	if c.Merge != nil {
		exists, err := t.Exists(ctx, dest)
		if err != nil {
			return errors.Errorf("checking %s: %w", dest, err)
		}
		if exists {
			existing, err := t.ReadFile(ctx, dest)
			if err != nil {
				return errors.Errorf("reading %s: %w", dest, err)
			}
			content, err = c.Merge(ctx, dest, existing, content)
			if err != nil {
				var conflict *merge.ConflictError
				if errors.As(err, &conflict) {
					return errors.WithStack(&MergeConflictError{Path: dest, Reason: conflict.Reason})
				}
				return errors.Errorf("merging %s with %s: %w", dest, c.MergeName, err)
			}
			logger.Debug().Str("path", dest).Str("merge", c.MergeName).Msg("merged file")
		}
	}

	if err := t.WriteFile(ctx, dest, content); err != nil {
		return errors.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// 🔍 shouldExclude checks if a source file matches an exclude pattern
func (c *Copy) shouldExclude(ctx context.Context, file string) bool {
	for _, pattern := range c.Excludes {
		if doublestar.MatchUnvalidated(pattern, file) {
			zerolog.Ctx(ctx).Debug().Str("file", file).Str("pattern", pattern).Msg("file excluded by pattern")
			return true
		}
	}
	return false
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{\\")
}
