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
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/text"
	"github.com/walteh/synthrc/pkg/tree"
)

// 🔄 Replace substitutes every match of its rules in the files its globs
// select. Rules apply in order, each seeing the previous one's output.
type Replace struct {
	Files []string // doublestar patterns relative to the tree root
	Rules []text.ReplacementRule
	Label string
}

var _ Operation = (*Replace)(nil)

func (r *Replace) Describe() string {
	if r.Label != "" {
		return r.Label
	}
	patterns := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		patterns = append(patterns, fmt.Sprintf("%q", rule.Pattern.String()))
	}
	return fmt.Sprintf("replace %s in %s", strings.Join(patterns, ", "), strings.Join(r.Files, ", "))
}

// 🏃 Execute runs the replacement. No matching files is not an error.
func (r *Replace) Execute(ctx context.Context, t tree.Tree) error {
	logger := zerolog.Ctx(ctx)

	files, err := expandFiles(ctx, t, r.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Debug().Strs("files", r.Files).Msg("no files matched, skipping")
		return nil
	}

	replacer := text.NewReplacer()
	for _, file := range files {
		content, err := t.ReadFile(ctx, file)
		if err != nil {
			return errors.Errorf("reading %s: %w", file, err)
		}

		result, err := replacer.ReplaceBytes(content, r.Rules)
		if err != nil {
			return errors.Errorf("replacing in %s: %w", file, err)
		}
		if !result.WasModified {
			continue
		}

		if err := t.WriteFile(ctx, file, result.ModifiedContent); err != nil {
			return errors.Errorf("writing %s: %w", file, err)
		}
		logger.Debug().
			Str("file", file).
			Int("replacements", result.ReplacementCount).
			Msg("replaced text")
	}
	return nil
}

// expandFiles resolves patterns against t and returns the sorted union.
func expandFiles(ctx context.Context, t tree.Tree, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := t.Glob(ctx, pattern)
		if err != nil {
			return nil, errors.WithStack(&PatternError{Pattern: pattern, Err: err})
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
