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

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cbroglie/mustache"
	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/merge"
	"github.com/walteh/synthrc/pkg/text"
	"github.com/walteh/synthrc/pkg/tree"
)

// 🏗️ Build turns manifest steps into operations, in order. sources maps each
// declared source name to its resolved tree. Every pattern and glob is
// compiled here so that a malformed one fails before any file is touched.
func Build(ctx context.Context, m *config.Manifest, sources map[string]tree.Tree) ([]Operation, error) {
	logger := zerolog.Ctx(ctx)

	var ops []Operation
	for i, step := range m.Steps {
		built, err := buildStep(m, step, sources)
		if err != nil {
			return nil, errors.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		ops = append(ops, built...)
	}

	logger.Debug().Int("steps", len(m.Steps)).Int("operations", len(ops)).Msg("built operations")
	return ops, nil
}

func buildStep(m *config.Manifest, step config.Step, sources map[string]tree.Tree) ([]Operation, error) {
	templated := len(step.ForEach) > 0 || len(m.Vars) > 0 || step.Kind == config.KindRename

	items := step.ForEach
	if len(items) == 0 {
		items = []string{""}
	}

	ops := make([]Operation, 0, len(items))
	for _, item := range items {
		r := renderer{enabled: templated, data: templateData(m.Vars, item)}

		var (
			op  Operation
			err error
		)
		switch step.Kind {
		case config.KindCopy:
			op, err = buildCopy(step, r, sources)
		case config.KindReplace:
			op, err = buildReplace(step, r)
		case config.KindRename:
			op, err = buildRename(step, r)
		default:
			err = errors.Errorf("unknown step kind %q", step.Kind)
		}
		if err != nil {
			if item != "" {
				return nil, errors.Errorf("item %q: %w", item, err)
			}
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func buildCopy(step config.Step, r renderer, sources map[string]tree.Tree) (Operation, error) {
	from, err := r.render(step.From)
	if err != nil {
		return nil, err
	}
	src, ok := sources[from]
	if !ok {
		return nil, errors.Errorf("source %q was not resolved", from)
	}

	c := &Copy{SourceName: from, Source: src}
	if c.Path, err = r.render(step.Path); err != nil {
		return nil, err
	}
	if c.To, err = r.render(step.To); err != nil {
		return nil, err
	}
	if hasMeta(c.Path) && !doublestar.ValidatePattern(c.Path) {
		return nil, errors.WithStack(&PatternError{Pattern: c.Path, Err: doublestar.ErrBadPattern})
	}
	if c.Excludes, err = r.renderAll(step.Excludes); err != nil {
		return nil, err
	}
	if err := validateGlobs(c.Excludes); err != nil {
		return nil, err
	}

	if step.Merge != "" {
		fn, ok := merge.Get(step.Merge)
		if !ok {
			return nil, errors.Errorf("unknown merge function %q (have %v)", step.Merge, merge.Names())
		}
		c.Merge = fn
		c.MergeName = step.Merge
	}

	c.Label = r.label(step, c.Describe())
	return c, nil
}

func buildReplace(step config.Step, r renderer) (Operation, error) {
	files, err := r.renderAll(step.Files)
	if err != nil {
		return nil, err
	}
	if err := validateGlobs(files); err != nil {
		return nil, err
	}

	match, err := r.render(step.Match)
	if err != nil {
		return nil, err
	}
	pattern, err := compileMatch(match, step.Literal)
	if err != nil {
		return nil, err
	}

	var replacement text.Replacement
	switch {
	case step.Transform != "":
		tr, ok := text.LookupTransform(step.Transform)
		if !ok {
			return nil, errors.Errorf("unknown transform %q (have %v)", step.Transform, text.TransformNames())
		}
		replacement = tr
	case step.With != nil:
		with, err := r.render(*step.With)
		if err != nil {
			return nil, err
		}
		if step.Literal {
			replacement = text.Literal(with)
		} else {
			replacement = text.Template(with)
		}
	default:
		return nil, errors.New("replace needs with or transform")
	}

	op := &Replace{
		Files: files,
		Rules: []text.ReplacementRule{{Pattern: pattern, Replacement: replacement}},
	}
	op.Label = r.label(step, op.Describe())
	return op, nil
}

func buildRename(step config.Step, r renderer) (Operation, error) {
	oldName, err := r.render(step.Old)
	if err != nil {
		return nil, err
	}
	newName, err := r.render(step.New)
	if err != nil {
		return nil, err
	}

	r.data["old"] = oldName
	r.data["new"] = newName
	r.data["old_snake"] = strcase.ToSnake(oldName)
	r.data["new_snake"] = strcase.ToSnake(newName)

	files, err := r.renderAll(step.Files)
	if err != nil {
		return nil, err
	}
	if err := validateGlobs(files); err != nil {
		return nil, err
	}
	entrypoints, err := r.renderAll(step.Entrypoints)
	if err != nil {
		return nil, err
	}
	if err := validateGlobs(entrypoints); err != nil {
		return nil, err
	}

	op := NewRename(oldName, newName, files, entrypoints)
	op.Label = r.label(step, op.Describe())
	return op, nil
}

// compileMatch compiles a manifest match. Regular expressions run in
// multi-line mode, so ^ and $ match at line boundaries.
func compileMatch(match string, literal bool) (*text.Pattern, error) {
	expr := match
	if !literal {
		expr = "(?m)" + match
	}
	pattern, err := text.Compile(expr, literal)
	if err != nil {
		return nil, errors.WithStack(&PatternError{Pattern: match, Err: err})
	}
	return pattern, nil
}

func validateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return errors.WithStack(&PatternError{Pattern: p, Err: doublestar.ErrBadPattern})
		}
	}
	return nil
}

func templateData(vars map[string]string, item string) map[string]any {
	data := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		data[k] = v
	}
	if item != "" {
		data["item"] = item
	}
	return data
}

// renderer expands mustache tags in step fields.
type renderer struct {
	enabled bool
	data    map[string]any
}

func (r renderer) render(s string) (string, error) {
	if !r.enabled || s == "" {
		return s, nil
	}
	out, err := mustache.RenderRaw(s, true, r.data)
	if err != nil {
		return "", errors.Errorf("rendering %q: %w", s, err)
	}
	return out, nil
}

func (r renderer) renderAll(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		rendered, err := r.render(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// label prefers the step description, tagged with the for_each item.
func (r renderer) label(step config.Step, fallback string) string {
	desc, err := r.render(step.Description)
	if err != nil || desc == "" {
		desc = fallback
	}
	if item, ok := r.data["item"].(string); ok && len(step.ForEach) > 0 {
		return fmt.Sprintf("%s [%s]", desc, item)
	}
	return desc
}
