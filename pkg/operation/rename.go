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
	"regexp"
	"strings"

	"github.com/walteh/synthrc/pkg/text"
	"github.com/walteh/synthrc/pkg/tree"
)

// 🏷️ Rename renames the generated service module Old to New.
//
// In every file, `module Old` declaration lines and `Old.new(version:`
// client constructors are rewritten. Generated message classes may share
// the old name, so a bare `Old.new` is rewritten only in Entrypoints.
// Identifiers that only contain Old are left alone.
type Rename struct {
	Old         string
	New         string
	Files       []string // client, test and version entrypoint files
	Entrypoints []string // files where every Old.new call is the service module
	Label       string
}

var _ Operation = (*Rename)(nil)

// 🏭 NewRename creates a Rename over files and entrypoints
func NewRename(oldName, newName string, files, entrypoints []string) *Rename {
	return &Rename{Old: oldName, New: newName, Files: files, Entrypoints: entrypoints}
}

func (r *Rename) Describe() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("rename %s -> %s", r.Old, r.New)
}

// Replaces returns the replace operations the rename runs, in order
func (r *Rename) Replaces() []*Replace {
	quoted := regexp.QuoteMeta(r.Old)
	declaration := text.ReplacementRule{
		Pattern:     text.MustCompile(`(?m)^([ \t]*module[ \t]+)`+quoted+`([ \t]*)$`, false),
		Replacement: text.Template("${1}" + escapeDollar(r.New) + "${2}"),
	}
	clientConstructor := text.ReplacementRule{
		Pattern:     text.MustCompile(`\b`+quoted+`\.new\(version:`, false),
		Replacement: text.Literal(r.New + ".new(version:"),
	}
	constructor := text.ReplacementRule{
		Pattern:     text.MustCompile(`\b`+quoted+`\.new\b`, false),
		Replacement: text.Literal(r.New + ".new"),
	}

	var ops []*Replace
	if len(r.Files) > 0 {
		ops = append(ops, &Replace{Files: r.Files, Rules: []text.ReplacementRule{declaration, clientConstructor}})
	}
	if len(r.Entrypoints) > 0 {
		ops = append(ops, &Replace{Files: r.Entrypoints, Rules: []text.ReplacementRule{declaration, constructor}})
	}
	return ops
}

// 🏃 Execute applies the client rules and then the entrypoint rules
func (r *Rename) Execute(ctx context.Context, t tree.Tree) error {
	for _, op := range r.Replaces() {
		if err := op.Execute(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
