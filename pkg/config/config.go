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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/tree"
)

// DefaultFile is the manifest looked up when none is given.
const DefaultFile = ".synthrc.hcl"

// Step kinds.
const (
	KindCopy    = "copy"
	KindReplace = "replace"
	KindRename  = "rename"
)

// 🔌 Parser is the interface for manifest parsers
type Parser interface {
	// 📝 Parse parses the manifest from bytes
	Parse(ctx context.Context, data []byte) (*Manifest, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var parsers []Parser

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Manifest is an ordered set of steps applied to a working tree, plus
// the generated source trees those steps copy from.
type Manifest struct {
	Vars    map[string]string `json:"vars,omitempty" yaml:"vars,omitempty" toml:"vars,omitempty" hcl:"vars,optional"`
	Sources []Source          `json:"sources" yaml:"sources" toml:"sources" hcl:"source,block"`
	Steps   []Step            `json:"steps" yaml:"steps" toml:"steps" hcl:"step,block"`

	dir  string
	hash string
}

// 📦 Source is a named generated tree. Exactly one of Path, Archive, Git or
// GitHub is set.
type Source struct {
	Name    string        `json:"name" yaml:"name" toml:"name" hcl:"name,label"`
	Path    string        `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty" hcl:"path,optional"`
	Archive string        `json:"archive,omitempty" yaml:"archive,omitempty" toml:"archive,omitempty" hcl:"archive,optional"`
	Git     *GitSource    `json:"git,omitempty" yaml:"git,omitempty" toml:"git,omitempty" hcl:"git,block"`
	GitHub  *GitHubSource `json:"github,omitempty" yaml:"github,omitempty" toml:"github,omitempty" hcl:"github,block"`
}

// GitSource is a repository cloned at a ref.
type GitSource struct {
	URL string `json:"url" yaml:"url" toml:"url" hcl:"url"`
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty" toml:"ref,omitempty" hcl:"ref,optional"`
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty" hcl:"dir,optional"`
}

// GitHubSource is a directory of a GitHub repository fetched over the API.
type GitHubSource struct {
	Repo string `json:"repo" yaml:"repo" toml:"repo" hcl:"repo"`
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty" toml:"ref,omitempty" hcl:"ref,optional"`
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty" hcl:"path,optional"`
}

// Kind returns the source kind name.
func (s Source) Kind() string {
	switch {
	case s.Path != "":
		return "path"
	case s.Archive != "":
		return "archive"
	case s.Git != nil:
		return "git"
	case s.GitHub != nil:
		return "github"
	}
	return ""
}

// 🔧 Step is one manifest entry. Which fields apply depends on Kind:
//
//	copy:    From, Path, To, Merge, Excludes
//	replace: Files, Match, With or Transform, Literal
//	rename:  Old, New, Files, Entrypoints
type Step struct {
	Kind        string   `json:"kind" yaml:"kind" toml:"kind" hcl:"kind,label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" hcl:"description,optional"`
	ForEach     []string `json:"for_each,omitempty" yaml:"for_each,omitempty" toml:"for_each,omitempty" hcl:"for_each,optional"`

	From     string   `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty" hcl:"from,optional"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty" hcl:"path,optional"`
	To       string   `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty" hcl:"to,optional"`
	Merge    string   `json:"merge,omitempty" yaml:"merge,omitempty" toml:"merge,omitempty" hcl:"merge,optional"`
	Excludes []string `json:"excludes,omitempty" yaml:"excludes,omitempty" toml:"excludes,omitempty" hcl:"excludes,optional"`

	Files     []string `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty" hcl:"files,optional"`
	Match     string   `json:"match,omitempty" yaml:"match,omitempty" toml:"match,omitempty" hcl:"match,optional"`
	With      *string  `json:"with,omitempty" yaml:"with,omitempty" toml:"with,omitempty" hcl:"with,optional"`
	Literal   bool     `json:"literal,omitempty" yaml:"literal,omitempty" toml:"literal,omitempty" hcl:"literal,optional"`
	Transform string   `json:"transform,omitempty" yaml:"transform,omitempty" toml:"transform,omitempty" hcl:"transform,optional"`

	Old string `json:"old,omitempty" yaml:"old,omitempty" toml:"old,omitempty" hcl:"old,optional"`
	New string `json:"new,omitempty" yaml:"new,omitempty" toml:"new,omitempty" hcl:"new,optional"`
	// Entrypoints are rename files where every Old.new call is rewritten
	Entrypoints []string `json:"entrypoints,omitempty" yaml:"entrypoints,omitempty" toml:"entrypoints,omitempty" hcl:"entrypoints,optional"`
}

// 📝 String returns a short label for logs
func (s Step) String() string {
	if s.Description != "" {
		return fmt.Sprintf("%s: %s", s.Kind, s.Description)
	}
	switch s.Kind {
	case KindCopy:
		return fmt.Sprintf("copy %s:%s", s.From, s.Path)
	case KindReplace:
		return fmt.Sprintf("replace %q in %s", s.Match, strings.Join(s.Files, ", "))
	case KindRename:
		return fmt.Sprintf("rename %s -> %s", s.Old, s.New)
	}
	return s.Kind
}

// 🎯 Load reads, parses and validates the manifest at path
func Load(ctx context.Context, path string) (*Manifest, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading manifest: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	m, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Errorf("validating manifest: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving manifest path: %w", err)
	}
	m.dir = filepath.Dir(abs)
	m.hash = tree.Checksum(data)

	logger.Debug().Int("sources", len(m.Sources)).Int("steps", len(m.Steps)).Msg("manifest loaded")
	return m, nil
}

// Dir is the directory the manifest was loaded from. Empty for manifests
// that were not loaded from disk.
func (m *Manifest) Dir() string {
	return m.dir
}

// Hash is the sha256 of the manifest file.
func (m *Manifest) Hash() string {
	return m.hash
}

// Resolve makes p absolute relative to the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, filepath.FromSlash(p))
}

// Source returns the source declared under name.
func (m *Manifest) Source(name string) (Source, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// 🔍 Validate checks the manifest structure
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Sources))
	for i, s := range m.Sources {
		if s.Name == "" {
			return errors.Errorf("source %d: name is required", i)
		}
		if seen[s.Name] {
			return errors.Errorf("source %q: declared twice", s.Name)
		}
		seen[s.Name] = true
		if err := s.validate(); err != nil {
			return errors.Errorf("source %q: %w", s.Name, err)
		}
	}

	for i, step := range m.Steps {
		if err := step.validate(seen); err != nil {
			return errors.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
	}
	return nil
}

func (s Source) validate() error {
	kinds := 0
	for _, set := range []bool{s.Path != "", s.Archive != "", s.Git != nil, s.GitHub != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return errors.New("exactly one of path, archive, git or github is required")
	}
	if s.Git != nil && s.Git.URL == "" {
		return errors.New("git.url is required")
	}
	if s.GitHub != nil {
		if owner, name, ok := strings.Cut(s.GitHub.Repo, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return errors.Errorf("github.repo %q must be owner/name", s.GitHub.Repo)
		}
	}
	return nil
}

func (s Step) validate(sources map[string]bool) error {
	switch s.Kind {
	case KindCopy:
		if s.From == "" {
			return errors.New("from is required")
		}
		if !sources[s.From] && !strings.Contains(s.From, "{{") {
			return errors.Errorf("unknown source %q", s.From)
		}
		if s.Path == "" {
			return errors.New("path is required")
		}
	case KindReplace:
		if len(s.Files) == 0 {
			return errors.New("files is required")
		}
		if s.Match == "" {
			return errors.New("match is required")
		}
		if (s.With == nil) == (s.Transform == "") {
			return errors.New("exactly one of with or transform is required")
		}
		if s.Literal && s.Transform != "" {
			return errors.New("literal cannot be combined with transform")
		}
	case KindRename:
		if s.Old == "" || s.New == "" {
			return errors.New("old and new are required")
		}
		if len(s.Files) == 0 && len(s.Entrypoints) == 0 {
			return errors.New("files or entrypoints is required")
		}
	default:
		return errors.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}
